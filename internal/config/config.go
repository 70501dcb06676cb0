package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	OverallThreshold float64
	SubjectThreshold float64

	ScaleLow  float64
	ScaleMid  float64
	ScaleHigh float64

	ReportInstitution string
	ReportAffiliation string

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		OverallThreshold: getEnvFloat("OVERALL_THRESHOLD", 75),
		SubjectThreshold: getEnvFloat("SUBJECT_THRESHOLD", 75),

		ScaleLow:  getEnvFloat("DASHBOARD_SCALE_LOW", 0),
		ScaleMid:  getEnvFloat("DASHBOARD_SCALE_MID", 60),
		ScaleHigh: getEnvFloat("DASHBOARD_SCALE_HIGH", 75),

		ReportInstitution: getEnv("REPORT_INSTITUTION", "NSHM Knowledge Campus, Durgapur"),
		ReportAffiliation: getEnv("REPORT_AFFILIATION", "Affiliated to MAKAUT, West Bengal"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.ScaleLow > cfg.ScaleMid || cfg.ScaleMid > cfg.ScaleHigh {
		return Config{}, fmt.Errorf("dashboard scale must be ascending: low=%g mid=%g high=%g", cfg.ScaleLow, cfg.ScaleMid, cfg.ScaleHigh)
	}

	return cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
