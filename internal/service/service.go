package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eligibility/internal"
	"eligibility/internal/config"
	"eligibility/internal/pipeline"
	"eligibility/internal/report"
	"eligibility/internal/storage"
)

// ReportService runs the eligibility pipeline for callers such as the CLI or
// a front-end worker goroutine and keeps a history of runs.
type ReportService struct {
	db  *storage.DB
	cfg config.Config
	log *slog.Logger
}

func NewReportService(db *storage.DB, cfg config.Config, log *slog.Logger) *ReportService {
	if log == nil {
		log = slog.Default()
	}
	return &ReportService{db: db, cfg: cfg, log: log}
}

type RunRequest struct {
	Input     string
	Codes     []string
	All       bool
	OutputDir string
	Combine   bool
	// Nil thresholds fall back to the configured values.
	OverallThreshold *float64
	SubjectThreshold *float64
}

type RunOutcome struct {
	ID           string
	WorkbookPath string
	PDFs         []string
	Summaries    []internal.Summary
}

func (s *ReportService) Catalog(path, search string) ([]internal.Subject, *pipeline.Table, error) {
	catalog, table, err := pipeline.ExtractCatalogWithLogger(path, s.log)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.FilterCatalog(catalog, search), table, nil
}

// Run loads the input, generates every report and records the run, failed
// or not. The returned error is the pipeline's; a history write failure is
// only logged.
func (s *ReportService) Run(ctx context.Context, req RunRequest) (RunOutcome, error) {
	start := time.Now()
	opts := s.options(req)
	run := internal.RunRecord{
		ID:               uuid.NewString(),
		Input:            req.Input,
		OutputDir:        s.outputDir(req),
		Combine:          req.Combine,
		OverallThreshold: opts.Thresholds.Overall,
		SubjectThreshold: opts.Thresholds.Subject,
	}
	log := s.log.With(slog.String("run_id", run.ID))
	opts.Logger = log

	outcome, err := s.generate(ctx, req, run.OutputDir, opts, &run)
	outcome.ID = run.ID

	run.DurationMs = time.Since(start).Milliseconds()
	run.Status = internal.RunOK
	if err != nil {
		run.Status = internal.RunFailed
		run.Error = err.Error()
		log.Error("run failed", slog.String("input", req.Input), slog.String("error", err.Error()))
	}
	if s.db != nil {
		if dbErr := s.db.InsertRun(run); dbErr != nil {
			log.Warn("run history not recorded", slog.String("error", dbErr.Error()))
		}
	}
	return outcome, err
}

func (s *ReportService) generate(ctx context.Context, req RunRequest, outputDir string, opts pipeline.Options, run *internal.RunRecord) (RunOutcome, error) {
	catalog, table, err := pipeline.ExtractCatalogWithLogger(req.Input, opts.Logger)
	if err != nil {
		return RunOutcome{}, err
	}

	codes := req.Codes
	if req.All {
		codes = make([]string, 0, len(catalog))
		for _, subj := range catalog {
			codes = append(codes, subj.Code)
		}
	}
	run.Selected = dedupe(codes)
	if err := ctx.Err(); err != nil {
		return RunOutcome{}, err
	}

	res, err := pipeline.GenerateReportsDetailed(table, run.Selected, outputDir, opts)
	run.WorkbookPath = res.WorkbookPath
	run.Summaries = res.Summaries
	if err != nil {
		return RunOutcome{PDFs: res.PDFs}, err
	}
	return RunOutcome{WorkbookPath: res.WorkbookPath, PDFs: res.PDFs, Summaries: res.Summaries}, nil
}

func (s *ReportService) History(limit int) ([]internal.RunRecord, error) {
	return s.db.ListRuns(limit)
}

func (s *ReportService) RunDetails(id string) (internal.RunRecord, error) {
	return s.db.MustRun(id)
}

func (s *ReportService) options(req RunRequest) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Combine = req.Combine
	opts.Thresholds = pipeline.Thresholds{Overall: s.cfg.OverallThreshold, Subject: s.cfg.SubjectThreshold}
	if req.OverallThreshold != nil {
		opts.Thresholds.Overall = *req.OverallThreshold
	}
	if req.SubjectThreshold != nil {
		opts.Thresholds.Subject = *req.SubjectThreshold
	}
	opts.Header = report.Header{Institution: s.cfg.ReportInstitution, Affiliation: s.cfg.ReportAffiliation}
	opts.Scale = report.ColorScale{Low: s.cfg.ScaleLow, Mid: s.cfg.ScaleMid, High: s.cfg.ScaleHigh}
	return opts
}

func (s *ReportService) outputDir(req RunRequest) string {
	if strings.TrimSpace(req.OutputDir) != "" {
		return req.OutputDir
	}
	return s.cfg.OutputDir
}

func dedupe(codes []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
