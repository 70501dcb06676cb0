package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"eligibility/internal/config"
	"eligibility/internal/service"
	"eligibility/internal/storage"
)

type app struct {
	cfg config.Config
	log *slog.Logger
	db  *storage.DB
}

// service opens the history database on first use.
func (a *app) service() (*service.ReportService, error) {
	if a.db == nil {
		db, err := storage.Open(a.cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.db = db
	}
	return service.NewReportService(a.db, a.cfg, a.log), nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func main() {
	cfg, err := config.Load()
	must(err)

	a := &app{cfg: cfg, log: cfg.NewLogger(os.Stderr)}
	slog.SetDefault(a.log)
	defer a.close()

	root := &cobra.Command{
		Use:           "eligibility",
		Short:         "Attendance eligibility rosters and workbook",
		Long:          "Reads an attendance export, decides per-subject exam eligibility and writes PDF rosters plus a workbook with a dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCatalogCommand(a),
		newRunCommand(a),
		newHistoryCommand(a),
		newInspectCommand(),
	)

	if err := root.Execute(); err != nil {
		a.close()
		must(err)
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
