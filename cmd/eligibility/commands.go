package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"eligibility/internal/report"
	"eligibility/internal/service"
)

func newCatalogCommand(a *app) *cobra.Command {
	var input, search string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the subjects found in an attendance export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			subjects, table, err := svc.Catalog(input, search)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), subjects, table.Stats())
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "attendance export (.xlsx, html .xls or .eml)")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive filter on \"code - name\"")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	var (
		req     service.RunRequest
		codes   string
		overall float64
		subject float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate PDF rosters and the eligibility workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !req.All && strings.TrimSpace(codes) == "" {
				return fmt.Errorf("--codes or --all is required")
			}
			req.Codes = strings.Split(codes, ",")
			if cmd.Flags().Changed("overall") {
				req.OverallThreshold = &overall
			}
			if cmd.Flags().Changed("subject") {
				req.SubjectThreshold = &subject
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out, err := svc.Run(ctx, req)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSummaries(w, out.Summaries, a.cfg)
			fmt.Fprintf(w, "run %s done pdfs=%d workbook=%s\n", out.ID, len(out.PDFs), out.WorkbookPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Input, "input", "", "attendance export (.xlsx, html .xls or .eml)")
	cmd.Flags().StringVar(&req.OutputDir, "out", "", "output directory (default OUTPUT_DIR)")
	cmd.Flags().StringVar(&codes, "codes", "", "comma-separated subject codes")
	cmd.Flags().BoolVar(&req.All, "all", false, "report every subject in the export")
	cmd.Flags().BoolVar(&req.Combine, "combine", false, "write one combined PDF instead of one per subject")
	cmd.Flags().Float64Var(&overall, "overall", a.cfg.OverallThreshold, "overall attendance % that exempts a student")
	cmd.Flags().Float64Var(&subject, "subject", a.cfg.SubjectThreshold, "subject attendance % required otherwise")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var (
		limit int
		id    string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if id != "" {
				run, err := svc.RunDetails(id)
				if err != nil {
					return err
				}
				printRunDetails(w, run, a.cfg)
				return nil
			}
			runs, err := svc.History(limit)
			if err != nil {
				return err
			}
			printHistory(w, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	cmd.Flags().StringVar(&id, "id", "", "show the subject summaries of one run")
	return cmd
}

func newInspectCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the text of a generated PDF roster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := report.ReadPDFText(path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, page := range text.Text {
				fmt.Fprintf(w, "--- page %d/%d ---\n%s\n", i+1, text.Pages, page)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "pdf", "", "roster PDF path")
	_ = cmd.MarkFlagRequired("pdf")
	return cmd
}
