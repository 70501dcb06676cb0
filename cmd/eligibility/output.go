package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"eligibility/internal"
	"eligibility/internal/config"
	"eligibility/internal/pipeline"
)

func printCatalog(w io.Writer, subjects []internal.Subject, stats pipeline.CleanStats) {
	fmt.Fprintln(w, color.CyanString("rows read=%d kept=%d dropped(missing)=%d dropped(non-numeric)=%d",
		stats.Read, stats.Kept, stats.DroppedMissing, stats.DroppedNumeric))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Name"})
	table.SetAutoWrapText(false)
	for _, s := range subjects {
		table.Append([]string{s.Code, s.Name})
	}
	table.Render()
}

func printSummaries(w io.Writer, summaries []internal.Summary, cfg config.Config) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Name", "Total", "Eligible", "Eligibility %"})
	table.SetAutoWrapText(false)
	for _, s := range summaries {
		table.Append([]string{
			s.Code,
			s.Name,
			strconv.Itoa(s.TotalStudents),
			strconv.Itoa(s.EligibleStudents),
			colorPct(s.EligibilityPct, cfg),
		})
	}
	table.Render()
}

// colorPct mirrors the Dashboard color scale on the console.
func colorPct(pct float64, cfg config.Config) string {
	text := strconv.FormatFloat(pct, 'f', 2, 64)
	switch {
	case pct >= cfg.ScaleHigh:
		return color.GreenString(text)
	case pct >= cfg.ScaleMid:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}

func printHistory(w io.Writer, runs []internal.RunRecord) {
	if len(runs) == 0 {
		color.New(color.FgYellow).Fprintln(w, "no runs recorded")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Created", "Status", "Input", "Subjects", "Thresholds", "Ms"})
	table.SetAutoWrapText(false)
	for _, r := range runs {
		status := color.GreenString(string(r.Status))
		if r.Status != internal.RunOK {
			status = color.RedString(string(r.Status))
		}
		table.Append([]string{
			r.ID,
			r.CreatedAt,
			status,
			r.Input,
			strconv.Itoa(len(r.Selected)),
			fmt.Sprintf("%g/%g", r.OverallThreshold, r.SubjectThreshold),
			strconv.FormatInt(r.DurationMs, 10),
		})
	}
	table.Render()
}

func printRunDetails(w io.Writer, run internal.RunRecord, cfg config.Config) {
	fmt.Fprintf(w, "run %s (%s) at %s\n", run.ID, run.Status, run.CreatedAt)
	fmt.Fprintf(w, "input: %s\noutput: %s\ncombine: %t\nselected: %s\n", run.Input, run.OutputDir, run.Combine, strings.Join(run.Selected, ", "))
	if run.Error != "" {
		fmt.Fprintln(w, color.RedString("error: %s", run.Error))
	}
	printSummaries(w, run.Summaries, cfg)
}
