package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"eligibility/internal"
	"eligibility/internal/report"
)

const (
	WorkbookFileName = "subjectwise_eligibility.xlsx"
	pdfSuffix        = "_eligibility.pdf"
)

// Table is a cleaned attendance table. It is never modified after
// construction; Rows returns a copy.
type Table struct {
	rows  []internal.Row
	stats CleanStats
}

func NewTable(rows []internal.Row) *Table {
	return &Table{rows: append([]internal.Row(nil), rows...), stats: CleanStats{Read: len(rows), Kept: len(rows)}}
}

func (t *Table) Rows() []internal.Row {
	return append([]internal.Row(nil), t.rows...)
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Stats() CleanStats { return t.stats }

type Options struct {
	Combine    bool
	Thresholds Thresholds
	Header     report.Header
	Scale      report.ColorScale
	Logger     *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Thresholds: DefaultThresholds(),
		Scale:      report.DefaultColorScale(),
	}
}

type Result struct {
	WorkbookPath string
	Sheets       []string
	PDFs         []string
	Summaries    []internal.Summary
}

// ExtractCatalog loads and cleans the export at path and returns its subject
// catalog in first-seen order together with the cleaned table.
func ExtractCatalog(path string) ([]internal.Subject, *Table, error) {
	return ExtractCatalogWithLogger(path, slog.Default())
}

func ExtractCatalogWithLogger(path string, log *slog.Logger) ([]internal.Subject, *Table, error) {
	raw, err := LoadRawTable(path)
	if err != nil {
		return nil, nil, err
	}
	rows, stats, err := CleanRows(raw)
	if err != nil {
		return nil, nil, err
	}
	catalog := Catalog(Annotate(rows))
	log.Info("attendance export loaded",
		slog.String("path", path),
		slog.Int("rows_read", stats.Read),
		slog.Int("dropped_missing", stats.DroppedMissing),
		slog.Int("dropped_numeric", stats.DroppedNumeric),
		slog.Int("rows_kept", stats.Kept),
		slog.Int("subjects", len(catalog)))
	return catalog, &Table{rows: rows, stats: stats}, nil
}

// GenerateReports writes the PDF rosters and the workbook for the selected
// subject codes under outputDir and returns the workbook path.
func GenerateReports(table *Table, selected []string, outputDir string, opts Options) (string, error) {
	res, err := GenerateReportsDetailed(table, selected, outputDir, opts)
	if err != nil {
		return "", err
	}
	return res.WorkbookPath, nil
}

// session carries one invocation's state between stages.
type session struct {
	opts      Options
	log       *slog.Logger
	outputDir string
	selected  map[string]struct{}
	rows      []internal.AnnotatedRow
}

// GenerateReportsDetailed is GenerateReports returning everything written.
// Files written before a failure are left in place.
func GenerateReportsDetailed(table *Table, selected []string, outputDir string, opts Options) (Result, error) {
	if table == nil {
		return Result{}, fmt.Errorf("%w: no table loaded", ErrDataFormat)
	}
	s := &session{opts: opts, log: opts.Logger, outputDir: outputDir, selected: map[string]struct{}{}}
	if s.log == nil {
		s.log = slog.Default()
	}
	for _, code := range selected {
		s.selected[code] = struct{}{}
	}
	if len(s.selected) == 0 {
		return Result{}, ErrEmptySelection
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	start := time.Now()
	s.rows = ApplyEligibility(Annotate(table.Rows()), opts.Thresholds)
	res := Result{Summaries: Summarize(s.rows, s.selected)}

	rosters := s.eligibleRosters()
	pdfs, err := s.writePDFs(rosters)
	res.PDFs = pdfs
	if err != nil {
		return res, err
	}

	res.WorkbookPath = filepath.Join(outputDir, WorkbookFileName)
	sheets := make([]report.SubjectSheet, 0, len(rosters))
	for _, r := range rosters {
		sheets = append(sheets, report.SubjectSheet{Code: r.Code, Rows: r.Rows})
	}
	res.Sheets, err = report.WriteWorkbook(res.WorkbookPath, sheets, res.Summaries, opts.Scale)
	if err != nil {
		return res, fmt.Errorf("%w: write %s: %w", ErrFilesystem, res.WorkbookPath, err)
	}

	s.log.Info("reports generated",
		slog.String("output_dir", outputDir),
		slog.Int("selected", len(s.selected)),
		slog.Int("subjects", len(res.Summaries)),
		slog.Int("sheets", len(res.Sheets)),
		slog.Int("pdfs", len(res.PDFs)),
		slog.Bool("combine", opts.Combine),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// eligibleRosters returns, per selected code in first-seen order, the
// subject-eligible rows sorted by programme section. Codes without eligible
// rows are omitted.
func (s *session) eligibleRosters() []report.SubjectRows {
	index := map[string]int{}
	out := []report.SubjectRows{}
	for _, row := range s.rows {
		if _, ok := s.selected[row.SubjectCode]; !ok || !row.SubjectEligible {
			continue
		}
		i, ok := index[row.SubjectCode]
		if !ok {
			i = len(out)
			index[row.SubjectCode] = i
			out = append(out, report.SubjectRows{Code: row.SubjectCode, Name: row.SubjectName})
		}
		out[i].Rows = append(out[i].Rows, row)
	}
	for i := range out {
		out[i].Rows = report.SortBySection(out[i].Rows)
	}
	return out
}

func (s *session) writePDFs(rosters []report.SubjectRows) ([]string, error) {
	header := s.opts.Header
	if s.opts.Combine {
		path := filepath.Join(s.outputDir, report.CombinedName+".pdf")
		ok, err := report.WriteCombinedPDF(path, header, rosters)
		if err != nil {
			return nil, fmt.Errorf("%w: write %s: %w", ErrFilesystem, path, err)
		}
		if !ok {
			return nil, nil
		}
		return []string{path}, nil
	}

	written := make([]string, 0, len(rosters))
	for _, r := range rosters {
		path := filepath.Join(s.outputDir, pdfFileStem(r)+pdfSuffix)
		ok, err := report.WriteSubjectPDF(path, header, r)
		if err != nil {
			return written, fmt.Errorf("%w: write %s: %w", ErrFilesystem, path, err)
		}
		if ok {
			s.log.Debug("roster written", slog.String("code", r.Code), slog.Int("rows", len(r.Rows)), slog.String("path", path))
			written = append(written, path)
		}
	}
	return written, nil
}

func pdfFileStem(r report.SubjectRows) string {
	if len(r.Rows) > 0 && r.Rows[0].SubjectCodeSafe != "" {
		return r.Rows[0].SubjectCodeSafe
	}
	return internal.UnknownSubject
}
