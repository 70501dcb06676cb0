package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"eligibility/internal"
	"eligibility/internal/util"
)

const DashboardSheet = "Dashboard"

var dataHeaders = []string{
	internal.ColStudent, internal.ColRegistrationID, internal.ColCourse,
	internal.ColPresent, internal.ColOverall, internal.ColProgramme, internal.ColSection,
}

var dashboardHeaders = []string{"Subject Code", "Subject Name", "Total_Students", "Eligible_Students", "Eligibility %"}

// ColorScale holds the red, yellow and green stops of the Dashboard
// eligibility percentage column.
type ColorScale struct {
	Low  float64
	Mid  float64
	High float64
}

func DefaultColorScale() ColorScale {
	return ColorScale{Low: 0, Mid: 60, High: 75}
}

// SubjectSheet is the eligible roster of one subject code.
type SubjectSheet struct {
	Code string
	Rows []internal.AnnotatedRow
}

// WriteWorkbook writes one data sheet per non-empty subject followed by the
// Dashboard sheet, and returns the data sheet names in order.
func WriteWorkbook(outputPath string, sheets []SubjectSheet, summaries []internal.Summary, scale ColorScale) ([]string, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E5E5E5"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	nonEmpty := make([]SubjectSheet, 0, len(sheets))
	for _, s := range sheets {
		if len(s.Rows) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	codes := make([]string, len(nonEmpty))
	for i, s := range nonEmpty {
		codes[i] = s.Code
	}
	names := SheetNames(codes)

	first := f.GetSheetName(0)
	used := false
	addSheet := func(name string) error {
		if !used {
			used = true
			return f.SetSheetName(first, name)
		}
		_, err := f.NewSheet(name)
		return err
	}

	for i, s := range nonEmpty {
		if err := addSheet(names[i]); err != nil {
			return nil, err
		}
		if err := writeDataSheet(f, names[i], s.Rows, headerStyle); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", names[i], err)
		}
	}

	if err := addSheet(DashboardSheet); err != nil {
		return nil, err
	}
	if err := writeDashboard(f, summaries, scale, headerStyle); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if idx, err := f.GetSheetIndex(DashboardSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, err
	}
	if err := f.SaveAs(outputPath); err != nil {
		return nil, err
	}
	return names, nil
}

// SheetNames maps subject codes to distinct worksheet names. Names are
// compared case-insensitively, as spreadsheet applications do, and never
// collide with the Dashboard sheet.
func SheetNames(codes []string) []string {
	used := map[string]bool{strings.ToLower(DashboardSheet): true}
	out := make([]string, len(codes))
	for i, code := range codes {
		base := util.SheetName(code)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf("~%d", n)
			name = util.Truncate(base, util.MaxSheetNameLen-len(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

// SortBySection returns a copy of rows ordered by programme section; rows
// within a section keep their order.
func SortBySection(rows []internal.AnnotatedRow) []internal.AnnotatedRow {
	out := append([]internal.AnnotatedRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out
}

func writeDataSheet(f *excelize.File, sheet string, rows []internal.AnnotatedRow, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &dataHeaders); err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{row.Student, row.RegistrationID, row.Course, row.PresentPct, row.OverallPct, row.Programme, row.Section}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(dataHeaders))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1), nil); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	widths := []float64{28, 18, 40, 12, 18, 16, 20}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func writeDashboard(f *excelize.File, summaries []internal.Summary, scale ColorScale, headerStyle int) error {
	if err := f.SetSheetRow(DashboardSheet, "A1", &dashboardHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(DashboardSheet, "A1", "E1", headerStyle); err != nil {
		return err
	}
	for i, s := range summaries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{s.Code, s.Name, s.TotalStudents, s.EligibleStudents, s.EligibilityPct}
		if err := f.SetSheetRow(DashboardSheet, cell, &values); err != nil {
			return err
		}
	}
	for _, w := range []struct {
		from, to string
		width    float64
	}{{"A", "A", 16}, {"B", "B", 40}, {"C", "E", 18}} {
		if err := f.SetColWidth(DashboardSheet, w.from, w.to, w.width); err != nil {
			return err
		}
	}

	if len(summaries) == 0 {
		return nil
	}
	last := len(summaries) + 1

	if err := f.AddChart(DashboardSheet, "G2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$D$1", DashboardSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", DashboardSheet, last),
			Values:     fmt.Sprintf("%s!$D$2:$D$%d", DashboardSheet, last),
		}},
		Title:     []excelize.RichTextRun{{Text: "Eligible Students per Subject"}},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Subject Code"}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Eligible Students"}}},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 360},
	}); err != nil {
		return err
	}

	return f.SetConditionalFormat(DashboardSheet, fmt.Sprintf("E2:E%d", last), []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "num",
		MidType:  "num",
		MaxType:  "num",
		MinValue: util.FormatNumber(scale.Low),
		MidValue: util.FormatNumber(scale.Mid),
		MaxValue: util.FormatNumber(scale.High),
		MinColor: "#F8696B",
		MidColor: "#FFEB84",
		MaxColor: "#63BE7B",
	}})
}
