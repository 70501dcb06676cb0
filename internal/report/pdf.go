package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-pdf/fpdf"

	"eligibility/internal"
	"eligibility/internal/util"
)

// Page geometry in points, A4 portrait.
const (
	marginLeft   = 40.0
	marginRight  = 40.0
	marginTop    = 60.0
	marginBottom = 40.0

	cellPad     = 4.0
	bodyLineH   = 11.0
	headerLineH = 12.0
	sectionGapH = 16.0
)

// CombinedName is the file stem of the combined roster.
const CombinedName = "Combined_Subject_Report"

var rosterColumns = []string{internal.ColStudent, internal.ColRegistrationID, internal.ColPresent, internal.ColOverall}

type Header struct {
	Institution string
	Affiliation string
}

// SubjectRows is the eligible roster of one subject.
type SubjectRows struct {
	Code string
	Name string
	Rows []internal.AnnotatedRow
}

// Partition is one (Programme, Section) block of a roster.
type Partition struct {
	Programme string
	Section   string
	Rows      []internal.AnnotatedRow
}

// Partitions groups rows by (Programme, Section), ordered by section and then
// programme. Rows keep their input order inside a partition.
func Partitions(rows []internal.AnnotatedRow) []Partition {
	type key struct{ programme, section string }
	index := map[key]int{}
	out := []Partition{}
	for _, row := range rows {
		k := key{row.Programme, row.Section}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Partition{Programme: row.Programme, Section: row.Section})
		}
		out[i].Rows = append(out[i].Rows, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Programme < out[j].Programme
	})
	return out
}

// WriteSubjectPDF renders the roster of one subject. It writes nothing and
// returns false when the roster is empty.
func WriteSubjectPDF(path string, header Header, subject SubjectRows) (bool, error) {
	if len(subject.Rows) == 0 {
		return false, nil
	}
	doc := newRoster(header)
	doc.title("Subject Code: " + subject.Code)
	doc.subjectBody(subject.Rows)
	return true, doc.save(path)
}

// WriteCombinedPDF renders several subjects into one document, each subject
// starting on a new page under its own heading. Empty subjects are skipped;
// nothing is written when all are empty.
func WriteCombinedPDF(path string, header Header, subjects []SubjectRows) (bool, error) {
	nonEmpty := make([]SubjectRows, 0, len(subjects))
	for _, s := range subjects {
		if len(s.Rows) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return false, nil
	}

	doc := newRoster(header)
	doc.title(fmt.Sprintf("Combined Report: %d subjects", len(nonEmpty)))
	for i, s := range nonEmpty {
		if i > 0 {
			doc.pdf.AddPage()
		}
		doc.subjectHeading(s)
		doc.subjectBody(s.Rows)
	}
	return true, doc.save(path)
}

type roster struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	header Header
	width  float64
	pageH  float64
}

func newRoster(header Header) *roster {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-marginBottom + 10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	w, h := pdf.GetPageSize()
	r := &roster{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		header: header,
		width:  w - marginLeft - marginRight,
		pageH:  h,
	}
	pdf.AddPage()
	return r
}

func (r *roster) title(subtitle string) {
	lines := []struct {
		text  string
		style string
	}{
		{r.header.Institution, "B"},
		{r.header.Affiliation, ""},
		{"Subject Eligibility Report", "B"},
		{subtitle, "B"},
	}
	for _, l := range lines {
		if l.text == "" {
			continue
		}
		r.pdf.SetFont("Helvetica", l.style, 14)
		r.pdf.CellFormat(r.width, 18, r.tr(l.text), "", 1, "C", false, 0, "")
	}
	r.pdf.Ln(30)
}

func (r *roster) subjectHeading(s SubjectRows) {
	text := "Subject: " + s.Code
	if s.Name != "" && s.Name != s.Code {
		text += " - " + s.Name
	}
	r.pdf.SetFont("Helvetica", "B", 13)
	r.pdf.MultiCell(r.width, 16, r.tr(text), "", "L", false)
	r.pdf.Ln(6)
}

func (r *roster) subjectBody(rows []internal.AnnotatedRow) {
	for i, part := range Partitions(rows) {
		if i > 0 {
			r.pdf.AddPage()
		}
		r.section(part)
	}
}

func (r *roster) section(part Partition) {
	// keep the section title with its table header and first row
	need := 12 + 14 + 8 + (headerLineH + 2*cellPad) + (bodyLineH + 2*cellPad)
	if r.pdf.GetY()+need > r.pageH-marginBottom {
		r.pdf.AddPage()
	}
	r.pdf.Ln(12)
	r.pdf.SetFont("Helvetica", "B", 12)
	r.pdf.MultiCell(r.width, 14, r.tr(fmt.Sprintf("Programme: %s | Section: %s", part.Programme, part.Section)), "", "L", false)
	r.pdf.Ln(8)

	r.tableHeader()
	for i, row := range part.Rows {
		cells := []string{
			row.Student,
			row.RegistrationID,
			util.FormatNumber(row.PresentPct),
			util.FormatNumber(row.OverallPct),
		}
		r.tableRow(cells, i%2 == 1)
	}
	r.pdf.Ln(sectionGapH)
}

func (r *roster) tableHeader() {
	r.pdf.SetFont("Helvetica", "B", 10)
	r.pdf.SetFillColor(0xE5, 0xE5, 0xE5)
	r.drawRow(rosterColumns, headerLineH, "C", true)
}

func (r *roster) tableRow(cells []string, shaded bool) {
	r.pdf.SetFont("Helvetica", "", 9)
	h := r.rowHeight(cells, bodyLineH)
	if r.pdf.GetY()+h > r.pageH-marginBottom {
		r.pdf.AddPage()
		r.tableHeader()
		r.pdf.SetFont("Helvetica", "", 9)
	}
	if shaded {
		r.pdf.SetFillColor(0xF9, 0xF9, 0xF9)
	} else {
		r.pdf.SetFillColor(0xFF, 0xFF, 0xFF)
	}
	r.drawRow(cells, bodyLineH, "L", true)
}

func (r *roster) colWidth() float64 {
	return r.width / float64(len(rosterColumns))
}

func (r *roster) splitCell(text string) [][]byte {
	lines := r.pdf.SplitLines([]byte(r.tr(text)), r.colWidth()-2*cellPad)
	if len(lines) == 0 {
		return [][]byte{{}}
	}
	return lines
}

func (r *roster) rowHeight(cells []string, lineH float64) float64 {
	maxLines := 1
	for _, c := range cells {
		if n := len(r.splitCell(c)); n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*lineH + 2*cellPad
}

// drawRow draws one table row with wrapped cells of equal height. The font
// and fill color must be set by the caller.
func (r *roster) drawRow(cells []string, lineH float64, align string, fill bool) {
	h := r.rowHeight(cells, lineH)
	colW := r.colWidth()
	x, y := marginLeft, r.pdf.GetY()

	style := "D"
	if fill {
		style = "FD"
	}
	r.pdf.SetDrawColor(128, 128, 128)
	r.pdf.SetLineWidth(0.4)
	for i, c := range cells {
		cx := x + float64(i)*colW
		r.pdf.Rect(cx, y, colW, h, style)
		for k, line := range r.splitCell(c) {
			r.pdf.SetXY(cx+cellPad, y+cellPad+float64(k)*lineH)
			r.pdf.CellFormat(colW-2*cellPad, lineH, string(line), "", 0, align, false, 0, "")
		}
	}
	r.pdf.SetXY(marginLeft, y+h)
}

func (r *roster) save(path string) error {
	if err := r.pdf.Error(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return r.pdf.OutputFileAndClose(path)
}
