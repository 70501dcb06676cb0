package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"

	"eligibility/internal"
	"eligibility/internal/util"
)

// headerScanLimit bounds how far down a sheet the header row is searched for.
// Institutional exports often carry a few title rows above it.
const headerScanLimit = 10

// RawTable is the sheet as read: a header and string cells, blanks included.
type RawTable struct {
	Header []string
	Rows   [][]string
}

func (t RawTable) Index(column string) int {
	for i, h := range t.Header {
		if h == column {
			return i
		}
	}
	return -1
}

// LoadRawTable reads an attendance export from disk. Supported inputs are
// xlsx workbooks, HTML-table exports saved with an .xls extension, and .eml
// messages carrying either of those as an attachment.
func LoadRawTable(path string) (RawTable, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: read %s: %w", ErrDataFormat, path, err)
	}
	return parseTable(filepath.Base(path), blob)
}

func parseTable(name string, blob []byte) (RawTable, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".eml"):
		return parseEML(blob)
	case looksLikeHTML(blob):
		return parseHTMLTable(blob)
	case bytes.HasPrefix(blob, []byte("PK")):
		return parseXLSX(blob)
	default:
		return RawTable{}, fmt.Errorf("%w: unsupported input %q", ErrDataFormat, name)
	}
}

func parseXLSX(content []byte) (RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: open workbook: %w", ErrDataFormat, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		// stored values, not the number-formatted display text
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil || len(rows) == 0 {
			continue
		}
		if table, ok := tableFromRows(rows); ok {
			return table, nil
		}
	}
	return RawTable{}, fmt.Errorf("%w: no sheet with a %q header", ErrDataFormat, internal.ColRegistrationID)
}

func parseHTMLTable(content []byte) (RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: parse html: %w", ErrDataFormat, err)
	}

	var (
		table RawTable
		found bool
	)
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rows := [][]string{}
		sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cell.Text())
			})
			rows = append(rows, cells)
		})
		table, found = tableFromRows(rows)
		return !found
	})
	if !found {
		return RawTable{}, fmt.Errorf("%w: no html table with a %q header", ErrDataFormat, internal.ColRegistrationID)
	}
	return table, nil
}

func parseEML(raw []byte) (RawTable, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: read message: %w", ErrDataFormat, err)
	}

	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, att := range parts {
		lower := strings.ToLower(strings.TrimSpace(att.FileName))
		if !hasSpreadsheetExt(lower) {
			continue
		}
		return parseTable(att.FileName, att.Content)
	}
	return RawTable{}, fmt.Errorf("%w: message %q has no spreadsheet attachment", ErrDataFormat, env.GetHeader("Subject"))
}

func hasSpreadsheetExt(name string) bool {
	for _, ext := range []string{".xlsx", ".xlsm", ".xls", ".htm", ".html"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func looksLikeHTML(blob []byte) bool {
	head := bytes.TrimPrefix(blob, []byte("\xef\xbb\xbf"))
	head = bytes.TrimSpace(head)
	return bytes.HasPrefix(head, []byte("<"))
}

// tableFromRows locates the header row and returns the data rows below it,
// padded to the header width. Fully blank rows are skipped so they do not
// become forward-filled copies of their predecessor.
func tableFromRows(rows [][]string) (RawTable, bool) {
	headerIdx := -1
	for i := 0; i < len(rows) && i < headerScanLimit; i++ {
		for _, cell := range rows[i] {
			if util.NormalizeSpaces(cell) == internal.ColRegistrationID {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return RawTable{}, false
	}

	header := make([]string, len(rows[headerIdx]))
	for i, cell := range rows[headerIdx] {
		header[i] = util.NormalizeSpaces(cell)
	}

	out := RawTable{Header: header, Rows: make([][]string, 0, len(rows)-headerIdx-1)}
	for _, row := range rows[headerIdx+1:] {
		cells := make([]string, len(header))
		blank := true
		for i := 0; i < len(header) && i < len(row); i++ {
			cells[i] = strings.TrimSpace(row[i])
			if cells[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, true
}
