package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"eligibility/internal"
)

var exportHeader = []any{
	internal.ColStudent, internal.ColRegistrationID, internal.ColCourse,
	internal.ColPresent, internal.ColOverall, internal.ColProgramme, internal.ColSection,
}

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, blob []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, blob, 0o644))
	return path
}

func TestParseXLSXSkipsTitleRows(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Attendance Report"},
		{"Session 2024-25"},
		exportHeader,
		{"Asha Roy", "R001", "Mathematics [MTH101]", 80, 85, "BCA", "A"},
		{},
		{nil, nil, "Physics [PHY101]", 70},
	})

	table, err := parseXLSX(blob)
	require.NoError(t, err)
	assert.Equal(t, internal.ColStudent, table.Header[0])
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "R001", table.Rows[0][1])
	assert.Equal(t, "", table.Rows[1][1])
	assert.Len(t, table.Rows[1], len(exportHeader))
}

func TestParseXLSXWithoutHeader(t *testing.T) {
	blob := mkXLSX([][]any{{"Name", "Qty"}, {"a", 1}})
	_, err := parseXLSX(blob)
	assert.ErrorIs(t, err, ErrDataFormat)
}

func TestLoadHTMLTableExport(t *testing.T) {
	html := `<html><body>
<table><tr><td>Report</td></tr></table>
<table>
<tr><th>Student</th><th>Registration Id</th><th>Course [Course Code]</th><th>Present %</th><th>Overall Present %</th><th>Programme</th><th>Programme Section</th></tr>
<tr><td>Asha Roy</td><td>R001</td><td>Mathematics [MTH101]</td><td>80</td><td>85</td><td>BCA</td><td>A</td></tr>
</table></body></html>`
	path := writeFile(t, "export.xls", []byte(html))

	table, err := LoadRawTable(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Mathematics [MTH101]", table.Rows[0][table.Index(internal.ColCourse)])
}

func TestLoadEMLAttachment(t *testing.T) {
	blob := mkXLSX([][]any{
		exportHeader,
		{"Asha Roy", "R001", "Mathematics [MTH101]", 80, 85, "BCA", "A"},
	})
	part, err := enmime.Builder().
		From("Registrar", "registrar@example.edu").
		To("Exams", "exams@example.edu").
		Subject("Attendance export").
		Text([]byte("attached")).
		AddAttachment(blob, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "attendance.xlsx").
		Build()
	require.NoError(t, err)
	var raw bytes.Buffer
	require.NoError(t, part.Encode(&raw))

	table, err := LoadRawTable(writeFile(t, "export.eml", raw.Bytes()))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Asha Roy", table.Rows[0][0])
}

func TestLoadRejectsUnsupportedInput(t *testing.T) {
	_, err := LoadRawTable(writeFile(t, "export.txt", []byte("Student,Registration Id\n")))
	assert.ErrorIs(t, err, ErrDataFormat)

	_, err = LoadRawTable(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, ErrDataFormat)
}

func TestParseXLSXReadsStoredPercentages(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &exportHeader))
	row := []any{"Asha Roy", "R001", "Mathematics [MTH101]", 74.6, 60.4, "BCA", "A"}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))
	// "0" number format displays 74.6 as 75
	style, err := f.NewStyle(&excelize.Style{NumFmt: 1})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "D2", "E2", style))
	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)

	raw, err := LoadRawTable(writeFile(t, "rounded.xlsx", buf.Bytes()))
	require.NoError(t, err)
	rows, _, err := CleanRows(raw)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 74.6, rows[0].PresentPct)
	assert.Equal(t, 60.4, rows[0].OverallPct)

	flagged := ApplyEligibility(Annotate(rows), DefaultThresholds())
	assert.False(t, flagged[0].SubjectEligible)
}
