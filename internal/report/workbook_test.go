package report

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"eligibility/internal"
)

func TestSheetNames(t *testing.T) {
	long := strings.Repeat("A", 40)
	names := SheetNames([]string{"MTH101", "mth101", "dashboard", long, long, "CS/101"})

	assert.Equal(t, "MTH101", names[0])
	assert.Equal(t, "mth101~2", names[1])
	assert.Equal(t, "dashboard~2", names[2])
	assert.Equal(t, strings.Repeat("A", 31), names[3])
	assert.Equal(t, strings.Repeat("A", 29)+"~2", names[4])
	assert.Equal(t, "CS_101", names[5])
	for _, n := range names {
		assert.LessOrEqual(t, len(n), 31)
	}
}

func TestSortBySection(t *testing.T) {
	rows := append(append(eligibleRows(1, "BCA", "C"), eligibleRows(1, "BSc", "A")...), eligibleRows(1, "BCA", "A")...)
	rows[2].Student = "last A"

	sorted := SortBySection(rows)
	assert.Equal(t, "A", sorted[0].Section)
	assert.Equal(t, "BSc", sorted[0].Programme)
	assert.Equal(t, "last A", sorted[1].Student)
	assert.Equal(t, "C", rows[0].Section)
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "subjectwise_eligibility.xlsx")
	sheets := []SubjectSheet{
		{Code: "MTH101", Rows: eligibleRows(2, "BCA", "A")},
		{Code: "PHY101"},
	}
	summaries := []internal.Summary{
		{Code: "MTH101", Name: "Mathematics", TotalStudents: 4, EligibleStudents: 2, EligibilityPct: 50},
		{Code: "PHY101", Name: "Physics", TotalStudents: 3, EligibleStudents: 0, EligibilityPct: 0},
	}

	names, err := WriteWorkbook(path, sheets, summaries, ColorScale{Low: 0, Mid: 50, High: 80})
	require.NoError(t, err)
	assert.Equal(t, []string{"MTH101"}, names)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"MTH101", DashboardSheet}, f.GetSheetList())

	rows, err := f.GetRows("MTH101")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, dataHeaders, rows[0])
	assert.Equal(t, "76.5", rows[1][4])

	dash, err := f.GetRows(DashboardSheet)
	require.NoError(t, err)
	require.Len(t, dash, 3)
	assert.Equal(t, "PHY101", dash[2][0])

	formats, err := f.GetConditionalFormats(DashboardSheet)
	require.NoError(t, err)
	require.Len(t, formats["E2:E3"], 1)
	cf := formats["E2:E3"][0]
	assert.Equal(t, "3_color_scale", cf.Type)
	assert.Equal(t, "50", cf.MidValue)
	assert.Equal(t, "80", cf.MaxValue)

	chart := readZipEntry(t, path, "xl/charts/chart1.xml")
	assert.Contains(t, chart, "<c:barChart>")
	assert.Contains(t, chart, "Dashboard!$D$2:$D$3")
	assert.Contains(t, chart, "Dashboard!$A$2:$A$3")
}

func readZipEntry(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, file := range zr.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b)
	}
	t.Fatalf("%s not found in %s", name, path)
	return ""
}

func TestWriteWorkbookDashboardOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	names, err := WriteWorkbook(path, nil, nil, DefaultColorScale())
	require.NoError(t, err)
	assert.Empty(t, names)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{DashboardSheet}, f.GetSheetList())
}
