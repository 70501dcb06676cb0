package storage

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eligibility/internal"
)

func TestRunHistory(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "data", "app.db"))
	require.NoError(t, err)
	defer db.Close()

	ok := internal.RunRecord{
		ID:               uuid.NewString(),
		Input:            "attendance.xlsx",
		OutputDir:        "out",
		WorkbookPath:     "out/subjectwise_eligibility.xlsx",
		Combine:          true,
		OverallThreshold: 75,
		SubjectThreshold: 65,
		Selected:         []string{"MTH101", "PHY101"},
		Status:           internal.RunOK,
		DurationMs:       42,
		Summaries: []internal.Summary{
			{Code: "PHY101", Name: "Physics", TotalStudents: 3, EligibleStudents: 1, EligibilityPct: 33.33},
			{Code: "MTH101", Name: "Mathematics", TotalStudents: 2, EligibleStudents: 2, EligibilityPct: 100},
		},
	}
	require.NoError(t, db.InsertRun(ok))

	failed := internal.RunRecord{
		ID:               uuid.NewString(),
		Input:            "broken.xlsx",
		OutputDir:        "out",
		OverallThreshold: 75,
		SubjectThreshold: 75,
		Status:           internal.RunFailed,
		Error:            "data format error: missing required columns: Present %",
	}
	require.NoError(t, db.InsertRun(failed))

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, failed.ID, runs[0].ID)
	assert.Equal(t, internal.RunFailed, runs[0].Status)
	assert.Empty(t, runs[0].WorkbookPath)

	got, err := db.MustRun(ok.ID)
	require.NoError(t, err)
	assert.True(t, got.Combine)
	assert.Equal(t, []string{"MTH101", "PHY101"}, got.Selected)
	require.Len(t, got.Summaries, 2)
	assert.Equal(t, "MTH101", got.Summaries[0].Code)
	assert.Equal(t, 33.33, got.Summaries[1].EligibilityPct)

	missing, err := db.GetRun("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, err = db.MustRun("nope")
	assert.Error(t, err)
}

func TestMustRunCorruptSelection(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	run := internal.RunRecord{ID: uuid.NewString(), Input: "a.xlsx", OutputDir: "out", Status: internal.RunOK, Selected: []string{"MTH101"}}
	require.NoError(t, db.InsertRun(run))
	_, err = db.conn.Exec(`UPDATE runs SET selectedJson = 'MTH101' WHERE id = ?`, run.ID)
	require.NoError(t, err)

	_, err = db.MustRun(run.ID)
	assert.ErrorContains(t, err, "selected codes")
	_, err = db.ListRuns(5)
	assert.Error(t, err)
}
