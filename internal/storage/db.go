package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"eligibility/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  input TEXT NOT NULL,
  outputDir TEXT NOT NULL,
  workbookPath TEXT,
  combine INTEGER NOT NULL DEFAULT 0,
  overallThreshold REAL NOT NULL,
  subjectThreshold REAL NOT NULL,
  selectedJson TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT,
  durationMs INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_createdAt ON runs(createdAt);

CREATE TABLE IF NOT EXISTS run_subjects (
  runId TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  totalStudents INTEGER NOT NULL,
  eligibleStudents INTEGER NOT NULL,
  eligibilityPct REAL NOT NULL,
  PRIMARY KEY (runId, code, name),
  FOREIGN KEY(runId) REFERENCES runs(id)
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun stores a run and its subject summaries in one transaction.
func (d *DB) InsertRun(run internal.RunRecord) error {
	selected, err := json.Marshal(run.Selected)
	if err != nil {
		return err
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
INSERT INTO runs (
  id, input, outputDir, workbookPath, combine,
  overallThreshold, subjectThreshold, selectedJson, status, error, durationMs
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Input, run.OutputDir, nullString(run.WorkbookPath), boolInt(run.Combine),
		run.OverallThreshold, run.SubjectThreshold, string(selected), string(run.Status), nullString(run.Error), run.DurationMs); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO run_subjects (runId, code, name, totalStudents, eligibleStudents, eligibilityPct)
VALUES (?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range run.Summaries {
		if _, err := stmt.Exec(run.ID, s.Code, s.Name, s.TotalStudents, s.EligibleStudents, s.EligibilityPct); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first, without summaries.
func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, input, outputDir, workbookPath, combine, overallThreshold, subjectThreshold,
       selectedJson, status, error, durationMs, createdAt
FROM runs
ORDER BY createdAt DESC, rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) GetRun(id string) (*internal.RunRecord, error) {
	run, err := scanRun(d.conn.QueryRow(`
SELECT id, input, outputDir, workbookPath, combine, overallThreshold, subjectThreshold,
       selectedJson, status, error, durationMs, createdAt
FROM runs WHERE id = ?
`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.conn.Query(`
SELECT code, name, totalStudents, eligibleStudents, eligibilityPct
FROM run_subjects WHERE runId = ?
ORDER BY code, name
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s internal.Summary
		if err := rows.Scan(&s.Code, &s.Name, &s.TotalStudents, &s.EligibleStudents, &s.EligibilityPct); err != nil {
			return nil, err
		}
		run.Summaries = append(run.Summaries, s)
	}
	return &run, rows.Err()
}

func (d *DB) MustRun(id string) (internal.RunRecord, error) {
	run, err := d.GetRun(id)
	if err != nil {
		return internal.RunRecord{}, err
	}
	if run == nil {
		return internal.RunRecord{}, fmt.Errorf("run not found: %s", id)
	}
	return *run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (internal.RunRecord, error) {
	var (
		run          internal.RunRecord
		workbookPath sql.NullString
		errText      sql.NullString
		combine      int
		selectedJSON string
		status       string
	)
	if err := s.Scan(&run.ID, &run.Input, &run.OutputDir, &workbookPath, &combine,
		&run.OverallThreshold, &run.SubjectThreshold, &selectedJSON, &status, &errText,
		&run.DurationMs, &run.CreatedAt); err != nil {
		return internal.RunRecord{}, err
	}
	run.WorkbookPath = workbookPath.String
	run.Error = errText.String
	run.Combine = combine != 0
	run.Status = internal.RunStatus(status)
	if err := json.Unmarshal([]byte(selectedJSON), &run.Selected); err != nil {
		return internal.RunRecord{}, fmt.Errorf("run %s selected codes: %w", run.ID, err)
	}
	return run, nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
