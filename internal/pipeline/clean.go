package pipeline

import (
	"fmt"
	"strings"

	"eligibility/internal"
	"eligibility/internal/util"
)

var requiredColumns = []string{
	internal.ColRegistrationID,
	internal.ColStudent,
	internal.ColPresent,
	internal.ColCourse,
	internal.ColOverall,
}

type CleanStats struct {
	Read           int
	DroppedMissing int
	DroppedNumeric int
	Kept           int
}

// CleanRows forward-fills blank cells, drops incomplete rows and coerces the
// two percentage columns. Presence is checked before coercion so a missing
// course is reported as missing rather than as a numeric failure.
func CleanRows(raw RawTable) ([]internal.Row, CleanStats, error) {
	missing := []string{}
	for _, col := range requiredColumns {
		if raw.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, CleanStats{}, fmt.Errorf("%w: missing required columns: %s", ErrDataFormat, strings.Join(missing, ", "))
	}

	var (
		idxID        = raw.Index(internal.ColRegistrationID)
		idxStudent   = raw.Index(internal.ColStudent)
		idxPresent   = raw.Index(internal.ColPresent)
		idxCourse    = raw.Index(internal.ColCourse)
		idxOverall   = raw.Index(internal.ColOverall)
		idxProgramme = raw.Index(internal.ColProgramme)
		idxSection   = raw.Index(internal.ColSection)
	)

	stats := CleanStats{Read: len(raw.Rows)}
	out := make([]internal.Row, 0, len(raw.Rows))
	for _, cells := range forwardFill(raw) {
		if cells[idxID] == "" || cells[idxStudent] == "" || cells[idxPresent] == "" || cells[idxCourse] == "" {
			stats.DroppedMissing++
			continue
		}

		present, okPresent := util.ParsePercent(cells[idxPresent])
		overall, okOverall := util.ParsePercent(cells[idxOverall])
		if !okPresent || !okOverall {
			stats.DroppedNumeric++
			continue
		}

		out = append(out, internal.Row{
			Student:        cells[idxStudent],
			RegistrationID: cells[idxID],
			Course:         cells[idxCourse],
			PresentPct:     present,
			OverallPct:     overall,
			Programme:      cell(cells, idxProgramme),
			Section:        cell(cells, idxSection),
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// forwardFill returns a copy of the rows where each blank cell takes the
// nearest non-blank value above it in the same column.
func forwardFill(raw RawTable) [][]string {
	last := make([]string, len(raw.Header))
	out := make([][]string, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		filled := make([]string, len(raw.Header))
		for j := range filled {
			v := ""
			if j < len(row) {
				v = strings.TrimSpace(row[j])
			}
			if v == "" {
				v = last[j]
			} else {
				last[j] = v
			}
			filled[j] = v
		}
		out = append(out, filled)
	}
	return out
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}
