package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eligibility/internal"
)

// twoStudents: A clears the overall bar but not the subject bar, B the reverse.
func twoStudents() []internal.AnnotatedRow {
	return Annotate([]internal.Row{
		{Student: "A", RegistrationID: "A1", Course: "MATH101 [MTH]", PresentPct: 50, OverallPct: 80},
		{Student: "B", RegistrationID: "B1", Course: "MATH101 [MTH]", PresentPct: 90, OverallPct: 60},
	})
}

func TestEligibilityOverride(t *testing.T) {
	rows := ApplyEligibility(twoStudents(), DefaultThresholds())

	assert.True(t, rows[0].EligibleForAll)
	assert.True(t, rows[0].SubjectEligible)
	assert.False(t, rows[1].EligibleForAll)
	assert.True(t, rows[1].SubjectEligible)
}

func TestEligibilityRaisedSubjectThreshold(t *testing.T) {
	rows := ApplyEligibility(twoStudents(), Thresholds{Overall: 75, Subject: 95})

	assert.True(t, rows[0].SubjectEligible)
	assert.False(t, rows[1].SubjectEligible)
}

func TestEligibilityInclusiveThresholds(t *testing.T) {
	rows := ApplyEligibility(Annotate([]internal.Row{
		{RegistrationID: "R1", Course: "X [X]", PresentPct: 10, OverallPct: 75},
		{RegistrationID: "R2", Course: "X [X]", PresentPct: 75, OverallPct: 10},
		{RegistrationID: "R3", Course: "X [X]", PresentPct: 74.99, OverallPct: 74.99},
	}), DefaultThresholds())

	assert.True(t, rows[0].SubjectEligible)
	assert.True(t, rows[1].SubjectEligible)
	assert.False(t, rows[2].SubjectEligible)
}

func TestEligibilityFirstOverallWins(t *testing.T) {
	rows := ApplyEligibility(Annotate([]internal.Row{
		{RegistrationID: "R1", Course: "X [X]", PresentPct: 10, OverallPct: 80},
		{RegistrationID: "R1", Course: "Y [Y]", PresentPct: 10, OverallPct: 50},
	}), DefaultThresholds())

	assert.True(t, rows[0].EligibleForAll)
	assert.True(t, rows[1].EligibleForAll)
	assert.True(t, rows[1].SubjectEligible)
}

func TestEligibilityLiteralThresholds(t *testing.T) {
	rows := ApplyEligibility(twoStudents(), Thresholds{Overall: 150, Subject: -5})
	for _, r := range rows {
		assert.False(t, r.EligibleForAll)
		assert.True(t, r.SubjectEligible)
	}
}

func TestEligibilityDoesNotMutateInput(t *testing.T) {
	in := twoStudents()
	_ = ApplyEligibility(in, DefaultThresholds())
	for _, r := range in {
		assert.False(t, r.SubjectEligible)
	}
}

func TestEligibilityProperties(t *testing.T) {
	rows := []internal.Row{}
	for i := 0; i < 60; i++ {
		rows = append(rows, internal.Row{
			RegistrationID: fmt.Sprintf("R%02d", i%20),
			Course:         fmt.Sprintf("Subject %d [S%d]", i%3, i%3),
			PresentPct:     float64((i * 37) % 101),
			OverallPct:     float64((i%20)*5 + 1),
		})
	}

	for _, th := range []Thresholds{{75, 75}, {50, 90}, {0, 100}, {100, 0}} {
		out := ApplyEligibility(Annotate(rows), th)
		require.Len(t, out, len(rows))

		firstOverall := map[string]float64{}
		for _, r := range out {
			if _, ok := firstOverall[r.RegistrationID]; !ok {
				firstOverall[r.RegistrationID] = r.OverallPct
			}
		}
		for _, r := range out {
			assert.Equal(t, firstOverall[r.RegistrationID] >= th.Overall, r.EligibleForAll)
			if r.SubjectEligible {
				assert.True(t, r.EligibleForAll || r.PresentPct >= th.Subject)
			} else {
				assert.False(t, r.EligibleForAll)
				assert.Less(t, r.PresentPct, th.Subject)
			}
		}
	}
}
