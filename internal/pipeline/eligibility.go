package pipeline

import "eligibility/internal"

type Thresholds struct {
	Overall float64
	Subject float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Overall: 75, Subject: 75}
}

// ApplyEligibility returns a copy of rows with both eligibility flags set.
//
// A student whose overall attendance reaches th.Overall is eligible in every
// subject. Otherwise each subject needs its own attendance to reach
// th.Subject. Both comparisons are inclusive. The overall percentage of the
// first row seen for a registration id is used for all of that student's rows.
func ApplyEligibility(rows []internal.AnnotatedRow, th Thresholds) []internal.AnnotatedRow {
	overall := map[string]float64{}
	for _, row := range rows {
		if _, ok := overall[row.RegistrationID]; !ok {
			overall[row.RegistrationID] = row.OverallPct
		}
	}

	out := make([]internal.AnnotatedRow, len(rows))
	for i, row := range rows {
		row.EligibleForAll = overall[row.RegistrationID] >= th.Overall
		row.SubjectEligible = row.EligibleForAll || row.PresentPct >= th.Subject
		out[i] = row
	}
	return out
}
