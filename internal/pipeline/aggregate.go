package pipeline

import (
	"sort"

	"eligibility/internal"
	"eligibility/internal/util"
)

// Summarize counts distinct registration ids per (code, name), overall and
// among subject-eligible rows. Only codes in include are reported; a nil
// include reports every subject. Output is ordered by code, then name.
func Summarize(rows []internal.AnnotatedRow, include map[string]struct{}) []internal.Summary {
	total := map[internal.Subject]map[string]struct{}{}
	eligible := map[internal.Subject]map[string]struct{}{}

	for _, row := range rows {
		if include != nil {
			if _, ok := include[row.SubjectCode]; !ok {
				continue
			}
		}
		key := row.Subject()
		if total[key] == nil {
			total[key] = map[string]struct{}{}
			eligible[key] = map[string]struct{}{}
		}
		total[key][row.RegistrationID] = struct{}{}
		if row.SubjectEligible {
			eligible[key][row.RegistrationID] = struct{}{}
		}
	}

	keys := make([]internal.Subject, 0, len(total))
	for k := range total {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Code != keys[j].Code {
			return keys[i].Code < keys[j].Code
		}
		return keys[i].Name < keys[j].Name
	})

	out := make([]internal.Summary, 0, len(keys))
	for _, k := range keys {
		n := len(total[k])
		if n == 0 {
			continue
		}
		e := len(eligible[k])
		out = append(out, internal.Summary{
			Code:             k.Code,
			Name:             k.Name,
			TotalStudents:    n,
			EligibleStudents: e,
			EligibilityPct:   util.Round2(float64(e) / float64(n) * 100),
		})
	}
	return out
}
