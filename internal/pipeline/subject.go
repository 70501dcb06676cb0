package pipeline

import (
	"regexp"
	"strings"

	"eligibility/internal"
	"eligibility/internal/util"
)

var reCourseCode = regexp.MustCompile(`\[(.*?)\]`)

// ParseCourse splits a "<name> [<code>]" course field. The code is the first
// bracketed group and the name is the text before the first " [". Without a
// bracket, or without a closed bracket group, both are internal.UnknownSubject.
func ParseCourse(course string) (code, name string) {
	if !strings.Contains(course, "[") {
		return internal.UnknownSubject, internal.UnknownSubject
	}
	m := reCourseCode.FindStringSubmatch(course)
	if m == nil {
		return internal.UnknownSubject, internal.UnknownSubject
	}
	name, _, _ = strings.Cut(course, " [")
	return m[1], name
}

// Annotate attaches subject code, name and filesystem-safe code to each row.
// Eligibility flags are left false.
func Annotate(rows []internal.Row) []internal.AnnotatedRow {
	out := make([]internal.AnnotatedRow, len(rows))
	for i, row := range rows {
		code, name := ParseCourse(row.Course)
		out[i] = internal.AnnotatedRow{
			Row:             row,
			SubjectCode:     code,
			SubjectName:     name,
			SubjectCodeSafe: util.MakeSafe(code),
		}
	}
	return out
}

// Catalog lists distinct (code, name) pairs in first-seen order.
func Catalog(rows []internal.AnnotatedRow) []internal.Subject {
	seen := map[internal.Subject]struct{}{}
	out := []internal.Subject{}
	for _, row := range rows {
		s := row.Subject()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// FilterCatalog keeps subjects whose "code - name" label contains query, ignoring case.
func FilterCatalog(subjects []internal.Subject, query string) []internal.Subject {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return subjects
	}
	out := []internal.Subject{}
	for _, s := range subjects {
		if strings.Contains(strings.ToLower(s.Label()), q) {
			out = append(out, s)
		}
	}
	return out
}
