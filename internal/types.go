package internal

// Input column names as they appear in the attendance export header.
const (
	ColStudent        = "Student"
	ColRegistrationID = "Registration Id"
	ColCourse         = "Course [Course Code]"
	ColPresent        = "Present %"
	ColOverall        = "Overall Present %"
	ColProgramme      = "Programme"
	ColSection        = "Programme Section"
)

// UnknownSubject is used for both code and name when a course has no bracketed code.
const UnknownSubject = "Unknown"

// Row is one cleaned attendance record: a student enrolled in one course.
type Row struct {
	Student        string
	RegistrationID string
	Course         string
	PresentPct     float64
	OverallPct     float64
	Programme      string
	Section        string
}

type Subject struct {
	Code string
	Name string
}

func (s Subject) Label() string {
	return s.Code + " - " + s.Name
}

type AnnotatedRow struct {
	Row
	SubjectCode     string
	SubjectName     string
	SubjectCodeSafe string
	EligibleForAll  bool
	SubjectEligible bool
}

func (r AnnotatedRow) Subject() Subject {
	return Subject{Code: r.SubjectCode, Name: r.SubjectName}
}

type Summary struct {
	Code             string
	Name             string
	TotalStudents    int
	EligibleStudents int
	EligibilityPct   float64
}

type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunFailed RunStatus = "failed"
)

type RunRecord struct {
	ID               string
	Input            string
	OutputDir        string
	WorkbookPath     string
	Combine          bool
	OverallThreshold float64
	SubjectThreshold float64
	Selected         []string
	Status           RunStatus
	Error            string
	DurationMs       int64
	CreatedAt        string
	Summaries        []Summary
}
