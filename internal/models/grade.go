package models

import "time"

// LetterGrade is one symbol of the fixed grading scale.
type LetterGrade string

const (
	GradeAPlus  LetterGrade = "A+"
	GradeA      LetterGrade = "A"
	GradeAMinus LetterGrade = "A-"
	GradeBPlus  LetterGrade = "B+"
	GradeB      LetterGrade = "B"
	GradeBMinus LetterGrade = "B-"
	GradeCPlus  LetterGrade = "C+"
	GradeC      LetterGrade = "C"
	GradeCMinus LetterGrade = "C-"
	GradeDPlus  LetterGrade = "D+"
	GradeD      LetterGrade = "D"
	GradeF      LetterGrade = "F"
	GradeI      LetterGrade = "I"
	GradeW      LetterGrade = "W"
)

// ValidGrades lists every symbol of the 14-grade scale in rank order.
var ValidGrades = []LetterGrade{
	GradeAPlus, GradeA, GradeAMinus,
	GradeBPlus, GradeB, GradeBMinus,
	GradeCPlus, GradeC, GradeCMinus,
	GradeDPlus, GradeD,
	GradeF, GradeI, GradeW,
}

// gradePoints maps letter grades to quality points on the 4.0 scale.
// Incomplete and withdrawn entries carry zero points and are excluded from
// GPA by the calculation layer.
var gradePoints = map[LetterGrade]float64{
	GradeAPlus:  4.0,
	GradeA:      4.0,
	GradeAMinus: 3.7,
	GradeBPlus:  3.3,
	GradeB:      3.0,
	GradeBMinus: 2.7,
	GradeCPlus:  2.3,
	GradeC:      2.0,
	GradeCMinus: 1.7,
	GradeDPlus:  1.3,
	GradeD:      1.0,
	GradeF:      0.0,
	GradeI:      0.0,
	GradeW:      0.0,
}

// passingGrades is the subset of the scale that earns credit.
var passingGrades = map[LetterGrade]struct{}{
	GradeAPlus: {}, GradeA: {}, GradeAMinus: {},
	GradeBPlus: {}, GradeB: {}, GradeBMinus: {},
	GradeCPlus: {}, GradeC: {}, GradeCMinus: {},
	GradeDPlus: {}, GradeD: {},
}

// IsValidGrade reports membership in the fixed grade scale.
func IsValidGrade(g LetterGrade) bool {
	_, ok := gradePoints[g]
	return ok
}

// IsPassingGrade reports whether the grade earns credit hours.
func IsPassingGrade(g LetterGrade) bool {
	_, ok := passingGrades[g]
	return ok
}

// GradePoints returns the quality points for a letter grade, 0 for symbols
// outside the scale.
func GradePoints(g LetterGrade) float64 {
	return gradePoints[g]
}

// Grade represents one completed or pending course record for a student.
// Records are immutable once persisted; corrections produce new
// GradeCorrection rows rather than edits.
type Grade struct {
	ID          string      `db:"id" json:"id"`
	CourseCode  string      `db:"course_code" json:"course_code"`
	CourseName  string      `db:"course_name" json:"course_name"`
	Grade       LetterGrade `db:"grade" json:"grade"`
	CreditHours int         `db:"credit_hours" json:"credit_hours"`
	Semester    string      `db:"semester" json:"semester"`
	StudentID   string      `db:"student_id" json:"student_id"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// GradeFilter captures the pass-through filters for grade listings.
type GradeFilter struct {
	Semester string
}

// SemesterGroup holds the grades of one semester, in fetch order.
type SemesterGroup struct {
	Semester string  `json:"semester"`
	Grades   []Grade `json:"grades"`
}

// GradeStatistics aggregates a student's grade history. Computed on demand,
// never stored.
type GradeStatistics struct {
	TotalCredits      int                 `json:"total_credits"`
	EarnedCredits     int                 `json:"earned_credits"`
	GPA               float64             `json:"gpa"`
	SemesterGPAs      map[string]float64  `json:"semester_gpas"`
	GradeDistribution map[LetterGrade]int `json:"grade_distribution"`
	PassingCount      int                 `json:"passing_count"`
	FailingCount      int                 `json:"failing_count"`
}
