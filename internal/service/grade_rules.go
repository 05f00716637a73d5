package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
)

var (
	courseCodeRe = regexp.MustCompile(`^[A-Z]{2,4}[0-9]{3,4}$`)
	semesterRe   = regexp.MustCompile(`^(Fall|Spring|Summer) [0-9]{4}$`)
)

// ValidationResult carries the outcome of a field-level validation pass.
// Errors are ordered by field validation order and the result is
// deterministic for a given input.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func newValidationResult(errs []string) ValidationResult {
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateGradeData checks every field of a grade record and returns the
// complete list of violations in field order: course code, course name,
// grade, credit hours, semester, student id.
func ValidateGradeData(g models.Grade) ValidationResult {
	var errs []string
	if !courseCodeRe.MatchString(g.CourseCode) {
		errs = append(errs, "Course code must be 2-4 uppercase letters followed by 3-4 digits")
	}
	if n := len(strings.TrimSpace(g.CourseName)); n < 3 || n > 100 {
		errs = append(errs, "Course name must be between 3 and 100 characters")
	}
	if !models.IsValidGrade(g.Grade) {
		errs = append(errs, "Grade must be a valid grade")
	}
	if g.CreditHours < 1 || g.CreditHours > 6 {
		errs = append(errs, "Credit hours must be between 1 and 6")
	}
	if !semesterRe.MatchString(g.Semester) {
		errs = append(errs, "Semester must be in the format 'Fall YYYY', 'Spring YYYY' or 'Summer YYYY'")
	}
	if strings.TrimSpace(g.StudentID) == "" {
		errs = append(errs, "Student ID is required")
	}
	return newValidationResult(errs)
}

// NewGrade validates the payload and returns a fresh record with trimmed
// text fields. The ID stays empty until persistence assigns one; invalid
// payloads never partially construct.
func NewGrade(g models.Grade, now time.Time) (*models.Grade, error) {
	result := ValidateGradeData(g)
	if !result.Valid {
		return nil, appErrors.Validation(result.Errors)
	}
	grade := models.Grade{
		CourseCode:  strings.TrimSpace(g.CourseCode),
		CourseName:  strings.TrimSpace(g.CourseName),
		Grade:       g.Grade,
		CreditHours: g.CreditHours,
		Semester:    strings.TrimSpace(g.Semester),
		StudentID:   strings.TrimSpace(g.StudentID),
		CreatedAt:   now,
	}
	return &grade, nil
}

// countsTowardGPA excludes incomplete and withdrawn records from both the
// numerator and denominator of GPA.
func countsTowardGPA(g models.Grade) bool {
	return models.IsValidGrade(g.Grade) && g.Grade != models.GradeI && g.Grade != models.GradeW
}

// CalculateGPA computes the credit-weighted grade point average. Empty or
// fully excluded inputs yield 0; the result is not rounded.
func CalculateGPA(grades []models.Grade) float64 {
	var points float64
	var credits int
	for _, g := range grades {
		if !countsTowardGPA(g) {
			continue
		}
		points += CalculateQualityPoints(g)
		credits += g.CreditHours
	}
	if credits == 0 {
		return 0
	}
	return points / float64(credits)
}

// CalculateQualityPoints returns grade points times credit hours for one grade.
func CalculateQualityPoints(g models.Grade) float64 {
	return models.GradePoints(g.Grade) * float64(g.CreditHours)
}

// CalculateTotalCredits sums credit hours over every grade, including F, I
// and W entries.
func CalculateTotalCredits(grades []models.Grade) int {
	total := 0
	for _, g := range grades {
		total += g.CreditHours
	}
	return total
}

// CalculateEarnedCredits sums credit hours over passing grades only.
func CalculateEarnedCredits(grades []models.Grade) int {
	earned := 0
	for _, g := range grades {
		if models.IsPassingGrade(g.Grade) {
			earned += g.CreditHours
		}
	}
	return earned
}

// GroupGradesBySemester groups by the exact semester string, preserving the
// insertion order of each semester's first occurrence.
func GroupGradesBySemester(grades []models.Grade) []models.SemesterGroup {
	index := make(map[string]int, len(grades))
	groups := make([]models.SemesterGroup, 0)
	for _, g := range grades {
		i, ok := index[g.Semester]
		if !ok {
			i = len(groups)
			index[g.Semester] = i
			groups = append(groups, models.SemesterGroup{Semester: g.Semester})
		}
		groups[i].Grades = append(groups[i].Grades, g)
	}
	return groups
}
