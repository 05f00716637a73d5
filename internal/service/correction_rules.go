package service

import (
	"strings"
	"time"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
)

// MaxCorrectionsPerGrade caps the lifetime number of correction requests per
// grade, regardless of outcome. Rejections do not refund attempts.
const MaxCorrectionsPerGrade = 3

// ValidateReason enforces the 10-500 character bounds on the mandatory
// reason field. An empty reason short-circuits to the required message only.
func ValidateReason(reason string) ValidationResult {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return newValidationResult([]string{"Reason is required"})
	}
	var errs []string
	if len(trimmed) < 10 {
		errs = append(errs, "Reason must be at least 10 characters")
	}
	if len(trimmed) > 500 {
		errs = append(errs, "Reason must not exceed 500 characters")
	}
	return newValidationResult(errs)
}

// ValidateSupportingDetails enforces the 5-1000 character bounds on the
// optional details field. Empty or whitespace-only input passes.
func ValidateSupportingDetails(details string) ValidationResult {
	trimmed := strings.TrimSpace(details)
	if trimmed == "" {
		return newValidationResult(nil)
	}
	var errs []string
	if len(trimmed) < 5 {
		errs = append(errs, "Supporting details must be at least 5 characters")
	}
	if len(trimmed) > 1000 {
		errs = append(errs, "Supporting details must not exceed 1000 characters")
	}
	return newValidationResult(errs)
}

// ValidateRequestedGrade checks that the requested value is a member of the
// grade scale and differs from the current grade. Membership is checked
// before equality and both violations append independently; equality is only
// compared when a current grade is supplied.
func ValidateRequestedGrade(requested, current models.LetterGrade) ValidationResult {
	if requested == "" {
		return newValidationResult([]string{"Requested grade is required"})
	}
	var errs []string
	if !models.IsValidGrade(requested) {
		errs = append(errs, "Requested grade must be a valid grade")
	}
	if current != "" && requested == current {
		errs = append(errs, "Requested grade cannot be the same as current grade")
	}
	return newValidationResult(errs)
}

// ValidateCorrectionRequest aggregates every field validation of a
// submission payload into one ordered error list.
func ValidateCorrectionRequest(req models.CorrectionRequest, currentGrade models.LetterGrade) ValidationResult {
	var errs []string
	if strings.TrimSpace(req.GradeID) == "" {
		errs = append(errs, "Grade ID is required")
	}
	if strings.TrimSpace(req.StudentID) == "" {
		errs = append(errs, "Student ID is required")
	}
	errs = append(errs, ValidateReason(req.Reason).Errors...)
	errs = append(errs, ValidateSupportingDetails(req.SupportingDetails).Errors...)
	errs = append(errs, ValidateRequestedGrade(req.RequestedGrade, currentGrade).Errors...)
	return newValidationResult(errs)
}

// NewCorrectionRequest validates the payload and builds a pending correction
// with trimmed fields and a stamped submission date. Validation failure
// returns a typed error carrying the full rule list; the record is never
// partially constructed. The ID stays empty until persistence assigns one.
func NewCorrectionRequest(req models.CorrectionRequest, currentGrade models.LetterGrade, now time.Time) (*models.GradeCorrection, error) {
	result := ValidateCorrectionRequest(req, currentGrade)
	if !result.Valid {
		return nil, appErrors.Validation(result.Errors)
	}
	correction := models.GradeCorrection{
		GradeID:           strings.TrimSpace(req.GradeID),
		StudentID:         strings.TrimSpace(req.StudentID),
		RequestedGrade:    req.RequestedGrade,
		Reason:            strings.TrimSpace(req.Reason),
		SupportingDetails: strings.TrimSpace(req.SupportingDetails),
		Status:            models.CorrectionPending,
		SubmissionDate:    now,
	}
	return &correction, nil
}

// CanSubmitCorrection is false iff any existing correction for the grade is
// still pending. Approved and rejected histories do not block.
func CanSubmitCorrection(existing []models.GradeCorrection, gradeID string) bool {
	for _, c := range existing {
		if c.GradeID == gradeID && c.Status == models.CorrectionPending {
			return false
		}
	}
	return true
}

// CanResubmitCorrection looks at the most recent correction for the grade by
// submission date: resubmission is open when none exists or the latest was
// rejected.
func CanResubmitCorrection(existing []models.GradeCorrection, gradeID string) bool {
	var latest *models.GradeCorrection
	for i := range existing {
		c := &existing[i]
		if c.GradeID != gradeID {
			continue
		}
		if latest == nil || c.SubmissionDate.After(latest.SubmissionDate) {
			latest = c
		}
	}
	if latest == nil {
		return true
	}
	return latest.Status == models.CorrectionRejected
}

// CorrectionAttempts counts every correction for the grade, whatever its
// status.
func CorrectionAttempts(corrections []models.GradeCorrection, gradeID string) int {
	count := 0
	for _, c := range corrections {
		if c.GradeID == gradeID {
			count++
		}
	}
	return count
}

// CanSubmitNewCorrection requires both headroom under the attempt cap and no
// pending correction for the grade.
func CanSubmitNewCorrection(corrections []models.GradeCorrection, gradeID string) bool {
	return CorrectionAttempts(corrections, gradeID) < MaxCorrectionsPerGrade &&
		CanSubmitCorrection(corrections, gradeID)
}

// UpdateCorrectionStatus returns a copy of the correction with the new
// status applied. ReviewDate is stamped to now whenever the new status is
// not pending, even if the correction was reviewed before; moving back to
// pending clears it. The invariant is that ReviewDate is set iff the status
// has left pending.
func UpdateCorrectionStatus(c models.GradeCorrection, newStatus models.CorrectionStatus, now time.Time) (models.GradeCorrection, error) {
	if !models.IsValidCorrectionStatus(newStatus) {
		return models.GradeCorrection{}, appErrors.Clone(appErrors.ErrValidation, "invalid correction status")
	}
	updated := c
	updated.Status = newStatus
	if newStatus != models.CorrectionPending {
		updated.ReviewDate = &now
	} else {
		updated.ReviewDate = nil
	}
	return updated, nil
}

// IsGradeEligibleForCorrection excludes incomplete and withdrawn grades: only
// scale members with an actual letter value can be corrected.
func IsGradeEligibleForCorrection(g models.LetterGrade) bool {
	return models.IsValidGrade(g) && g != models.GradeI && g != models.GradeW
}
