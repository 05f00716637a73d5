package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
)

type correctionGateway interface {
	Insert(ctx context.Context, correction *models.GradeCorrection) error
	ListByStudent(ctx context.Context, studentID string, filter models.CorrectionFilter) ([]models.GradeCorrection, error)
	ListByStudentPaginated(ctx context.Context, studentID string, page, limit int, filter models.CorrectionFilter) ([]models.GradeCorrection, *models.Pagination, error)
	FindByID(ctx context.Context, correctionID, studentID string) (*models.GradeCorrection, error)
	UpdateStatus(ctx context.Context, correction *models.GradeCorrection) error
}

type gradeFinder interface {
	FindByID(ctx context.Context, gradeID, studentID string) (*models.Grade, error)
}

// CorrectionService runs the correction submission state machine and the
// derived summary queries. The eligibility and attempt checks are sequenced
// strictly before the gateway write; two near-simultaneous submissions can
// both pass the no-pending check before either write lands. That
// check-then-act window is a documented limitation of this layer, not
// something it locks around.
type CorrectionService struct {
	corrections correctionGateway
	grades      gradeFinder
	cache       *CacheService
	logger      *zap.Logger
}

// NewCorrectionService constructs CorrectionService.
func NewCorrectionService(corrections correctionGateway, grades gradeFinder, cache *CacheService, logger *zap.Logger) *CorrectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorrectionService{corrections: corrections, grades: grades, cache: cache, logger: logger}
}

func summaryCacheKey(studentID string) string {
	return fmt.Sprintf("corrections:summary:%s", studentID)
}

// SubmitGradeCorrection validates the request, confirms the target grade
// exists and is eligible, enforces the pending/attempt-cap rules, and only
// then delegates to the gateway. Any failed precondition stops the flow
// before the write.
func (s *CorrectionService) SubmitGradeCorrection(ctx context.Context, req models.CorrectionRequest) (*models.GradeCorrection, error) {
	if result := ValidateCorrectionRequest(req, ""); !result.Valid {
		return nil, appErrors.Validation(result.Errors)
	}

	grade, err := s.grades.FindByID(ctx, req.GradeID, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrGradeNotFound, "grade not found")
		}
		return nil, gatewayError(err, "failed to load grade")
	}

	if !IsGradeEligibleForCorrection(grade.Grade) {
		return nil, appErrors.Clone(appErrors.ErrCorrectionNotAllowed, "grade is not eligible for correction")
	}

	existing, err := s.corrections.ListByStudent(ctx, req.StudentID, models.CorrectionFilter{GradeID: req.GradeID})
	if err != nil {
		return nil, gatewayError(err, "failed to load correction history")
	}
	if !CanSubmitCorrection(existing, req.GradeID) {
		return nil, appErrors.Clone(appErrors.ErrCorrectionNotAllowed, "a correction for this grade is already pending")
	}
	if CorrectionAttempts(existing, req.GradeID) >= MaxCorrectionsPerGrade {
		return nil, appErrors.Clone(appErrors.ErrCorrectionNotAllowed, "maximum correction attempts reached for this grade")
	}

	correction, err := NewCorrectionRequest(req, grade.Grade, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.corrections.Insert(ctx, correction); err != nil {
		return nil, gatewayError(err, "failed to submit correction")
	}

	if err := s.cache.Invalidate(ctx, summaryCacheKey(req.StudentID)); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.String("student_id", req.StudentID), zap.Error(err))
	}

	s.logger.Info("correction submitted",
		zap.String("grade_id", correction.GradeID),
		zap.String("student_id", correction.StudentID),
		zap.String("requested_grade", string(correction.RequestedGrade)),
	)
	return correction, nil
}

// GetGradeCorrections lists the student's corrections, optionally filtered.
func (s *CorrectionService) GetGradeCorrections(ctx context.Context, studentID string, filter models.CorrectionFilter) ([]models.GradeCorrection, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	if filter.Status != "" && !models.IsValidCorrectionStatus(filter.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid correction status")
	}
	corrections, err := s.corrections.ListByStudent(ctx, studentID, filter)
	if err != nil {
		return nil, gatewayError(err, "failed to list corrections")
	}
	return corrections, nil
}

// GetGradeCorrectionsPaginated validates the page window before any I/O.
func (s *CorrectionService) GetGradeCorrectionsPaginated(ctx context.Context, studentID string, page, limit int, filter models.CorrectionFilter) ([]models.GradeCorrection, *models.Pagination, error) {
	if studentID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	if page < 1 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Page must be greater than 0")
	}
	if limit < 1 || limit > 100 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Limit must be between 1 and 100")
	}
	corrections, pagination, err := s.corrections.ListByStudentPaginated(ctx, studentID, page, limit, filter)
	if err != nil {
		return nil, nil, gatewayError(err, "failed to list corrections")
	}
	return corrections, pagination, nil
}

// GetCorrectionByID returns nil without an error when no correction matches.
func (s *CorrectionService) GetCorrectionByID(ctx context.Context, correctionID, studentID string) (*models.GradeCorrection, error) {
	if correctionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Correction ID is required")
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	correction, err := s.corrections.FindByID(ctx, correctionID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, gatewayError(err, "failed to load correction")
	}
	return correction, nil
}

// CanSubmitCorrection reports whether a new correction for the grade would
// currently be accepted, combining the pending check with the attempt cap.
func (s *CorrectionService) CanSubmitCorrection(ctx context.Context, gradeID, studentID string) (bool, error) {
	if gradeID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "Grade ID is required")
	}
	if studentID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	existing, err := s.corrections.ListByStudent(ctx, studentID, models.CorrectionFilter{GradeID: gradeID})
	if err != nil {
		return false, gatewayError(err, "failed to load correction history")
	}
	return CanSubmitNewCorrection(existing, gradeID), nil
}

// GetCorrectionAttempts counts every correction ever filed for the grade.
func (s *CorrectionService) GetCorrectionAttempts(ctx context.Context, gradeID, studentID string) (int, error) {
	if gradeID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "Grade ID is required")
	}
	if studentID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	existing, err := s.corrections.ListByStudent(ctx, studentID, models.CorrectionFilter{GradeID: gradeID})
	if err != nil {
		return 0, gatewayError(err, "failed to load correction history")
	}
	return CorrectionAttempts(existing, gradeID), nil
}

// GetCorrectionSummary derives the status counts and average processing
// days from a single fetch. Processing time is measured only over
// corrections that carry a review date.
func (s *CorrectionService) GetCorrectionSummary(ctx context.Context, studentID string) (*models.CorrectionSummary, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}

	key := summaryCacheKey(studentID)
	var cached models.CorrectionSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	corrections, err := s.corrections.ListByStudent(ctx, studentID, models.CorrectionFilter{})
	if err != nil {
		return nil, gatewayError(err, "failed to load corrections")
	}

	summary := buildCorrectionSummary(corrections)
	if err := s.cache.Set(ctx, key, summary, 0); err != nil {
		s.logger.Warn("summary cache write failed", zap.String("student_id", studentID), zap.Error(err))
	}
	return summary, nil
}

func buildCorrectionSummary(corrections []models.GradeCorrection) *models.CorrectionSummary {
	summary := &models.CorrectionSummary{TotalRequests: len(corrections)}
	var totalDays float64
	reviewed := 0
	for _, c := range corrections {
		switch c.Status {
		case models.CorrectionPending:
			summary.PendingRequests++
		case models.CorrectionApproved:
			summary.ApprovedRequests++
		case models.CorrectionRejected:
			summary.RejectedRequests++
		}
		if c.ReviewDate != nil {
			totalDays += c.ReviewDate.Sub(c.SubmissionDate).Hours() / 24
			reviewed++
		}
	}
	if reviewed > 0 {
		avg := totalDays / float64(reviewed)
		summary.AverageProcessingDays = math.Round(avg*100) / 100
	}
	return summary
}

// ReviewCorrection applies a status transition on behalf of registrar staff.
// The transition stamps the review date; re-reviewing an already reviewed
// correction re-stamps it.
func (s *CorrectionService) ReviewCorrection(ctx context.Context, correctionID, studentID string, newStatus models.CorrectionStatus) (*models.GradeCorrection, error) {
	if correctionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Correction ID is required")
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}

	correction, err := s.corrections.FindByID(ctx, correctionID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "correction not found")
		}
		return nil, gatewayError(err, "failed to load correction")
	}

	updated, err := UpdateCorrectionStatus(*correction, newStatus, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.corrections.UpdateStatus(ctx, &updated); err != nil {
		return nil, gatewayError(err, "failed to update correction")
	}

	if err := s.cache.Invalidate(ctx, summaryCacheKey(studentID)); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}

	s.logger.Info("correction reviewed",
		zap.String("correction_id", updated.ID),
		zap.String("status", string(updated.Status)),
	)
	return &updated, nil
}
