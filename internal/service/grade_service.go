package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
)

type gradeGateway interface {
	ListByStudent(ctx context.Context, studentID string, filter models.GradeFilter) ([]models.Grade, error)
	ListByStudentPaginated(ctx context.Context, studentID string, page, limit int, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error)
	FindByID(ctx context.Context, gradeID, studentID string) (*models.Grade, error)
}

// GradeService orchestrates grade queries and derived statistics. It holds
// no state beyond its injected dependencies, so concurrent calls from
// independent requests are safe by construction.
type GradeService struct {
	grades gradeGateway
	cache  *CacheService
	logger *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeGateway, cache *CacheService, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, cache: cache, logger: logger}
}

func statisticsCacheKey(studentID string) string {
	return fmt.Sprintf("grades:stats:%s", studentID)
}

// GetStudentGrades returns the student's full grade history, optionally
// filtered by semester.
func (s *GradeService) GetStudentGrades(ctx context.Context, studentID string, filter models.GradeFilter) ([]models.Grade, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	grades, err := s.grades.ListByStudent(ctx, studentID, filter)
	if err != nil {
		return nil, gatewayError(err, "failed to list grades")
	}
	return grades, nil
}

// GetStudentGradesPaginated validates the page window before any I/O.
func (s *GradeService) GetStudentGradesPaginated(ctx context.Context, studentID string, page, limit int, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	if studentID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	if page < 1 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Page must be greater than 0")
	}
	if limit < 1 || limit > 100 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Limit must be between 1 and 100")
	}
	grades, pagination, err := s.grades.ListByStudentPaginated(ctx, studentID, page, limit, filter)
	if err != nil {
		return nil, nil, gatewayError(err, "failed to list grades")
	}
	return grades, pagination, nil
}

// GetGradeByID returns nil without an error when no grade matches.
func (s *GradeService) GetGradeByID(ctx context.Context, gradeID, studentID string) (*models.Grade, error) {
	if gradeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Grade ID is required")
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	grade, err := s.grades.FindByID(ctx, gradeID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, gatewayError(err, "failed to load grade")
	}
	return grade, nil
}

// CalculateGPA fetches the student's grades, optionally scoped to one
// semester, and delegates to the calculation rules.
func (s *GradeService) CalculateGPA(ctx context.Context, studentID, semester string) (float64, error) {
	grades, err := s.GetStudentGrades(ctx, studentID, models.GradeFilter{Semester: semester})
	if err != nil {
		return 0, err
	}
	return CalculateGPA(grades), nil
}

// GetTotalCredits sums credit hours over the full history.
func (s *GradeService) GetTotalCredits(ctx context.Context, studentID string) (int, error) {
	grades, err := s.GetStudentGrades(ctx, studentID, models.GradeFilter{})
	if err != nil {
		return 0, err
	}
	return CalculateTotalCredits(grades), nil
}

// GetEarnedCredits sums credit hours over passing grades.
func (s *GradeService) GetEarnedCredits(ctx context.Context, studentID string) (int, error) {
	grades, err := s.GetStudentGrades(ctx, studentID, models.GradeFilter{})
	if err != nil {
		return 0, err
	}
	return CalculateEarnedCredits(grades), nil
}

// GetGradesBySemester groups the history by semester label.
func (s *GradeService) GetGradesBySemester(ctx context.Context, studentID string) ([]models.SemesterGroup, error) {
	grades, err := s.GetStudentGrades(ctx, studentID, models.GradeFilter{})
	if err != nil {
		return nil, err
	}
	return GroupGradesBySemester(grades), nil
}

// GetGradeStatistics derives the full aggregate view from a single fetch:
// credit totals, overall and per-semester GPA, the letter-grade histogram
// and passing/failing counts.
func (s *GradeService) GetGradeStatistics(ctx context.Context, studentID string) (*models.GradeStatistics, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}

	key := statisticsCacheKey(studentID)
	var cached models.GradeStatistics
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	grades, err := s.grades.ListByStudent(ctx, studentID, models.GradeFilter{})
	if err != nil {
		return nil, gatewayError(err, "failed to load grades")
	}

	stats := buildGradeStatistics(grades)
	if err := s.cache.Set(ctx, key, stats, 0); err != nil {
		s.logger.Warn("statistics cache write failed", zap.String("student_id", studentID), zap.Error(err))
	}
	return stats, nil
}

func buildGradeStatistics(grades []models.Grade) *models.GradeStatistics {
	stats := &models.GradeStatistics{
		TotalCredits:      CalculateTotalCredits(grades),
		EarnedCredits:     CalculateEarnedCredits(grades),
		GPA:               CalculateGPA(grades),
		SemesterGPAs:      make(map[string]float64),
		GradeDistribution: make(map[models.LetterGrade]int),
	}
	for _, group := range GroupGradesBySemester(grades) {
		stats.SemesterGPAs[group.Semester] = CalculateGPA(group.Grades)
	}
	for _, g := range grades {
		stats.GradeDistribution[g.Grade]++
		if models.IsPassingGrade(g.Grade) {
			stats.PassingCount++
		} else if g.Grade == models.GradeF {
			stats.FailingCount++
		}
	}
	return stats
}

// gatewayError passes typed domain errors through unchanged and wraps
// anything else as an opaque server error.
func gatewayError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, message)
}
