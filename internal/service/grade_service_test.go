package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
)

type gradeGatewayStub struct {
	grades    []models.Grade
	grade     *models.Grade
	listErr   error
	findErr   error
	listCalls int
}

func (s *gradeGatewayStub) ListByStudent(ctx context.Context, studentID string, filter models.GradeFilter) ([]models.Grade, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	if filter.Semester != "" {
		var filtered []models.Grade
		for _, g := range s.grades {
			if g.Semester == filter.Semester {
				filtered = append(filtered, g)
			}
		}
		return filtered, nil
	}
	return s.grades, nil
}

func (s *gradeGatewayStub) ListByStudentPaginated(ctx context.Context, studentID string, page, limit int, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	if s.listErr != nil {
		return nil, nil, s.listErr
	}
	return s.grades, models.NewPagination(page, limit, len(s.grades)), nil
}

func (s *gradeGatewayStub) FindByID(ctx context.Context, gradeID, studentID string) (*models.Grade, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.grade, nil
}

func TestGetStudentGradesRequiresStudentID(t *testing.T) {
	svc := NewGradeService(&gradeGatewayStub{}, nil, nil)

	_, err := svc.GetStudentGrades(context.Background(), "", models.GradeFilter{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
	assert.Contains(t, err.Error(), "Student ID is required")
}

func TestGetStudentGradesPaginatedWindow(t *testing.T) {
	gateway := &gradeGatewayStub{}
	svc := NewGradeService(gateway, nil, nil)

	_, _, err := svc.GetStudentGradesPaginated(context.Background(), "stu-1", 0, 10, models.GradeFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
	assert.Contains(t, err.Error(), "Page must be greater than 0")

	_, _, err = svc.GetStudentGradesPaginated(context.Background(), "stu-1", 1, 101, models.GradeFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Limit must be between 1 and 100")

	_, _, err = svc.GetStudentGradesPaginated(context.Background(), "stu-1", 1, 0, models.GradeFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Limit must be between 1 and 100")
}

func TestGetStudentGradesPaginatedShape(t *testing.T) {
	gateway := &gradeGatewayStub{grades: make([]models.Grade, 5)}
	svc := NewGradeService(gateway, nil, nil)

	_, pagination, err := svc.GetStudentGradesPaginated(context.Background(), "stu-1", 1, 2, models.GradeFilter{})
	require.NoError(t, err)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 2, pagination.Limit)
	assert.Equal(t, 5, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.True(t, pagination.HasNext)
	assert.False(t, pagination.HasPrev)
}

func TestGetGradeByIDMissingIsNilNil(t *testing.T) {
	svc := NewGradeService(&gradeGatewayStub{findErr: sql.ErrNoRows}, nil, nil)

	grade, err := svc.GetGradeByID(context.Background(), "g1", "stu-1")
	assert.NoError(t, err)
	assert.Nil(t, grade)
}

func TestGetGradeByIDWrapsGatewayFailure(t *testing.T) {
	svc := NewGradeService(&gradeGatewayStub{findErr: errors.New("connection reset")}, nil, nil)

	_, err := svc.GetGradeByID(context.Background(), "g1", "stu-1")
	assert.Equal(t, appErrors.ErrServer.Code, appErrorCode(t, err))
}

func TestCalculateGPAScopedBySemester(t *testing.T) {
	gateway := &gradeGatewayStub{grades: []models.Grade{
		{Grade: models.GradeA, CreditHours: 3, Semester: "Fall 2024"},
		{Grade: models.GradeC, CreditHours: 3, Semester: "Spring 2025"},
	}}
	svc := NewGradeService(gateway, nil, nil)

	gpa, err := svc.CalculateGPA(context.Background(), "stu-1", "Fall 2024")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, gpa, 0.0001)

	gpa, err = svc.CalculateGPA(context.Background(), "stu-1", "")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, gpa, 0.0001)
}

func TestGetGradeStatisticsSingleFetch(t *testing.T) {
	gateway := &gradeGatewayStub{grades: []models.Grade{
		{Grade: models.GradeA, CreditHours: 3, Semester: "Fall 2024"},
		{Grade: models.GradeBPlus, CreditHours: 4, Semester: "Fall 2024"},
		{Grade: models.GradeF, CreditHours: 3, Semester: "Spring 2025"},
		{Grade: models.GradeW, CreditHours: 2, Semester: "Spring 2025"},
	}}
	svc := NewGradeService(gateway, nil, nil)

	stats, err := svc.GetGradeStatistics(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.listCalls)

	assert.Equal(t, 12, stats.TotalCredits)
	assert.Equal(t, 7, stats.EarnedCredits)
	assert.InDelta(t, 2.52, stats.GPA, 0.05)
	assert.Equal(t, 2, stats.PassingCount)
	assert.Equal(t, 1, stats.FailingCount)

	// W is neither passing nor failing
	assert.Equal(t, 1, stats.GradeDistribution[models.GradeW])

	assert.InDelta(t, 3.6, stats.SemesterGPAs["Fall 2024"], 0.05)
	assert.Zero(t, stats.SemesterGPAs["Spring 2025"])
}

func TestGetGradeStatisticsEmptyHistory(t *testing.T) {
	svc := NewGradeService(&gradeGatewayStub{}, nil, nil)

	stats, err := svc.GetGradeStatistics(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCredits)
	assert.Zero(t, stats.GPA)
	assert.Empty(t, stats.GradeDistribution)
}

func TestGetGradesBySemester(t *testing.T) {
	gateway := &gradeGatewayStub{grades: []models.Grade{
		{ID: "g1", Semester: "Fall 2024"},
		{ID: "g2", Semester: "Spring 2025"},
		{ID: "g3", Semester: "Fall 2024"},
	}}
	svc := NewGradeService(gateway, nil, nil)

	groups, err := svc.GetGradesBySemester(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Fall 2024", groups[0].Semester)
	assert.Len(t, groups[0].Grades, 2)
}

func TestCreditTotals(t *testing.T) {
	gateway := &gradeGatewayStub{grades: []models.Grade{
		{Grade: models.GradeA, CreditHours: 3},
		{Grade: models.GradeF, CreditHours: 4},
		{Grade: models.GradeI, CreditHours: 2},
	}}
	svc := NewGradeService(gateway, nil, nil)

	total, err := svc.GetTotalCredits(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 9, total)

	earned, err := svc.GetEarnedCredits(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 3, earned)
}
