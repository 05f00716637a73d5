package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
)

type correctionProviderStub struct {
	corrections []models.GradeCorrection
	correction  *models.GradeCorrection
	summary     *models.CorrectionSummary
	canSubmit   bool
	attempts    int
	err         error

	submitted    *models.CorrectionRequest
	reviewedID   string
	reviewStatus models.CorrectionStatus
	lastStudent  string
	lastFilter   models.CorrectionFilter
}

func (s *correctionProviderStub) SubmitGradeCorrection(ctx context.Context, req models.CorrectionRequest) (*models.GradeCorrection, error) {
	s.submitted = &req
	if s.err != nil {
		return nil, s.err
	}
	return s.correction, nil
}

func (s *correctionProviderStub) GetGradeCorrections(ctx context.Context, studentID string, filter models.CorrectionFilter) ([]models.GradeCorrection, error) {
	s.lastStudent = studentID
	s.lastFilter = filter
	return s.corrections, s.err
}

func (s *correctionProviderStub) GetGradeCorrectionsPaginated(ctx context.Context, studentID string, page, limit int, filter models.CorrectionFilter) ([]models.GradeCorrection, *models.Pagination, error) {
	s.lastStudent = studentID
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.corrections, models.NewPagination(page, limit, len(s.corrections)), nil
}

func (s *correctionProviderStub) GetCorrectionByID(ctx context.Context, correctionID, studentID string) (*models.GradeCorrection, error) {
	return s.correction, s.err
}

func (s *correctionProviderStub) CanSubmitCorrection(ctx context.Context, gradeID, studentID string) (bool, error) {
	return s.canSubmit, s.err
}

func (s *correctionProviderStub) GetCorrectionAttempts(ctx context.Context, gradeID, studentID string) (int, error) {
	return s.attempts, s.err
}

func (s *correctionProviderStub) GetCorrectionSummary(ctx context.Context, studentID string) (*models.CorrectionSummary, error) {
	return s.summary, s.err
}

func (s *correctionProviderStub) ReviewCorrection(ctx context.Context, correctionID, studentID string, newStatus models.CorrectionStatus) (*models.GradeCorrection, error) {
	s.reviewedID = correctionID
	s.reviewStatus = newStatus
	if s.err != nil {
		return nil, s.err
	}
	return s.correction, nil
}

func buildCorrectionRouter(provider *correctionProviderStub, claims gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if claims != nil {
		router.Use(claims)
	}
	h := NewCorrectionHandler(provider)
	corrections := router.Group("/corrections")
	corrections.POST("", h.Submit)
	corrections.GET("", h.List)
	corrections.GET("/summary", h.Summary)
	corrections.GET("/can-submit", h.CanSubmit)
	corrections.GET("/attempts", h.Attempts)
	corrections.GET("/:id", h.Get)
	corrections.PATCH("/:id/review", h.Review)
	return router
}

func TestCorrectionHandlerSubmitForcesStudentFromClaims(t *testing.T) {
	provider := &correctionProviderStub{correction: &models.GradeCorrection{ID: "cor-1", Status: models.CorrectionPending}}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	payload := `{"grade_id":"g1","requested_grade":"A","reason":"wrong answer key on the final","student_id":"stu-evil"}`
	req, _ := http.NewRequest(http.MethodPost, "/corrections", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, provider.submitted)
	assert.Equal(t, "stu-1", provider.submitted.StudentID)
	assert.Equal(t, "g1", provider.submitted.GradeID)
	assert.Equal(t, models.GradeA, provider.submitted.RequestedGrade)
}

func TestCorrectionHandlerSubmitValidationError(t *testing.T) {
	provider := &correctionProviderStub{err: appErrors.Validation([]string{"Reason must be at least 10 characters"})}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodPost, "/corrections", bytes.NewBufferString(`{"grade_id":"g1","requested_grade":"A","reason":"short"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "VALIDATION_ERROR")
	assert.Contains(t, resp.Body.String(), "Reason must be at least 10 characters")
}

func TestCorrectionHandlerSubmitGradeNotFound(t *testing.T) {
	provider := &correctionProviderStub{err: appErrors.Clone(appErrors.ErrGradeNotFound, "grade not found")}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodPost, "/corrections", bytes.NewBufferString(`{"grade_id":"g9","requested_grade":"A","reason":"wrong answer key on final"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "GRADE_NOT_FOUND")
}

func TestCorrectionHandlerSubmitConflict(t *testing.T) {
	provider := &correctionProviderStub{err: appErrors.Clone(appErrors.ErrCorrectionNotAllowed, "a correction for this grade is already pending")}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodPost, "/corrections", bytes.NewBufferString(`{"grade_id":"g1","requested_grade":"A","reason":"wrong answer key on final"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "CORRECTION_NOT_ALLOWED")
}

func TestCorrectionHandlerListWithFilters(t *testing.T) {
	provider := &correctionProviderStub{corrections: []models.GradeCorrection{{ID: "cor-1"}}}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodGet, "/corrections?status=pending&gradeId=g1", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.CorrectionPending, provider.lastFilter.Status)
	assert.Equal(t, "g1", provider.lastFilter.GradeID)
}

func TestCorrectionHandlerListPaginated(t *testing.T) {
	provider := &correctionProviderStub{corrections: []models.GradeCorrection{{ID: "cor-1"}}}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodGet, "/corrections?page=1&limit=10", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"pagination"`)
}

func TestCorrectionHandlerGetMissingIs404(t *testing.T) {
	provider := &correctionProviderStub{}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodGet, "/corrections/cor-9", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "NOT_FOUND")
}

func TestCorrectionHandlerCanSubmit(t *testing.T) {
	provider := &correctionProviderStub{canSubmit: true}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodGet, "/corrections/can-submit?gradeId=g1", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"can_submit":true`)
}

func TestCorrectionHandlerAttempts(t *testing.T) {
	provider := &correctionProviderStub{attempts: 2}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodGet, "/corrections/attempts?gradeId=g1", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"attempts":2`)
	assert.Contains(t, resp.Body.String(), `"max_attempts":3`)
}

func TestCorrectionHandlerSummary(t *testing.T) {
	provider := &correctionProviderStub{summary: &models.CorrectionSummary{
		TotalRequests:         2,
		PendingRequests:       1,
		ApprovedRequests:      1,
		AverageProcessingDays: 4,
	}}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodGet, "/corrections/summary", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total_requests":2`)
	assert.Contains(t, resp.Body.String(), `"average_processing_days":4`)
}

func TestCorrectionHandlerReviewRequiresRegistrar(t *testing.T) {
	provider := &correctionProviderStub{}
	router := buildCorrectionRouter(provider, testClaims(models.RoleStudent, "stu-1"))

	req, _ := http.NewRequest(http.MethodPatch, "/corrections/cor-1/review", bytes.NewBufferString(`{"student_id":"stu-1","status":"approved"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Empty(t, provider.reviewedID)
}

func TestCorrectionHandlerReviewAsRegistrar(t *testing.T) {
	provider := &correctionProviderStub{correction: &models.GradeCorrection{ID: "cor-1", Status: models.CorrectionApproved}}
	router := buildCorrectionRouter(provider, testClaims(models.RoleRegistrar, "reg-1"))

	req, _ := http.NewRequest(http.MethodPatch, "/corrections/cor-1/review", bytes.NewBufferString(`{"student_id":"stu-1","status":"approved"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "cor-1", provider.reviewedID)
	assert.Equal(t, models.CorrectionApproved, provider.reviewStatus)
}
