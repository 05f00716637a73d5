package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
	"github.com/campushub/grade-portal-api/pkg/response"
)

type correctionProvider interface {
	SubmitGradeCorrection(ctx context.Context, req models.CorrectionRequest) (*models.GradeCorrection, error)
	GetGradeCorrections(ctx context.Context, studentID string, filter models.CorrectionFilter) ([]models.GradeCorrection, error)
	GetGradeCorrectionsPaginated(ctx context.Context, studentID string, page, limit int, filter models.CorrectionFilter) ([]models.GradeCorrection, *models.Pagination, error)
	GetCorrectionByID(ctx context.Context, correctionID, studentID string) (*models.GradeCorrection, error)
	CanSubmitCorrection(ctx context.Context, gradeID, studentID string) (bool, error)
	GetCorrectionAttempts(ctx context.Context, gradeID, studentID string) (int, error)
	GetCorrectionSummary(ctx context.Context, studentID string) (*models.CorrectionSummary, error)
	ReviewCorrection(ctx context.Context, correctionID, studentID string, newStatus models.CorrectionStatus) (*models.GradeCorrection, error)
}

// CorrectionHandler exposes grade correction endpoints.
type CorrectionHandler struct {
	corrections correctionProvider
}

// NewCorrectionHandler constructs handler.
func NewCorrectionHandler(corrections correctionProvider) *CorrectionHandler {
	return &CorrectionHandler{corrections: corrections}
}

// submitCorrectionBody is the submission payload; the student identity comes
// from the access token, never the body.
type submitCorrectionBody struct {
	GradeID           string `json:"grade_id"`
	RequestedGrade    string `json:"requested_grade"`
	Reason            string `json:"reason"`
	SupportingDetails string `json:"supporting_details"`
}

// reviewCorrectionBody carries a registrar's review decision.
type reviewCorrectionBody struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

// Submit godoc
// @Summary Submit a grade correction request
// @Tags Corrections
// @Accept json
// @Produce json
// @Param payload body submitCorrectionBody true "Correction payload"
// @Success 201 {object} response.Envelope
// @Router /corrections [post]
func (h *CorrectionHandler) Submit(c *gin.Context) {
	var body submitCorrectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req := models.CorrectionRequest{
		GradeID:           body.GradeID,
		StudentID:         studentIDFromContext(c),
		RequestedGrade:    models.LetterGrade(body.RequestedGrade),
		Reason:            body.Reason,
		SupportingDetails: body.SupportingDetails,
	}
	correction, err := h.corrections.SubmitGradeCorrection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, correction)
}

// List godoc
// @Summary List the student's correction requests
// @Tags Corrections
// @Produce json
// @Param status query string false "Filter by status"
// @Param gradeId query string false "Filter by grade"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} response.Envelope
// @Router /corrections [get]
func (h *CorrectionHandler) List(c *gin.Context) {
	studentID := studentIDFromContext(c)
	filter := models.CorrectionFilter{
		Status:  models.CorrectionStatus(c.Query("status")),
		GradeID: c.Query("gradeId"),
	}

	if c.Query("page") == "" && c.Query("limit") == "" {
		corrections, err := h.corrections.GetGradeCorrections(c.Request.Context(), studentID, filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, corrections, nil)
		return
	}

	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)
	corrections, pagination, err := h.corrections.GetGradeCorrectionsPaginated(c.Request.Context(), studentID, page, limit, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, corrections, pagination)
}

// Get godoc
// @Summary Fetch a single correction request
// @Tags Corrections
// @Produce json
// @Param id path string true "Correction ID"
// @Success 200 {object} response.Envelope
// @Router /corrections/{id} [get]
func (h *CorrectionHandler) Get(c *gin.Context) {
	correction, err := h.corrections.GetCorrectionByID(c.Request.Context(), c.Param("id"), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if correction == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "correction not found"))
		return
	}
	response.JSON(c, http.StatusOK, correction, nil)
}

// CanSubmit godoc
// @Summary Check whether a new correction would be accepted for a grade
// @Tags Corrections
// @Produce json
// @Param gradeId query string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /corrections/can-submit [get]
func (h *CorrectionHandler) CanSubmit(c *gin.Context) {
	allowed, err := h.corrections.CanSubmitCorrection(c.Request.Context(), c.Query("gradeId"), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"can_submit": allowed}, nil)
}

// Attempts godoc
// @Summary Count correction attempts for a grade
// @Tags Corrections
// @Produce json
// @Param gradeId query string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /corrections/attempts [get]
func (h *CorrectionHandler) Attempts(c *gin.Context) {
	attempts, err := h.corrections.GetCorrectionAttempts(c.Request.Context(), c.Query("gradeId"), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"attempts": attempts, "max_attempts": 3}, nil)
}

// Summary godoc
// @Summary Correction history summary
// @Tags Corrections
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /corrections/summary [get]
func (h *CorrectionHandler) Summary(c *gin.Context) {
	summary, err := h.corrections.GetCorrectionSummary(c.Request.Context(), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Review godoc
// @Summary Review a correction request (registrar only)
// @Tags Corrections
// @Accept json
// @Produce json
// @Param id path string true "Correction ID"
// @Param payload body reviewCorrectionBody true "Review decision"
// @Success 200 {object} response.Envelope
// @Router /corrections/{id}/review [patch]
func (h *CorrectionHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleRegistrar {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "registrar role required"))
		return
	}
	var body reviewCorrectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	correction, err := h.corrections.ReviewCorrection(c.Request.Context(), c.Param("id"), body.StudentID, models.CorrectionStatus(body.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, correction, nil)
}
