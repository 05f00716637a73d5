package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushub/grade-portal-api/internal/models"
	"github.com/campushub/grade-portal-api/internal/service"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
	"github.com/campushub/grade-portal-api/pkg/response"
)

type gradeProvider interface {
	GetStudentGrades(ctx context.Context, studentID string, filter models.GradeFilter) ([]models.Grade, error)
	GetStudentGradesPaginated(ctx context.Context, studentID string, page, limit int, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error)
	GetGradeByID(ctx context.Context, gradeID, studentID string) (*models.Grade, error)
	CalculateGPA(ctx context.Context, studentID, semester string) (float64, error)
	GetTotalCredits(ctx context.Context, studentID string) (int, error)
	GetEarnedCredits(ctx context.Context, studentID string) (int, error)
	GetGradesBySemester(ctx context.Context, studentID string) ([]models.SemesterGroup, error)
	GetGradeStatistics(ctx context.Context, studentID string) (*models.GradeStatistics, error)
}

type transcriptExporter interface {
	Transcript(ctx context.Context, studentID string, format service.ExportFormat) (*service.ExportResult, error)
}

// GradeHandler exposes grade query endpoints.
type GradeHandler struct {
	grades  gradeProvider
	exports transcriptExporter
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradeProvider, exports transcriptExporter) *GradeHandler {
	return &GradeHandler{grades: grades, exports: exports}
}

// List godoc
// @Summary List the student's grades
// @Tags Grades
// @Produce json
// @Param semester query string false "Filter by semester"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	studentID := studentIDFromContext(c)
	filter := models.GradeFilter{Semester: c.Query("semester")}

	if c.Query("page") == "" && c.Query("limit") == "" {
		grades, err := h.grades.GetStudentGrades(c.Request.Context(), studentID, filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, grades, nil)
		return
	}

	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)
	grades, pagination, err := h.grades.GetStudentGradesPaginated(c.Request.Context(), studentID, page, limit, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, pagination)
}

// Get godoc
// @Summary Fetch a single grade
// @Tags Grades
// @Produce json
// @Param id path string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	grade, err := h.grades.GetGradeByID(c.Request.Context(), c.Param("id"), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if grade == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrGradeNotFound, "grade not found"))
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// GPA godoc
// @Summary Compute GPA
// @Tags Grades
// @Produce json
// @Param semester query string false "Scope to one semester"
// @Success 200 {object} response.Envelope
// @Router /grades/gpa [get]
func (h *GradeHandler) GPA(c *gin.Context) {
	gpa, err := h.grades.CalculateGPA(c.Request.Context(), studentIDFromContext(c), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"gpa": gpa}, nil)
}

// Credits godoc
// @Summary Total and earned credit hours
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/credits [get]
func (h *GradeHandler) Credits(c *gin.Context) {
	studentID := studentIDFromContext(c)
	total, err := h.grades.GetTotalCredits(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	earned, err := h.grades.GetEarnedCredits(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"total_credits": total, "earned_credits": earned}, nil)
}

// Semesters godoc
// @Summary Grades grouped by semester
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/semesters [get]
func (h *GradeHandler) Semesters(c *gin.Context) {
	groups, err := h.grades.GetGradesBySemester(c.Request.Context(), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Statistics godoc
// @Summary Aggregated grade statistics
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/statistics [get]
func (h *GradeHandler) Statistics(c *gin.Context) {
	stats, err := h.grades.GetGradeStatistics(c.Request.Context(), studentIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Download transcript
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Router /grades/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	result, err := h.exports.Transcript(c.Request.Context(), studentIDFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
