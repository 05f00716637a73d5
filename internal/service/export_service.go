package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
	"github.com/campushub/grade-portal-api/pkg/export"
)

// ExportFormat selects the transcript rendition.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult carries rendered transcript bytes plus response metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a student's transcript from a single grade fetch.
type ExportService struct {
	grades gradeGateway
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(grades gradeGateway, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		grades: grades,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Transcript renders the student's full grade history with GPA and credit
// summary rows in the requested format.
func (s *ExportService) Transcript(ctx context.Context, studentID string, format ExportFormat) (*ExportResult, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	if format != ExportCSV && format != ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	grades, err := s.grades.ListByStudent(ctx, studentID, models.GradeFilter{})
	if err != nil {
		return nil, gatewayError(err, "failed to load grades")
	}

	dataset := transcriptDataset(grades)

	var content []byte
	var contentType string
	switch format {
	case ExportCSV:
		content, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportPDF:
		content, err = s.pdf.Render(dataset, "Academic Transcript")
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServer.Code, appErrors.ErrServer.Status, "failed to render transcript")
	}

	s.logger.Info("transcript exported", zap.String("student_id", studentID), zap.String("format", string(format)))
	return &ExportResult{
		Content:     content,
		ContentType: contentType,
		Filename:    fmt.Sprintf("transcript-%s.%s", studentID, format),
	}, nil
}

func transcriptDataset(grades []models.Grade) export.Dataset {
	headers := []string{"Semester", "Course Code", "Course Name", "Credits", "Grade", "Quality Points"}
	rows := make([]map[string]string, 0, len(grades)+2)
	for _, group := range GroupGradesBySemester(grades) {
		for _, g := range group.Grades {
			rows = append(rows, map[string]string{
				"Semester":       g.Semester,
				"Course Code":    g.CourseCode,
				"Course Name":    g.CourseName,
				"Credits":        strconv.Itoa(g.CreditHours),
				"Grade":          string(g.Grade),
				"Quality Points": strconv.FormatFloat(CalculateQualityPoints(g), 'f', 1, 64),
			})
		}
		rows = append(rows, map[string]string{
			"Semester":       group.Semester,
			"Course Name":    "Semester GPA",
			"Quality Points": strconv.FormatFloat(CalculateGPA(group.Grades), 'f', 2, 64),
		})
	}
	rows = append(rows, map[string]string{
		"Course Name":    "Cumulative GPA",
		"Credits":        strconv.Itoa(CalculateEarnedCredits(grades)),
		"Quality Points": strconv.FormatFloat(CalculateGPA(grades), 'f', 2, 64),
	})
	return export.Dataset{Headers: headers, Rows: rows}
}
