package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/grade-portal-api/internal/models"
)

// GradeRepository handles grade record persistence. Grade rows are written
// by the registrar's ingestion pipeline; this portal only reads them.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `g.id, g.course_code, g.course_name, g.grade, g.credit_hours, g.semester, g.student_id, g.created_at`

// ListByStudent returns all grades for the student, oldest first, optionally
// scoped to one semester.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string, filter models.GradeFilter) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades g WHERE g.student_id = $1`, gradeColumns)
	args := []interface{}{studentID}
	if filter.Semester != "" {
		query += fmt.Sprintf(" AND g.semester = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}
	query += " ORDER BY g.created_at ASC"
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListByStudentPaginated returns one page of grades plus page metadata.
func (r *GradeRepository) ListByStudentPaginated(ctx context.Context, studentID string, page, limit int, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	where := " WHERE g.student_id = $1"
	args := []interface{}{studentID}
	if filter.Semester != "" {
		where += fmt.Sprintf(" AND g.semester = $%d", len(args)+1)
		args = append(args, filter.Semester)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM grades g" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, nil, fmt.Errorf("count grades: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM grades g%s ORDER BY g.created_at ASC LIMIT %d OFFSET %d`,
		gradeColumns, where, limit, (page-1)*limit)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list grades page: %w", err)
	}

	return grades, models.NewPagination(page, limit, total), nil
}

// FindByID returns the grade owned by the student, or sql.ErrNoRows.
func (r *GradeRepository) FindByID(ctx context.Context, gradeID, studentID string) (*models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades g WHERE g.id = $1 AND g.student_id = $2`, gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, gradeID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}
