package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/grade-portal-api/internal/models"
)

// CorrectionRepository handles grade correction persistence. Corrections are
// append-only: rows are inserted and status-updated, never deleted.
type CorrectionRepository struct {
	db *sqlx.DB
}

// NewCorrectionRepository creates a new correction repository.
func NewCorrectionRepository(db *sqlx.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

const correctionColumns = `c.id, c.grade_id, c.student_id, c.requested_grade, c.reason, c.supporting_details, c.status, c.submission_date, c.review_date`

// Insert persists a new correction, assigning its ID.
func (r *CorrectionRepository) Insert(ctx context.Context, correction *models.GradeCorrection) error {
	if correction.ID == "" {
		correction.ID = uuid.NewString()
	}
	if correction.SubmissionDate.IsZero() {
		correction.SubmissionDate = time.Now().UTC()
	}
	const query = `INSERT INTO grade_corrections (id, grade_id, student_id, requested_grade, reason, supporting_details, status, submission_date, review_date)
        VALUES (:id, :grade_id, :student_id, :requested_grade, :reason, :supporting_details, :status, :submission_date, :review_date)`
	if _, err := r.db.NamedExecContext(ctx, query, correction); err != nil {
		return fmt.Errorf("insert correction: %w", err)
	}
	return nil
}

func correctionWhere(studentID string, filter models.CorrectionFilter) (string, []interface{}) {
	where := " WHERE c.student_id = $1"
	args := []interface{}{studentID}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND c.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.GradeID != "" {
		where += fmt.Sprintf(" AND c.grade_id = $%d", len(args)+1)
		args = append(args, filter.GradeID)
	}
	return where, args
}

// ListByStudent returns the student's corrections, newest first.
func (r *CorrectionRepository) ListByStudent(ctx context.Context, studentID string, filter models.CorrectionFilter) ([]models.GradeCorrection, error) {
	where, args := correctionWhere(studentID, filter)
	query := fmt.Sprintf(`SELECT %s FROM grade_corrections c%s ORDER BY c.submission_date DESC`, correctionColumns, where)
	var corrections []models.GradeCorrection
	if err := r.db.SelectContext(ctx, &corrections, query, args...); err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	return corrections, nil
}

// ListByStudentPaginated returns one page of corrections plus page metadata.
func (r *CorrectionRepository) ListByStudentPaginated(ctx context.Context, studentID string, page, limit int, filter models.CorrectionFilter) ([]models.GradeCorrection, *models.Pagination, error) {
	where, args := correctionWhere(studentID, filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM grade_corrections c" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, nil, fmt.Errorf("count corrections: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM grade_corrections c%s ORDER BY c.submission_date DESC LIMIT %d OFFSET %d`,
		correctionColumns, where, limit, (page-1)*limit)
	var corrections []models.GradeCorrection
	if err := r.db.SelectContext(ctx, &corrections, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list corrections page: %w", err)
	}

	return corrections, models.NewPagination(page, limit, total), nil
}

// FindByID returns the correction owned by the student, or sql.ErrNoRows.
func (r *CorrectionRepository) FindByID(ctx context.Context, correctionID, studentID string) (*models.GradeCorrection, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_corrections c WHERE c.id = $1 AND c.student_id = $2`, correctionColumns)
	var correction models.GradeCorrection
	if err := r.db.GetContext(ctx, &correction, query, correctionID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find correction: %w", err)
	}
	return &correction, nil
}

// UpdateStatus persists a reviewed correction's status and review date.
func (r *CorrectionRepository) UpdateStatus(ctx context.Context, correction *models.GradeCorrection) error {
	const query = `UPDATE grade_corrections SET status = :status, review_date = :review_date WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, correction)
	if err != nil {
		return fmt.Errorf("update correction status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
