package models

import "time"

// CorrectionStatus tracks the review lifecycle of a correction request.
type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
	CorrectionRejected CorrectionStatus = "rejected"
)

// IsValidCorrectionStatus reports membership in the three-state lifecycle.
func IsValidCorrectionStatus(s CorrectionStatus) bool {
	switch s {
	case CorrectionPending, CorrectionApproved, CorrectionRejected:
		return true
	}
	return false
}

// GradeCorrection is a student's request to change a specific grade's value.
// Corrections are append-only: they are never deleted, and the full history
// per grade feeds attempt counting. ReviewDate is set iff the status has
// left pending.
type GradeCorrection struct {
	ID                string           `db:"id" json:"id"`
	GradeID           string           `db:"grade_id" json:"grade_id"`
	StudentID         string           `db:"student_id" json:"student_id"`
	RequestedGrade    LetterGrade      `db:"requested_grade" json:"requested_grade"`
	Reason            string           `db:"reason" json:"reason"`
	SupportingDetails string           `db:"supporting_details" json:"supporting_details,omitempty"`
	Status            CorrectionStatus `db:"status" json:"status"`
	SubmissionDate    time.Time        `db:"submission_date" json:"submission_date"`
	ReviewDate        *time.Time       `db:"review_date" json:"review_date,omitempty"`
}

// CorrectionRequest is the submission payload before validation.
type CorrectionRequest struct {
	GradeID           string      `json:"grade_id"`
	StudentID         string      `json:"student_id"`
	RequestedGrade    LetterGrade `json:"requested_grade"`
	Reason            string      `json:"reason"`
	SupportingDetails string      `json:"supporting_details"`
}

// CorrectionFilter captures pass-through filters for correction listings.
type CorrectionFilter struct {
	Status  CorrectionStatus
	GradeID string
}

// CorrectionSummary aggregates a student's correction history. Computed on
// demand, never stored.
type CorrectionSummary struct {
	TotalRequests         int     `json:"total_requests"`
	PendingRequests       int     `json:"pending_requests"`
	ApprovedRequests      int     `json:"approved_requests"`
	RejectedRequests      int     `json:"rejected_requests"`
	AverageProcessingDays float64 `json:"average_processing_days"`
}
