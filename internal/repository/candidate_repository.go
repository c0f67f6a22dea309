package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sgc-erp/be-hr-approvals/internal/database"
	"github.com/sgc-erp/be-hr-approvals/internal/errors"
)

// Candidate projection statuses this service writes.
const (
	CandidateStatusApprovalPending    = "approval_pending"
	CandidateStatusApprovalInProgress = "approval_in_progress"
	CandidateStatusHired              = "hired"
	CandidateStatusRejected           = "rejected"
	CandidateStatusPassed             = "passed"
)

// CandidateRepository mirrors workflow state onto the candidate record's
// coarse status field and reads the fields notification payloads need.
// The candidates table is owned by the HR candidate service; this is a
// read-model projection, not a source of truth.
type CandidateRepository struct {
	db *database.DB
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(db *database.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// GetByID returns the candidate summary used in notification payloads.
func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*CandidateSummary, error) {
	query := `
		SELECT id, first_name, last_name, email, status
		FROM candidates
		WHERE id = $1
	`

	c := &CandidateSummary{}
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Status)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("candidate", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get candidate")
	}
	return c, nil
}

// SetStatus projects a workflow state onto the candidate's status field.
func (r *CandidateRepository) SetStatus(ctx context.Context, candidateID, status string, updatedBy *string) error {
	query := `
		UPDATE candidates
		SET status     = $2,
		    updated_by = $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var returnedID string
	err := r.db.QueryRow(ctx, query, candidateID, status, updatedBy).Scan(&returnedID)
	if err == pgx.ErrNoRows {
		return errors.NotFound("candidate", candidateID)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update candidate status")
	}
	return nil
}
