package repository

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sgc-erp/be-hr-approvals/internal/database"
	"github.com/sgc-erp/be-hr-approvals/internal/errors"
)

// uniqueViolation is the Postgres error code raised by the unique index on
// candidate_id, which enforces one workflow per candidate.
const uniqueViolation = "23505"

// ApprovalWorkflowRepository manages workflow aggregates and applies state
// transitions. Workflow + level creation and every decision are executed in
// a single transaction; decision updates are guarded on the current status so
// concurrent actors race on the row and the loser sees zero affected rows.
type ApprovalWorkflowRepository struct {
	db *database.DB
}

// NewApprovalWorkflowRepository creates a new ApprovalWorkflowRepository.
func NewApprovalWorkflowRepository(db *database.DB) *ApprovalWorkflowRepository {
	return &ApprovalWorkflowRepository{db: db}
}

// Create inserts a workflow and its five levels in one transaction.
// Returns a conflict error when a workflow already exists for the candidate.
func (r *ApprovalWorkflowRepository) Create(ctx context.Context, wf *ApprovalWorkflow, levels []*ApprovalLevel) error {
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		wfQuery := `
			INSERT INTO candidate_approval_workflows
			    (candidate_id, job_posting_id, application_id,
			     status, current_level, created_by)
			VALUES ($1, $2, $3, $4::approval_workflow_status, $5, $6)
			RETURNING id, created_at, updated_at
		`

		err := tx.QueryRow(ctx, wfQuery,
			wf.CandidateID,
			wf.JobPostingID,
			wf.ApplicationID,
			wf.Status,
			wf.CurrentLevel,
			wf.CreatedBy,
		).Scan(&wf.ID, &wf.CreatedAt, &wf.UpdatedAt)
		if err != nil {
			return err
		}

		levelQuery := `
			INSERT INTO candidate_approval_levels
			    (workflow_id, level_number, title, approver_email,
			     status, notification_state)
			VALUES ($1, $2, $3, $4, $5::approval_level_status, $6)
			RETURNING id, created_at, updated_at
		`

		for _, level := range levels {
			level.WorkflowID = wf.ID
			err := tx.QueryRow(ctx, levelQuery,
				level.WorkflowID,
				level.LevelNumber,
				level.Title,
				level.ApproverEmail,
				level.Status,
				level.NotificationState,
			).Scan(&level.ID, &level.CreatedAt, &level.UpdatedAt)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.Conflict("approval workflow already exists for this candidate")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create approval workflow")
	}
	return nil
}

// GetByID retrieves a workflow by its primary key.
func (r *ApprovalWorkflowRepository) GetByID(ctx context.Context, id string) (*ApprovalWorkflow, error) {
	query := `
		SELECT id, candidate_id, job_posting_id, application_id,
		       status, current_level, final_decision,
		       completed_at, created_by, created_at, updated_at
		FROM candidate_approval_workflows
		WHERE id = $1
	`

	wf, err := r.scanWorkflow(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("approval_workflow", id)
	}
	return wf, err
}

// GetByCandidateID returns the workflow for a candidate, or nil when none exists.
func (r *ApprovalWorkflowRepository) GetByCandidateID(ctx context.Context, candidateID string) (*ApprovalWorkflow, error) {
	query := `
		SELECT id, candidate_id, job_posting_id, application_id,
		       status, current_level, final_decision,
		       completed_at, created_by, created_at, updated_at
		FROM candidate_approval_workflows
		WHERE candidate_id = $1
	`

	wf, err := r.scanWorkflow(r.db.QueryRow(ctx, query, candidateID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return wf, err
}

// List returns workflows newest-first, optionally filtered by status.
func (r *ApprovalWorkflowRepository) List(ctx context.Context, status *string, limit, offset int) ([]*ApprovalWorkflow, int64, error) {
	query := `
		SELECT id, candidate_id, job_posting_id, application_id,
		       status, current_level, final_decision,
		       completed_at, created_by, created_at, updated_at,
		       COUNT(*) OVER() AS total
		FROM candidate_approval_workflows
		WHERE ($1::approval_workflow_status IS NULL OR status = $1::approval_workflow_status)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list approval workflows")
	}
	defer rows.Close()

	var (
		workflows []*ApprovalWorkflow
		total     int64
	)
	for rows.Next() {
		wf := &ApprovalWorkflow{}
		err := rows.Scan(
			&wf.ID,
			&wf.CandidateID,
			&wf.JobPostingID,
			&wf.ApplicationID,
			&wf.Status,
			&wf.CurrentLevel,
			&wf.FinalDecision,
			&wf.CompletedAt,
			&wf.CreatedBy,
			&wf.CreatedAt,
			&wf.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approval workflow")
		}
		workflows = append(workflows, wf)
	}
	return workflows, total, nil
}

// LevelDecision describes a level resolution plus the workflow update that
// must be applied with it atomically.
type LevelDecision struct {
	LevelNumber int
	LevelStatus string // approved | rejected
	DecidedBy   *string
	Comments    *string
	Signature   *string

	// Workflow outcome of the decision.
	WorkflowStatus string  // in_progress | approved | rejected
	NextLevel      int     // current_level after the decision
	FinalDecision  *string // set only with terminal WorkflowStatus
	Complete       bool    // stamps completed_at
}

// ApplyDecision resolves the current pending level and updates the workflow
// in one transaction. Both updates are compare-and-swap guarded: the level
// must still be pending and the workflow must still point at it. The loser of
// a concurrent race gets a conflict error and no partial update.
func (r *ApprovalWorkflowRepository) ApplyDecision(ctx context.Context, workflowID string, d *LevelDecision) (levelID string, err error) {
	err = r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		levelQuery := `
			UPDATE candidate_approval_levels
			SET status     = $3::approval_level_status,
			    decided_by = $4,
			    decided_at = NOW(),
			    comments   = $5,
			    signature  = $6,
			    updated_at = NOW()
			WHERE workflow_id = $1
			  AND level_number = $2
			  AND status = 'pending'
			RETURNING id
		`

		err := tx.QueryRow(ctx, levelQuery,
			workflowID,
			d.LevelNumber,
			d.LevelStatus,
			d.DecidedBy,
			d.Comments,
			d.Signature,
		).Scan(&levelID)
		if err == pgx.ErrNoRows {
			return errors.Conflict("level is no longer pending").
				WithDetail("level", d.LevelNumber)
		}
		if err != nil {
			return err
		}

		var wfQuery string
		var args []any
		if d.Complete {
			wfQuery = `
				UPDATE candidate_approval_workflows
				SET status         = $2::approval_workflow_status,
				    final_decision = $3::approval_final_decision,
				    completed_at   = NOW(),
				    updated_at     = NOW()
				WHERE id = $1
				  AND current_level = $4
				  AND status IN ('pending', 'in_progress')
				RETURNING id
			`
			args = []any{workflowID, d.WorkflowStatus, d.FinalDecision, d.LevelNumber}
		} else {
			wfQuery = `
				UPDATE candidate_approval_workflows
				SET current_level = $2,
				    status        = $3::approval_workflow_status,
				    updated_at    = NOW()
				WHERE id = $1
				  AND current_level = $4
				  AND status IN ('pending', 'in_progress')
				RETURNING id
			`
			args = []any{workflowID, d.NextLevel, d.WorkflowStatus, d.LevelNumber}
		}

		var returnedID string
		err = tx.QueryRow(ctx, wfQuery, args...).Scan(&returnedID)
		if err == pgx.ErrNoRows {
			return errors.Conflict("workflow state changed concurrently")
		}
		return err
	})
	if err != nil {
		if errors.Code(err) == errors.ErrCodeConflict {
			return "", err
		}
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to apply approval decision")
	}
	return levelID, nil
}

// Cancel moves a non-terminal workflow to cancelled. No level is resolved.
func (r *ApprovalWorkflowRepository) Cancel(ctx context.Context, id string) error {
	query := `
		UPDATE candidate_approval_workflows
		SET status     = 'cancelled'::approval_workflow_status,
		    updated_at = NOW()
		WHERE id = $1
		  AND status IN ('pending', 'in_progress')
		RETURNING id
	`

	var returnedID string
	err := r.db.QueryRow(ctx, query, id).Scan(&returnedID)
	if err == pgx.ErrNoRows {
		return errors.Conflict("cannot cancel a completed approval workflow")
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to cancel approval workflow")
	}
	return nil
}

// UpdateLevelNotificationState records the outcome of dispatching a
// notification for a level. Never affects the level's decision status.
func (r *ApprovalWorkflowRepository) UpdateLevelNotificationState(ctx context.Context, workflowID string, levelNumber int, state string) error {
	query := `
		UPDATE candidate_approval_levels
		SET notification_state = $3,
		    updated_at         = NOW()
		WHERE workflow_id = $1 AND level_number = $2
	`

	_, err := r.db.Exec(ctx, query, workflowID, levelNumber, state)
	return err
}

// ── scan helper ───────────────────────────────────────────────────────────────

type workflowScanner interface {
	Scan(dest ...any) error
}

func (r *ApprovalWorkflowRepository) scanWorkflow(row workflowScanner) (*ApprovalWorkflow, error) {
	wf := &ApprovalWorkflow{}
	err := row.Scan(
		&wf.ID,
		&wf.CandidateID,
		&wf.JobPostingID,
		&wf.ApplicationID,
		&wf.Status,
		&wf.CurrentLevel,
		&wf.FinalDecision,
		&wf.CompletedAt,
		&wf.CreatedBy,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return wf, nil
}
