package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sgc-erp/be-hr-approvals/internal/database"
	"github.com/sgc-erp/be-hr-approvals/internal/errors"
)

// ApprovalLevelsRepository handles reads on individual approval levels.
// Level creation and decision updates are handled transactionally by
// ApprovalWorkflowRepository.
type ApprovalLevelsRepository struct {
	db *database.DB
}

// NewApprovalLevelsRepository creates a new ApprovalLevelsRepository.
func NewApprovalLevelsRepository(db *database.DB) *ApprovalLevelsRepository {
	return &ApprovalLevelsRepository{db: db}
}

// GetByWorkflowID returns all levels for a workflow ordered by level_number.
func (r *ApprovalLevelsRepository) GetByWorkflowID(ctx context.Context, workflowID string) ([]*ApprovalLevel, error) {
	query := `
		SELECT id, workflow_id, level_number, title, approver_email,
		       status, decided_by, decided_at, comments, signature,
		       notification_state, created_at, updated_at
		FROM candidate_approval_levels
		WHERE workflow_id = $1
		ORDER BY level_number ASC
	`

	rows, err := r.db.Query(ctx, query, workflowID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get approval levels")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// GetCurrentLevel returns the level at the given level_number within a workflow.
func (r *ApprovalLevelsRepository) GetCurrentLevel(ctx context.Context, workflowID string, levelNumber int) (*ApprovalLevel, error) {
	query := `
		SELECT id, workflow_id, level_number, title, approver_email,
		       status, decided_by, decided_at, comments, signature,
		       notification_state, created_at, updated_at
		FROM candidate_approval_levels
		WHERE workflow_id = $1 AND level_number = $2
	`

	level, err := r.scanLevel(r.db.QueryRow(ctx, query, workflowID, levelNumber))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("approval_level", workflowID)
	}
	return level, err
}

// GetPendingForApprover returns all levels awaiting action from the given
// approver email, restricted to the level each workflow currently points at.
func (r *ApprovalLevelsRepository) GetPendingForApprover(ctx context.Context, approverEmail string) ([]*ApprovalLevel, error) {
	query := `
		SELECT l.id, l.workflow_id, l.level_number, l.title, l.approver_email,
		       l.status, l.decided_by, l.decided_at, l.comments, l.signature,
		       l.notification_state, l.created_at, l.updated_at
		FROM candidate_approval_levels l
		JOIN candidate_approval_workflows w ON w.id = l.workflow_id
		WHERE LOWER(l.approver_email) = LOWER($1)
		  AND l.status = 'pending'
		  AND l.level_number = w.current_level
		  AND w.status IN ('pending', 'in_progress')
		ORDER BY l.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, approverEmail)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get pending approvals")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type levelScanner interface {
	Scan(dest ...any) error
}

func (r *ApprovalLevelsRepository) scanLevel(row levelScanner) (*ApprovalLevel, error) {
	l := &ApprovalLevel{}
	err := row.Scan(
		&l.ID,
		&l.WorkflowID,
		&l.LevelNumber,
		&l.Title,
		&l.ApproverEmail,
		&l.Status,
		&l.DecidedBy,
		&l.DecidedAt,
		&l.Comments,
		&l.Signature,
		&l.NotificationState,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *ApprovalLevelsRepository) scanRows(rows pgx.Rows) ([]*ApprovalLevel, error) {
	var levels []*ApprovalLevel
	for rows.Next() {
		level, err := r.scanLevel(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approval level")
		}
		levels = append(levels, level)
	}
	return levels, nil
}
