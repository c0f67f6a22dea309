package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/sgc-erp/be-hr-approvals/internal/database"
	"github.com/sgc-erp/be-hr-approvals/internal/errors"
)

// ApprovalAuditRepository appends and reads immutable workflow audit entries.
type ApprovalAuditRepository struct {
	db *database.DB
}

// NewApprovalAuditRepository creates a new ApprovalAuditRepository.
func NewApprovalAuditRepository(db *database.DB) *ApprovalAuditRepository {
	return &ApprovalAuditRepository{db: db}
}

// Append inserts one audit entry. The table has a delete-prevention trigger
// so this is the only mutation operation exposed.
func (r *ApprovalAuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal audit metadata")
		}
	}

	query := `
		INSERT INTO candidate_approval_audit_log
		    (workflow_id, level_id, action, performed_by,
		     candidate_status_before, candidate_status_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, performed_at
	`

	return r.db.QueryRow(ctx, query,
		entry.WorkflowID,
		entry.LevelID,
		entry.Action,
		entry.PerformedBy,
		entry.CandidateStatusBefore,
		entry.CandidateStatusAfter,
		metadataJSON,
	).Scan(&entry.ID, &entry.PerformedAt)
}

// GetByWorkflowID returns the full audit trail for a workflow oldest-first.
func (r *ApprovalAuditRepository) GetByWorkflowID(ctx context.Context, workflowID string) ([]*AuditEntry, error) {
	query := `
		SELECT id, workflow_id, level_id, action, performed_by, performed_at,
		       candidate_status_before, candidate_status_after, metadata
		FROM candidate_approval_audit_log
		WHERE workflow_id = $1
		ORDER BY performed_at ASC
	`

	rows, err := r.db.Query(ctx, query, workflowID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get audit log")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// ── scan helpers ──────────────────────────────────────────────────────────────

func (r *ApprovalAuditRepository) scanRows(rows pgx.Rows) ([]*AuditEntry, error) {
	var entries []*AuditEntry
	for rows.Next() {
		entry := &AuditEntry{}
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.WorkflowID,
			&entry.LevelID,
			&entry.Action,
			&entry.PerformedBy,
			&entry.PerformedAt,
			&entry.CandidateStatusBefore,
			&entry.CandidateStatusAfter,
			&metadataJSON,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan audit entry")
		}

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal audit metadata")
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
