package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sgc-erp/be-hr-approvals/internal/database"
	"github.com/sgc-erp/be-hr-approvals/internal/errors"
)

// NotificationLogRepository appends and reads the append-only log of outbound
// notification attempts. Entries are never mutated; a retry produces a new
// entry.
type NotificationLogRepository struct {
	db *database.DB
}

// NewNotificationLogRepository creates a new NotificationLogRepository.
func NewNotificationLogRepository(db *database.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

// Append records one outbound notification attempt.
func (r *NotificationLogRepository) Append(ctx context.Context, rec *NotificationRecord) error {
	query := `
		INSERT INTO approval_notifications
		    (workflow_id, event_type, level_number, recipient,
		     delivery_status, error_detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, sent_at
	`

	return r.db.QueryRow(ctx, query,
		rec.WorkflowID,
		rec.EventType,
		rec.LevelNumber,
		rec.Recipient,
		rec.DeliveryStatus,
		rec.ErrorDetail,
	).Scan(&rec.ID, &rec.SentAt)
}

// GetByWorkflowID returns all notification attempts for a workflow oldest-first.
func (r *NotificationLogRepository) GetByWorkflowID(ctx context.Context, workflowID string) ([]*NotificationRecord, error) {
	query := `
		SELECT id, workflow_id, event_type, level_number, recipient,
		       sent_at, delivery_status, error_detail
		FROM approval_notifications
		WHERE workflow_id = $1
		ORDER BY sent_at ASC
	`

	rows, err := r.db.Query(ctx, query, workflowID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get notification log")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

func (r *NotificationLogRepository) scanRows(rows pgx.Rows) ([]*NotificationRecord, error) {
	var records []*NotificationRecord
	for rows.Next() {
		rec := &NotificationRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.WorkflowID,
			&rec.EventType,
			&rec.LevelNumber,
			&rec.Recipient,
			&rec.SentAt,
			&rec.DeliveryStatus,
			&rec.ErrorDetail,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan notification record")
		}
		records = append(records, rec)
	}
	return records, nil
}
