package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/sgc-erp/be-hr-approvals/internal/database"
	"github.com/sgc-erp/be-hr-approvals/internal/errors"
)

// ApproverChainRepository manages department default approver chains, used
// when a create request does not name its five approvers explicitly.
type ApproverChainRepository struct {
	db *database.DB
}

// NewApproverChainRepository creates a new ApproverChainRepository.
func NewApproverChainRepository(db *database.DB) *ApproverChainRepository {
	return &ApproverChainRepository{db: db}
}

// Create inserts a new approver chain.
func (r *ApproverChainRepository) Create(ctx context.Context, chain *ApproverChain) error {
	emailsJSON, err := json.Marshal(chain.ApproverEmails)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal approver emails")
	}

	query := `
		INSERT INTO approver_chains
		    (department, approver_emails, is_active, priority)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		chain.Department,
		emailsJSON,
		chain.IsActive,
		chain.Priority,
	).Scan(&chain.ID, &chain.CreatedAt, &chain.UpdatedAt)
}

// List returns all chains, optionally restricted to active ones.
func (r *ApproverChainRepository) List(ctx context.Context, activeOnly bool) ([]*ApproverChain, error) {
	query := `
		SELECT id, department, approver_emails, is_active, priority,
		       created_at, updated_at
		FROM approver_chains
	`
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY priority ASC, department ASC"

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list approver chains")
	}
	defer rows.Close()

	var chains []*ApproverChain
	for rows.Next() {
		chain, err := r.scanChain(rows)
		if err != nil {
			return nil, err
		}
		chains = append(chains, chain)
	}
	return chains, nil
}

// FindForDepartment returns the highest-priority active chain for a
// department, or nil when none is configured.
func (r *ApproverChainRepository) FindForDepartment(ctx context.Context, department string) (*ApproverChain, error) {
	query := `
		SELECT id, department, approver_emails, is_active, priority,
		       created_at, updated_at
		FROM approver_chains
		WHERE department = $1
		  AND is_active = TRUE
		ORDER BY priority ASC
		LIMIT 1
	`

	chain, err := r.scanChain(r.db.QueryRow(ctx, query, department))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return chain, err
}

// ── scan helper ───────────────────────────────────────────────────────────────

type chainScanner interface {
	Scan(dest ...any) error
}

func (r *ApproverChainRepository) scanChain(row chainScanner) (*ApproverChain, error) {
	chain := &ApproverChain{}
	var emailsJSON []byte

	err := row.Scan(
		&chain.ID,
		&chain.Department,
		&emailsJSON,
		&chain.IsActive,
		&chain.Priority,
		&chain.CreatedAt,
		&chain.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(emailsJSON, &chain.ApproverEmails); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal approver emails")
	}
	return chain, nil
}
