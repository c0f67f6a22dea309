package repository

import (
	"context"

	"github.com/sgc-erp/be-hr-approvals/internal/database"
	"github.com/sgc-erp/be-hr-approvals/internal/errors"
)

// OnboardingRepository creates the placeholder onboarding record exactly once
// per workflow. The finalize path can be re-entered after a partial failure,
// so creation must be idempotent under retry.
type OnboardingRepository struct {
	db *database.DB
}

// NewOnboardingRepository creates a new OnboardingRepository.
func NewOnboardingRepository(db *database.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

// EnsureOnboarding creates the onboarding record for a workflow if it does
// not exist and returns its id. Repeated calls return the same id: the insert
// no-ops on the workflow_id unique constraint and the following select reads
// whichever row won.
func (r *OnboardingRepository) EnsureOnboarding(ctx context.Context, workflowID, candidateID string) (string, error) {
	insert := `
		INSERT INTO employee_onboardings (workflow_id, candidate_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (workflow_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, insert, workflowID, candidateID); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to create onboarding record")
	}

	var id string
	query := `SELECT id FROM employee_onboardings WHERE workflow_id = $1`
	if err := r.db.QueryRow(ctx, query, workflowID).Scan(&id); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to read onboarding record")
	}
	return id, nil
}
