package repository

import "time"

// ── Domain types for the candidate hiring approval workflow ──────────────────

// Workflow statuses.
const (
	WorkflowStatusPending    = "pending"
	WorkflowStatusInProgress = "in_progress"
	WorkflowStatusApproved   = "approved"
	WorkflowStatusRejected   = "rejected"
	WorkflowStatusCancelled  = "cancelled"
)

// Level statuses. Levels not yet reached stay pending; reachability is
// enforced by the workflow's current_level, not by a separate status.
const (
	LevelStatusPending  = "pending"
	LevelStatusApproved = "approved"
	LevelStatusRejected = "rejected"
)

// Notification delivery states recorded on a level.
const (
	NotificationNotSent = "not_sent"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// TotalLevels is the fixed length of the approval chain.
const TotalLevels = 5

// LevelTitles maps level number (1-based) to the fixed role title.
var LevelTitles = [TotalLevels]string{
	"Assistant Manager HR",
	"Manager HR",
	"HOD HR",
	"Vice President",
	"CEO",
}

// ApprovalWorkflow is the per-candidate aggregate. At most one exists per
// candidate (unique index on candidate_id).
type ApprovalWorkflow struct {
	ID            string
	CandidateID   string
	JobPostingID  string
	ApplicationID string
	Status        string // pending | in_progress | approved | rejected | cancelled
	CurrentLevel  int    // 1..5
	FinalDecision *string
	CompletedAt   *time.Time
	CreatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Terminal reports whether no further transitions are permitted.
func (w *ApprovalWorkflow) Terminal() bool {
	switch w.Status {
	case WorkflowStatusApproved, WorkflowStatusRejected, WorkflowStatusCancelled:
		return true
	}
	return false
}

// ApprovalLevel is one stage of a workflow's five-stage chain.
type ApprovalLevel struct {
	ID                string
	WorkflowID        string
	LevelNumber       int // 1..5, fixed identity
	Title             string
	ApproverEmail     string
	Status            string // pending | approved | rejected
	DecidedBy         *string
	DecidedAt         *time.Time
	Comments          *string
	Signature         *string
	NotificationState string // not_sent | sent | failed
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NotificationRecord is one entry in the append-only outbound message log.
type NotificationRecord struct {
	ID             string
	WorkflowID     string
	EventType      string
	LevelNumber    *int
	Recipient      string
	SentAt         time.Time
	DeliveryStatus string // sent | failed
	ErrorDetail    *string
}

// AuditEntry is one immutable record in the workflow action audit log.
type AuditEntry struct {
	ID                    string
	WorkflowID            string
	LevelID               *string
	Action                string // created | approved | rejected | reminded | cancelled | onboarding_initiated
	PerformedBy           string
	PerformedAt           time.Time
	CandidateStatusBefore *string
	CandidateStatusAfter  *string
	Metadata              map[string]interface{}
}

// ApproverChain is a department's default five-email approver chain,
// evaluated in priority order when a create request omits explicit emails.
type ApproverChain struct {
	ID             string
	Department     string
	ApproverEmails []string // exactly 5, ordered level 1..5
	IsActive       bool
	Priority       int // lower = evaluated first
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CandidateSummary is the slice of the candidate record this service reads
// for notification payloads and status projection.
type CandidateSummary struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Status    string
}

// Onboarding is the placeholder onboarding record created exactly once per
// terminally approved workflow.
type Onboarding struct {
	ID          string
	WorkflowID  string
	CandidateID string
	Status      string
	CreatedAt   time.Time
}
