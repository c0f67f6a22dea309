package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgc-erp/be-hr-approvals/internal/errors"
	"github.com/sgc-erp/be-hr-approvals/internal/logger"
	"github.com/sgc-erp/be-hr-approvals/internal/repository"
)

// Notification event types published to the platform notification service.
const (
	EventApprovalRequired        = "approval_required"
	EventApprovalReminder        = "approval_reminder"
	EventCandidateRejected       = "candidate_rejected"
	EventHiringConfirmation      = "hiring_confirmation"
	EventJoiningDocumentsRequest = "joining_documents_request"
)

// OutboundNotification is one message handed to the notification gateway.
type OutboundNotification struct {
	EventType   string
	WorkflowID  string
	LevelNumber *int
	Recipient   string
	ActionURL   string
	Payload     map[string]interface{}
}

// Notifier dispatches outbound notifications. Delivery is best-effort:
// the service records the outcome but never lets a send failure block or
// reverse a committed transition.
type Notifier interface {
	Send(ctx context.Context, n *OutboundNotification) error
}

// WorkflowStore persists workflow aggregates and applies transitions
// atomically under compare-and-swap guards.
type WorkflowStore interface {
	Create(ctx context.Context, wf *repository.ApprovalWorkflow, levels []*repository.ApprovalLevel) error
	GetByID(ctx context.Context, id string) (*repository.ApprovalWorkflow, error)
	GetByCandidateID(ctx context.Context, candidateID string) (*repository.ApprovalWorkflow, error)
	List(ctx context.Context, status *string, limit, offset int) ([]*repository.ApprovalWorkflow, int64, error)
	ApplyDecision(ctx context.Context, workflowID string, d *repository.LevelDecision) (levelID string, err error)
	Cancel(ctx context.Context, id string) error
	UpdateLevelNotificationState(ctx context.Context, workflowID string, levelNumber int, state string) error
}

// LevelStore reads approval levels.
type LevelStore interface {
	GetByWorkflowID(ctx context.Context, workflowID string) ([]*repository.ApprovalLevel, error)
	GetPendingForApprover(ctx context.Context, approverEmail string) ([]*repository.ApprovalLevel, error)
}

// AuditStore appends and reads the immutable action audit trail.
type AuditStore interface {
	Append(ctx context.Context, entry *repository.AuditEntry) error
	GetByWorkflowID(ctx context.Context, workflowID string) ([]*repository.AuditEntry, error)
}

// NotificationLogStore appends and reads the outbound notification log.
type NotificationLogStore interface {
	Append(ctx context.Context, rec *repository.NotificationRecord) error
	GetByWorkflowID(ctx context.Context, workflowID string) ([]*repository.NotificationRecord, error)
}

// CandidateStore projects workflow state onto the candidate record.
type CandidateStore interface {
	GetByID(ctx context.Context, id string) (*repository.CandidateSummary, error)
	SetStatus(ctx context.Context, candidateID, status string, updatedBy *string) error
}

// OnboardingStore idempotently creates the onboarding placeholder record.
type OnboardingStore interface {
	EnsureOnboarding(ctx context.Context, workflowID, candidateID string) (string, error)
}

// ChainStore resolves department default approver chains.
type ChainStore interface {
	Create(ctx context.Context, chain *repository.ApproverChain) error
	List(ctx context.Context, activeOnly bool) ([]*repository.ApproverChain, error)
	FindForDepartment(ctx context.Context, department string) (*repository.ApproverChain, error)
}

// Config holds the workflow-policy settings the service needs.
type Config struct {
	PublicBaseURL string
	// AllowUnverifiedApprover skips the approver-identity check on the
	// current level. Development/demo escape hatch, never the default.
	AllowUnverifiedApprover bool
}

// ApprovalWorkflowService orchestrates the five-level candidate hiring
// approval workflow: it evaluates transitions, persists them atomically, and
// dispatches side effects (candidate projection, onboarding, notifications)
// strictly after the authoritative transition has committed.
type ApprovalWorkflowService struct {
	workflows  WorkflowStore
	levels     LevelStore
	audit      AuditStore
	notifyLog  NotificationLogStore
	candidates CandidateStore
	onboarding OnboardingStore
	chains     ChainStore
	notifier   Notifier
	cfg        Config
	log        *logger.Logger
}

// NewApprovalWorkflowService creates a new ApprovalWorkflowService.
func NewApprovalWorkflowService(
	workflows WorkflowStore,
	levels LevelStore,
	audit AuditStore,
	notifyLog NotificationLogStore,
	candidates CandidateStore,
	onboarding OnboardingStore,
	chains ChainStore,
	notifier Notifier,
	cfg Config,
	log *logger.Logger,
) *ApprovalWorkflowService {
	return &ApprovalWorkflowService{
		workflows:  workflows,
		levels:     levels,
		audit:      audit,
		notifyLog:  notifyLog,
		candidates: candidates,
		onboarding: onboarding,
		chains:     chains,
		notifier:   notifier,
		cfg:        cfg,
		log:        log,
	}
}

// ── Requests and views ────────────────────────────────────────────────────────

// CreateWorkflowRequest creates a workflow for a candidate who passed the
// interview stage. ApproverEmails may be omitted when Department names a
// configured default chain.
type CreateWorkflowRequest struct {
	CandidateID    string
	JobPostingID   string
	ApplicationID  string
	ApproverEmails []string
	Department     string
	CreatedBy      *string
}

// DecisionRequest is an approve or reject call resolved against the
// workflow's current pending level.
type DecisionRequest struct {
	WorkflowID string
	ActorEmail string
	ActorID    *string // internal user reference; nil on the public surface
	Comments   *string
	Signature  *string
}

// WorkflowView is the projection returned to callers.
type WorkflowView struct {
	Workflow      *repository.ApprovalWorkflow
	Levels        []*repository.ApprovalLevel
	ApprovedCount int
}

// ── Creation ──────────────────────────────────────────────────────────────────

// CreateWorkflow creates the workflow with five pending levels, projects the
// candidate to approval_pending and requests the level-1 notification.
// This is the single creation entry point; uniqueness per candidate is
// checked here and enforced again by the store.
func (s *ApprovalWorkflowService) CreateWorkflow(ctx context.Context, req *CreateWorkflowRequest) (*WorkflowView, error) {
	if req.CandidateID == "" {
		return nil, errors.InvalidInput("candidateId", "candidate id is required")
	}
	if req.JobPostingID == "" {
		return nil, errors.InvalidInput("jobPostingId", "job posting id is required")
	}
	if req.ApplicationID == "" {
		return nil, errors.InvalidInput("applicationId", "application id is required")
	}

	emails, err := s.resolveApproverEmails(ctx, req)
	if err != nil {
		return nil, err
	}

	existing, err := s.workflows.GetByCandidateID(ctx, req.CandidateID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("approval workflow already exists for this candidate").
			WithDetail("workflowId", existing.ID)
	}

	wf := &repository.ApprovalWorkflow{
		CandidateID:   req.CandidateID,
		JobPostingID:  req.JobPostingID,
		ApplicationID: req.ApplicationID,
		Status:        repository.WorkflowStatusPending,
		CurrentLevel:  1,
		CreatedBy:     req.CreatedBy,
	}

	levels := make([]*repository.ApprovalLevel, 0, repository.TotalLevels)
	for i := 0; i < repository.TotalLevels; i++ {
		levels = append(levels, &repository.ApprovalLevel{
			LevelNumber:       i + 1,
			Title:             repository.LevelTitles[i],
			ApproverEmail:     emails[i],
			Status:            repository.LevelStatusPending,
			NotificationState: repository.NotificationNotSent,
		})
	}

	if err := s.workflows.Create(ctx, wf, levels); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("workflow_id", wf.ID).
		Str("candidate_id", wf.CandidateID).
		Msg("Approval workflow created")

	statusAfter := repository.CandidateStatusApprovalPending
	s.appendAudit(ctx, &repository.AuditEntry{
		WorkflowID:           wf.ID,
		Action:               "created",
		PerformedBy:          performedByValue(req.CreatedBy),
		CandidateStatusAfter: &statusAfter,
	})

	// Effects run only after the workflow is durably created.
	s.projectCandidate(ctx, wf, repository.CandidateStatusApprovalPending, req.CreatedBy)
	s.notifyLevel(ctx, wf, levels[0], EventApprovalRequired)

	return &WorkflowView{Workflow: wf, Levels: levels, ApprovedCount: 0}, nil
}

// resolveApproverEmails validates explicit emails or falls back to the
// department's configured default chain.
func (s *ApprovalWorkflowService) resolveApproverEmails(ctx context.Context, req *CreateWorkflowRequest) ([]string, error) {
	emails := req.ApproverEmails
	if len(emails) == 0 && req.Department != "" {
		chain, err := s.chains.FindForDepartment(ctx, req.Department)
		if err != nil {
			return nil, err
		}
		if chain == nil {
			return nil, errors.InvalidInput("approverEmails",
				fmt.Sprintf("no approver chain configured for department '%s'", req.Department))
		}
		emails = chain.ApproverEmails
	}

	if len(emails) != repository.TotalLevels {
		return nil, errors.InvalidInput("approverEmails",
			fmt.Sprintf("exactly %d approver emails are required", repository.TotalLevels))
	}
	for i, email := range emails {
		if strings.TrimSpace(email) == "" {
			return nil, errors.InvalidInput("approverEmails",
				fmt.Sprintf("approver email for level %d is empty", i+1))
		}
	}
	return emails, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Get returns the workflow projection.
func (s *ApprovalWorkflowService) Get(ctx context.Context, id string) (*WorkflowView, error) {
	snap, err := s.loadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshotView(snap), nil
}

// List returns workflows newest-first with optional status filter.
func (s *ApprovalWorkflowService) List(ctx context.Context, status *string, page, pageSize int) ([]*repository.ApprovalWorkflow, int64, error) {
	offset := (page - 1) * pageSize
	return s.workflows.List(ctx, status, pageSize, offset)
}

// PendingForApprover returns the levels currently awaiting the given approver.
func (s *ApprovalWorkflowService) PendingForApprover(ctx context.Context, approverEmail string) ([]*repository.ApprovalLevel, error) {
	return s.levels.GetPendingForApprover(ctx, approverEmail)
}

// History returns the workflow's audit trail.
func (s *ApprovalWorkflowService) History(ctx context.Context, workflowID string) ([]*repository.AuditEntry, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.audit.GetByWorkflowID(ctx, workflowID)
}

// Notifications returns the workflow's outbound notification log.
func (s *ApprovalWorkflowService) Notifications(ctx context.Context, workflowID string) ([]*repository.NotificationRecord, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.notifyLog.GetByWorkflowID(ctx, workflowID)
}

// ── Approve ───────────────────────────────────────────────────────────────────

// Approve resolves the current pending level as approved for the acting
// approver. On the final level the workflow completes, the candidate is
// projected to hired, the onboarding record is created idempotently and the
// hiring notifications are dispatched.
func (s *ApprovalWorkflowService) Approve(ctx context.Context, req *DecisionRequest) (*WorkflowView, error) {
	snap, err := s.loadSnapshot(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}

	plan, err := evaluateApprove(snap, req.ActorEmail, req.ActorID, req.Comments, req.Signature, s.cfg.AllowUnverifiedApprover)
	if err != nil {
		return nil, err
	}

	levelID, err := s.workflows.ApplyDecision(ctx, snap.Workflow.ID, &plan.Decision)
	if err != nil {
		return nil, s.reconcileConflict(ctx, req.WorkflowID, err)
	}

	s.log.Info().
		Str("workflow_id", snap.Workflow.ID).
		Int("level", plan.Level.LevelNumber).
		Str("actor", req.ActorEmail).
		Bool("complete", plan.Complete).
		Msg("Approval level approved")

	before := candidateStatusBefore(snap.Workflow)
	s.appendAudit(ctx, &repository.AuditEntry{
		WorkflowID:            snap.Workflow.ID,
		LevelID:               &levelID,
		Action:                "approved",
		PerformedBy:           performedByValue(req.ActorID, req.ActorEmail),
		CandidateStatusBefore: &before,
		CandidateStatusAfter:  &plan.CandidateStatus,
		Metadata:              map[string]interface{}{"level": plan.Level.LevelNumber},
	})

	s.dispatchApproveEffects(ctx, snap.Workflow, plan, req)

	return s.Get(ctx, req.WorkflowID)
}

// dispatchApproveEffects runs the post-commit side effects of an approval.
// Every effect is best-effort: failures are logged and audited, never
// propagated, because the authoritative transition has already committed.
func (s *ApprovalWorkflowService) dispatchApproveEffects(ctx context.Context, wf *repository.ApprovalWorkflow, plan *TransitionPlan, req *DecisionRequest) {
	s.projectCandidate(ctx, wf, plan.CandidateStatus, req.ActorID)

	if !plan.Complete {
		s.notifyLevel(ctx, wf, plan.NextLevel, EventApprovalRequired)
		return
	}

	// Terminal approval: onboarding first (idempotent), then the hiring
	// notifications. Re-entry after a partial failure repeats both safely.
	onboardingID, err := s.onboarding.EnsureOnboarding(ctx, wf.ID, wf.CandidateID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("workflow_id", wf.ID).
			Msg("Failed to create onboarding record")
	} else {
		s.appendAudit(ctx, &repository.AuditEntry{
			WorkflowID:  wf.ID,
			Action:      "onboarding_initiated",
			PerformedBy: performedByValue(req.ActorID, req.ActorEmail),
			Metadata:    map[string]interface{}{"onboarding_id": onboardingID},
		})
	}

	candidate := s.candidateSummary(ctx, wf.CandidateID)
	recipient := ""
	if candidate != nil {
		recipient = candidate.Email
	}
	s.dispatch(ctx, wf, &OutboundNotification{
		EventType:  EventHiringConfirmation,
		WorkflowID: wf.ID,
		Recipient:  recipient,
		Payload:    s.candidatePayload(wf, candidate),
	})
	s.dispatch(ctx, wf, &OutboundNotification{
		EventType:  EventJoiningDocumentsRequest,
		WorkflowID: wf.ID,
		Recipient:  recipient,
		ActionURL:  fmt.Sprintf("%s/joining-documents/%s", s.cfg.PublicBaseURL, wf.ID),
		Payload:    s.candidatePayload(wf, candidate),
	})
}

// ── Reject ────────────────────────────────────────────────────────────────────

// Reject resolves the current pending level as rejected and terminates the
// whole workflow. Levels above the rejecting one stay pending forever.
func (s *ApprovalWorkflowService) Reject(ctx context.Context, req *DecisionRequest) (*WorkflowView, error) {
	snap, err := s.loadSnapshot(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}

	plan, err := evaluateReject(snap, req.ActorEmail, req.ActorID, req.Comments, req.Signature, s.cfg.AllowUnverifiedApprover)
	if err != nil {
		return nil, err
	}

	levelID, err := s.workflows.ApplyDecision(ctx, snap.Workflow.ID, &plan.Decision)
	if err != nil {
		return nil, s.reconcileConflict(ctx, req.WorkflowID, err)
	}

	s.log.Info().
		Str("workflow_id", snap.Workflow.ID).
		Int("level", plan.Level.LevelNumber).
		Str("actor", req.ActorEmail).
		Msg("Approval workflow rejected")

	before := candidateStatusBefore(snap.Workflow)
	s.appendAudit(ctx, &repository.AuditEntry{
		WorkflowID:            snap.Workflow.ID,
		LevelID:               &levelID,
		Action:                "rejected",
		PerformedBy:           performedByValue(req.ActorID, req.ActorEmail),
		CandidateStatusBefore: &before,
		CandidateStatusAfter:  &plan.CandidateStatus,
		Metadata:              map[string]interface{}{"level": plan.Level.LevelNumber},
	})

	s.projectCandidate(ctx, snap.Workflow, plan.CandidateStatus, req.ActorID)

	candidate := s.candidateSummary(ctx, snap.Workflow.CandidateID)
	recipient := ""
	if candidate != nil {
		recipient = candidate.Email
	}
	s.dispatch(ctx, snap.Workflow, &OutboundNotification{
		EventType:  EventCandidateRejected,
		WorkflowID: snap.Workflow.ID,
		Recipient:  recipient,
		Payload:    s.candidatePayload(snap.Workflow, candidate),
	})

	return s.Get(ctx, req.WorkflowID)
}

// ── Remind ────────────────────────────────────────────────────────────────────

// Remind re-dispatches the approval request for the current pending level.
// No state change; always safe to repeat.
func (s *ApprovalWorkflowService) Remind(ctx context.Context, workflowID, performedBy string) error {
	snap, err := s.loadSnapshot(ctx, workflowID)
	if err != nil {
		return err
	}

	level, err := evaluateRemind(snap)
	if err != nil {
		return err
	}

	s.notifyLevel(ctx, snap.Workflow, level, EventApprovalReminder)

	s.appendAudit(ctx, &repository.AuditEntry{
		WorkflowID:  workflowID,
		LevelID:     &level.ID,
		Action:      "reminded",
		PerformedBy: performedBy,
		Metadata:    map[string]interface{}{"level": level.LevelNumber},
	})
	return nil
}

// ── Cancel ────────────────────────────────────────────────────────────────────

// Cancel terminates a non-terminal workflow without resolving any level and
// returns the candidate to the pre-approval status.
func (s *ApprovalWorkflowService) Cancel(ctx context.Context, workflowID string, performedBy *string) error {
	snap, err := s.loadSnapshot(ctx, workflowID)
	if err != nil {
		return err
	}

	if err := evaluateCancel(snap); err != nil {
		return err
	}

	if err := s.workflows.Cancel(ctx, workflowID); err != nil {
		return err
	}

	s.log.Info().
		Str("workflow_id", workflowID).
		Msg("Approval workflow cancelled")

	before := candidateStatusBefore(snap.Workflow)
	statusAfter := repository.CandidateStatusPassed
	s.appendAudit(ctx, &repository.AuditEntry{
		WorkflowID:            workflowID,
		Action:                "cancelled",
		PerformedBy:           performedByValue(performedBy),
		CandidateStatusBefore: &before,
		CandidateStatusAfter:  &statusAfter,
	})

	s.projectCandidate(ctx, snap.Workflow, repository.CandidateStatusPassed, performedBy)
	return nil
}

// ── Approver chains ───────────────────────────────────────────────────────────

// CreateApproverChain registers a department default chain of five approvers.
func (s *ApprovalWorkflowService) CreateApproverChain(ctx context.Context, chain *repository.ApproverChain) error {
	if chain.Department == "" {
		return errors.InvalidInput("department", "department is required")
	}
	if len(chain.ApproverEmails) != repository.TotalLevels {
		return errors.InvalidInput("approverEmails",
			fmt.Sprintf("exactly %d approver emails are required", repository.TotalLevels))
	}
	return s.chains.Create(ctx, chain)
}

// ListApproverChains returns all configured approver chains.
func (s *ApprovalWorkflowService) ListApproverChains(ctx context.Context) ([]*repository.ApproverChain, error) {
	return s.chains.List(ctx, false)
}

// ── Internal helpers ──────────────────────────────────────────────────────────

func (s *ApprovalWorkflowService) loadSnapshot(ctx context.Context, workflowID string) (*Snapshot, error) {
	wf, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	levels, err := s.levels.GetByWorkflowID(ctx, wf.ID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Workflow: wf, Levels: levels}, nil
}

// reconcileConflict enriches a compare-and-swap conflict (race loser, stale
// email link) with the authoritative current state so the caller can
// re-render instead of retrying blindly.
func (s *ApprovalWorkflowService) reconcileConflict(ctx context.Context, workflowID string, err error) error {
	if errors.Code(err) != errors.ErrCodeConflict {
		return err
	}
	wf, loadErr := s.workflows.GetByID(ctx, workflowID)
	if loadErr != nil {
		return err
	}
	return errors.Conflict(
		fmt.Sprintf("level already decided; workflow is at level %d with status '%s'", wf.CurrentLevel, wf.Status)).
		WithDetail("currentLevel", wf.CurrentLevel).
		WithDetail("status", wf.Status)
}

// projectCandidate updates the candidate's coarse status. Read-model only:
// failures are logged, never propagated.
func (s *ApprovalWorkflowService) projectCandidate(ctx context.Context, wf *repository.ApprovalWorkflow, status string, updatedBy *string) {
	if err := s.candidates.SetStatus(ctx, wf.CandidateID, status, updatedBy); err != nil {
		s.log.Warn().Err(err).
			Str("workflow_id", wf.ID).
			Str("candidate_id", wf.CandidateID).
			Str("status", status).
			Msg("Failed to project candidate status")
	}
}

func (s *ApprovalWorkflowService) candidateSummary(ctx context.Context, candidateID string) *repository.CandidateSummary {
	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("candidate_id", candidateID).
			Msg("Failed to load candidate for notification payload")
		return nil
	}
	return candidate
}

func (s *ApprovalWorkflowService) candidatePayload(wf *repository.ApprovalWorkflow, candidate *repository.CandidateSummary) map[string]interface{} {
	payload := map[string]interface{}{
		"workflow_id":  wf.ID,
		"candidate_id": wf.CandidateID,
	}
	if candidate != nil {
		payload["candidate_name"] = strings.TrimSpace(candidate.FirstName + " " + candidate.LastName)
	}
	return payload
}

// notifyLevel dispatches an approval-request or reminder to a level's
// approver and records the outcome on the level.
func (s *ApprovalWorkflowService) notifyLevel(ctx context.Context, wf *repository.ApprovalWorkflow, level *repository.ApprovalLevel, eventType string) {
	n := &OutboundNotification{
		EventType:   eventType,
		WorkflowID:  wf.ID,
		LevelNumber: &level.LevelNumber,
		Recipient:   level.ApproverEmail,
		ActionURL:   fmt.Sprintf("%s/public-approval/%s", s.cfg.PublicBaseURL, wf.ID),
		Payload: map[string]interface{}{
			"workflow_id":  wf.ID,
			"candidate_id": wf.CandidateID,
			"level":        level.LevelNumber,
			"level_title":  level.Title,
		},
	}
	s.dispatch(ctx, wf, n)
}

// dispatch sends one notification and records the attempt in the outbound
// log, and on the level's notification_state when level-scoped. Send failures
// never interrupt the calling operation.
func (s *ApprovalWorkflowService) dispatch(ctx context.Context, wf *repository.ApprovalWorkflow, n *OutboundNotification) {
	sendErr := s.notifier.Send(ctx, n)

	rec := &repository.NotificationRecord{
		WorkflowID:     wf.ID,
		EventType:      n.EventType,
		LevelNumber:    n.LevelNumber,
		Recipient:      n.Recipient,
		DeliveryStatus: repository.NotificationSent,
	}
	levelState := repository.NotificationSent
	if sendErr != nil {
		detail := sendErr.Error()
		rec.DeliveryStatus = repository.NotificationFailed
		rec.ErrorDetail = &detail
		levelState = repository.NotificationFailed
		s.log.Warn().Err(sendErr).
			Str("workflow_id", wf.ID).
			Str("event_type", n.EventType).
			Msg("Failed to dispatch notification (non-fatal)")
	}

	if err := s.notifyLog.Append(ctx, rec); err != nil {
		s.log.Warn().Err(err).
			Str("workflow_id", wf.ID).
			Str("event_type", n.EventType).
			Msg("Failed to record notification attempt")
	}
	if n.LevelNumber != nil {
		if err := s.workflows.UpdateLevelNotificationState(ctx, wf.ID, *n.LevelNumber, levelState); err != nil {
			s.log.Warn().Err(err).
				Str("workflow_id", wf.ID).
				Int("level", *n.LevelNumber).
				Msg("Failed to record level notification state")
		}
	}
}

// appendAudit writes an audit entry and logs a warning on failure.
func (s *ApprovalWorkflowService) appendAudit(ctx context.Context, entry *repository.AuditEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("workflow_id", entry.WorkflowID).
			Str("action", entry.Action).
			Msg("Failed to write audit log entry")
	}
}

func snapshotView(snap *Snapshot) *WorkflowView {
	return &WorkflowView{
		Workflow:      snap.Workflow,
		Levels:        snap.Levels,
		ApprovedCount: snap.ApprovedCount(),
	}
}

func candidateStatusBefore(wf *repository.ApprovalWorkflow) string {
	if wf.Status == repository.WorkflowStatusPending {
		return repository.CandidateStatusApprovalPending
	}
	return repository.CandidateStatusApprovalInProgress
}

// performedByValue picks the first non-empty identity for the audit trail.
func performedByValue(ids ...any) string {
	for _, id := range ids {
		switch v := id.(type) {
		case string:
			if v != "" {
				return v
			}
		case *string:
			if v != nil && *v != "" {
				return *v
			}
		}
	}
	return "system"
}
