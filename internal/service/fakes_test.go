package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sgc-erp/be-hr-approvals/internal/errors"
	"github.com/sgc-erp/be-hr-approvals/internal/logger"
	"github.com/sgc-erp/be-hr-approvals/internal/repository"
)

// memStore is an in-memory implementation of every store interface. Decision
// application takes the same compare-and-swap stance as the SQL store: all
// mutations run under one mutex and the guards are re-checked inside it, so
// concurrent callers race exactly as they would on the database row.
type memStore struct {
	mu sync.Mutex

	workflows     map[string]*repository.ApprovalWorkflow
	levels        map[string][]*repository.ApprovalLevel
	audits        []*repository.AuditEntry
	notifications []*repository.NotificationRecord
	candidates    map[string]*repository.CandidateSummary
	onboardings   map[string]string
	chains        []*repository.ApproverChain
}

func newMemStore() *memStore {
	return &memStore{
		workflows:   make(map[string]*repository.ApprovalWorkflow),
		levels:      make(map[string][]*repository.ApprovalLevel),
		candidates:  make(map[string]*repository.CandidateSummary),
		onboardings: make(map[string]string),
	}
}

func (m *memStore) addCandidate(id, firstName, lastName, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[id] = &repository.CandidateSummary{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Status:    repository.CandidateStatusPassed,
	}
}

func copyWorkflow(wf *repository.ApprovalWorkflow) *repository.ApprovalWorkflow {
	c := *wf
	return &c
}

func copyLevels(levels []*repository.ApprovalLevel) []*repository.ApprovalLevel {
	out := make([]*repository.ApprovalLevel, len(levels))
	for i, l := range levels {
		c := *l
		out[i] = &c
	}
	return out
}

// ── WorkflowStore ─────────────────────────────────────────────────────────────

func (m *memStore) Create(_ context.Context, wf *repository.ApprovalWorkflow, levels []*repository.ApprovalLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.workflows {
		if existing.CandidateID == wf.CandidateID {
			return errors.Conflict("approval workflow already exists for this candidate")
		}
	}

	wf.ID = uuid.NewString()
	wf.CreatedAt = time.Now()
	wf.UpdatedAt = wf.CreatedAt
	m.workflows[wf.ID] = copyWorkflow(wf)

	for i, l := range levels {
		l.ID = fmt.Sprintf("%s-level-%d", wf.ID, i+1)
		l.WorkflowID = wf.ID
	}
	m.levels[wf.ID] = copyLevels(levels)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*repository.ApprovalWorkflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wf, ok := m.workflows[id]
	if !ok {
		return nil, errors.NotFound("approval_workflow", id)
	}
	return copyWorkflow(wf), nil
}

func (m *memStore) GetByCandidateID(_ context.Context, candidateID string) (*repository.ApprovalWorkflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wf := range m.workflows {
		if wf.CandidateID == candidateID {
			return copyWorkflow(wf), nil
		}
	}
	return nil, nil
}

func (m *memStore) List(_ context.Context, status *string, limit, offset int) ([]*repository.ApprovalWorkflow, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []*repository.ApprovalWorkflow
	for _, wf := range m.workflows {
		if status != nil && wf.Status != *status {
			continue
		}
		all = append(all, copyWorkflow(wf))
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memStore) ApplyDecision(_ context.Context, workflowID string, d *repository.LevelDecision) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wf, ok := m.workflows[workflowID]
	if !ok {
		return "", errors.NotFound("approval_workflow", workflowID)
	}
	levels := m.levels[workflowID]
	if d.LevelNumber < 1 || d.LevelNumber > len(levels) {
		return "", errors.Conflict("level is no longer pending")
	}

	level := levels[d.LevelNumber-1]
	if level.Status != repository.LevelStatusPending {
		return "", errors.Conflict("level is no longer pending")
	}
	if wf.CurrentLevel != d.LevelNumber || wf.Terminal() {
		return "", errors.Conflict("workflow state changed concurrently")
	}

	now := time.Now()
	level.Status = d.LevelStatus
	level.DecidedBy = d.DecidedBy
	level.DecidedAt = &now
	level.Comments = d.Comments
	level.Signature = d.Signature
	level.UpdatedAt = now

	wf.Status = d.WorkflowStatus
	wf.UpdatedAt = now
	if d.Complete {
		wf.FinalDecision = d.FinalDecision
		wf.CompletedAt = &now
	} else {
		wf.CurrentLevel = d.NextLevel
	}
	return level.ID, nil
}

func (m *memStore) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wf, ok := m.workflows[id]
	if !ok {
		return errors.NotFound("approval_workflow", id)
	}
	if wf.Terminal() {
		return errors.Conflict("cannot cancel a completed approval workflow")
	}
	wf.Status = repository.WorkflowStatusCancelled
	wf.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) UpdateLevelNotificationState(_ context.Context, workflowID string, levelNumber int, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := m.levels[workflowID]
	if levelNumber >= 1 && levelNumber <= len(levels) {
		levels[levelNumber-1].NotificationState = state
	}
	return nil
}

// ── LevelStore ────────────────────────────────────────────────────────────────

func (m *memStore) GetByWorkflowID(_ context.Context, workflowID string) ([]*repository.ApprovalLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyLevels(m.levels[workflowID]), nil
}

func (m *memStore) GetPendingForApprover(_ context.Context, approverEmail string) ([]*repository.ApprovalLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*repository.ApprovalLevel
	for wfID, levels := range m.levels {
		wf := m.workflows[wfID]
		if wf.Terminal() {
			continue
		}
		current := levels[wf.CurrentLevel-1]
		if current.Status == repository.LevelStatusPending && strings.EqualFold(current.ApproverEmail, approverEmail) {
			c := *current
			out = append(out, &c)
		}
	}
	return out, nil
}

// ── AuditStore ────────────────────────────────────────────────────────────────

func (m *memStore) auditByAction(action string) []*repository.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*repository.AuditEntry
	for _, e := range m.audits {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// auditStore and notifyLogStore disambiguate the two Append/GetByWorkflowID
// pairs that would otherwise collide on memStore.
type auditStore struct{ m *memStore }

func (s auditStore) Append(_ context.Context, entry *repository.AuditEntry) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.PerformedAt = time.Now()
	s.m.audits = append(s.m.audits, entry)
	return nil
}

func (s auditStore) GetByWorkflowID(_ context.Context, workflowID string) ([]*repository.AuditEntry, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*repository.AuditEntry
	for _, e := range s.m.audits {
		if e.WorkflowID == workflowID {
			out = append(out, e)
		}
	}
	return out, nil
}

type notifyLogStore struct{ m *memStore }

func (s notifyLogStore) Append(_ context.Context, rec *repository.NotificationRecord) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.SentAt = time.Now()
	s.m.notifications = append(s.m.notifications, rec)
	return nil
}

func (s notifyLogStore) GetByWorkflowID(_ context.Context, workflowID string) ([]*repository.NotificationRecord, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*repository.NotificationRecord
	for _, rec := range s.m.notifications {
		if rec.WorkflowID == workflowID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ── CandidateStore ────────────────────────────────────────────────────────────

type candidateStore struct{ m *memStore }

func (s candidateStore) GetByID(_ context.Context, id string) (*repository.CandidateSummary, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.candidates[id]
	if !ok {
		return nil, errors.NotFound("candidate", id)
	}
	cc := *c
	return &cc, nil
}

func (s candidateStore) SetStatus(_ context.Context, candidateID, status string, _ *string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.candidates[candidateID]
	if !ok {
		return errors.NotFound("candidate", candidateID)
	}
	c.Status = status
	return nil
}

func (s candidateStore) status(candidateID string) string {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.candidates[candidateID].Status
}

// ── OnboardingStore ───────────────────────────────────────────────────────────

type onboardingStore struct{ m *memStore }

func (s onboardingStore) EnsureOnboarding(_ context.Context, workflowID, _ string) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if id, ok := s.m.onboardings[workflowID]; ok {
		return id, nil
	}
	id := uuid.NewString()
	s.m.onboardings[workflowID] = id
	return id, nil
}

// ── ChainStore ────────────────────────────────────────────────────────────────

type chainStore struct{ m *memStore }

func (s chainStore) Create(_ context.Context, chain *repository.ApproverChain) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	chain.ID = uuid.NewString()
	chain.CreatedAt = time.Now()
	chain.UpdatedAt = chain.CreatedAt
	s.m.chains = append(s.m.chains, chain)
	return nil
}

func (s chainStore) List(_ context.Context, activeOnly bool) ([]*repository.ApproverChain, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*repository.ApproverChain
	for _, c := range s.m.chains {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s chainStore) FindForDepartment(_ context.Context, department string) (*repository.ApproverChain, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var best *repository.ApproverChain
	for _, c := range s.m.chains {
		if c.Department != department || !c.IsActive {
			continue
		}
		if best == nil || c.Priority < best.Priority {
			best = c
		}
	}
	return best, nil
}

// ── Notifier ──────────────────────────────────────────────────────────────────

// recordingNotifier captures sent notifications; failEvents forces send
// failures for the named event types.
type recordingNotifier struct {
	mu         sync.Mutex
	sent       []*OutboundNotification
	failEvents map[string]bool
}

func (n *recordingNotifier) Send(_ context.Context, msg *OutboundNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	if n.failEvents[msg.EventType] {
		return fmt.Errorf("notification gateway unavailable")
	}
	return nil
}

func (n *recordingNotifier) byEvent(eventType string) []*OutboundNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*OutboundNotification
	for _, msg := range n.sent {
		if msg.EventType == eventType {
			out = append(out, msg)
		}
	}
	return out
}

// ── Test harness ──────────────────────────────────────────────────────────────

type testEnv struct {
	store    *memStore
	notifier *recordingNotifier
	svc      *ApprovalWorkflowService
}

func newTestEnv(cfg Config) *testEnv {
	store := newMemStore()
	notifier := &recordingNotifier{failEvents: make(map[string]bool)}
	log := logger.New(logger.Config{Level: "error", ServiceName: "test"})

	svc := NewApprovalWorkflowService(
		store,
		store,
		auditStore{store},
		notifyLogStore{store},
		candidateStore{store},
		onboardingStore{store},
		chainStore{store},
		notifier,
		cfg,
		log,
	)
	return &testEnv{store: store, notifier: notifier, svc: svc}
}
