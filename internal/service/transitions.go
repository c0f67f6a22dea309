package service

import (
	"fmt"
	"strings"

	"github.com/sgc-erp/be-hr-approvals/internal/errors"
	"github.com/sgc-erp/be-hr-approvals/internal/repository"
)

// Snapshot is a consistent read of a workflow and its ordered levels, the
// input to every transition evaluation.
type Snapshot struct {
	Workflow *repository.ApprovalWorkflow
	Levels   []*repository.ApprovalLevel // ordered by level_number, length 5
}

// CurrentLevel returns the level the workflow currently points at.
func (s *Snapshot) CurrentLevel() *repository.ApprovalLevel {
	idx := s.Workflow.CurrentLevel - 1
	if idx < 0 || idx >= len(s.Levels) {
		return nil
	}
	return s.Levels[idx]
}

// ApprovedCount returns the number of approved levels.
func (s *Snapshot) ApprovedCount() int {
	n := 0
	for _, l := range s.Levels {
		if l.Status == repository.LevelStatusApproved {
			n++
		}
	}
	return n
}

// TransitionPlan is the outcome of evaluating a transition against a
// snapshot. It is applied atomically by the workflow store; effects
// (projection, notifications, onboarding) are dispatched by the service only
// after the plan has been persisted.
type TransitionPlan struct {
	Decision repository.LevelDecision

	Level           *repository.ApprovalLevel // the level being resolved
	NextLevel       *repository.ApprovalLevel // level to notify on a non-final approve
	Complete        bool                      // all five levels approved
	Rejected        bool
	CandidateStatus string // candidate projection after commit
}

// evaluateApprove validates an approve call and produces its transition plan.
//
// allowUnverified skips only the approver-identity match (development
// escape hatch); sequencing is enforced unconditionally — the plan always
// targets the workflow's current level.
func evaluateApprove(snap *Snapshot, actorEmail string, actorID, comments, signature *string, allowUnverified bool) (*TransitionPlan, error) {
	level, err := actionableLevel(snap, actorEmail, allowUnverified)
	if err != nil {
		return nil, err
	}

	decidedBy := decidedByValue(actorEmail, actorID)
	complete := snap.ApprovedCount()+1 == repository.TotalLevels

	plan := &TransitionPlan{
		Decision: repository.LevelDecision{
			LevelNumber: level.LevelNumber,
			LevelStatus: repository.LevelStatusApproved,
			DecidedBy:   &decidedBy,
			Comments:    comments,
			Signature:   signature,
		},
		Level:    level,
		Complete: complete,
	}

	if complete {
		final := repository.WorkflowStatusApproved
		plan.Decision.WorkflowStatus = repository.WorkflowStatusApproved
		plan.Decision.FinalDecision = &final
		plan.Decision.Complete = true
		plan.CandidateStatus = repository.CandidateStatusHired
	} else {
		next := level.LevelNumber + 1
		plan.Decision.WorkflowStatus = repository.WorkflowStatusInProgress
		plan.Decision.NextLevel = next
		plan.NextLevel = snap.Levels[next-1]
		plan.CandidateStatus = repository.CandidateStatusApprovalInProgress
	}

	return plan, nil
}

// evaluateReject validates a reject call and produces its transition plan.
// Rejection at any level terminates the whole workflow; levels above the
// rejecting one are left pending and never become actionable.
func evaluateReject(snap *Snapshot, actorEmail string, actorID, comments, signature *string, allowUnverified bool) (*TransitionPlan, error) {
	level, err := actionableLevel(snap, actorEmail, allowUnverified)
	if err != nil {
		return nil, err
	}

	decidedBy := decidedByValue(actorEmail, actorID)
	final := repository.WorkflowStatusRejected

	return &TransitionPlan{
		Decision: repository.LevelDecision{
			LevelNumber:    level.LevelNumber,
			LevelStatus:    repository.LevelStatusRejected,
			DecidedBy:      &decidedBy,
			Comments:       comments,
			Signature:      signature,
			WorkflowStatus: repository.WorkflowStatusRejected,
			FinalDecision:  &final,
			Complete:       true,
		},
		Level:           level,
		Rejected:        true,
		CandidateStatus: repository.CandidateStatusRejected,
	}, nil
}

// evaluateRemind returns the level whose approver should be re-notified.
// No state change is planned; remind is a pure side-effect re-dispatch.
func evaluateRemind(snap *Snapshot) (*repository.ApprovalLevel, error) {
	if snap.Workflow.Terminal() {
		return nil, workflowTerminalError(snap.Workflow)
	}
	level := snap.CurrentLevel()
	if level == nil || level.Status != repository.LevelStatusPending {
		return nil, errors.Conflict("no pending approval level to remind")
	}
	return level, nil
}

// evaluateCancel validates that the workflow can still be cancelled.
func evaluateCancel(snap *Snapshot) error {
	if snap.Workflow.Terminal() {
		return errors.Conflict(
			fmt.Sprintf("cannot cancel approval workflow with status '%s'", snap.Workflow.Status))
	}
	return nil
}

// actionableLevel resolves the single level the actor may act on: the
// workflow must be non-terminal, the current level must be pending, and the
// actor must hold that level's approver identity (unless relaxed).
func actionableLevel(snap *Snapshot, actorEmail string, allowUnverified bool) (*repository.ApprovalLevel, error) {
	if snap.Workflow.Terminal() {
		return nil, workflowTerminalError(snap.Workflow)
	}

	level := snap.CurrentLevel()
	if level == nil || level.Status != repository.LevelStatusPending {
		return nil, errors.Conflict("no pending approval level").
			WithDetail("currentLevel", snap.Workflow.CurrentLevel).
			WithDetail("status", snap.Workflow.Status)
	}

	if !allowUnverified && !strings.EqualFold(level.ApproverEmail, actorEmail) {
		return nil, errors.Unauthorized("no pending approval level for this approver").
			WithDetail("currentLevel", level.LevelNumber).
			WithDetail("currentLevelTitle", level.Title)
	}

	return level, nil
}

func workflowTerminalError(wf *repository.ApprovalWorkflow) *errors.Error {
	return errors.Conflict(
		fmt.Sprintf("approval workflow already completed with status '%s'", wf.Status)).
		WithDetail("status", wf.Status).
		WithDetail("currentLevel", wf.CurrentLevel)
}

// decidedByValue records the acting identity on the level: the internal user
// reference when present, otherwise the email submitted on the public surface.
func decidedByValue(actorEmail string, actorID *string) string {
	if actorID != nil && *actorID != "" {
		return *actorID
	}
	return actorEmail
}
