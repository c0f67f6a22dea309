package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgc-erp/be-hr-approvals/internal/errors"
	"github.com/sgc-erp/be-hr-approvals/internal/repository"
)

func testEmails() []string {
	return []string{
		approverEmail(1), approverEmail(2), approverEmail(3),
		approverEmail(4), approverEmail(5),
	}
}

func createTestWorkflow(t *testing.T, env *testEnv) *WorkflowView {
	t.Helper()
	env.store.addCandidate("cand-1", "Asha", "Raman", "asha.raman@mail.test")

	createdBy := "recruiter-1"
	view, err := env.svc.CreateWorkflow(context.Background(), &CreateWorkflowRequest{
		CandidateID:    "cand-1",
		JobPostingID:   "job-1",
		ApplicationID:  "app-1",
		ApproverEmails: testEmails(),
		CreatedBy:      &createdBy,
	})
	require.NoError(t, err)
	return view
}

func decision(workflowID string, level int) *DecisionRequest {
	return &DecisionRequest{
		WorkflowID: workflowID,
		ActorEmail: approverEmail(level),
	}
}

func TestCreateWorkflow(t *testing.T) {
	t.Run("creates five pending levels and notifies the first approver", func(t *testing.T) {
		env := newTestEnv(Config{PublicBaseURL: "https://erp.test"})
		view := createTestWorkflow(t, env)

		assert.Equal(t, repository.WorkflowStatusPending, view.Workflow.Status)
		assert.Equal(t, 1, view.Workflow.CurrentLevel)
		require.Len(t, view.Levels, repository.TotalLevels)
		for i, level := range view.Levels {
			assert.Equal(t, i+1, level.LevelNumber)
			assert.Equal(t, repository.LevelTitles[i], level.Title)
			assert.Equal(t, repository.LevelStatusPending, level.Status)
		}

		sent := env.notifier.byEvent(EventApprovalRequired)
		require.Len(t, sent, 1)
		assert.Equal(t, approverEmail(1), sent[0].Recipient)
		assert.Contains(t, sent[0].ActionURL, "https://erp.test/public-approval/")

		assert.Equal(t, repository.CandidateStatusApprovalPending,
			candidateStore{env.store}.status("cand-1"))
		assert.Len(t, env.store.auditByAction("created"), 1)
	})

	t.Run("rejects a duplicate workflow for the same candidate", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		_, err := env.svc.CreateWorkflow(context.Background(), &CreateWorkflowRequest{
			CandidateID:    "cand-1",
			JobPostingID:   "job-2",
			ApplicationID:  "app-2",
			ApproverEmails: testEmails(),
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConflict, errors.Code(err))
		assert.Equal(t, view.Workflow.ID, errors.AsError(err).Details["workflowId"])
	})

	t.Run("validates required fields", func(t *testing.T) {
		env := newTestEnv(Config{})

		_, err := env.svc.CreateWorkflow(context.Background(), &CreateWorkflowRequest{
			JobPostingID:   "job-1",
			ApplicationID:  "app-1",
			ApproverEmails: testEmails(),
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeValidation, errors.Code(err))

		_, err = env.svc.CreateWorkflow(context.Background(), &CreateWorkflowRequest{
			CandidateID:    "cand-1",
			JobPostingID:   "job-1",
			ApplicationID:  "app-1",
			ApproverEmails: []string{"only@one.test"},
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeValidation, errors.Code(err))
	})

	t.Run("falls back to the department approver chain", func(t *testing.T) {
		env := newTestEnv(Config{})
		env.store.addCandidate("cand-2", "Ravi", "Iyer", "ravi.iyer@mail.test")

		require.NoError(t, env.svc.CreateApproverChain(context.Background(), &repository.ApproverChain{
			Department:     "Engineering",
			ApproverEmails: testEmails(),
			IsActive:       true,
		}))

		view, err := env.svc.CreateWorkflow(context.Background(), &CreateWorkflowRequest{
			CandidateID:   "cand-2",
			JobPostingID:  "job-1",
			ApplicationID: "app-1",
			Department:    "Engineering",
		})
		require.NoError(t, err)
		assert.Equal(t, approverEmail(1), view.Levels[0].ApproverEmail)
	})

	t.Run("fails when no chain exists for the department", func(t *testing.T) {
		env := newTestEnv(Config{})
		env.store.addCandidate("cand-3", "Mira", "Shah", "mira.shah@mail.test")

		_, err := env.svc.CreateWorkflow(context.Background(), &CreateWorkflowRequest{
			CandidateID:   "cand-3",
			JobPostingID:  "job-1",
			ApplicationID: "app-1",
			Department:    "Finance",
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeValidation, errors.Code(err))
	})
}

func TestApprove(t *testing.T) {
	t.Run("advances to the next level and notifies its approver", func(t *testing.T) {
		env := newTestEnv(Config{PublicBaseURL: "https://erp.test"})
		view := createTestWorkflow(t, env)

		result, err := env.svc.Approve(context.Background(), decision(view.Workflow.ID, 1))
		require.NoError(t, err)

		assert.Equal(t, repository.WorkflowStatusInProgress, result.Workflow.Status)
		assert.Equal(t, 2, result.Workflow.CurrentLevel)
		assert.Equal(t, 1, result.ApprovedCount)
		assert.Equal(t, repository.LevelStatusApproved, result.Levels[0].Status)

		sent := env.notifier.byEvent(EventApprovalRequired)
		require.Len(t, sent, 2)
		assert.Equal(t, approverEmail(2), sent[1].Recipient)

		assert.Equal(t, repository.CandidateStatusApprovalInProgress,
			candidateStore{env.store}.status("cand-1"))
	})

	t.Run("wrong approver is rejected without state change", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		_, err := env.svc.Approve(context.Background(), decision(view.Workflow.ID, 3))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeUnauthorized, errors.Code(err))

		after, err := env.svc.Get(context.Background(), view.Workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, after.Workflow.CurrentLevel)
		assert.Equal(t, 0, after.ApprovedCount)
	})

	t.Run("out of order approval is rejected", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		// Level 3's approver cannot act while the workflow is at level 1.
		_, err := env.svc.Approve(context.Background(), &DecisionRequest{
			WorkflowID: view.Workflow.ID,
			ActorEmail: approverEmail(3),
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeUnauthorized, errors.Code(err))
	})

	t.Run("final approval hires the candidate and creates onboarding once", func(t *testing.T) {
		env := newTestEnv(Config{PublicBaseURL: "https://erp.test"})
		view := createTestWorkflow(t, env)

		for level := 1; level <= repository.TotalLevels; level++ {
			_, err := env.svc.Approve(context.Background(), decision(view.Workflow.ID, level))
			require.NoError(t, err, "level %d", level)
		}

		after, err := env.svc.Get(context.Background(), view.Workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, repository.WorkflowStatusApproved, after.Workflow.Status)
		require.NotNil(t, after.Workflow.FinalDecision)
		assert.Equal(t, "approved", *after.Workflow.FinalDecision)
		assert.NotNil(t, after.Workflow.CompletedAt)
		assert.Equal(t, repository.TotalLevels, after.ApprovedCount)

		assert.Equal(t, repository.CandidateStatusHired,
			candidateStore{env.store}.status("cand-1"))
		assert.Len(t, env.store.onboardings, 1)
		assert.Len(t, env.store.auditByAction("onboarding_initiated"), 1)

		hiring := env.notifier.byEvent(EventHiringConfirmation)
		require.Len(t, hiring, 1)
		assert.Equal(t, "asha.raman@mail.test", hiring[0].Recipient)

		docs := env.notifier.byEvent(EventJoiningDocumentsRequest)
		require.Len(t, docs, 1)
		assert.Contains(t, docs[0].ActionURL, "/joining-documents/"+view.Workflow.ID)
	})

	t.Run("repeat approval of a decided workflow conflicts with current state", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		_, err := env.svc.Approve(context.Background(), decision(view.Workflow.ID, 1))
		require.NoError(t, err)

		// Stale email link: the same approver clicks approve again.
		_, err = env.svc.Approve(context.Background(), decision(view.Workflow.ID, 1))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeUnauthorized, errors.Code(err))
		assert.Equal(t, 2, errors.AsError(err).Details["currentLevel"])
	})

	t.Run("concurrent approvals of one level admit exactly one winner", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		const attempts = 8
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = env.svc.Approve(context.Background(), decision(view.Workflow.ID, 1))
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				code := errors.Code(err)
				assert.Contains(t, []string{errors.ErrCodeConflict, errors.ErrCodeUnauthorized}, code)
			}
		}
		assert.Equal(t, 1, wins)

		after, err := env.svc.Get(context.Background(), view.Workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, after.Workflow.CurrentLevel)
		assert.Equal(t, 1, after.ApprovedCount)
	})

	t.Run("unverified bypass lets any actor decide the current level", func(t *testing.T) {
		env := newTestEnv(Config{AllowUnverifiedApprover: true})
		view := createTestWorkflow(t, env)

		result, err := env.svc.Approve(context.Background(), &DecisionRequest{
			WorkflowID: view.Workflow.ID,
			ActorEmail: "dev@local.test",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Workflow.CurrentLevel)
		require.NotNil(t, result.Levels[0].DecidedBy)
		assert.Equal(t, "dev@local.test", *result.Levels[0].DecidedBy)
	})
}

func TestReject(t *testing.T) {
	t.Run("terminates the workflow at any level", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		_, err := env.svc.Approve(context.Background(), decision(view.Workflow.ID, 1))
		require.NoError(t, err)

		comments := "offer budget exceeded"
		result, err := env.svc.Reject(context.Background(), &DecisionRequest{
			WorkflowID: view.Workflow.ID,
			ActorEmail: approverEmail(2),
			Comments:   &comments,
		})
		require.NoError(t, err)

		assert.Equal(t, repository.WorkflowStatusRejected, result.Workflow.Status)
		require.NotNil(t, result.Workflow.FinalDecision)
		assert.Equal(t, "rejected", *result.Workflow.FinalDecision)
		assert.Equal(t, repository.LevelStatusRejected, result.Levels[1].Status)

		// Levels above the rejecting one stay pending forever.
		for _, level := range result.Levels[2:] {
			assert.Equal(t, repository.LevelStatusPending, level.Status)
		}

		assert.Equal(t, repository.CandidateStatusRejected,
			candidateStore{env.store}.status("cand-1"))
		rejected := env.notifier.byEvent(EventCandidateRejected)
		require.Len(t, rejected, 1)
		assert.Equal(t, "asha.raman@mail.test", rejected[0].Recipient)
		assert.Empty(t, env.store.onboardings)
	})

	t.Run("approval after rejection conflicts", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		_, err := env.svc.Reject(context.Background(), decision(view.Workflow.ID, 1))
		require.NoError(t, err)

		_, err = env.svc.Approve(context.Background(), decision(view.Workflow.ID, 2))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConflict, errors.Code(err))
	})
}

func TestRemind(t *testing.T) {
	t.Run("re-dispatches the approval request without state change", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		require.NoError(t, env.svc.Remind(context.Background(), view.Workflow.ID, "recruiter-1"))

		reminders := env.notifier.byEvent(EventApprovalReminder)
		require.Len(t, reminders, 1)
		assert.Equal(t, approverEmail(1), reminders[0].Recipient)

		after, err := env.svc.Get(context.Background(), view.Workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, after.Workflow.CurrentLevel)
		assert.Len(t, env.store.auditByAction("reminded"), 1)
	})

	t.Run("conflicts on a terminal workflow", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		_, err := env.svc.Reject(context.Background(), decision(view.Workflow.ID, 1))
		require.NoError(t, err)

		err = env.svc.Remind(context.Background(), view.Workflow.ID, "recruiter-1")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConflict, errors.Code(err))
	})
}

func TestCancel(t *testing.T) {
	t.Run("returns the candidate to the pre-approval status", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)
		performedBy := "recruiter-1"

		require.NoError(t, env.svc.Cancel(context.Background(), view.Workflow.ID, &performedBy))

		after, err := env.svc.Get(context.Background(), view.Workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, repository.WorkflowStatusCancelled, after.Workflow.Status)
		assert.Equal(t, repository.CandidateStatusPassed,
			candidateStore{env.store}.status("cand-1"))
	})

	t.Run("conflicts on a terminal workflow", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		_, err := env.svc.Reject(context.Background(), decision(view.Workflow.ID, 1))
		require.NoError(t, err)

		err = env.svc.Cancel(context.Background(), view.Workflow.ID, nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConflict, errors.Code(err))
	})
}

func TestNotificationFailureDoesNotBlockTransitions(t *testing.T) {
	env := newTestEnv(Config{})
	env.notifier.failEvents[EventApprovalRequired] = true
	view := createTestWorkflow(t, env)

	// Creation succeeded despite the failed notification; the failure is
	// recorded on the level and in the outbound log.
	after, err := env.svc.Get(context.Background(), view.Workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.WorkflowStatusPending, after.Workflow.Status)
	assert.Equal(t, repository.NotificationFailed, after.Levels[0].NotificationState)

	records, err := env.svc.Notifications(context.Background(), view.Workflow.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, repository.NotificationFailed, records[0].DeliveryStatus)
	require.NotNil(t, records[0].ErrorDetail)
}

func TestQueries(t *testing.T) {
	t.Run("pending for approver tracks the current level only", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		pending, err := env.svc.PendingForApprover(context.Background(), approverEmail(1))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, view.Workflow.ID, pending[0].WorkflowID)

		pending, err = env.svc.PendingForApprover(context.Background(), approverEmail(2))
		require.NoError(t, err)
		assert.Empty(t, pending)

		_, err = env.svc.Approve(context.Background(), decision(view.Workflow.ID, 1))
		require.NoError(t, err)

		pending, err = env.svc.PendingForApprover(context.Background(), approverEmail(2))
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("history records the full trail in order", func(t *testing.T) {
		env := newTestEnv(Config{})
		view := createTestWorkflow(t, env)

		_, err := env.svc.Approve(context.Background(), decision(view.Workflow.ID, 1))
		require.NoError(t, err)
		_, err = env.svc.Reject(context.Background(), decision(view.Workflow.ID, 2))
		require.NoError(t, err)

		entries, err := env.svc.History(context.Background(), view.Workflow.ID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "created", entries[0].Action)
		assert.Equal(t, "approved", entries[1].Action)
		assert.Equal(t, "rejected", entries[2].Action)
	})

	t.Run("history of an unknown workflow is not found", func(t *testing.T) {
		env := newTestEnv(Config{})
		_, err := env.svc.History(context.Background(), "missing")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeNotFound, errors.Code(err))
	})
}
