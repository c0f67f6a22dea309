package handler

import (
	"time"

	"github.com/sgc-erp/be-hr-approvals/internal/repository"
	"github.com/sgc-erp/be-hr-approvals/internal/service"
)

// workflowResponse is the workflow projection returned to clients.
type workflowResponse struct {
	ID            string           `json:"id"`
	CandidateID   string           `json:"candidateId"`
	JobPostingID  string           `json:"jobPostingId"`
	ApplicationID string           `json:"applicationId"`
	Status        string           `json:"status"`
	CurrentLevel  int              `json:"currentLevel"`
	ApprovedCount int              `json:"approvedCount"`
	FinalDecision *string          `json:"finalDecision,omitempty"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	Levels        []*levelResponse `json:"levels,omitempty"`
}

type levelResponse struct {
	Level             int        `json:"level"`
	Title             string     `json:"title"`
	ApproverEmail     string     `json:"approverEmail"`
	Status            string     `json:"status"`
	DecidedBy         *string    `json:"decidedBy,omitempty"`
	DecidedAt         *time.Time `json:"decidedAt,omitempty"`
	Comments          *string    `json:"comments,omitempty"`
	Signature         *string    `json:"signature,omitempty"`
	NotificationState string     `json:"notificationState"`
}

type pendingLevelResponse struct {
	WorkflowID    string `json:"workflowId"`
	Level         int    `json:"level"`
	Title         string `json:"title"`
	ApproverEmail string `json:"approverEmail"`
}

type auditEntryResponse struct {
	Action                string                 `json:"action"`
	PerformedBy           string                 `json:"performedBy"`
	PerformedAt           time.Time              `json:"performedAt"`
	CandidateStatusBefore *string                `json:"candidateStatusBefore,omitempty"`
	CandidateStatusAfter  *string                `json:"candidateStatusAfter,omitempty"`
	Metadata              map[string]interface{} `json:"metadata,omitempty"`
}

type notificationResponse struct {
	EventType      string    `json:"type"`
	LevelNumber    *int      `json:"level,omitempty"`
	Recipient      string    `json:"recipient"`
	SentAt         time.Time `json:"sentAt"`
	DeliveryStatus string    `json:"deliveryStatus"`
}

type approverChainResponse struct {
	ID             string   `json:"id"`
	Department     string   `json:"department"`
	ApproverEmails []string `json:"approverEmails"`
	IsActive       bool     `json:"isActive"`
	Priority       int      `json:"priority"`
}

func toWorkflowResponse(view *service.WorkflowView) *workflowResponse {
	resp := &workflowResponse{
		ID:            view.Workflow.ID,
		CandidateID:   view.Workflow.CandidateID,
		JobPostingID:  view.Workflow.JobPostingID,
		ApplicationID: view.Workflow.ApplicationID,
		Status:        view.Workflow.Status,
		CurrentLevel:  view.Workflow.CurrentLevel,
		ApprovedCount: view.ApprovedCount,
		FinalDecision: view.Workflow.FinalDecision,
		CompletedAt:   view.Workflow.CompletedAt,
		CreatedAt:     view.Workflow.CreatedAt,
	}
	for _, level := range view.Levels {
		resp.Levels = append(resp.Levels, toLevelResponse(level))
	}
	return resp
}

func toWorkflowSummary(wf *repository.ApprovalWorkflow) *workflowResponse {
	return &workflowResponse{
		ID:            wf.ID,
		CandidateID:   wf.CandidateID,
		JobPostingID:  wf.JobPostingID,
		ApplicationID: wf.ApplicationID,
		Status:        wf.Status,
		CurrentLevel:  wf.CurrentLevel,
		FinalDecision: wf.FinalDecision,
		CompletedAt:   wf.CompletedAt,
		CreatedAt:     wf.CreatedAt,
	}
}

func toLevelResponse(level *repository.ApprovalLevel) *levelResponse {
	return &levelResponse{
		Level:             level.LevelNumber,
		Title:             level.Title,
		ApproverEmail:     level.ApproverEmail,
		Status:            level.Status,
		DecidedBy:         level.DecidedBy,
		DecidedAt:         level.DecidedAt,
		Comments:          level.Comments,
		Signature:         level.Signature,
		NotificationState: level.NotificationState,
	}
}

func toPendingLevels(levels []*repository.ApprovalLevel) []*pendingLevelResponse {
	out := make([]*pendingLevelResponse, 0, len(levels))
	for _, level := range levels {
		out = append(out, &pendingLevelResponse{
			WorkflowID:    level.WorkflowID,
			Level:         level.LevelNumber,
			Title:         level.Title,
			ApproverEmail: level.ApproverEmail,
		})
	}
	return out
}

func toAuditEntries(entries []*repository.AuditEntry) []*auditEntryResponse {
	out := make([]*auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, &auditEntryResponse{
			Action:                entry.Action,
			PerformedBy:           entry.PerformedBy,
			PerformedAt:           entry.PerformedAt,
			CandidateStatusBefore: entry.CandidateStatusBefore,
			CandidateStatusAfter:  entry.CandidateStatusAfter,
			Metadata:              entry.Metadata,
		})
	}
	return out
}

func toNotifications(records []*repository.NotificationRecord) []*notificationResponse {
	out := make([]*notificationResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, &notificationResponse{
			EventType:      rec.EventType,
			LevelNumber:    rec.LevelNumber,
			Recipient:      rec.Recipient,
			SentAt:         rec.SentAt,
			DeliveryStatus: rec.DeliveryStatus,
		})
	}
	return out
}

func toApproverChains(chains []*repository.ApproverChain) []*approverChainResponse {
	out := make([]*approverChainResponse, 0, len(chains))
	for _, chain := range chains {
		out = append(out, &approverChainResponse{
			ID:             chain.ID,
			Department:     chain.Department,
			ApproverEmails: chain.ApproverEmails,
			IsActive:       chain.IsActive,
			Priority:       chain.Priority,
		})
	}
	return out
}
