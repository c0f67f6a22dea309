package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sgc-erp/be-hr-approvals/internal/logger"
	"github.com/sgc-erp/be-hr-approvals/internal/middleware"
	"github.com/sgc-erp/be-hr-approvals/internal/repository"
	"github.com/sgc-erp/be-hr-approvals/internal/service"
)

// HTTPHandler serves the internal (authenticated) route surface. The actor
// is resolved from the identity the auth gateway attached to the request.
type HTTPHandler struct {
	service *service.ApprovalWorkflowService
	log     *logger.Logger
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(svc *service.ApprovalWorkflowService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{service: svc, log: log}
}

// requireUser returns the authenticated caller's email, writing a 401 when
// the request carries no identity.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := middleware.UserEmailFrom(r.Context())
	if email == "" {
		writeJSON(w, http.StatusUnauthorized, envelope{
			Success: false,
			Error:   &errorBody{Code: "unauthorized", Message: "authentication required"},
		})
		return "", false
	}
	return email, true
}

type createWorkflowRequest struct {
	CandidateID    string   `json:"candidateId"`
	JobPostingID   string   `json:"jobPostingId"`
	ApplicationID  string   `json:"applicationId"`
	ApproverEmails []string `json:"approverEmails"`
	Department     string   `json:"department"`
}

// CreateWorkflow handles POST /api/v1/approvals.
func (h *HTTPHandler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Error:   &errorBody{Code: "validation", Message: "invalid request body"},
		})
		return
	}

	view, err := h.service.CreateWorkflow(r.Context(), &service.CreateWorkflowRequest{
		CandidateID:    req.CandidateID,
		JobPostingID:   req.JobPostingID,
		ApplicationID:  req.ApplicationID,
		ApproverEmails: req.ApproverEmails,
		Department:     req.Department,
		CreatedBy:      &user,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, "Approval workflow created successfully", toWorkflowResponse(view))
}

// ListWorkflows handles GET /api/v1/approvals.
func (h *HTTPHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	workflows, total, err := h.service.List(r.Context(), status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	summaries := make([]*workflowResponse, 0, len(workflows))
	for _, wf := range workflows {
		summaries = append(summaries, toWorkflowSummary(wf))
	}

	writeData(w, http.StatusOK, "", map[string]any{
		"workflows": summaries,
		"total":     total,
		"page":      page,
		"pageSize":  pageSize,
	})
}

// PendingForUser handles GET /api/v1/approvals/pending.
func (h *HTTPHandler) PendingForUser(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	levels, err := h.service.PendingForApprover(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", toPendingLevels(levels))
}

// GetWorkflow handles GET /api/v1/approvals/{id}.
func (h *HTTPHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	view, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", toWorkflowResponse(view))
}

// GetHistory handles GET /api/v1/approvals/{id}/history.
func (h *HTTPHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	entries, err := h.service.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", toAuditEntries(entries))
}

// GetNotifications handles GET /api/v1/approvals/{id}/notifications.
func (h *HTTPHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	records, err := h.service.Notifications(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", toNotifications(records))
}

type decisionRequest struct {
	Comments  *string `json:"comments"`
	Signature *string `json:"signature"`
}

// Approve handles POST /api/v1/approvals/{id}/approve.
func (h *HTTPHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve, "Approval submitted successfully")
}

// Reject handles POST /api/v1/approvals/{id}/reject.
func (h *HTTPHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "Rejection submitted successfully")
}

func (h *HTTPHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, req *service.DecisionRequest) (*service.WorkflowView, error),
	message string,
) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req decisionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{
				Success: false,
				Error:   &errorBody{Code: "validation", Message: "invalid request body"},
			})
			return
		}
	}

	view, err := op(r.Context(), &service.DecisionRequest{
		WorkflowID: r.PathValue("id"),
		ActorEmail: user,
		ActorID:    &user,
		Comments:   req.Comments,
		Signature:  req.Signature,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, message, toWorkflowResponse(view))
}

// Remind handles POST /api/v1/approvals/{id}/remind.
func (h *HTTPHandler) Remind(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Remind(r.Context(), r.PathValue("id"), user); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Reminder sent successfully", nil)
}

// Cancel handles DELETE /api/v1/approvals/{id}.
func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), r.PathValue("id"), &user); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Approval workflow cancelled successfully", nil)
}

type createChainRequest struct {
	Department     string   `json:"department"`
	ApproverEmails []string `json:"approverEmails"`
	Priority       int      `json:"priority"`
}

// CreateApproverChain handles POST /api/v1/approver-chains.
func (h *HTTPHandler) CreateApproverChain(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req createChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Error:   &errorBody{Code: "validation", Message: "invalid request body"},
		})
		return
	}

	chain := &repository.ApproverChain{
		Department:     req.Department,
		ApproverEmails: req.ApproverEmails,
		IsActive:       true,
		Priority:       req.Priority,
	}
	if err := h.service.CreateApproverChain(r.Context(), chain); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "Approver chain created successfully", toApproverChains([]*repository.ApproverChain{chain})[0])
}

// ListApproverChains handles GET /api/v1/approver-chains.
func (h *HTTPHandler) ListApproverChains(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	chains, err := h.service.ListApproverChains(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", toApproverChains(chains))
}
