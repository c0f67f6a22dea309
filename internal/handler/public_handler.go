package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sgc-erp/be-hr-approvals/internal/errors"
	"github.com/sgc-erp/be-hr-approvals/internal/logger"
	"github.com/sgc-erp/be-hr-approvals/internal/service"
)

// PublicHandler serves the unauthenticated route surface reached via emailed
// approval links. The actor is the approverEmail submitted with the request;
// the state machine applies the same identity check as the internal surface,
// so a link holder can only act on the level that names their address.
type PublicHandler struct {
	service *service.ApprovalWorkflowService
	log     *logger.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(svc *service.ApprovalWorkflowService, log *logger.Logger) *PublicHandler {
	return &PublicHandler{service: svc, log: log}
}

// GetWorkflow handles GET /api/v1/public/approvals/{id}.
func (h *PublicHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", toWorkflowResponse(view))
}

type publicDecisionRequest struct {
	ApproverEmail string  `json:"approverEmail"`
	Comments      *string `json:"comments"`
	Signature     *string `json:"signature"`
}

// Approve handles POST /api/v1/public/approvals/{id}/approve.
func (h *PublicHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve, "Approval submitted successfully")
}

// Reject handles POST /api/v1/public/approvals/{id}/reject.
func (h *PublicHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "Rejection submitted successfully")
}

func (h *PublicHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, req *service.DecisionRequest) (*service.WorkflowView, error),
	message string,
) {
	var req publicDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Error:   &errorBody{Code: "validation", Message: "invalid request body"},
		})
		return
	}
	if req.ApproverEmail == "" {
		writeError(w, errors.InvalidInput("approverEmail", "approver email is required"))
		return
	}

	// No internal user reference on the public surface; the email itself is
	// the recorded identity.
	view, err := op(r.Context(), &service.DecisionRequest{
		WorkflowID: r.PathValue("id"),
		ActorEmail: req.ApproverEmail,
		Comments:   req.Comments,
		Signature:  req.Signature,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, message, toWorkflowResponse(view))
}
