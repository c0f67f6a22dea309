package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sgc-erp/be-hr-approvals/internal/errors"
)

// envelope is the JSON response wrapper used by both route surfaces.
type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	e := errors.AsError(err)
	writeJSON(w, errors.HTTPStatus(e), envelope{
		Success: false,
		Error: &errorBody{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
	})
}
