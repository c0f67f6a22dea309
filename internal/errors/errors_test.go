package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	assert.Equal(t, ErrCodeConflict, Code(Conflict("boom")))
	assert.Equal(t, ErrCodeNotFound, Code(NotFound("candidate", "c1")))
	assert.Equal(t, ErrCodeValidation, Code(InvalidInput("field", "bad")))
	assert.Equal(t, ErrCodeUnauthorized, Code(Unauthorized("no")))
	assert.Equal(t, ErrCodeInternal, Code(stderrors.New("plain")))

	// Coded errors survive wrapping with %w.
	wrapped := fmt.Errorf("outer: %w", Conflict("inner"))
	assert.Equal(t, ErrCodeConflict, Code(wrapped))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("f", "bad")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("candidate", "c1")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("boom")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Unauthorized("no")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := Conflict("level already decided").
		WithDetail("currentLevel", 3).
		WithDetail("status", "in_progress")

	assert.Equal(t, 3, err.Details["currentLevel"])
	assert.Equal(t, "in_progress", err.Details["status"])
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeInternal, "failed to load workflow")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to load workflow")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAsError(t *testing.T) {
	coded := NotFound("candidate", "c1")
	assert.Same(t, coded, AsError(coded))

	plain := AsError(stderrors.New("plain"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
}
