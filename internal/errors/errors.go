// Package errors provides coded errors shared by all layers of the service.
// Handlers map codes to HTTP statuses; services use codes to distinguish
// client mistakes from infrastructure failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	ErrCodeValidation   = "validation"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeInternal     = "internal"
)

// Error is a coded error. Details carries structured context for the client
// (e.g. the authoritative current level on a conflict).
type Error struct {
	Code    string
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetail attaches a structured detail field and returns the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a coded error.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a code and message.
func Wrap(err error, code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NotFound creates a not_found error for a named resource.
func NotFound(resource, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// InvalidInput creates a validation error for a specific field.
func InvalidInput(field, message string) *Error {
	e := &Error{
		Code:    ErrCodeValidation,
		Message: message,
	}
	return e.WithDetail("field", field)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return &Error{Code: ErrCodeConflict, Message: message}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: message}
}

// Code extracts the error code, defaulting to internal for unknown errors.
func Code(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// AsError extracts the coded error, wrapping unknown errors as internal.
func AsError(err error) *Error {
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrCodeInternal, "internal error")
}

// HTTPStatus maps an error to its HTTP response status.
func HTTPStatus(err error) int {
	switch Code(err) {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
