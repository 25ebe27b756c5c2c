package domain

import (
	"fmt"
	"net/http"
)

// Kind classifies gateway errors so the transport layer can map them to
// status codes without inspecting messages.
type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindInvalidCredential Kind = "invalid_credential"
	KindUnknownTool       Kind = "unknown_tool"
	KindUnknownResource   Kind = "unknown_resource"
	KindUnknownSession    Kind = "unknown_session"
	KindMissingSessionID  Kind = "missing_session_id"
	KindRouteNotFound     Kind = "route_not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindHandlerError      Kind = "handler_error"
	KindSetupError        Kind = "setup_error"
	KindStartupError      Kind = "startup_error"
)

// Error is a gateway error with a kind and an associated HTTP status code.
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	return e.Message
}

// NewError creates a new gateway error.
func NewError(kind Kind, code int, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Credential errors returned by the auth gate.
var (
	ErrMissingCredential = NewError(KindMissingCredential, http.StatusUnauthorized, "missing bearer credential")
	ErrInvalidCredential = NewError(KindInvalidCredential, http.StatusForbidden, "invalid bearer credential")
)

// NewUnknownToolError creates the error for a tool name absent from the catalog.
func NewUnknownToolError(name string) *Error {
	return NewError(KindUnknownTool, http.StatusNotFound, fmt.Sprintf("tool %q not found", name))
}

// NewUnknownResourceError creates the error for a resource URI absent from the catalog.
func NewUnknownResourceError(uri string) *Error {
	return NewError(KindUnknownResource, http.StatusNotFound, fmt.Sprintf("resource %q not found", uri))
}

// NewUnknownSessionError creates the error for a session ID absent from the registry.
func NewUnknownSessionError(id string) *Error {
	return NewError(KindUnknownSession, http.StatusNotFound, fmt.Sprintf("session %q not found", id))
}

// NewMissingSessionIDError creates the error for an out-of-band message
// without a sessionId routing parameter.
func NewMissingSessionIDError() *Error {
	return NewError(KindMissingSessionID, http.StatusBadRequest, "missing sessionId parameter")
}

// NewRouteNotFoundError creates the error for an unroutable request path.
func NewRouteNotFoundError(path string) *Error {
	return NewError(KindRouteNotFound, http.StatusNotFound, fmt.Sprintf("no route for %s", path))
}

// NewHandlerError wraps a tool handler failure. The message is passed
// through verbatim; the cause is not inspected.
func NewHandlerError(err error) *Error {
	return NewError(KindHandlerError, http.StatusInternalServerError, err.Error())
}

// NewSetupError creates the error for a failed transport or session establishment.
func NewSetupError(message string) *Error {
	return NewError(KindSetupError, http.StatusInternalServerError, message)
}

// NewStartupError creates a fatal configuration error. The process must
// not serve requests after seeing one.
func NewStartupError(message string) *Error {
	return NewError(KindStartupError, http.StatusInternalServerError, message)
}

// FieldViolation pinpoints a single schema violation by field path.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidInputError indicates that tool input failed schema validation.
// It carries the full field-path-indexed list of violations.
type InvalidInputError struct {
	Violations []FieldViolation
	Err        *Error
}

// Error returns the error message.
func (e *InvalidInputError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the underlying gateway error for errors.As.
func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError creates a new InvalidInputError.
func NewInvalidInputError(violations []FieldViolation) *InvalidInputError {
	return &InvalidInputError{
		Violations: violations,
		Err:        NewError(KindInvalidInput, http.StatusBadRequest, "input validation failed"),
	}
}
