// Package apperror defines the typed application errors surfaced over
// HTTP and the Echo handler that renders them.
package apperror

import (
	"fmt"
	"net/http"
)

// Error represents an application error with an HTTP status and a
// stable machine-readable code.
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
	Internal   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error.
func (e *Error) Unwrap() error {
	return e.Internal
}

// WithInternal returns a copy of the error with an internal error attached.
func (e *Error) WithInternal(err error) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		Internal:   err,
	}
}

// WithMessage returns a copy of the error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    message,
		Internal:   e.Internal,
	}
}

// Is reports whether target is the same error definition, so callers
// can use errors.Is against the sentinel values below even after
// WithMessage/WithInternal copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new application error.
func New(status int, code, message string) *Error {
	return &Error{
		HTTPStatus: status,
		Code:       code,
		Message:    message,
	}
}

// Error definitions. Structural errors (cycle, version conflict) are
// always surfaced to the caller, never retried here.
var (
	ErrActionNotFound  = New(http.StatusNotFound, "action_not_found", "Action not found")
	ErrParentNotFound  = New(http.StatusNotFound, "parent_not_found", "Parent action not found")
	ErrNotFound        = New(http.StatusNotFound, "not_found", "Resource not found")
	ErrVersionConflict = New(http.StatusConflict, "version_conflict", "Action was modified concurrently")
	ErrCycle           = New(http.StatusConflict, "cycle_error", "Operation would create a cycle")
	ErrDuplicateEdge   = New(http.StatusConflict, "duplicate_edge", "Edge already exists")
	ErrSelfDependency  = New(http.StatusBadRequest, "self_dependency", "An action cannot depend on itself")
	ErrBadRequest      = New(http.StatusBadRequest, "bad_request", "Invalid request")
	ErrValidation      = New(http.StatusUnprocessableEntity, "validation_error", "Validation failed")
	ErrMaxDepth        = New(http.StatusInternalServerError, "max_depth_exceeded", "Traversal depth limit exceeded")
	ErrInternal        = New(http.StatusInternalServerError, "internal_error", "An internal error occurred")
	ErrDatabase        = New(http.StatusInternalServerError, "database_error", "Database operation failed")
)

// NewNotFound creates a not found error for a resource type and ID.
func NewNotFound(resourceType, id string) *Error {
	return ErrNotFound.WithMessage(fmt.Sprintf("%s '%s' not found", resourceType, id))
}

// NewValidation creates a validation error with a custom message.
func NewValidation(message string) *Error {
	return ErrValidation.WithMessage(message)
}

// NewBadRequest creates a bad request error with a custom message.
func NewBadRequest(message string) *Error {
	return ErrBadRequest.WithMessage(message)
}

// NewInternal creates an internal error wrapping err.
func NewInternal(message string, err error) *Error {
	return &Error{
		HTTPStatus: http.StatusInternalServerError,
		Code:       "internal_error",
		Message:    message,
		Internal:   err,
	}
}
