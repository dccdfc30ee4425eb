// Package apperr defines the typed errors services return and the HTTP layer maps to responses.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for callers and for the HTTP mapping.
type Kind string

const (
	KindUnknown Kind = ""
	// KindNotFound covers both missing ids and ids owned by another organization.
	KindNotFound Kind = "not_found"
	// KindValidation covers malformed input and illegal status moves.
	KindValidation Kind = "validation"
	// KindConflict means the record changed between read and write.
	KindConflict Kind = "conflict"
	// KindUnavailable means a collaborator such as the database failed; the call may be retried.
	KindUnavailable Kind = "unavailable"
)

var statusByKind = map[Kind]int{
	KindNotFound:    http.StatusNotFound,
	KindValidation:  http.StatusBadRequest,
	KindConflict:    http.StatusConflict,
	KindUnavailable: http.StatusServiceUnavailable,
}

// Error carries a client-safe message; Err keeps the cause for logs and errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Details any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the response status for the error's kind.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether repeating the call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable
}

// WithDetails attaches structured data for the response body.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func NotFound(message string) *Error   { return &Error{Kind: KindNotFound, Message: message} }
func Validation(message string) *Error { return &Error{Kind: KindValidation, Message: message} }
func Conflict(message string) *Error   { return &Error{Kind: KindConflict, Message: message} }

// Unavailable wraps a collaborator failure.
func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

// GetKind returns the kind of the first *Error in the chain, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
