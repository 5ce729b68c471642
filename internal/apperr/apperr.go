// Package apperr defines the structured errors returned by the service layer
// and their HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind string

const (
	KindValidation           Kind = "VALIDATION"
	KindNotFound             Kind = "NOT_FOUND"
	KindConflict             Kind = "CONFLICT"
	KindUpstreamUnavailable  Kind = "UPSTREAM_UNAVAILABLE"
	KindConcurrencyViolation Kind = "CONCURRENCY_VIOLATION"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindInternal             Kind = "INTERNAL"
)

// Codes refine a kind for clients.
const (
	CodeInvalidState     = "INVALID_STATE"
	CodeInvalidLocation  = "INVALID_LOCATION"
	CodeInvalidBody      = "INVALID_BODY"
	CodeInvalidQuery     = "INVALID_QUERY"
	CodeInvalidTimestamp = "INVALID_TIMESTAMP"
	CodeNoPrompt         = "NO_PROMPT"
	CodeInvalidAnswer    = "INVALID_ANSWER"
	CodeAlreadyAnswered  = "ALREADY_ANSWERED"
	CodeAlreadyCorrected = "ALREADY_CORRECTED"
	CodeVersionConflict  = "VERSION_CONFLICT"
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, and by code when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// Retryable reports whether the caller should re-fetch and resubmit.
func (e *Error) Retryable() bool {
	return e.Kind == KindConcurrencyViolation
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindConcurrencyViolation:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Expected reports whether the error is an ordinary user-facing condition
// rather than a defect or dependency failure.
func (e *Error) Expected() bool {
	switch e.Kind {
	case KindValidation, KindNotFound, KindConflict, KindUnauthorized:
		return true
	}
	return false
}

func newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a VALIDATION error.
func Validation(code, format string, args ...any) *Error {
	return newf(KindValidation, code, format, args...)
}

// NotFound returns a NOT_FOUND error.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, string(KindNotFound), format, args...)
}

// Conflict returns a CONFLICT error.
func Conflict(code, format string, args ...any) *Error {
	return newf(KindConflict, code, format, args...)
}

// Concurrency returns a retryable CONCURRENCY_VIOLATION error.
func Concurrency(err error) *Error {
	return &Error{
		Kind:    KindConcurrencyViolation,
		Code:    CodeVersionConflict,
		Message: "another update for this actor was recorded first; re-fetch and resubmit",
		Err:     err,
	}
}

// Unauthorized returns an UNAUTHORIZED error.
func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, string(KindUnauthorized), format, args...)
}

// Upstream wraps a failed external lookup.
func Upstream(source string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Code: string(KindUpstreamUnavailable), Message: source + " unavailable", Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "internal error", Err: err}
}

// From returns err as an *Error, classifying unknown errors as INTERNAL.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
