package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindRateLimited   Kind = "rate_limited"
	KindUpstream      Kind = "upstream"
	KindInternal      Kind = "internal"
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type every layer returns to the HTTP error handler.
// Message is safe to show to clients, Err is logged only.
type Error struct {
	Kind      Kind
	Status    int
	Message   string
	Stage     string
	Retryable bool
	Fields    []FieldError
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, status int, message string, err error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: err}
}

func Validation(message string, fields ...FieldError) *Error {
	e := newError(KindValidation, http.StatusBadRequest, message, nil)
	e.Fields = fields
	return e
}

// Unauthenticated is an authorization failure caused by a missing, malformed
// or expired credential.
func Unauthenticated(message string, err error) *Error {
	return newError(KindAuthorization, http.StatusUnauthorized, message, err)
}

// Forbidden is an authorization failure caused by ownership.
func Forbidden(message string, err error) *Error {
	return newError(KindAuthorization, http.StatusForbidden, message, err)
}

func NotFound(message string, err error) *Error {
	return newError(KindNotFound, http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *Error {
	return newError(KindConflict, http.StatusConflict, message, err)
}

func RateLimited(message string) *Error {
	return newError(KindRateLimited, http.StatusTooManyRequests, message, nil)
}

func Upstream(message string, retryable bool, err error) *Error {
	e := newError(KindUpstream, http.StatusInternalServerError, message, err)
	e.Retryable = retryable
	return e
}

func Internal(message string, err error) *Error {
	return newError(KindInternal, http.StatusInternalServerError, message, err)
}

// WithStage tags err with the pipeline stage it escaped from. Errors that are
// not *Error become internal errors so the cause never reaches a client.
func WithStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		tagged := *appErr
		if tagged.Stage == "" {
			tagged.Stage = stage
		}
		return &tagged
	}
	e := Internal("internal server error", err)
	e.Stage = stage
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// StatusCode maps err to an HTTP status, 500 for anything unrecognised.
func StatusCode(err error) int {
	if appErr, ok := As(err); ok && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
