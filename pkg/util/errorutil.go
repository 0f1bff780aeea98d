package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes carried in the response envelope.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeRateLimited          = "RATE_LIMITED"
	CodePersistence          = "PERSISTENCE_FAILED"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError is the single error shape services hand to the transport.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches another DomainError by code, so errors.Is(err, &DomainError{Code: CodeNotFound}) works.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code != "" && t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(CodeNotFound, resource+" not found", http.StatusNotFound, details)
}

// NewUnauthenticated is returned when no actor is attached to the request.
func NewUnauthenticated() error { return NewUnauthorized("not authenticated") }

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewNotAuthorized is the generic denial for role and self-action violations.
func NewNotAuthorized() error { return NewForbidden("not authorized") }

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewConfirmationRequired signals that the caller must confirm before the write proceeds.
func NewConfirmationRequired(message string, details map[string]any) error {
	return NewDomainError(CodeConfirmationRequired, message, http.StatusPreconditionRequired, details)
}

// NewTooManyRequests is returned by rate limited entry points.
func NewTooManyRequests(message string) error {
	return NewDomainError(CodeRateLimited, message, http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	de := NewDomainError(CodeInternal, "internal server error", http.StatusInternalServerError, nil)
	de.Err = err
	return de
}

// NewPersistenceError hides store failures behind "failed to <verb> <entity>".
func NewPersistenceError(verb, entity string, err error) error {
	de := NewDomainError(CodePersistence, fmt.Sprintf("failed to %s %s", verb, entity), http.StatusInternalServerError, nil)
	de.Err = err
	return de
}

// IsNotFound reports whether err is a missing row or a NOT_FOUND domain error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, &DomainError{Code: CodeNotFound})
}

// ToDomainError converts any error into a DomainError. Missing rows become
// NOT_FOUND and everything unrecognised becomes INTERNAL_ERROR.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, pgx.ErrNoRows):
		return NewNotFound("resource", nil).(*DomainError)
	default:
		return NewInternalError(err).(*DomainError)
	}
}

// MapError is ToDomainError for call sites that return a plain error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
