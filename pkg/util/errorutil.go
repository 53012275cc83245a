package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes for queue rule violations. Every rejection names the specific
// rule so callers can present an actionable message.
const (
	CodeDuplicateToken     = "DUPLICATE_TOKEN"
	CodeMissedToken        = "MISSED_TOKEN"
	CodeDuplicateEmergency = "DUPLICATE_EMERGENCY"
	CodeCapacityExceeded   = "CAPACITY_EXCEEDED"
	CodeAlreadyCompleted   = "ALREADY_COMPLETED"
	CodeInvalidCapacity    = "INVALID_CAPACITY"
	CodeTransientFailure   = "TRANSIENT_FAILURE"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(code, message string, details map[string]any) error {
	return NewDomainError(code, message, http.StatusConflict, details)
}

// NewRuleViolation reports a terminal queue rule rejection.
func NewRuleViolation(code, message string, details map[string]any) error {
	return NewDomainError(code, message, http.StatusBadRequest, details)
}

// NewTransientFailure surfaces an exhausted optimistic-retry budget; the
// caller may safely re-issue the request.
func NewTransientFailure(err error) error {
	return &DomainError{
		Code:       CodeTransientFailure,
		Message:    "the queue is busy, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
