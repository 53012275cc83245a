package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainError(t *testing.T) {
	if ToDomainError(nil) != nil {
		t.Errorf("nil error should map to nil")
	}

	rule := NewRuleViolation(CodeDuplicateToken, "already holds a token", nil)
	mapped := ToDomainError(rule)
	if mapped.Code != CodeDuplicateToken || mapped.HTTPStatus != http.StatusBadRequest {
		t.Errorf("mapped = %+v, want rule violation passed through", mapped)
	}

	// DomainErrors survive wrapping.
	wrapped := ToDomainError(errors.Join(errors.New("context"), rule))
	if wrapped.Code != CodeDuplicateToken {
		t.Errorf("wrapped code = %s, want %s", wrapped.Code, CodeDuplicateToken)
	}

	missing := ToDomainError(pgx.ErrNoRows)
	if missing.Code != "NOT_FOUND" || missing.HTTPStatus != http.StatusNotFound {
		t.Errorf("pgx.ErrNoRows mapped to %+v, want NOT_FOUND", missing)
	}

	opaque := ToDomainError(errors.New("boom"))
	if opaque.Code != "INTERNAL_ERROR" || opaque.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("opaque error mapped to %+v, want INTERNAL_ERROR", opaque)
	}
}

func TestHasCode(t *testing.T) {
	err := NewRuleViolation(CodeCapacityExceeded, "shift full", nil)
	if !HasCode(err, CodeCapacityExceeded) {
		t.Errorf("HasCode should match the carried code")
	}
	if HasCode(err, CodeMissedToken) {
		t.Errorf("HasCode should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeCapacityExceeded) {
		t.Errorf("HasCode should reject non-domain errors")
	}
}

func TestTransientFailureUnwraps(t *testing.T) {
	cause := errors.New("sequence conflict")
	err := NewTransientFailure(cause)
	if !errors.Is(err, cause) {
		t.Errorf("transient failure should unwrap to its cause")
	}
	if !HasCode(err, CodeTransientFailure) {
		t.Errorf("transient failure should carry TRANSIENT_FAILURE")
	}
}
