// ABOUTME: Tests for the shared auth data model
// ABOUTME: Verifies failure construction and error formatting

package models

import (
	"errors"
	"testing"
)

func TestFailure(t *testing.T) {
	resp := Failure("login failed", errors.New("upstream unreachable"))
	if resp.Succeeded {
		t.Error("Succeeded = true, want false")
	}
	if resp.User != nil || resp.Tokens != nil {
		t.Error("failure response carries user or tokens")
	}
	if resp.Error.Message != "login failed" {
		t.Errorf("Message = %q, want %q", resp.Error.Message, "login failed")
	}
	if resp.Error.Details != "upstream unreachable" {
		t.Errorf("Details = %q, want the wrapped error text", resp.Error.Details)
	}
}

func TestFailure_NilError(t *testing.T) {
	resp := Failure("refresh failed", nil)
	if resp.Error.Details != "" {
		t.Errorf("Details = %q, want empty for nil error", resp.Error.Details)
	}
}

func TestAuthError_Error(t *testing.T) {
	e := &AuthError{Message: "login failed"}
	if got := e.Error(); got != "login failed" {
		t.Errorf("Error() = %q, want %q", got, "login failed")
	}

	e.Details = "status 502"
	if got := e.Error(); got != "login failed: status 502" {
		t.Errorf("Error() = %q, want message and details joined", got)
	}
}
