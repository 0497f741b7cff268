package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: missing title", ErrValidation), http.StatusBadRequest, "validation_error"},
		{ErrRateLimited, http.StatusBadRequest, "rate_limited"},
		{ErrAlreadyLiked, http.StatusBadRequest, "already_liked"},
		{ErrNotLiked, http.StatusBadRequest, "not_liked"},
		{fmt.Errorf("%w: post", ErrNotFound), http.StatusNotFound, "not_found"},
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrForbidden, http.StatusUnauthorized, "forbidden"},
		{fmt.Errorf("%w: email", ErrConflict), http.StatusBadRequest, "conflict"},
		{sql.ErrConnDone, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		if got := Status(tt.err); got != tt.status {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.status)
		}
		if got := Code(tt.err); got != tt.code {
			t.Errorf("Code(%v) = %q, want %q", tt.err, got, tt.code)
		}
	}
}

func TestMessage_HidesInternalCause(t *testing.T) {
	err := fmt.Errorf("%w: dial tcp 10.0.0.3:5432: connection refused", ErrInternal)
	if got := Message(err); got != "internal error" {
		t.Fatalf("Expected generic message, got %q", got)
	}

	raw := errors.New("pq: relation \"posts\" does not exist")
	if got := Message(raw); got != "internal error" {
		t.Fatalf("Expected generic message for raw error, got %q", got)
	}

	if got := Message(fmt.Errorf("%w: missing title", ErrValidation)); got != "validation error: missing title" {
		t.Fatalf("Unexpected validation message %q", got)
	}
}
