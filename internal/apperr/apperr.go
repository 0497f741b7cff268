// Package apperr holds the error kinds every service operation reports.
// Services wrap these sentinels with fmt.Errorf("%w: ...") and the HTTP layer
// maps them to status codes and stable machine-readable codes.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation indicates a missing or malformed field
	ErrValidation = errors.New("validation error")

	// ErrRateLimited indicates the posting cooldown is still active
	ErrRateLimited = errors.New("only one post per day is allowed")

	// ErrAlreadyLiked indicates the user already likes the post
	ErrAlreadyLiked = errors.New("user has already liked the post")

	// ErrNotLiked indicates an unlike without a prior like
	ErrNotLiked = errors.New("user can only unlike a post they liked")

	// ErrNotFound indicates the referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing, invalid, expired or revoked credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller does not own the entity
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a unique field is already used
	ErrConflict = errors.New("already used")

	// ErrInternal indicates a store or infrastructure failure
	ErrInternal = errors.New("internal error")
)

type kind struct {
	err    error
	status int
	code   string
}

var kinds = []kind{
	{ErrValidation, http.StatusBadRequest, "validation_error"},
	{ErrRateLimited, http.StatusBadRequest, "rate_limited"},
	{ErrAlreadyLiked, http.StatusBadRequest, "already_liked"},
	{ErrNotLiked, http.StatusBadRequest, "not_liked"},
	{ErrConflict, http.StatusBadRequest, "conflict"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrForbidden, http.StatusUnauthorized, "forbidden"},
}

func lookup(err error) (kind, bool) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k, true
		}
	}
	return kind{}, false
}

// Status returns the HTTP status for err. Unknown errors are internal.
func Status(err error) int {
	if k, ok := lookup(err); ok {
		return k.status
	}
	return http.StatusInternalServerError
}

// Code returns the stable machine-readable code for err.
func Code(err error) string {
	if k, ok := lookup(err); ok {
		return k.code
	}
	return "internal_error"
}

// Message returns the text safe to show a client. Internal errors never
// expose their cause.
func Message(err error) string {
	if _, ok := lookup(err); ok {
		return err.Error()
	}
	return ErrInternal.Error()
}
