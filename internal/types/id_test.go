package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/princekumarofficial/journal-service/internal/apperr"
)

func TestEntityID_JSONRoundTrip(t *testing.T) {
	id := NewEntityID()
	post := Post{ID: id, Likes: []EntityID{id}}

	data, err := json.Marshal(post)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded Post
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if decoded.ID != id {
		t.Fatalf("Expected id %s, got %s", id, decoded.ID)
	}
	if !ContainsID(decoded.Likes, id) {
		t.Fatal("Expected likes to contain id")
	}
}

func TestParseEntityID_Invalid(t *testing.T) {
	if _, err := ParseEntityID("not-an-id"); err == nil {
		t.Fatal("Expected error for malformed id")
	}
	if _, err := ParseIDs([]string{NewEntityID().String(), "nope"}); err == nil {
		t.Fatal("Expected error when one id is malformed")
	}
}

func TestParseRequestID(t *testing.T) {
	if _, err := ParseRequestID("post_id", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Expected validation error for empty id, got %v", err)
	}
	if _, err := ParseRequestID("post_id", "42"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Expected validation error for malformed id, got %v", err)
	}

	id := NewEntityID()
	got, err := ParseRequestID("post_id", id.String())
	if err != nil || got != id {
		t.Fatalf("Expected %s, got %s (%v)", id, got, err)
	}
}
