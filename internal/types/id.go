package types

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/princekumarofficial/journal-service/internal/apperr"
)

// EntityID identifies users, posts and comments. Stores format and parse it at
// their boundary; everything else compares EntityID values directly.
type EntityID uuid.UUID

// NilID is the zero EntityID.
var NilID EntityID

func NewEntityID() EntityID {
	return EntityID(uuid.New())
}

// ParseEntityID parses the canonical string form of an id.
func ParseEntityID(s string) (EntityID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return EntityID(u), nil
}

func (id EntityID) String() string {
	return uuid.UUID(id).String()
}

func (id EntityID) IsZero() bool {
	return id == NilID
}

func (id EntityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *EntityID) UnmarshalText(b []byte) error {
	parsed, err := ParseEntityID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ContainsID reports whether ids holds id.
func ContainsID(ids []EntityID, id EntityID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// FormatIDs converts ids to their string form for a store query.
func FormatIDs(ids []EntityID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// ParseIDs is the inverse of FormatIDs.
func ParseIDs(raw []string) ([]EntityID, error) {
	out := make([]EntityID, 0, len(raw))
	for _, s := range raw {
		id, err := ParseEntityID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// ParseRequestID parses an id taken from a request field. Failures are
// validation errors naming the field.
func ParseRequestID(field, raw string) (EntityID, error) {
	if raw == "" {
		return NilID, fmt.Errorf("%w: %s is required", apperr.ErrValidation, field)
	}
	id, err := ParseEntityID(raw)
	if err != nil {
		return NilID, fmt.Errorf("%w: %s is not a valid id", apperr.ErrValidation, field)
	}
	return id, nil
}
