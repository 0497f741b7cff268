// Package session records which issued tokens are still honoured. A token is
// valid only while the key for its user holds the token's id; deleting the
// keys revokes every outstanding token before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/journal-service/internal/types"
)

type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

type Registry struct {
	redis *redis.Client
}

func NewRegistry(redisClient *redis.Client) *Registry {
	return &Registry{redis: redisClient}
}

// Key returns token:<id> for access tokens and token:<id>_refresh for
// refresh tokens.
func Key(userID types.EntityID, kind Kind) string {
	if kind == Refresh {
		return fmt.Sprintf("token:%s_refresh", userID)
	}
	return fmt.Sprintf("token:%s", userID)
}

// Store makes jti the only honoured token of this kind for the user.
func (r *Registry) Store(ctx context.Context, userID types.EntityID, kind Kind, jti string, ttl time.Duration) error {
	if err := r.redis.Set(ctx, Key(userID, kind), jti, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s token: %w", kind, err)
	}
	return nil
}

// Valid reports whether jti is the honoured token of this kind.
func (r *Registry) Valid(ctx context.Context, userID types.EntityID, kind Kind, jti string) (bool, error) {
	stored, err := r.redis.Get(ctx, Key(userID, kind)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s token: %w", kind, err)
	}
	return stored == jti, nil
}

// Revoke deletes both keys of the user.
func (r *Registry) Revoke(ctx context.Context, userID types.EntityID) error {
	if err := r.redis.Del(ctx, Key(userID, Access), Key(userID, Refresh)).Err(); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}
