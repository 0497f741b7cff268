package streak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/journal-service/internal/types"
)

// Counter is the expiring store behind the current streak. A missing key
// means the streak is broken.
type Counter interface {
	// Load returns the stored streak and its remaining time to live. ok is
	// false when no live counter exists.
	Load(ctx context.Context, userID types.EntityID) (value int, ttl time.Duration, ok bool, err error)
	Store(ctx context.Context, userID types.EntityID, value int, ttl time.Duration) error
	Delete(ctx context.Context, userID types.EntityID) error
}

// RedisCounter keeps one string key per user with a PX expiry.
type RedisCounter struct {
	redis *redis.Client
}

func NewRedisCounter(redisClient *redis.Client) *RedisCounter {
	return &RedisCounter{redis: redisClient}
}

func counterKey(userID types.EntityID) string {
	return fmt.Sprintf("streak:current:%s", userID)
}

func (c *RedisCounter) Load(ctx context.Context, userID types.EntityID) (int, time.Duration, bool, error) {
	key := counterKey(userID)

	// GET and PTTL in one MULTI so both observe the same key
	pipe := c.redis.TxPipeline()
	get := pipe.Get(ctx, key)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, false, fmt.Errorf("failed to read streak counter: %w", err)
	}

	value, err := get.Int()
	if errors.Is(err, redis.Nil) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("malformed streak counter: %w", err)
	}

	// -2: expired between the two reads. -1: no expiry, so the window
	// cannot be measured.
	ttl := pttl.Val()
	if ttl < 0 {
		return 0, 0, false, nil
	}
	return value, ttl, true, nil
}

func (c *RedisCounter) Store(ctx context.Context, userID types.EntityID, value int, ttl time.Duration) error {
	return c.redis.Set(ctx, counterKey(userID), value, ttl).Err()
}

func (c *RedisCounter) Delete(ctx context.Context, userID types.EntityID) error {
	return c.redis.Del(ctx, counterKey(userID)).Err()
}
