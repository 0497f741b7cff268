package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// takeScript refills the bucket for the time passed since the last refill,
// then tries to take one token. It returns {allowed, tokens left}.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local refill = math.floor(((now - last_refill) / window) * capacity)
	if refill > 0 then
		tokens = math.min(capacity, tokens + refill)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// peekScript computes the tokens left without taking one.
var peekScript = redis.NewScript(`
	local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill')
	local capacity = tonumber(ARGV[1])
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or tonumber(ARGV[3])

	local refill = math.floor(((tonumber(ARGV[3]) - last_refill) / tonumber(ARGV[2])) * capacity)
	if refill > 0 then
		tokens = math.min(capacity, tokens + refill)
	end
	return tokens
`)

// Bucket limits one action to Capacity requests per minute for each subject.
// A subject is whatever the caller limits by: a user id or a client address.
type Bucket struct {
	redis    *redis.Client
	action   string
	capacity int64
	window   time.Duration
	now      func() time.Time
}

// Result describes a single Take.
type Result struct {
	Allowed   bool
	Remaining int64
	Limit     int64
}

func NewBucket(redisClient *redis.Client, action string, perMinute int64) *Bucket {
	return &Bucket{
		redis:    redisClient,
		action:   action,
		capacity: perMinute,
		window:   time.Minute,
		now:      time.Now,
	}
}

func (b *Bucket) Action() string {
	return b.action
}

func (b *Bucket) Limit() int64 {
	return b.capacity
}

func (b *Bucket) key(subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", b.action, subject)
}

func (b *Bucket) args() []interface{} {
	return []interface{}{b.capacity, int64(b.window.Seconds()), b.now().Unix()}
}

// Take consumes a token for subject if one is left.
func (b *Bucket) Take(ctx context.Context, subject string) (Result, error) {
	raw, err := takeScript.Run(ctx, b.redis, []string{b.key(subject)}, b.args()...).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Result{}, fmt.Errorf("unexpected result from rate limit script: %v", raw)
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)

	return Result{Allowed: allowed == 1, Remaining: remaining, Limit: b.capacity}, nil
}

// Remaining reports the tokens subject has left.
func (b *Bucket) Remaining(ctx context.Context, subject string) (int64, error) {
	raw, err := peekScript.Run(ctx, b.redis, []string{b.key(subject)}, b.args()...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}

	remaining, ok := raw.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result from remaining tokens script: %v", raw)
	}
	return remaining, nil
}

// Reset refills the bucket of subject.
func (b *Bucket) Reset(ctx context.Context, subject string) error {
	return b.redis.Del(ctx, b.key(subject)).Err()
}
