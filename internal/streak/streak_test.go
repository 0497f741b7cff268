package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/journal-service/internal/types"
)

const (
	testMinInterval = 20 * time.Hour
	testWindow      = 28 * time.Hour
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		redisClient.Close()
		mr.Close()
	})
	return mr, redisClient
}

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis, *redis.Client) {
	mr, redisClient := setupTestRedis(t)
	return NewEngine(NewRedisCounter(redisClient), testMinInterval, testWindow), mr, redisClient
}

// post runs the accept path the orchestrator follows.
func post(t *testing.T, e *Engine, userID types.EntityID, longest int) Decision {
	t.Helper()
	d, err := e.Evaluate(context.Background(), userID, longest)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Allowed {
		if err := e.Commit(context.Background(), userID, d.Current); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	return d
}

func TestEvaluate_FirstPost(t *testing.T) {
	e, _, _ := newTestEngine(t)
	userID := types.NewEntityID()

	d := post(t, e, userID, 0)
	if !d.Allowed || d.Current != 1 || !d.NewRecord || d.Longest != 1 {
		t.Fatalf("Expected allowed first post with new record, got %+v", d)
	}

	current, err := e.Current(context.Background(), userID)
	if err != nil || current != 1 {
		t.Fatalf("Expected current streak 1, got %d (%v)", current, err)
	}
}

func TestEvaluate_DeniedDuringCooldown(t *testing.T) {
	e, mr, _ := newTestEngine(t)
	userID := types.NewEntityID()

	post(t, e, userID, 0)
	mr.FastForward(time.Hour)

	d := post(t, e, userID, 1)
	if d.Allowed {
		t.Fatalf("Expected second post within cooldown to be denied, got %+v", d)
	}
	if d.Retry != testMinInterval-time.Hour {
		t.Fatalf("Expected retry %v, got %v", testMinInterval-time.Hour, d.Retry)
	}

	// denial must not refresh the counter
	ttl := mr.TTL("streak:current:" + userID.String())
	if ttl != testWindow-time.Hour {
		t.Fatalf("Expected TTL %v untouched, got %v", testWindow-time.Hour, ttl)
	}
	current, _ := e.Current(context.Background(), userID)
	if current != 1 {
		t.Fatalf("Expected streak to stay 1, got %d", current)
	}
}

func TestEvaluate_ContinuesAfterCooldown(t *testing.T) {
	e, mr, _ := newTestEngine(t)
	userID := types.NewEntityID()

	post(t, e, userID, 0)
	mr.FastForward(21 * time.Hour)

	d := post(t, e, userID, 1)
	if !d.Allowed || d.Prior != 1 || d.Current != 2 || !d.NewRecord {
		t.Fatalf("Expected streak to continue to 2, got %+v", d)
	}

	ttl := mr.TTL("streak:current:" + userID.String())
	if ttl != testWindow {
		t.Fatalf("Expected TTL reset to %v, got %v", testWindow, ttl)
	}
}

func TestEvaluate_CooldownBoundaryIsInclusive(t *testing.T) {
	e, mr, _ := newTestEngine(t)
	userID := types.NewEntityID()

	post(t, e, userID, 0)
	mr.FastForward(testMinInterval)

	d := post(t, e, userID, 1)
	if !d.Allowed {
		t.Fatalf("Expected post exactly at the cooldown to be allowed, got %+v", d)
	}
}

func TestEvaluate_BrokenChainRestarts(t *testing.T) {
	e, mr, _ := newTestEngine(t)
	userID := types.NewEntityID()

	post(t, e, userID, 0)
	mr.FastForward(testWindow + time.Hour)

	d := post(t, e, userID, 3)
	if !d.Allowed || d.Prior != 0 || d.Current != 1 {
		t.Fatalf("Expected streak to restart at 1, got %+v", d)
	}
	if d.NewRecord || d.Longest != 3 {
		t.Fatalf("Expected no new record against longest 3, got %+v", d)
	}
}

func TestEvaluate_TieIsNotARecord(t *testing.T) {
	e, mr, redisClient := newTestEngine(t)
	userID := types.NewEntityID()
	ctx := context.Background()

	if err := redisClient.Set(ctx, "streak:current:"+userID.String(), 4, testWindow).Err(); err != nil {
		t.Fatalf("Failed to seed counter: %v", err)
	}
	mr.FastForward(22 * time.Hour)

	d := post(t, e, userID, 5)
	if !d.Allowed || d.Current != 5 {
		t.Fatalf("Expected streak 5, got %+v", d)
	}
	if d.NewRecord || d.Longest != 5 {
		t.Fatalf("Expected tie not to count as record, got %+v", d)
	}
}

func TestEvaluate_LongestNeverBelowCurrent(t *testing.T) {
	e, mr, _ := newTestEngine(t)
	userID := types.NewEntityID()

	longest := 0
	for day := 0; day < 6; day++ {
		d := post(t, e, userID, longest)
		if !d.Allowed {
			t.Fatalf("Day %d: expected post to be allowed", day)
		}
		if d.Longest < longest || d.Longest < d.Current {
			t.Fatalf("Day %d: longest %d regressed or below current %d", day, d.Longest, d.Current)
		}
		longest = d.Longest

		if day == 2 {
			mr.FastForward(testWindow + time.Minute)
		} else {
			mr.FastForward(24 * time.Hour)
		}
	}
	if longest != 3 {
		t.Fatalf("Expected longest 3 after a break, got %d", longest)
	}
}

func TestRedisCounter_KeyWithoutExpiryIsAbsent(t *testing.T) {
	_, redisClient := setupTestRedis(t)
	c := NewRedisCounter(redisClient)
	userID := types.NewEntityID()
	ctx := context.Background()

	redisClient.Set(ctx, "streak:current:"+userID.String(), 7, 0)

	_, _, ok, err := c.Load(ctx, userID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Fatal("Expected a counter without TTL to be treated as absent")
	}
}

func TestRedisCounter_MalformedValue(t *testing.T) {
	_, redisClient := setupTestRedis(t)
	c := NewRedisCounter(redisClient)
	userID := types.NewEntityID()
	ctx := context.Background()

	redisClient.Set(ctx, "streak:current:"+userID.String(), "abc", time.Hour)

	if _, _, _, err := c.Load(ctx, userID); err == nil {
		t.Fatal("Expected error for non-integer counter")
	}
}

func TestReset(t *testing.T) {
	e, _, _ := newTestEngine(t)
	userID := types.NewEntityID()
	ctx := context.Background()

	post(t, e, userID, 0)
	if err := e.Reset(ctx, userID); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	current, err := e.Current(ctx, userID)
	if err != nil || current != 0 {
		t.Fatalf("Expected streak 0 after reset, got %d (%v)", current, err)
	}
}

type failingCounter struct{ err error }

func (f failingCounter) Load(context.Context, types.EntityID) (int, time.Duration, bool, error) {
	return 0, 0, false, f.err
}

func (f failingCounter) Store(context.Context, types.EntityID, int, time.Duration) error {
	return f.err
}

func (f failingCounter) Delete(context.Context, types.EntityID) error {
	return f.err
}

func TestEvaluate_CounterFailure(t *testing.T) {
	boom := errors.New("connection refused")
	e := NewEngine(failingCounter{err: boom}, testMinInterval, testWindow)

	_, err := e.Evaluate(context.Background(), types.NewEntityID(), 0)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected counter error to surface, got %v", err)
	}
}
