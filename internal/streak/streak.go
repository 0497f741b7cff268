// Package streak decides whether a user may post now and what their streak
// becomes if they do.
//
// The current streak lives in an expiring counter whose TTL is reset to the
// window on every accepted post, so the time since the previous post is
// window minus the remaining TTL. A post is accepted once that elapsed time
// reaches the minimum interval; once the counter expires the chain is broken
// and counting restarts at one.
package streak

import (
	"context"
	"time"

	"github.com/princekumarofficial/journal-service/internal/types"
)

// Decision is the outcome of Evaluate. Current and Longest are only
// meaningful when Allowed is true.
type Decision struct {
	Allowed bool
	// Prior is the live streak the post continues, zero after a break.
	Prior     int
	Current   int
	Longest   int
	NewRecord bool
	// Retry is how long until a denied user may post again.
	Retry time.Duration
}

type Engine struct {
	counter     Counter
	minInterval time.Duration
	window      time.Duration
}

func NewEngine(counter Counter, minInterval, window time.Duration) *Engine {
	return &Engine{
		counter:     counter,
		minInterval: minInterval,
		window:      window,
	}
}

func (e *Engine) Window() time.Duration {
	return e.window
}

// Evaluate reads the counter and decides. It never writes: the caller commits
// the new value only after the post is stored.
func (e *Engine) Evaluate(ctx context.Context, userID types.EntityID, longest int) (Decision, error) {
	prior, ttl, ok, err := e.counter.Load(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	if ok {
		elapsed := e.window - ttl
		if elapsed < e.minInterval {
			return Decision{Retry: e.minInterval - elapsed}, nil
		}
	} else {
		prior = 0
	}

	current := prior + 1
	d := Decision{
		Allowed:   true,
		Prior:     prior,
		Current:   current,
		Longest:   longest,
		NewRecord: current > longest,
	}
	if d.NewRecord {
		d.Longest = current
	}
	return d, nil
}

// Commit stores current as the live streak for a full window.
func (e *Engine) Commit(ctx context.Context, userID types.EntityID, current int) error {
	return e.counter.Store(ctx, userID, current, e.window)
}

// Current returns the live streak, zero when the counter is gone.
func (e *Engine) Current(ctx context.Context, userID types.EntityID) (int, error) {
	value, _, ok, err := e.counter.Load(ctx, userID)
	if err != nil || !ok {
		return 0, err
	}
	return value, nil
}

// Reset drops the live streak.
func (e *Engine) Reset(ctx context.Context, userID types.EntityID) error {
	return e.counter.Delete(ctx, userID)
}
