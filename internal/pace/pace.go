// Package pace enforces the minimum interval between outbound Discogs calls.
// The API throttles aggressively, so every request is gated through a single
// [Limiter]: mutating and validating calls wait the full call interval,
// pagination reads wait a shorter page interval. The interval is measured
// from the previous gated call regardless of its kind.
package pace

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultCallInterval is the minimum spacing between mutating or
	// validating calls (adds, deletes, release fetches).
	DefaultCallInterval = 1100 * time.Millisecond

	// DefaultPageInterval is the minimum spacing before a pagination read.
	DefaultPageInterval = 250 * time.Millisecond
)

// Limiter serialises outbound calls by blocking until the configured interval
// since the previous gated call has elapsed. It is not safe for concurrent
// use — the sync engine is strictly sequential, so no locking is needed.
type Limiter struct {
	callInterval time.Duration
	pageInterval time.Duration

	last time.Time

	// Injection points for tests: wall clock and interruptible sleep.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a Limiter. Non-positive intervals fall back to the
// package defaults.
func NewLimiter(callInterval, pageInterval time.Duration) *Limiter {
	if callInterval <= 0 {
		callInterval = DefaultCallInterval
	}
	if pageInterval <= 0 {
		pageInterval = DefaultPageInterval
	}
	return &Limiter{
		callInterval: callInterval,
		pageInterval: pageInterval,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

// Call blocks until the call interval since the previous gated call has
// elapsed. Invoke it immediately before an add, delete, or release fetch.
func (l *Limiter) Call(ctx context.Context) error {
	return l.gate(ctx, l.callInterval)
}

// Page blocks until the page interval since the previous gated call has
// elapsed. Invoke it immediately before a pagination read.
func (l *Limiter) Page(ctx context.Context) error {
	return l.gate(ctx, l.pageInterval)
}

func (l *Limiter) gate(ctx context.Context, interval time.Duration) error {
	if !l.last.IsZero() {
		if wait := interval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	l.last = l.now()
	return nil
}

// sleepCtx sleeps for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing interrupted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
