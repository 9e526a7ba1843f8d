package pace

import (
	"context"
	"testing"
	"time"
)

// fakeClock drives a Limiter without touching the wall clock. Sleeps advance
// the clock instead of blocking.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	cancel bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.cancel {
		return context.Canceled
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(call, page time.Duration) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	l := NewLimiter(call, page)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestCall_FirstCallIsImmediate(t *testing.T) {
	l, clock := newTestLimiter(time.Second, 100*time.Millisecond)

	if err := l.Call(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clock.slept) != 0 {
		t.Errorf("slept %v, want no sleep before the first call", clock.slept)
	}
}

func TestCall_BackToBackCallsWaitTheFullInterval(t *testing.T) {
	l, clock := newTestLimiter(time.Second, 100*time.Millisecond)

	_ = l.Call(context.Background())
	if err := l.Call(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(clock.slept) != 1 || clock.slept[0] != time.Second {
		t.Errorf("slept %v, want one full 1s wait", clock.slept)
	}
}

func TestCall_ElapsedTimeCountsTowardTheInterval(t *testing.T) {
	l, clock := newTestLimiter(time.Second, 100*time.Millisecond)

	_ = l.Call(context.Background())
	clock.now = clock.now.Add(700 * time.Millisecond)
	_ = l.Call(context.Background())

	if len(clock.slept) != 1 || clock.slept[0] != 300*time.Millisecond {
		t.Errorf("slept %v, want one 300ms remainder wait", clock.slept)
	}
}

func TestPage_UsesShorterIntervalButSharesTheClock(t *testing.T) {
	l, clock := newTestLimiter(time.Second, 100*time.Millisecond)

	// A page read shortly after a mutating call only waits the page interval.
	_ = l.Call(context.Background())
	_ = l.Page(context.Background())

	if len(clock.slept) != 1 || clock.slept[0] != 100*time.Millisecond {
		t.Errorf("slept %v, want one 100ms page wait", clock.slept)
	}

	// And a mutating call after a page read waits the full call interval
	// measured from that page read.
	_ = l.Call(context.Background())
	if len(clock.slept) != 2 || clock.slept[1] != time.Second {
		t.Errorf("slept %v, want a full 1s wait after the page read", clock.slept)
	}
}

func TestGate_PropagatesCancellation(t *testing.T) {
	l, clock := newTestLimiter(time.Second, 100*time.Millisecond)
	clock.cancel = true

	_ = l.Call(context.Background())
	if err := l.Call(context.Background()); err == nil {
		t.Error("expected error from cancelled sleep, got nil")
	}
}

func TestNewLimiter_DefaultsForNonPositiveIntervals(t *testing.T) {
	l := NewLimiter(0, -1)
	if l.callInterval != DefaultCallInterval {
		t.Errorf("callInterval = %v, want default %v", l.callInterval, DefaultCallInterval)
	}
	if l.pageInterval != DefaultPageInterval {
		t.Errorf("pageInterval = %v, want default %v", l.pageInterval, DefaultPageInterval)
	}
}
