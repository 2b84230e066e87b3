package prospectindata

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces at most maxRequests request starts per sliding window
// across all goroutines sharing it. It keeps the timestamps of recent request
// starts and prunes stale ones on every acquisition attempt, so the invariant
// "no more than N dispatches in any window of length W" holds at all times.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	stamps      []time.Time
}

// NewRateLimiter creates a limiter allowing maxRequests per window.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
	}
}

// Wait blocks until a request slot is free, recording the request start on
// success. It returns early with the context's error if ctx is cancelled
// while waiting. Waiting goroutines sleep on timers rather than spinning, so
// one rate-limited caller never stalls the others.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rl.mu.Lock()
		now := time.Now()
		rl.prune(now)
		if len(rl.stamps) < rl.maxRequests {
			rl.stamps = append(rl.stamps, now)
			rl.mu.Unlock()
			return nil
		}
		// Sleep until the oldest stamp ages out of the window, then
		// re-contend for a slot.
		wait := rl.stamps[0].Add(rl.window).Sub(now)
		rl.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Allow records a request start if a slot is free, without blocking.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.prune(now)
	if len(rl.stamps) >= rl.maxRequests {
		return false
	}
	rl.stamps = append(rl.stamps, now)
	return true
}

// Active returns the number of request starts currently inside the window.
func (rl *RateLimiter) Active() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune(time.Now())
	return len(rl.stamps)
}

// prune drops stamps older than the window. Caller must hold mu.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.stamps) && !rl.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.stamps = append(rl.stamps[:0], rl.stamps[i:]...)
	}
}
