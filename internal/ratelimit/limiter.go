package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum spacing between outbound calls, shared across
// all verification workers. It is a global ceiling on call rate, not a
// fairness mechanism: the mutex serializes callers and each granted permit
// advances the shared "last grant" time by one interval.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewLimiter creates a limiter allowing requestsPerSecond calls per second.
// A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64) *Limiter {
	var interval time.Duration
	if requestsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / requestsPerSecond)
	}
	return &Limiter{interval: interval}
}

// Wait blocks until at least one interval has elapsed since the previously
// granted permit, then grants one. Returns early with the context error if
// the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	next := l.last.Add(l.interval)
	if now.Before(next) {
		timer := time.NewTimer(next.Sub(now))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now = <-timer.C:
		}
	}
	l.last = now
	return nil
}
