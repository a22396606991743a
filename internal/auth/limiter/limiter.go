// Package limiter throttles login attempts per client address
package limiter

import (
	"context"
	"time"
)

// Decision is the outcome of one counted attempt
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most maxAttempts per key within window
type Limiter struct {
	store       Store
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// New creates a limiter over store
func New(store Store, maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Allow counts an attempt for key. Attempts past the limit are denied
// until the window closes.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, resetAt, err := l.store.Hit(ctx, key, l.window)
	if err != nil {
		return Decision{}, err
	}
	if count > l.maxAttempts {
		wait := resetAt.Sub(l.now())
		if wait < time.Second {
			wait = time.Second
		}
		return Decision{RetryAfter: wait}, nil
	}
	return Decision{Allowed: true, Remaining: l.maxAttempts - count}, nil
}

// Reset clears the counter for key, e.g. after a successful login
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}

// MaxAttempts returns the configured limit per window
func (l *Limiter) MaxAttempts() int {
	return l.maxAttempts
}
