package limiter

import (
	"context"
	"time"
)

// Store counts attempts per key over a fixed window that opens with the
// first attempt and closes window later.
type Store interface {
	// Hit records one attempt and returns the count in the current window
	// together with the time the window closes.
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
	// Reset forgets key
	Reset(ctx context.Context, key string) error
}
