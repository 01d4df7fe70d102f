// Package waitfor provides the bounded poll-until primitive used for
// every "wait for a transient element" step: cooperative polling with an
// explicit deadline so a missing element can never stall the engine.
package waitfor

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout reports that the condition never held within the deadline.
var ErrTimeout = errors.New("condition not met before deadline")

// Poll invokes cond every interval until it returns true, the timeout
// elapses, or ctx is cancelled. cond runs once immediately.
func Poll(ctx context.Context, interval, timeout time.Duration, cond func() bool) error {
	if cond() {
		return nil
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond // roughly one frame
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrTimeout
		case <-ticker.C:
			if cond() {
				return nil
			}
		}
	}
}
