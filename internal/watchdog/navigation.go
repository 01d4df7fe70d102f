package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/betterstudio/studio-sync/internal/dom"
)

// DefaultNavigationInterval is how often the location checker polls for
// SPA route changes, which never fire a load event.
const DefaultNavigationInterval = 500 * time.Millisecond

// StartNavigation polls the document location and calls onChange with the
// new URL whenever it differs from the last one seen. It returns once ctx
// is done.
func StartNavigation(ctx context.Context, doc dom.Document, interval time.Duration, onChange func(url string), logger *slog.Logger) {
	if interval <= 0 {
		interval = DefaultNavigationInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "navigation"))

	last := doc.Location()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := doc.Location()
			if cur == last {
				continue
			}
			logger.Debug("location changed", slog.String("url", cur))
			last = cur
			onChange(cur)
		}
	}
}

// Reapply debounces document mutations into re-reconciliation requests.
// The application re-renders whole panels on route changes, undoing prior
// reconciliation; a mutation observed outside a cooldown window after the
// engine's own activity schedules one fn call. The cooldown breaks the
// loop of fn's own mutations re-triggering fn.
type Reapply struct {
	mu       sync.Mutex
	last     time.Time
	cooldown time.Duration
	fn       func()
	gate     func() bool
	stop     func()
}

// StartReapply observes doc and calls fn at most once per cooldown. gate
// is consulted first; return false to skip (e.g. while the engine is
// mid-apply or the user is active).
func StartReapply(doc dom.Document, cooldown time.Duration, gate func() bool, fn func()) *Reapply {
	r := &Reapply{cooldown: cooldown, fn: fn, gate: gate}
	r.stop = doc.Observe(r.onMutation)
	return r
}

// Stop unsubscribes from the document.
func (r *Reapply) Stop() {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

func (r *Reapply) onMutation() {
	if r.gate != nil && !r.gate() {
		return
	}
	r.mu.Lock()
	if time.Since(r.last) < r.cooldown {
		r.mu.Unlock()
		return
	}
	r.last = time.Now()
	r.mu.Unlock()
	r.fn()
}
