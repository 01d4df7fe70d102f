// Package watchdog holds the continuous background reconciliation
// signals: the user-interaction tracker and the observers that re-trigger
// reconciliation when the external application undoes it (sidebar
// re-expansion on SPA navigation, panel re-opens, URL changes).
package watchdog

import (
	"sync"
	"time"
)

// DefaultFreshness is how long a user interaction suppresses automatic
// reconciliation.
const DefaultFreshness = 2 * time.Second

// Tracker records the three suppressive signals consulted before any
// automatic DOM mutation:
//
//   - lastInteraction: a trusted user input happened within the freshness
//     window
//   - manualOverride: the user toggled the sidebar themselves; never
//     cleared until the page reloads
//   - stabilizing: the post-apply settle loop is running
type Tracker struct {
	mu              sync.Mutex
	lastInteraction time.Time
	manualOverride  bool
	stabilizing     bool
	freshness       time.Duration
}

// NewTracker creates a tracker with the default freshness window.
func NewTracker() *Tracker {
	return &Tracker{freshness: DefaultFreshness}
}

// NewTrackerWindow creates a tracker with a custom freshness window.
func NewTrackerWindow(freshness time.Duration) *Tracker {
	return &Tracker{freshness: freshness}
}

// RecordInteraction notes a trusted user input now and aborts any running
// stabilization loop.
func (t *Tracker) RecordInteraction() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastInteraction = time.Now()
	t.stabilizing = false
}

// BackdateInteraction moves the interaction timestamp into the past by d,
// used after a watchdog-driven collapse to avoid re-trigger jitter
// without opening the full freshness window.
func (t *Tracker) BackdateInteraction(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastInteraction = time.Now().Add(-d)
}

// UserActive reports whether an interaction happened within the window.
func (t *Tracker) UserActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.lastInteraction) < t.freshness
}

// SetManualOverride marks a user-initiated sidebar toggle. There is no
// way to clear it short of a new Tracker: the user's intent persists
// until reload.
func (t *Tracker) SetManualOverride() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.manualOverride = true
}

// ManualOverride reports whether the user took over the sidebar.
func (t *Tracker) ManualOverride() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.manualOverride
}

// SetStabilizing flags the settle loop as running.
func (t *Tracker) SetStabilizing(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stabilizing = on
}

// Stabilizing reports whether the settle loop is running.
func (t *Tracker) Stabilizing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stabilizing
}
