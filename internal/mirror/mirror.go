// Package mirror coordinates one context: it owns the in-memory snapshot,
// persists every mutation to the store, broadcasts it on the bus, and
// adopts snapshots arriving from either path. Convergence is last write
// wins over full snapshots — no merging, no versions.
package mirror

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/betterstudio/studio-sync/internal/bus"
	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/state"
	"github.com/betterstudio/studio-sync/internal/store"
)

// Controller is one context's view of the shared state.
type Controller struct {
	id     string
	store  store.Store
	bus    bus.Bus
	logger *slog.Logger

	mu sync.Mutex
	st state.State
	ms config.ModelSettings

	onApply   func(state.State)
	stopWatch func()
	unsub     func()
}

// New loads the snapshot from s and wires the two change paths: bus
// envelopes (fast, best-effort) and the store watch (authoritative).
// b may be nil for contexts that converge through the store alone.
func New(s store.Store, b bus.Bus, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		id:     uuid.NewString(),
		store:  s,
		bus:    b,
		logger: logger.With(slog.String("component", "mirror")),
	}

	st, ms, err := store.LoadState(s)
	if err != nil {
		return nil, err
	}
	c.st, c.ms = st, ms

	if b != nil {
		c.unsub = b.Subscribe(c.handleEnvelope)
	}
	stop, err := s.Watch(c.handleStoreChange)
	if err != nil {
		return nil, fmt.Errorf("watching store: %w", err)
	}
	c.stopWatch = stop
	return c, nil
}

// ID returns the context id stamped on outgoing envelopes.
func (c *Controller) ID() string { return c.id }

// OnApply registers the callback fired with the adopted snapshot whenever
// state changes from any path, including this context's own mutations.
// Receivers are expected to apply idempotently.
func (c *Controller) OnApply(fn func(state.State)) {
	c.mu.Lock()
	c.onApply = fn
	c.mu.Unlock()
}

// State returns a copy of the current snapshot.
func (c *Controller) State() state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ModelSettings returns a copy of the per-model settings cache.
func (c *Controller) ModelSettings() config.ModelSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(config.ModelSettings, len(c.ms))
	for k, v := range c.ms {
		out[k] = v
	}
	return out
}

// Close detaches the controller from its change sources. The store and
// bus are owned by the caller and stay open.
func (c *Controller) Close() {
	if c.stopWatch != nil {
		c.stopWatch()
	}
	if c.unsub != nil {
		c.unsub()
	}
}

// Update applies fn to the snapshot under the controller lock, persists
// the result, and broadcasts it. This is the single write path every
// mutating operation funnels through.
func (c *Controller) Update(fn func(st *state.State, ms config.ModelSettings)) error {
	c.mu.Lock()
	fn(&c.st, c.ms)
	snapshot := c.snapshotLocked()
	ms := c.ms
	c.mu.Unlock()

	if err := store.SaveState(c.store, snapshot, ms); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}
	if c.bus != nil {
		if err := c.bus.Publish(state.NewEnvelope(c.id, snapshot)); err != nil {
			// Best effort: peers converge through the store watch.
			c.logger.Debug("broadcast failed", slog.Any("error", err))
		}
	}
	c.fireApply(snapshot)
	return nil
}

// UpdateConfig mutates only the live Configuration.
func (c *Controller) UpdateConfig(fn func(cfg *config.Configuration)) error {
	return c.Update(func(st *state.State, _ config.ModelSettings) {
		fn(&st.Config)
	})
}

// ToggleTool flips one tool with exclusivity and gating applied.
func (c *Controller) ToggleTool(tool config.Tool, on bool) error {
	return c.UpdateConfig(func(cfg *config.Configuration) {
		config.ApplyToolToggle(cfg, tool, on)
	})
}

// SetModel runs the model-switch protocol and persists the updated
// per-model cache alongside the config.
func (c *Controller) SetModel(model string) error {
	return c.Update(func(st *state.State, ms config.ModelSettings) {
		config.SwitchModel(&st.Config, ms, model)
	})
}

// AddPreset snapshots the live config under name and activates it.
func (c *Controller) AddPreset(name string) error {
	return c.Update(func(st *state.State, _ config.ModelSettings) {
		st.AddPreset(name)
	})
}

// DeletePreset removes the preset at idx.
func (c *Controller) DeletePreset(idx int) error {
	return c.presetOp(func(st *state.State) bool { return st.DeletePreset(idx) })
}

// RenamePreset renames the preset at idx.
func (c *Controller) RenamePreset(idx int, name string) error {
	return c.presetOp(func(st *state.State) bool { return st.RenamePreset(idx, name) })
}

// MovePreset swaps the preset at idx with its neighbor.
func (c *Controller) MovePreset(idx, dir int) error {
	return c.presetOp(func(st *state.State) bool { return st.MovePreset(idx, dir) })
}

// UsePreset copies the preset at idx into the live config.
func (c *Controller) UsePreset(idx int) error {
	return c.presetOp(func(st *state.State) bool { return st.ActivatePreset(idx) })
}

func (c *Controller) presetOp(op func(st *state.State) bool) error {
	var ok bool
	err := c.Update(func(st *state.State, _ config.ModelSettings) {
		ok = op(st)
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no such preset")
	}
	return nil
}

// Reset restores the first-run snapshot and clears the per-model cache.
func (c *Controller) Reset() error {
	c.mu.Lock()
	c.st = state.Default()
	c.ms = config.ModelSettings{}
	snapshot := c.snapshotLocked()
	ms := c.ms
	c.mu.Unlock()

	if err := store.SaveState(c.store, snapshot, ms); err != nil {
		return fmt.Errorf("persisting reset: %w", err)
	}
	if c.bus != nil {
		if err := c.bus.Publish(state.NewEnvelope(c.id, snapshot)); err != nil {
			c.logger.Debug("broadcast failed", slog.Any("error", err))
		}
	}
	c.fireApply(snapshot)
	return nil
}

// handleEnvelope adopts a peer's snapshot. Own envelopes echoed back by a
// transport are dropped here, so transports need no origin tracking.
func (c *Controller) handleEnvelope(env state.Envelope) {
	if env.Sender == c.id {
		return
	}
	c.adopt(env.State, "bus")
}

// handleStoreChange re-reads the store; the watch fires for our own
// writes too, so adoption is equality-gated.
func (c *Controller) handleStoreChange() {
	st, ms, err := store.LoadState(c.store)
	if err != nil {
		c.logger.Warn("re-reading store failed", slog.Any("error", err))
		return
	}
	c.mu.Lock()
	c.ms = ms
	c.mu.Unlock()
	c.adopt(st, "store")
}

func (c *Controller) adopt(st state.State, source string) {
	c.mu.Lock()
	if reflect.DeepEqual(c.st, st) {
		c.mu.Unlock()
		return
	}
	c.st = st
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("adopted snapshot", slog.String("source", source))
	c.fireApply(snapshot)
}

func (c *Controller) fireApply(snapshot state.State) {
	c.mu.Lock()
	fn := c.onApply
	c.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// snapshotLocked deep-copies the state so callers never alias the
// controller's presets or config maps. Caller holds c.mu.
func (c *Controller) snapshotLocked() state.State {
	out := c.st
	out.Config = c.st.Config.Clone()
	out.Presets = make([]state.Preset, len(c.st.Presets))
	for i, p := range c.st.Presets {
		p.Config = p.Config.Clone()
		out.Presets[i] = p
	}
	return out
}
