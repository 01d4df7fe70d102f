// Package reconcile drives the page toward a desired Configuration. A
// pass reads current control state and mutates only where it differs;
// applying an already-satisfied configuration touches nothing. Passes
// run under a visual suppression marker and finish with a bounded
// close-all-panels sweep and a short stabilization loop.
package reconcile

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/dom"
	"github.com/betterstudio/studio-sync/internal/privacy"
	"github.com/betterstudio/studio-sync/internal/watchdog"
)

// Options bound every wait in a pass. Tests shrink them; production uses
// the defaults.
type Options struct {
	// PollInterval paces condition polling.
	PollInterval time.Duration
	// ModelTimeout bounds the wait for the model picker popover.
	ModelTimeout time.Duration
	// ModalTimeout bounds the wait for the schema editor dialog.
	ModalTimeout time.Duration
	// PanelTimeout bounds the wait for the instructions panel to open.
	PanelTimeout time.Duration
	// CloseRounds and ClosePause bound the close-all-panels sweep.
	CloseRounds int
	ClosePause  time.Duration
	// SidebarAttempts and SidebarPause bound the collapse retry loop.
	SidebarAttempts int
	SidebarPause    time.Duration
	// StabilizeRounds and StabilizePause bound the post-apply settle
	// loop; zero rounds disables it.
	StabilizeRounds int
	StabilizePause  time.Duration
}

// DefaultOptions returns production timings.
func DefaultOptions() Options {
	return Options{
		PollInterval:    16 * time.Millisecond,
		ModelTimeout:    time.Second,
		ModalTimeout:    3 * time.Second,
		PanelTimeout:    time.Second,
		CloseRounds:     10,
		ClosePause:      100 * time.Millisecond,
		SidebarAttempts: 5,
		SidebarPause:    200 * time.Millisecond,
		StabilizeRounds: 15,
		StabilizePause:  200 * time.Millisecond,
	}
}

// Engine reconciles one document. At most one pass runs at a time; a
// pass requested while another is in flight is dropped, not queued — the
// next state change will request a fresh one anyway.
type Engine struct {
	doc     dom.Document
	sel     Selectors
	opts    Options
	tracker *watchdog.Tracker
	masker  *privacy.Masker
	logger  *slog.Logger

	inFlight atomic.Bool

	// appliedSchemas remembers the last schema injected per tool so a
	// repeat pass with the same text does not reopen the editor dialog.
	appliedSchemas map[config.Tool]string
}

// New creates an engine for doc. tracker and masker may be nil; a nil
// tracker gets a private one, a nil masker disables email masking.
func New(doc dom.Document, tracker *watchdog.Tracker, masker *privacy.Masker, logger *slog.Logger, opts Options) *Engine {
	if tracker == nil {
		tracker = watchdog.NewTracker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		doc:            doc,
		sel:            DefaultSelectors(),
		opts:           opts,
		tracker:        tracker,
		masker:         masker,
		logger:         logger.With(slog.String("component", "reconcile")),
		appliedSchemas: map[config.Tool]string{},
	}
}

// Tracker returns the interaction tracker the engine consults.
func (e *Engine) Tracker() *watchdog.Tracker { return e.tracker }

// InFlight reports whether a pass is currently running.
func (e *Engine) InFlight() bool { return e.inFlight.Load() }

// Apply runs one reconciliation pass. It returns false when the pass was
// skipped: mirroring disabled, another pass in flight, or the user was
// active within the freshness window.
func (e *Engine) Apply(ctx context.Context, cfg config.Configuration) bool {
	if cfg.Disable {
		e.logger.Debug("mirroring disabled, skipping pass")
		return false
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		e.logger.Debug("pass already in flight, dropping")
		return false
	}
	defer e.inFlight.Store(false)
	if e.tracker.UserActive() {
		e.logger.Debug("user active, skipping pass")
		return false
	}

	e.installSuppression(cfg)
	e.doc.SetMarker(e.sel.SyncMarker, true)
	defer func() {
		e.ensurePanelsClosed(ctx, cfg)
		e.doc.SetMarker(e.sel.SyncMarker, false)
	}()

	e.applyModel(ctx, cfg.Model)
	e.applyParameters(ctx, cfg)
	e.applyTools(ctx, cfg)
	e.applyInstructions(ctx, cfg)
	e.applyUIAdjustments(ctx, cfg)

	if e.opts.StabilizeRounds > 0 {
		e.tracker.SetStabilizing(true)
		go e.stabilize(ctx, cfg)
	}
	return true
}

// installSuppression hides overlay containers while the sync marker is
// set, so intermediate opens and closes never flash on screen. The
// settings drawer joins the list only when auto-closing it is allowed.
func (e *Engine) installSuppression(cfg config.Configuration) {
	targets := make([]string, 0, len(e.sel.OverlayContainers)+1)
	for _, s := range e.sel.OverlayContainers {
		targets = append(targets, "body."+e.sel.SyncMarker+" "+s)
	}
	if cfg.AutoCloseSettings {
		targets = append(targets, "body."+e.sel.SyncMarker+" "+e.sel.RunSettings)
	}
	css := strings.Join(targets, ",\n") +
		" {\n  opacity: 0 !important;\n  pointer-events: none !important;\n  transition: none !important;\n}"
	e.doc.SetStyleRule(e.sel.SuppressionStyleID, css)
}

// stabilize keeps panels closed and the sidebar collapsed for a short
// window after a pass, while route-change re-renders settle. A user
// interaction aborts it immediately.
func (e *Engine) stabilize(ctx context.Context, cfg config.Configuration) {
	defer e.tracker.SetStabilizing(false)
	for i := 0; i < e.opts.StabilizeRounds; i++ {
		if !e.tracker.Stabilizing() || e.tracker.UserActive() {
			return
		}
		if cfg.AutoCloseSettings {
			e.closeOnce(cfg)
		}
		if cfg.AutoCloseNav && !e.tracker.ManualOverride() {
			e.collapseSidebarOnce()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.opts.StabilizePause):
		}
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
