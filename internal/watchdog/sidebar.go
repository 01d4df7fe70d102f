package watchdog

import (
	"log/slog"
	"time"

	"github.com/betterstudio/studio-sync/internal/dom"
)

// SidebarConfig names the markup the sidebar watchdog looks at.
type SidebarConfig struct {
	// Selectors tried in order to find the navigation sidebar.
	Sidebar []string
	// Toggle is the button that collapses or expands the sidebar.
	Toggle string
	// CollapsedWidth is the widest a sidebar can be and still count as
	// collapsed.
	CollapsedWidth int
	// Backdate is subtracted from now when stamping the interaction
	// tracker after a watchdog collapse, so one collapse does not open a
	// full freshness window.
	Backdate time.Duration
}

// DefaultSidebarConfig matches the target application's markup.
func DefaultSidebarConfig() SidebarConfig {
	return SidebarConfig{
		Sidebar:        []string{"ms-navbar", ".nav-content", ".v3-left-nav"},
		Toggle:         `button[aria-label="Toggle navigation menu"]`,
		CollapsedWidth: 100,
		Backdate:       1500 * time.Millisecond,
	}
}

// Sidebar re-collapses the navigation sidebar whenever the application
// re-expands it (SPA route changes do this), unless a suppressive signal
// says the user or the engine is in charge right now.
type Sidebar struct {
	doc     dom.Document
	tracker *Tracker
	cfg     SidebarConfig
	logger  *slog.Logger
	enabled func() bool
	stop    func()
}

// StartSidebar subscribes the watchdog to document mutations. enabled is
// consulted on every pass; wire it to the live auto-collapse preference.
func StartSidebar(doc dom.Document, tracker *Tracker, cfg SidebarConfig, enabled func() bool, logger *slog.Logger) *Sidebar {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sidebar{
		doc:     doc,
		tracker: tracker,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "sidebar-watchdog")),
		enabled: enabled,
	}
	s.stop = doc.Observe(s.check)
	return s
}

// Stop unsubscribes the watchdog.
func (s *Sidebar) Stop() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// Check runs one watchdog pass immediately.
func (s *Sidebar) Check() { s.check() }

func (s *Sidebar) check() {
	if s.enabled != nil && !s.enabled() {
		return
	}
	if s.tracker.ManualOverride() || s.tracker.Stabilizing() || s.tracker.UserActive() {
		return
	}
	nav, ok := s.findSidebar()
	if !ok || nav.Width() <= s.cfg.CollapsedWidth {
		return
	}
	toggle, ok := s.doc.Query(s.cfg.Toggle)
	if !ok {
		return
	}
	s.logger.Debug("sidebar re-expanded, collapsing", slog.Int("width", nav.Width()))
	toggle.Click()
	s.tracker.BackdateInteraction(s.cfg.Backdate)
}

func (s *Sidebar) findSidebar() (dom.Node, bool) {
	for _, sel := range s.cfg.Sidebar {
		if n, ok := s.doc.Query(sel); ok {
			return n, true
		}
	}
	return nil, false
}
