// Package commands implements the CLI operations over the shared state:
// inspecting it, applying it to page snapshots, running the live mirror
// loop, and resetting. Each function takes its dependencies explicitly so
// tests drive them against temporary stores and fixture pages.
package commands

import (
	"fmt"
	"os"

	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/dom"
	"github.com/betterstudio/studio-sync/internal/reconcile"
	"github.com/betterstudio/studio-sync/internal/state"
	"github.com/betterstudio/studio-sync/internal/store"
)

// StatusReport summarizes the stored snapshot and, when a page snapshot
// was given, its divergence from the desired configuration.
type StatusReport struct {
	State         state.State
	ModelSettings config.ModelSettings
	// Diffs is nil when no page was inspected, empty when the page
	// conforms.
	Diffs []reconcile.FieldDiff
}

// ActivePresetName resolves the active preset, empty when none is active.
func (r StatusReport) ActivePresetName() string {
	idx := r.State.ActivePresetIndex
	if idx < 0 || idx >= len(r.State.Presets) {
		return ""
	}
	return r.State.Presets[idx].Name
}

// Status loads the snapshot from s. When pagePath is non-empty the page
// file is parsed and diffed read-only against the stored configuration.
func Status(s store.Store, pagePath string) (StatusReport, error) {
	st, ms, err := store.LoadState(s)
	if err != nil {
		return StatusReport{}, err
	}
	report := StatusReport{State: st, ModelSettings: ms}

	if pagePath != "" {
		page, err := loadPage(pagePath)
		if err != nil {
			return StatusReport{}, err
		}
		diffs := reconcile.Diff(page, st.Config)
		if diffs == nil {
			diffs = []reconcile.FieldDiff{}
		}
		report.Diffs = diffs
	}
	return report, nil
}

func loadPage(path string) (*dom.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page snapshot: %w", err)
	}
	page, err := dom.NewPage(string(data), "file://"+path)
	if err != nil {
		return nil, fmt.Errorf("parsing page snapshot: %w", err)
	}
	return page, nil
}
