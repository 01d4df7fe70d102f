package reconcile

import (
	"context"

	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/dom"
)

// ensurePanelsClosed sweeps transient overlays shut in bounded rounds.
// Clicking one close affordance often reveals the next (stacked dialogs,
// backdrops), so the sweep repeats with a short pause until a round
// closes nothing and no overlay pane remains, or the round budget runs
// out. The settings drawer is exempt unless auto-closing it is allowed.
func (e *Engine) ensurePanelsClosed(ctx context.Context, cfg config.Configuration) {
	for round := 0; round < e.opts.CloseRounds; round++ {
		closed := e.closeOnce(cfg)
		if _, paneOpen := e.doc.Query(e.sel.OverlayPane); !closed && !paneOpen {
			return
		}
		if !e.sleep(ctx, e.opts.ClosePause) {
			return
		}
	}
}

// closeOnce runs one close round and reports whether anything was
// activated.
func (e *Engine) closeOnce(cfg config.Configuration) bool {
	selectors := make([]string, 0, len(e.sel.CloseButtons)+len(e.sel.SettingsCloseButtons)+1)
	selectors = append(selectors, e.sel.CloseButtons...)
	selectors = append(selectors, e.sel.Backdrop)
	if cfg.AutoCloseSettings {
		selectors = append(selectors, e.sel.SettingsCloseButtons...)
	}

	closed := false
	for _, sel := range selectors {
		for _, n := range e.doc.QueryAll(sel) {
			if !cfg.AutoCloseSettings && insideRunSettings(n, e.sel.RunSettings) {
				continue
			}
			n.Click()
			closed = true
		}
	}

	if cfg.AutoCloseSettings {
		if rs, ok := e.doc.Query(e.sel.RunSettingsExpanded); ok {
			if btn, ok := rs.Query(`button[aria-label*="Close"], button[aria-label*="close"]`); ok {
				btn.Click()
				closed = true
			}
		}
	}
	return closed
}

func insideRunSettings(n dom.Node, runSettings string) bool {
	_, ok := n.Closest(runSettings)
	return ok
}
