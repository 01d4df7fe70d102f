package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/betterstudio/studio-sync/internal/privacy"
	"github.com/betterstudio/studio-sync/internal/reconcile"
	"github.com/betterstudio/studio-sync/internal/store"
)

// ApplyResult reports one snapshot reconciliation.
type ApplyResult struct {
	// Applied is false when the pass was skipped (mirroring disabled).
	Applied bool
	// Mutations counts the page-changing operations the pass performed;
	// zero means the snapshot already conformed.
	Mutations int
}

// Apply reconciles the page snapshot at pagePath against the stored
// configuration and writes the result back in place.
func Apply(ctx context.Context, s store.Store, pagePath string, opts reconcile.Options) (ApplyResult, error) {
	st, _, err := store.LoadState(s)
	if err != nil {
		return ApplyResult{}, err
	}

	page, err := loadPage(pagePath)
	if err != nil {
		return ApplyResult{}, err
	}

	// Snapshot passes are one-shot: no user to yield to, no settle loop.
	opts.StabilizeRounds = 0
	masker := privacy.New(page, privacy.DefaultConfig(), nil)
	engine := reconcile.New(page, nil, masker, nil, opts)

	applied := engine.Apply(ctx, st.Config)
	result := ApplyResult{Applied: applied, Mutations: page.MutatingOps()}
	if !applied {
		return result, nil
	}

	html, err := page.Render()
	if err != nil {
		return ApplyResult{}, err
	}
	if err := os.WriteFile(pagePath, []byte(html), 0644); err != nil {
		return ApplyResult{}, fmt.Errorf("writing page snapshot: %w", err)
	}
	return result, nil
}
