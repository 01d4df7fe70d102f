package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/betterstudio/studio-sync/internal/bus"
	"github.com/betterstudio/studio-sync/internal/mirror"
	"github.com/betterstudio/studio-sync/internal/privacy"
	"github.com/betterstudio/studio-sync/internal/reconcile"
	"github.com/betterstudio/studio-sync/internal/state"
	"github.com/betterstudio/studio-sync/internal/store"
	"github.com/betterstudio/studio-sync/internal/watchdog"
)

// RunOptions tune the live mirror loop.
type RunOptions struct {
	Engine reconcile.Options
	// NavigationInterval paces the SPA location poll.
	NavigationInterval time.Duration
	// ReapplyCooldown debounces mutation-driven re-reconciliation.
	ReapplyCooldown time.Duration
}

// DefaultRunOptions returns production timings.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Engine:             reconcile.DefaultOptions(),
		NavigationInterval: watchdog.DefaultNavigationInterval,
		ReapplyCooldown:    time.Second,
	}
}

// Run operates one live context over the page snapshot at pagePath: an
// initial reconciliation, then re-application on every state change (bus
// or store), SPA navigation, and relevant page mutation, until ctx is
// done. The final page state is written back on exit. b may be nil to
// run store-watch only.
func Run(ctx context.Context, s store.Store, b bus.Bus, pagePath string, opts RunOptions, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "run"))

	page, err := loadPage(pagePath)
	if err != nil {
		return err
	}

	tracker := watchdog.NewTracker()
	masker := privacy.New(page, privacy.DefaultConfig(), logger)
	engine := reconcile.New(page, tracker, masker, logger, opts.Engine)

	ctrl, err := mirror.New(s, b, logger)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	apply := func(st state.State) {
		engine.Apply(ctx, st.Config)
	}
	ctrl.OnApply(apply)

	sidebar := watchdog.StartSidebar(page, tracker, watchdog.DefaultSidebarConfig(), func() bool {
		cfg := ctrl.State().Config
		return cfg.AutoCloseNav && !cfg.Disable
	}, logger)
	defer sidebar.Stop()

	reapply := watchdog.StartReapply(page, opts.ReapplyCooldown, func() bool {
		return !engine.InFlight() && !tracker.UserActive() && !tracker.Stabilizing()
	}, func() {
		apply(ctrl.State())
	})
	defer reapply.Stop()

	go watchdog.StartNavigation(ctx, page, opts.NavigationInterval, func(url string) {
		log.Info("navigation detected, reapplying", slog.String("url", url))
		apply(ctrl.State())
	}, logger)

	log.Info("mirror running", slog.String("page", pagePath), slog.String("context", ctrl.ID()))
	apply(ctrl.State())

	<-ctx.Done()

	html, err := page.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(pagePath, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing page snapshot: %w", err)
	}
	return nil
}
