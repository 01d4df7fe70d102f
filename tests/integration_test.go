//go:build integration

package tests

import (
	"context"
	"testing"
	"time"

	"github.com/betterstudio/studio-sync/internal/bus"
	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/dom"
	"github.com/betterstudio/studio-sync/internal/mirror"
	"github.com/betterstudio/studio-sync/internal/privacy"
	"github.com/betterstudio/studio-sync/internal/reconcile"
	"github.com/betterstudio/studio-sync/internal/state"
	"github.com/betterstudio/studio-sync/internal/store"
	"github.com/betterstudio/studio-sync/internal/watchdog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contextPage = `<!DOCTYPE html>
<html><head></head><body>
  <button class="model-selector-card">Gemini 3 Pro</button>
  <button aria-label="Grounding with Google Search" role="switch" aria-checked="true">Search</button>
  <button aria-label="Browse the url context" role="switch" aria-checked="true">URL</button>
  <button aria-label="Function calling" role="switch" aria-checked="false">Fn</button>
  <div class="param-row"><span class="label-wrapper">Temperature</span>
    <div><input class="slider-number-input" value="0.7"></div></div>
  <textarea aria-label="System instructions"></textarea>
  <ms-navbar style="width: 72px"></ms-navbar>
  <button aria-label="Toggle navigation menu">nav</button>
</body></html>`

// mirrorContext bundles one simulated context: its own page, engine, and
// controller, all sharing the store and hub with its peers.
type mirrorContext struct {
	page *dom.Page
	ctrl *mirror.Controller
	eng  *reconcile.Engine
}

func fastOptions() reconcile.Options {
	opts := reconcile.DefaultOptions()
	opts.PollInterval = 2 * time.Millisecond
	opts.ModelTimeout = 50 * time.Millisecond
	opts.ModalTimeout = 50 * time.Millisecond
	opts.PanelTimeout = 50 * time.Millisecond
	opts.ClosePause = 2 * time.Millisecond
	opts.SidebarPause = 2 * time.Millisecond
	opts.StabilizeRounds = 0
	return opts
}

func newContext(t *testing.T, dir, hubAddr string) *mirrorContext {
	t.Helper()

	page, err := dom.NewPage(contextPage, "https://studio.example/app")
	require.NoError(t, err)

	s, err := store.OpenFiles(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	client, err := bus.Dial(hubAddr, "test-context", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctrl, err := mirror.New(s, client, nil)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	tracker := watchdog.NewTrackerWindow(50 * time.Millisecond)
	masker := privacy.New(page, privacy.DefaultConfig(), nil)
	eng := reconcile.New(page, tracker, masker, nil, fastOptions())
	ctrl.OnApply(func(st state.State) {
		eng.Apply(context.Background(), st.Config)
	})

	return &mirrorContext{page: page, ctrl: ctrl, eng: eng}
}

// TestContextsConverge runs two full contexts against one hub and one
// shared store directory: an edit in one context must land in the other
// context's state and page.
func TestContextsConverge(t *testing.T) {
	hub := bus.NewHub(nil)
	require.NoError(t, hub.Start("127.0.0.1:0"))
	defer hub.Close()

	dir := t.TempDir()
	a := newContext(t, dir, hub.Addr())
	b := newContext(t, dir, hub.Addr())

	require.NoError(t, a.ctrl.UpdateConfig(func(cfg *config.Configuration) {
		cfg.Temperature = 1.4
		cfg.Instructions = "answer in haiku"
	}))

	require.Eventually(t, func() bool {
		return b.ctrl.State().Config.Instructions == "answer in haiku"
	}, 3*time.Second, 10*time.Millisecond, "peer state never converged")

	require.Eventually(t, func() bool {
		ta, ok := b.page.Query("textarea")
		return ok && ta.Value() == "answer in haiku"
	}, 3*time.Second, 10*time.Millisecond, "peer page never reconciled")

	assert.Empty(t, reconcile.Diff(b.page, b.ctrl.State().Config))
	assert.Empty(t, reconcile.Diff(a.page, a.ctrl.State().Config))
}

// TestExclusivityPropagates toggles functions on in one context and
// expects the search and url switches to flip off in the peer's page.
func TestExclusivityPropagates(t *testing.T) {
	hub := bus.NewHub(nil)
	require.NoError(t, hub.Start("127.0.0.1:0"))
	defer hub.Close()

	dir := t.TempDir()
	a := newContext(t, dir, hub.Addr())
	b := newContext(t, dir, hub.Addr())

	require.NoError(t, a.ctrl.ToggleTool(config.ToolFunctions, true))

	require.Eventually(t, func() bool {
		fn, ok := b.page.Query(`button[aria-label="Function calling"]`)
		if !ok {
			return false
		}
		checked, _ := fn.Attr("aria-checked")
		return checked == "true"
	}, 3*time.Second, 10*time.Millisecond)

	search, _ := b.page.Query(`button[aria-label="Grounding with Google Search"]`)
	checked, _ := search.Attr("aria-checked")
	assert.Equal(t, "false", checked, "functions must clear search everywhere")
}

// TestPresetActivationAcrossContexts saves a preset in one context,
// activates it from the other, and expects both pages to follow.
func TestPresetActivationAcrossContexts(t *testing.T) {
	hub := bus.NewHub(nil)
	require.NoError(t, hub.Start("127.0.0.1:0"))
	defer hub.Close()

	dir := t.TempDir()
	a := newContext(t, dir, hub.Addr())
	b := newContext(t, dir, hub.Addr())

	require.NoError(t, a.ctrl.UpdateConfig(func(cfg *config.Configuration) {
		cfg.Temperature = 1.8
	}))
	require.NoError(t, a.ctrl.AddPreset("hot"))

	require.Eventually(t, func() bool {
		return len(b.ctrl.State().Presets) == 2
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, b.ctrl.UpdateConfig(func(cfg *config.Configuration) {
		cfg.Temperature = 0.1
	}))
	require.NoError(t, b.ctrl.UsePreset(1))

	require.Eventually(t, func() bool {
		cfg := a.ctrl.State().Config
		return cfg.Temperature > 1.7
	}, 3*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		in, ok := a.page.Query("input.slider-number-input")
		return ok && in.Value() == "1.8"
	}, 3*time.Second, 10*time.Millisecond)
}
