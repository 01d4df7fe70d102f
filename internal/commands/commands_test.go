package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/betterstudio/studio-sync/internal/commands"
	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/mirror"
	"github.com/betterstudio/studio-sync/internal/reconcile"
	"github.com/betterstudio/studio-sync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePage = `<!DOCTYPE html>
<html><head></head><body>
  <button class="model-selector-card">Gemini 2.5 Pro</button>
  <button aria-label="Grounding with Google Search" role="switch" aria-checked="false">Search</button>
  <button aria-label="Browse the url context" role="switch" aria-checked="true">URL</button>
  <div class="param-row"><span class="label-wrapper">Temperature</span>
    <div><input class="slider-number-input" value="1.5"></div></div>
  <textarea aria-label="System instructions"></textarea>
</body></html>`

// applyPage diverges only in controls a static snapshot can satisfy; a
// model switch needs the live picker popover, so its model already
// conforms.
const applyPage = `<!DOCTYPE html>
<html><head></head><body>
  <button class="model-selector-card">Gemini 3 Pro</button>
  <button aria-label="Grounding with Google Search" role="switch" aria-checked="false">Search</button>
  <button aria-label="Browse the url context" role="switch" aria-checked="true">URL</button>
  <div class="param-row"><span class="label-wrapper">Temperature</span>
    <div><input class="slider-number-input" value="1.5"></div></div>
  <textarea aria-label="System instructions"></textarea>
</body></html>`

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.OpenFiles(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeFixture(t *testing.T, html string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(html), 0644))
	return path
}

func fastEngine() reconcile.Options {
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

func TestStatus(t *testing.T) {
	s := newStore(t)

	t.Run("first run", func(t *testing.T) {
		report, err := commands.Status(s, "")
		require.NoError(t, err)
		assert.Equal(t, "", report.ActivePresetName())
		assert.Equal(t, config.Default().Model, report.State.Config.Model)
		assert.Nil(t, report.Diffs)
	})

	t.Run("with page diff", func(t *testing.T) {
		report, err := commands.Status(s, writeFixture(t, fixturePage))
		require.NoError(t, err)
		require.NotNil(t, report.Diffs)

		fields := map[string]bool{}
		for _, d := range report.Diffs {
			fields[d.Field] = true
		}
		assert.True(t, fields["model"])
		assert.True(t, fields["tool.search"])
		assert.True(t, fields["temperature"])
	})

	t.Run("missing page file", func(t *testing.T) {
		_, err := commands.Status(s, filepath.Join(t.TempDir(), "absent.html"))
		assert.Error(t, err)
	})
}

func TestApplyRewritesSnapshot(t *testing.T) {
	s := newStore(t)
	path := writeFixture(t, applyPage)

	result, err := commands.Apply(context.Background(), s, path, fastEngine())
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Positive(t, result.Mutations)

	// The rewritten snapshot now conforms.
	report, err := commands.Status(s, path)
	require.NoError(t, err)
	assert.Empty(t, report.Diffs)

	// A second apply finds nothing to do.
	result, err = commands.Apply(context.Background(), s, path, fastEngine())
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Zero(t, result.Mutations)
}

func TestApplySkippedWhenDisabled(t *testing.T) {
	s := newStore(t)
	path := writeFixture(t, applyPage)

	ctrl, err := mirror.New(s, nil, nil)
	require.NoError(t, err)
	require.NoError(t, ctrl.UpdateConfig(func(cfg *config.Configuration) {
		cfg.Disable = true
	}))
	ctrl.Close()

	result, err := commands.Apply(context.Background(), s, path, fastEngine())
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Zero(t, result.Mutations)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, applyPage, string(data), "skipped pass must not rewrite the snapshot")
}

func TestReset(t *testing.T) {
	s := newStore(t)

	ctrl, err := mirror.New(s, nil, nil)
	require.NoError(t, err)
	require.NoError(t, ctrl.AddPreset("extra"))
	require.NoError(t, ctrl.UpdateConfig(func(cfg *config.Configuration) {
		cfg.Temperature = 1.9
	}))
	ctrl.Close()

	require.NoError(t, commands.Reset(s))

	report, err := commands.Status(s, "")
	require.NoError(t, err)
	assert.Len(t, report.State.Presets, 1)
	assert.Equal(t, "MAIN", report.State.Presets[0].Name)
	assert.InDelta(t, 0.7, report.State.Config.Temperature, 1e-9)
}

func TestRunAppliesAndReactsToChanges(t *testing.T) {
	dir := t.TempDir()
	runStore, err := store.OpenFiles(dir)
	require.NoError(t, err)
	defer runStore.Close()
	editStore, err := store.OpenFiles(dir)
	require.NoError(t, err)
	defer editStore.Close()

	path := writeFixture(t, applyPage)
	opts := commands.DefaultRunOptions()
	opts.Engine = fastEngine()
	opts.NavigationInterval = 10 * time.Millisecond
	opts.ReapplyCooldown = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- commands.Run(ctx, runStore, nil, path, opts, nil)
	}()

	// Give the initial apply a moment, then edit through a second context.
	time.Sleep(100 * time.Millisecond)
	ctrl, err := mirror.New(editStore, nil, nil)
	require.NoError(t, err)
	require.NoError(t, ctrl.UpdateConfig(func(cfg *config.Configuration) {
		cfg.Instructions = "stay brief"
	}))
	ctrl.Close()

	require.Eventually(t, func() bool {
		report, err := commands.Status(editStore, path)
		if err != nil {
			return false
		}
		// The run loop holds the live page; the on-disk snapshot updates
		// on exit. Check the stored config converged first.
		return report.State.Config.Instructions == "stay brief"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	// After shutdown the rewritten snapshot reflects the final state.
	report, err := commands.Status(editStore, path)
	require.NoError(t, err)
	assert.Empty(t, report.Diffs)
}
