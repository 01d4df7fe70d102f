package watchdog_test

import (
	"context"
	"testing"
	"time"

	"github.com/betterstudio/studio-sync/internal/dom"
	"github.com/betterstudio/studio-sync/internal/watchdog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	t.Run("interaction freshness", func(t *testing.T) {
		tr := watchdog.NewTrackerWindow(50 * time.Millisecond)
		assert.False(t, tr.UserActive())
		tr.RecordInteraction()
		assert.True(t, tr.UserActive())
		time.Sleep(70 * time.Millisecond)
		assert.False(t, tr.UserActive())
	})

	t.Run("backdate narrows the window", func(t *testing.T) {
		tr := watchdog.NewTrackerWindow(100 * time.Millisecond)
		tr.BackdateInteraction(80 * time.Millisecond)
		assert.True(t, tr.UserActive())
		time.Sleep(40 * time.Millisecond)
		assert.False(t, tr.UserActive())
	})

	t.Run("manual override is sticky", func(t *testing.T) {
		tr := watchdog.NewTracker()
		assert.False(t, tr.ManualOverride())
		tr.SetManualOverride()
		assert.True(t, tr.ManualOverride())
	})

	t.Run("interaction aborts stabilization", func(t *testing.T) {
		tr := watchdog.NewTracker()
		tr.SetStabilizing(true)
		require.True(t, tr.Stabilizing())
		tr.RecordInteraction()
		assert.False(t, tr.Stabilizing())
	})
}

const sidebarPage = `<!DOCTYPE html>
<html><head></head><body>
  <ms-navbar style="width: 256px"></ms-navbar>
  <button aria-label="Toggle navigation menu"></button>
  <button id="other"></button>
</body></html>`

func newSidebarPage(t *testing.T) *dom.Page {
	t.Helper()
	p, err := dom.NewPage(sidebarPage, "https://studio.example/app")
	require.NoError(t, err)
	// Toggling flips the inline width the way the real layout does.
	p.Bind(`button[aria-label="Toggle navigation menu"]`, func(dom.Node) {
		nav, _ := p.Query("ms-navbar")
		if nav.Width() > 100 {
			nav.SetAttr("style", "width: 72px")
		} else {
			nav.SetAttr("style", "width: 256px")
		}
	})
	return p
}

func TestSidebarWatchdog(t *testing.T) {
	enabled := func() bool { return true }

	t.Run("collapses an expanded sidebar", func(t *testing.T) {
		p := newSidebarPage(t)
		tr := watchdog.NewTrackerWindow(50 * time.Millisecond)
		s := watchdog.StartSidebar(p, tr, watchdog.DefaultSidebarConfig(), enabled, nil)
		defer s.Stop()

		s.Check()
		nav, _ := p.Query("ms-navbar")
		assert.LessOrEqual(t, nav.Width(), 100)
	})

	t.Run("re-collapses after the app re-expands", func(t *testing.T) {
		p := newSidebarPage(t)
		tr := watchdog.NewTrackerWindow(10 * time.Millisecond)
		s := watchdog.StartSidebar(p, tr, watchdog.DefaultSidebarConfig(), enabled, nil)
		defer s.Stop()

		s.Check()
		time.Sleep(20 * time.Millisecond)

		// Simulate a route change re-rendering the nav expanded. The
		// mutation itself wakes the observer.
		nav, _ := p.Query("ms-navbar")
		nav.SetAttr("style", "width: 256px")

		nav, _ = p.Query("ms-navbar")
		assert.LessOrEqual(t, nav.Width(), 100)
	})

	t.Run("stands down on manual override", func(t *testing.T) {
		p := newSidebarPage(t)
		tr := watchdog.NewTracker()
		tr.SetManualOverride()
		s := watchdog.StartSidebar(p, tr, watchdog.DefaultSidebarConfig(), enabled, nil)
		defer s.Stop()

		s.Check()
		nav, _ := p.Query("ms-navbar")
		assert.Equal(t, 256, nav.Width())
	})

	t.Run("stands down while user is active", func(t *testing.T) {
		p := newSidebarPage(t)
		tr := watchdog.NewTracker()
		tr.RecordInteraction()
		s := watchdog.StartSidebar(p, tr, watchdog.DefaultSidebarConfig(), enabled, nil)
		defer s.Stop()

		s.Check()
		nav, _ := p.Query("ms-navbar")
		assert.Equal(t, 256, nav.Width())
	})

	t.Run("stands down when disabled", func(t *testing.T) {
		p := newSidebarPage(t)
		tr := watchdog.NewTracker()
		s := watchdog.StartSidebar(p, tr, watchdog.DefaultSidebarConfig(), func() bool { return false }, nil)
		defer s.Stop()

		s.Check()
		nav, _ := p.Query("ms-navbar")
		assert.Equal(t, 256, nav.Width())
	})
}

func TestNavigation(t *testing.T) {
	p, err := dom.NewPage(sidebarPage, "https://studio.example/app/one")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 4)
	go watchdog.StartNavigation(ctx, p, 10*time.Millisecond, func(url string) {
		changes <- url
	}, nil)

	p.SetLocation("https://studio.example/app/two")
	select {
	case url := <-changes:
		assert.Equal(t, "https://studio.example/app/two", url)
	case <-time.After(2 * time.Second):
		t.Fatal("navigation change not observed")
	}
}

func TestReapply(t *testing.T) {
	p, err := dom.NewPage(sidebarPage, "https://studio.example/app")
	require.NoError(t, err)

	var calls int
	r := watchdog.StartReapply(p, 100*time.Millisecond, nil, func() { calls++ })
	defer r.Stop()

	btn, _ := p.Query("#other")
	btn.Click()
	btn.Click()
	btn.Click()
	assert.Equal(t, 1, calls, "cooldown coalesces bursts")

	time.Sleep(120 * time.Millisecond)
	btn.Click()
	assert.Equal(t, 2, calls)

	gateOff := watchdog.StartReapply(p, 0, func() bool { return false }, func() { calls++ })
	defer gateOff.Stop()
	btn.Click()
	assert.Equal(t, 2, calls, "closed gate skips, open one still in cooldown")
}
