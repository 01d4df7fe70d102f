package privacy_test

import (
	"context"
	"testing"
	"time"

	"github.com/betterstudio/studio-sync/internal/dom"
	"github.com/betterstudio/studio-sync/internal/privacy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountPage = `<!DOCTYPE html>
<html><head></head><body>
  <div class="account-switcher-container">
    <span>person@example.com</span>
    <button aria-label="Google account">avatar</button>
  </div>
</body></html>`

func testConfig() privacy.Config {
	cfg := privacy.DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.PollTimeout = 100 * time.Millisecond
	return cfg
}

func TestMaskWithCachedName(t *testing.T) {
	p, err := dom.NewPage(accountPage, "https://studio.example/app")
	require.NoError(t, err)

	m := privacy.New(p, testConfig(), nil)
	m.SeedName("Alex")
	m.Apply(context.Background())

	span, ok := p.Query(".account-switcher-container span")
	require.True(t, ok)
	assert.Equal(t, "Alex", span.Text())
}

func TestLearnNameFromMenu(t *testing.T) {
	p, err := dom.NewPage(accountPage, "https://studio.example/app")
	require.NoError(t, err)
	// Opening the account menu renders an overlay with the display name.
	p.Bind(`.account-switcher-container button`, func(dom.Node) {
		body, _ := p.Query("body")
		body.AppendHTML(`<div class="cdk-overlay-pane"><div class="name">Alex Doe
person@example.com</div></div>`)
	})

	m := privacy.New(p, testConfig(), nil)
	m.Apply(context.Background())

	assert.Equal(t, "Alex Doe", m.CachedName())
	span, _ := p.Query(".account-switcher-container span")
	assert.Equal(t, "Alex Doe", span.Text())
}

func TestIdempotentAfterMask(t *testing.T) {
	p, err := dom.NewPage(accountPage, "https://studio.example/app")
	require.NoError(t, err)

	m := privacy.New(p, testConfig(), nil)
	m.SeedName("Alex")
	m.Apply(context.Background())

	p.ResetMutations()
	m.Apply(context.Background())
	assert.Zero(t, p.MutatingOps(), "second pass must not touch the page")
}

func TestNameUnavailableLeavesPage(t *testing.T) {
	p, err := dom.NewPage(accountPage, "https://studio.example/app")
	require.NoError(t, err)

	m := privacy.New(p, testConfig(), nil)
	m.Apply(context.Background())

	span, _ := p.Query(".account-switcher-container span")
	assert.Equal(t, "person@example.com", span.Text(), "no name learned, email stays")
	assert.Empty(t, m.CachedName())
}

func TestHumanNameNotTreatedAsEmail(t *testing.T) {
	const page = `<!DOCTYPE html><html><head></head><body>
  <div class="account-switcher-container"><span>Alex Doe</span></div>
</body></html>`
	p, err := dom.NewPage(page, "https://studio.example/app")
	require.NoError(t, err)

	m := privacy.New(p, testConfig(), nil)
	m.Apply(context.Background())
	assert.Zero(t, p.MutatingOps())
}
