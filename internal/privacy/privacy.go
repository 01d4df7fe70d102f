// Package privacy masks account identifiers in the page chrome. The
// account widget shows the signed-in email; when masking is on, the email
// is replaced with the display name read once from the account menu and
// cached for the session.
package privacy

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/betterstudio/studio-sync/internal/dom"
	"github.com/betterstudio/studio-sync/internal/waitfor"
)

// Config names the markup the masker touches.
type Config struct {
	// AccountSpans locates the visible account text candidates.
	AccountSpans string
	// AccountButton opens the account menu when the display name has not
	// been learned yet.
	AccountButton string
	// NameNode locates the display name inside the opened menu.
	NameNode string
	// PollInterval and PollTimeout bound the wait for the menu to render.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// DefaultConfig matches the target application's account widget.
func DefaultConfig() Config {
	return Config{
		AccountSpans:  ".account-switcher-container span, .user-email, [data-test-id=\"user-email\"], .gb_Fb, .gmat-caption",
		AccountButton: ".account-switcher-container button, button[aria-label*=\"account\"], .gb_d",
		NameNode:      ".cdk-overlay-pane .name, .cdk-overlay-pane .gb_yb, .cdk-overlay-pane [class*=\"name\"]",
		PollInterval:  100 * time.Millisecond,
		PollTimeout:   3500 * time.Millisecond,
	}
}

// maskedAttr marks spans already rewritten so repeat passes are cheap and
// the mutation log stays quiet.
const maskedAttr = "data-masked"

// Masker rewrites email-looking account text to the cached display name.
// One Masker lives per page session, like the sessionStorage cache it
// replaces.
type Masker struct {
	doc    dom.Document
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	name string
}

// New creates a masker for doc.
func New(doc dom.Document, cfg Config, logger *slog.Logger) *Masker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Masker{
		doc:    doc,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "privacy")),
	}
}

// CachedName returns the display name learned this session, if any.
func (m *Masker) CachedName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// SeedName primes the session cache, used when the name is already known.
func (m *Masker) SeedName(name string) {
	m.mu.Lock()
	m.name = name
	m.mu.Unlock()
}

// Apply performs one masking pass. It is idempotent: spans already
// showing the display name are left alone.
func (m *Masker) Apply(ctx context.Context) {
	span, ok := m.findEmailSpan()
	if !ok {
		return
	}

	name := m.CachedName()
	if name == "" {
		var err error
		name, err = m.learnName(ctx)
		if err != nil {
			m.logger.Debug("display name not found, leaving email visible", slog.Any("error", err))
			return
		}
		m.SeedName(name)
	}

	if strings.TrimSpace(span.Text()) == name {
		return
	}
	span.SetText(name)
	span.SetAttr(maskedAttr, "true")
	m.logger.Debug("masked account email")
}

// findEmailSpan returns the first account span whose text looks like an
// email or an opaque identifier rather than a human name.
func (m *Masker) findEmailSpan() (dom.Node, bool) {
	for _, n := range m.doc.QueryAll(m.cfg.AccountSpans) {
		if v, _ := n.Attr(maskedAttr); v == "true" {
			continue
		}
		text := strings.TrimSpace(n.Text())
		if looksLikeEmail(text) {
			return n, true
		}
	}
	return nil, false
}

func looksLikeEmail(text string) bool {
	if strings.Contains(text, "@") {
		return true
	}
	return len(text) > 5 && !strings.Contains(text, " ")
}

// learnName opens the account menu, polls for the name node, and closes
// the menu again. The open and close clicks are the one non-idempotent
// part of masking, paid only on the first pass of a session.
func (m *Masker) learnName(ctx context.Context) (string, error) {
	btn, ok := m.doc.Query(m.cfg.AccountButton)
	if !ok {
		return "", waitfor.ErrTimeout
	}
	btn.Click()

	var name string
	err := waitfor.Poll(ctx, m.cfg.PollInterval, m.cfg.PollTimeout, func() bool {
		n, ok := m.doc.Query(m.cfg.NameNode)
		if !ok {
			return false
		}
		name = firstLine(n.Text())
		return name != ""
	})

	// Close the menu regardless of outcome.
	if body, ok := m.doc.Query("body"); ok {
		body.Click()
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
