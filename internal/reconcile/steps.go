package reconcile

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/betterstudio/studio-sync/internal/catalog"
	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/dom"
	"github.com/betterstudio/studio-sync/internal/waitfor"
)

// applyModel switches the model picker when the shown model differs from
// the desired one. The picker popover is awaited with a safety timeout;
// on expiry the pass continues with the remaining steps.
func (e *Engine) applyModel(ctx context.Context, model string) {
	if model == "" {
		return
	}
	want := dom.Normalize(catalog.LookupOrDefault(model).DisplayName)
	wantID := dom.Normalize(strings.ReplaceAll(model, "-", " "))

	btn, ok := e.doc.Query(e.sel.ModelSelector)
	if !ok {
		btn, ok = dom.FindByLabelText(e.doc, "button", "gemini")
	}
	if !ok {
		e.logger.Debug("model selector not found")
		return
	}
	current := dom.Normalize(btn.Text())
	if strings.Contains(current, want) || strings.Contains(current, wantID) {
		return
	}

	btn.Click()
	var option dom.Node
	err := waitfor.Poll(ctx, e.opts.PollInterval, e.opts.ModelTimeout, func() bool {
		for _, n := range e.doc.QueryAll(e.sel.ModelOption) {
			text := dom.Normalize(n.Text())
			if strings.Contains(text, want) || strings.Contains(text, wantID) {
				option = n
				return true
			}
		}
		return false
	})
	if err != nil {
		e.logger.Debug("model option never appeared", slog.String("model", model))
		return
	}
	option.Click()
}

type paramSpec struct {
	label string
	aria  string
	value string
}

// safetyLabels maps stored safety categories to the labels shown next to
// their sliders.
var safetyLabels = map[string]string{
	"harassment": "Harassment",
	"hate":       "Hate speech",
	"sexual":     "Sexually explicit",
	"dangerous":  "Dangerous content",
}

// applyParameters writes each generation parameter through its labelled
// control: numeric sliders first, enumerated dropdowns as fallback. Image
// parameters are applied only for image-capable models.
func (e *Engine) applyParameters(ctx context.Context, cfg config.Configuration) {
	model := catalog.LookupOrDefault(cfg.Model)

	numeric := []paramSpec{
		{label: "Temperature", value: formatFloat(cfg.Temperature)},
		{label: "Top P", value: formatFloat(cfg.TopP)},
		{label: "Top K", value: strconv.Itoa(cfg.TopK)},
		{label: "Output length", aria: "Maximum output tokens", value: strconv.Itoa(cfg.MaxTokens)},
	}
	for _, p := range numeric {
		e.setSlider(p)
	}

	for _, cat := range catalog.SafetyCategories {
		label, ok := safetyLabels[cat]
		if !ok {
			continue
		}
		idx := safetyIndex(cfg.Safety[cat])
		if idx < 0 {
			continue
		}
		e.setSlider(paramSpec{label: label, value: strconv.Itoa(idx)})
	}

	e.setSelect(ctx, "Thinking", cfg.Thinking)
	if model.Image {
		e.setSelect(ctx, "Aspect ratio", cfg.AspectRatio)
		e.setSelect(ctx, "Resolution", cfg.Resolution)
	}
}

func safetyIndex(threshold string) int {
	for i, t := range catalog.SafetyThresholds {
		if t == threshold {
			return i
		}
	}
	return -1
}

// setSlider locates a labelled numeric input and writes the value when it
// differs, dispatching the events the application listens for.
func (e *Engine) setSlider(p paramSpec) {
	input, ok := dom.FindLabelled(e.doc, p.aria, e.sel.LabelNodes, p.label, e.sel.SliderInput, 4)
	if !ok || input.Tag() != "input" {
		return
	}
	if numericEqual(input.Value(), p.value) {
		return
	}
	input.SetValue(p.value)
	input.Dispatch("input", "change", "blur")
}

// setSelect drives an enumerated dropdown: skip when the trigger already
// shows the value, otherwise open it, await the option, and pick it.
func (e *Engine) setSelect(ctx context.Context, label, value string) {
	if value == "" {
		return
	}
	labelNode, ok := dom.FindByLabelText(e.doc, e.sel.LabelNodes, label)
	if !ok {
		return
	}
	trigger, ok := dom.FindNearAncestor(labelNode, e.sel.SelectControl, 4)
	if !ok {
		return
	}
	want := dom.Normalize(value)
	if strings.Contains(dom.Normalize(trigger.Text()), want) {
		return
	}

	trigger.Click()
	var option dom.Node
	err := waitfor.Poll(ctx, e.opts.PollInterval, e.opts.PanelTimeout, func() bool {
		for _, n := range e.doc.QueryAll(e.sel.Option) {
			if strings.Contains(dom.Normalize(n.Text()), want) {
				option = n
				return true
			}
		}
		return false
	})
	if err != nil {
		e.logger.Debug("dropdown option never appeared",
			slog.String("label", label), slog.String("value", value))
		return
	}
	option.Click()
}

// applyInstructions writes the system instructions, opening the panel
// first when the editor is not mounted. Empty desired text with no
// mounted editor is a no-op: nothing to clear.
func (e *Engine) applyInstructions(ctx context.Context, cfg config.Configuration) {
	ta, ok := e.doc.Query(e.sel.InstructionsTextarea)
	if !ok {
		if cfg.Instructions == "" {
			return
		}
		trigger, found := e.doc.Query(e.sel.InstructionsTrigger)
		if !found {
			e.logger.Debug("instructions panel unavailable")
			return
		}
		trigger.Click()
		err := waitfor.Poll(ctx, e.opts.PollInterval, e.opts.PanelTimeout, func() bool {
			ta, ok = e.doc.Query(e.sel.InstructionsTextarea)
			return ok
		})
		if err != nil {
			e.logger.Debug("instructions editor never appeared")
			return
		}
	}
	if ta.Value() == cfg.Instructions {
		return
	}
	ta.SetValue(cfg.Instructions)
	ta.Dispatch("input", "change")
}

// applyUIAdjustments handles the chrome preferences: email masking,
// history collapse, and sidebar collapse.
func (e *Engine) applyUIAdjustments(ctx context.Context, cfg config.Configuration) {
	if e.doc.HasMarker(e.sel.HideEmailMarker) != cfg.HideEmail {
		e.doc.SetMarker(e.sel.HideEmailMarker, cfg.HideEmail)
	}
	if cfg.HideEmail && e.masker != nil {
		e.masker.Apply(ctx)
	}
	if cfg.CollapseHistory {
		e.collapseHistory()
	}
	if cfg.AutoCloseNav && !e.tracker.ManualOverride() {
		e.collapseSidebar(ctx)
	}
}

var historySections = []string{"today", "yesterday", "previous"}

// collapseHistory folds expanded conversation-history sections.
func (e *Engine) collapseHistory() {
	for _, b := range e.doc.QueryAll("button") {
		if _, disabled := b.Attr("disabled"); disabled {
			continue
		}
		expanded, _ := b.Attr("aria-expanded")
		if expanded != "true" {
			continue
		}
		if b.Matches(e.sel.HistoryButton) || containsAny(dom.Normalize(b.Text()), historySections) {
			b.Click()
		}
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// collapseSidebar retries the collapse a few times; the rail re-renders
// asynchronously after route changes.
func (e *Engine) collapseSidebar(ctx context.Context) {
	for i := 0; i < e.opts.SidebarAttempts; i++ {
		if !e.collapseSidebarOnce() {
			return
		}
		if !e.sleep(ctx, e.opts.SidebarPause) {
			return
		}
	}
}

// collapseSidebarOnce clicks the toggle when the rail is expanded. It
// reports whether another attempt is worthwhile.
func (e *Engine) collapseSidebarOnce() bool {
	var nav dom.Node
	for _, sel := range e.sel.Sidebar {
		if n, ok := e.doc.Query(sel); ok {
			nav = n
			break
		}
	}
	if nav == nil || nav.Width() <= e.sel.CollapsedWidth {
		return false
	}
	toggle, ok := e.doc.Query(e.sel.SidebarToggle)
	if !ok {
		return false
	}
	toggle.Click()
	return true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func numericEqual(a, b string) bool {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		return fa == fb
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
