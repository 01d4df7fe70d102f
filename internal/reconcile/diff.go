package reconcile

import (
	"strconv"
	"strings"

	"github.com/betterstudio/studio-sync/internal/catalog"
	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/dom"
)

// FieldDiff is one divergence between the desired configuration and what
// the page currently shows.
type FieldDiff struct {
	Field string
	Want  string
	Got   string
}

// Diff inspects doc read-only and reports every control whose state
// differs from cfg. Controls the page does not expose are skipped, not
// reported: an absent switch is a markup mismatch, not a divergence.
func Diff(doc dom.Document, cfg config.Configuration) []FieldDiff {
	sel := DefaultSelectors()
	var out []FieldDiff

	if cfg.Model != "" {
		want := dom.Normalize(catalog.LookupOrDefault(cfg.Model).DisplayName)
		if btn, ok := doc.Query(sel.ModelSelector); ok {
			got := dom.Normalize(btn.Text())
			if !strings.Contains(got, want) {
				out = append(out, FieldDiff{Field: "model", Want: cfg.Model, Got: strings.TrimSpace(btn.Text())})
			}
		}
	}

	for _, tool := range config.Tools {
		toggle, ok := dom.FindByAria(doc, ToolLabels[tool], `[role="switch"]`)
		if !ok {
			continue
		}
		want := config.ToolEnabled(cfg, tool)
		if got := switchOn(toggle); got != want {
			out = append(out, FieldDiff{
				Field: "tool." + string(tool),
				Want:  strconv.FormatBool(want),
				Got:   strconv.FormatBool(got),
			})
		}
	}

	numeric := []struct {
		field string
		spec  paramSpec
	}{
		{"temperature", paramSpec{label: "Temperature", value: formatFloat(cfg.Temperature)}},
		{"topP", paramSpec{label: "Top P", value: formatFloat(cfg.TopP)}},
		{"topK", paramSpec{label: "Top K", value: strconv.Itoa(cfg.TopK)}},
		{"maxTokens", paramSpec{label: "Output length", aria: "Maximum output tokens", value: strconv.Itoa(cfg.MaxTokens)}},
	}
	for _, p := range numeric {
		input, ok := dom.FindLabelled(doc, p.spec.aria, sel.LabelNodes, p.spec.label, sel.SliderInput, 4)
		if !ok || input.Tag() != "input" {
			continue
		}
		if !numericEqual(input.Value(), p.spec.value) {
			out = append(out, FieldDiff{Field: p.field, Want: p.spec.value, Got: input.Value()})
		}
	}

	if ta, ok := doc.Query(sel.InstructionsTextarea); ok {
		if ta.Value() != cfg.Instructions {
			out = append(out, FieldDiff{Field: "instructions", Want: elide(cfg.Instructions), Got: elide(ta.Value())})
		}
	}

	return out
}

func elide(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
