package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/dom"
	"github.com/betterstudio/studio-sync/internal/waitfor"
)

// ToolLabels maps stored tool keys to the accessible names of their
// switches in the page.
var ToolLabels = map[config.Tool]string{
	config.ToolSearch:     "Grounding with Google Search",
	config.ToolURLContext: "Browse the url context",
	config.ToolCode:       "Code execution",
	config.ToolStructured: "Structured outputs",
	config.ToolFunctions:  "Function calling",
}

// applyTools reconciles each tool switch against the desired flag and
// injects editor schemas for tools that carry one. A switch is clicked
// only when its current state differs; matching switches are untouched.
func (e *Engine) applyTools(ctx context.Context, cfg config.Configuration) {
	for _, tool := range config.Tools {
		toggle, ok := e.findToggle(tool)
		if !ok {
			e.logger.Debug("tool switch not found", slog.String("tool", string(tool)))
			continue
		}
		desired := config.ToolEnabled(cfg, tool)
		if switchOn(toggle) != desired {
			toggle.Click()
		}
		if !desired {
			continue
		}
		if schema := schemaFor(cfg, tool); schema != "" {
			e.injectSchema(ctx, tool, toggle, schema)
		}
	}
}

func (e *Engine) findToggle(tool config.Tool) (dom.Node, bool) {
	label, ok := ToolLabels[tool]
	if !ok {
		return nil, false
	}
	if n, ok := dom.FindByAria(e.doc, label, `[role="switch"]`); ok {
		return n, true
	}
	// Fallback: match the label text of any switch on the page.
	want := dom.Normalize(label)
	for _, n := range e.doc.QueryAll(`[role="switch"]`) {
		if al, _ := n.Attr("aria-label"); strings.Contains(dom.Normalize(al), want) {
			return n, true
		}
	}
	return nil, false
}

func switchOn(n dom.Node) bool {
	if v, _ := n.Attr("aria-checked"); v == "true" {
		return true
	}
	return n.Matches(".mdc-switch--checked")
}

func schemaFor(cfg config.Configuration, tool config.Tool) string {
	switch tool {
	case config.ToolStructured:
		return cfg.StructuredSchema
	case config.ToolFunctions:
		return cfg.FunctionsSchema
	}
	return ""
}

// injectSchema opens the editor dialog near the tool switch, writes the
// schema text, and confirms. The dialog is awaited with a safety timeout;
// on expiry the pass moves on. Schemas already injected this session are
// skipped so repeat passes do not reopen the dialog.
func (e *Engine) injectSchema(ctx context.Context, tool config.Tool, toggle dom.Node, schema string) {
	if e.appliedSchemas[tool] == schema {
		return
	}

	editBtn, ok := dom.FindNearAncestor(toggle, e.sel.SchemaEditButton, 4)
	if !ok {
		e.logger.Debug("schema edit button not found", slog.String("tool", string(tool)))
		return
	}
	editBtn.Click()

	var ta dom.Node
	err := waitfor.Poll(ctx, e.opts.PollInterval, e.opts.ModalTimeout, func() bool {
		modal, found := e.doc.Query(e.sel.Modal)
		if !found {
			return false
		}
		var has bool
		ta, has = modal.Query(e.sel.ModalTextarea)
		return has
	})
	if err != nil {
		e.logger.Debug("schema editor never appeared", slog.String("tool", string(tool)))
		return
	}

	if ta.Value() != schema {
		ta.SetValue(schema)
		ta.Dispatch("input", "change")
	}
	e.appliedSchemas[tool] = schema
	e.confirmDialog()
}

// confirmDialog clicks the dialog's done button, identified by accessible
// name or visible text.
func (e *Engine) confirmDialog() {
	modal, ok := e.doc.Query(e.sel.Modal)
	if !ok {
		return
	}
	for _, b := range modal.QueryAll("button") {
		al, _ := b.Attr("aria-label")
		name := dom.Normalize(al)
		text := dom.Normalize(b.Text())
		if name == "close" || name == "save" ||
			strings.Contains(text, "done") || strings.Contains(text, "apply") || strings.Contains(text, "save") {
			b.Click()
			return
		}
	}
}
