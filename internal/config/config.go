// Package config defines the Configuration record shared by every context
// and the rules that mutate it: tool exclusivity, capability gating, and
// the model-switch merge.
package config

import (
	"github.com/betterstudio/studio-sync/internal/catalog"
)

// Configuration is the flat user-settings record. Field names follow the
// stored JSON document, so snapshots written by older contexts keep
// loading. Fields irrelevant to the active model are retained but not
// applied.
type Configuration struct {
	Model string `json:"model"`

	// Tool flags. Search and URLContext may coexist; the rest are governed
	// by the transition rule in ApplyToolToggle.
	Search     bool `json:"search"`
	URLContext bool `json:"url"`
	Code       bool `json:"code"`
	Structured bool `json:"structured"`
	Functions  bool `json:"functions"`

	StructuredSchema string `json:"structuredSchema"`
	FunctionsSchema  string `json:"functionsSchema"`

	Instructions string `json:"instructions"`

	Temperature float64 `json:"temp"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
	MaxTokens   int     `json:"maxTokens"`

	Thinking      string            `json:"thinking,omitempty"`
	StopSequences []string          `json:"stopSequences,omitempty"`
	Safety        map[string]string `json:"safety,omitempty"`

	// Image generation parameters, applied only to image-capable models.
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution"`

	// Disable suspends all reconciliation without losing state.
	Disable bool `json:"disable"`

	// UI preferences. Independent flags, all default on.
	AutoCloseNav      bool `json:"autoCloseNav"`
	AutoCloseSettings bool `json:"autoCloseSettings"`
	CollapseHistory   bool `json:"collapseHistory"`
	HideEmail         bool `json:"hideEmail"`
}

// Default returns the first-run Configuration.
func Default() Configuration {
	return Configuration{
		Model:       catalog.DefaultModelID,
		Search:      true,
		URLContext:  true,
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        64,
		MaxTokens:   2048,
		Thinking:    "high",
		Safety:      DefaultSafety(),
		AspectRatio: "1:1",
		Resolution:  "Low",

		AutoCloseNav:      true,
		AutoCloseSettings: true,
		CollapseHistory:   true,
		HideEmail:         true,
	}
}

// Clone returns a deep copy: the safety map and stop-sequence slice are
// duplicated so preset snapshots stay independent of the live record.
func (c Configuration) Clone() Configuration {
	out := c
	if c.Safety != nil {
		out.Safety = make(map[string]string, len(c.Safety))
		for k, v := range c.Safety {
			out.Safety[k] = v
		}
	}
	if c.StopSequences != nil {
		out.StopSequences = append([]string(nil), c.StopSequences...)
	}
	return out
}

// DefaultSafety returns every category at its most permissive threshold.
func DefaultSafety() map[string]string {
	m := make(map[string]string, len(catalog.SafetyCategories))
	for _, cat := range catalog.SafetyCategories {
		m[cat] = catalog.SafetyThresholds[0]
	}
	return m
}

// ClampParams bounds the numeric generation parameters to the active
// model's valid ranges.
func ClampParams(c *Configuration) {
	m := catalog.LookupOrDefault(c.Model)
	c.Temperature = m.Temperature.Clamp(c.Temperature)
	c.TopP = m.TopP.Clamp(c.TopP)
	c.TopK = int(m.TopK.Clamp(float64(c.TopK)))
	c.MaxTokens = int(m.MaxTokens.Clamp(float64(c.MaxTokens)))
}

// GateToModel forces off every tool the active model does not support.
// Stored flag values are kept only for supported tools; unsupported ones
// are cleared so a reconciliation pass never tries to enable them.
func GateToModel(c *Configuration) {
	caps := catalog.LookupOrDefault(c.Model).Capabilities
	if !caps.Search {
		c.Search = false
	}
	if !caps.URLContext {
		c.URLContext = false
	}
	if !caps.Code {
		c.Code = false
	}
	if !caps.Structured {
		c.Structured = false
	}
	if !caps.Functions {
		c.Functions = false
	}
}
