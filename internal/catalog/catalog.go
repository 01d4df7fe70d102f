// Package catalog holds the static per-model capability table: display
// names, parameter ranges, tool support flags, and default settings. It is
// read-only reference data consumed by config gating and the popup layer.
package catalog

// Range describes the valid span of a numeric generation parameter.
type Range struct {
	Min  float64
	Max  float64
	Step float64
}

// Clamp bounds v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Capabilities lists which tools a model supports.
type Capabilities struct {
	Search     bool
	URLContext bool
	Code       bool
	Structured bool
	Functions  bool
}

// Model describes one catalog entry.
type Model struct {
	ID           string
	DisplayName  string
	Temperature  Range
	TopP         Range
	TopK         Range
	MaxTokens    Range
	Capabilities Capabilities
	Image        bool // supports aspect ratio / resolution
}

// ThinkingLevels enumerates thinking-effort settings, ordered low to high.
var ThinkingLevels = []string{"low", "medium", "high"}

// SafetyCategories are the four adjustable harm categories.
var SafetyCategories = []string{"harassment", "hate", "sexual", "dangerous"}

// SafetyThresholds are ordered from most to least permissive.
var SafetyThresholds = []string{"off", "few", "some", "most"}

// AspectRatios lists supported image aspect ratios.
var AspectRatios = []string{"1:1", "3:4", "4:3", "9:16", "16:9"}

// Resolutions lists supported image output resolutions.
var Resolutions = []string{"Low", "Medium", "High"}

var models = []Model{
	{
		ID:          "gemini-3-pro",
		DisplayName: "Gemini 3 Pro",
		Temperature: Range{Min: 0, Max: 2, Step: 0.05},
		TopP:        Range{Min: 0, Max: 1, Step: 0.05},
		TopK:        Range{Min: 1, Max: 128, Step: 1},
		MaxTokens:   Range{Min: 1, Max: 65536, Step: 1},
		Capabilities: Capabilities{
			Search: true, URLContext: true, Code: true, Structured: true, Functions: true,
		},
	},
	{
		ID:          "gemini-3-flash",
		DisplayName: "Gemini 3 Flash",
		Temperature: Range{Min: 0, Max: 2, Step: 0.05},
		TopP:        Range{Min: 0, Max: 1, Step: 0.05},
		TopK:        Range{Min: 1, Max: 128, Step: 1},
		MaxTokens:   Range{Min: 1, Max: 65536, Step: 1},
		Capabilities: Capabilities{
			Search: true, URLContext: true, Code: true, Structured: true, Functions: true,
		},
	},
	{
		ID:          "gemini-2.5-pro",
		DisplayName: "Gemini 2.5 Pro",
		Temperature: Range{Min: 0, Max: 2, Step: 0.05},
		TopP:        Range{Min: 0, Max: 1, Step: 0.05},
		TopK:        Range{Min: 1, Max: 64, Step: 1},
		MaxTokens:   Range{Min: 1, Max: 32768, Step: 1},
		Capabilities: Capabilities{
			Search: true, URLContext: true, Code: true, Structured: true, Functions: true,
		},
	},
	{
		ID:          "nano-banana-pro",
		DisplayName: "Nano Banana Pro",
		Temperature: Range{Min: 0, Max: 1, Step: 0.05},
		TopP:        Range{Min: 0, Max: 1, Step: 0.05},
		TopK:        Range{Min: 1, Max: 40, Step: 1},
		MaxTokens:   Range{Min: 1, Max: 8192, Step: 1},
		Capabilities: Capabilities{
			Search: false, URLContext: false, Code: false, Structured: false, Functions: false,
		},
		Image: true,
	},
}

// DefaultModelID is used when no model is stored.
const DefaultModelID = "gemini-3-pro"

// Lookup returns the model entry for id. ok is false for unknown ids.
func Lookup(id string) (Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// LookupOrDefault returns the entry for id, falling back to the default
// model for unknown ids so gating always has a concrete table to consult.
func LookupOrDefault(id string) Model {
	if m, ok := Lookup(id); ok {
		return m
	}
	m, _ := Lookup(DefaultModelID)
	return m
}

// IDs returns all known model ids in catalog order.
func IDs() []string {
	out := make([]string, 0, len(models))
	for _, m := range models {
		out = append(out, m.ID)
	}
	return out
}
