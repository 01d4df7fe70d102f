package config

import "github.com/betterstudio/studio-sync/internal/catalog"

// ModelSettings is the per-model cached Configuration subset, keyed by
// model id. It is created lazily on the first switch away from a model and
// only cleared by a factory reset.
type ModelSettings map[string]Subset

// Subset holds the fields restored on a switch back to a model. Pointer
// fields distinguish "cached" from "absent": an absent field falls back to
// the model's static default during merge.
type Subset struct {
	Search     *bool `json:"search,omitempty"`
	URLContext *bool `json:"url,omitempty"`
	Code       *bool `json:"code,omitempty"`
	Structured *bool `json:"structured,omitempty"`
	Functions  *bool `json:"functions,omitempty"`

	StructuredSchema *string `json:"structuredSchema,omitempty"`
	FunctionsSchema  *string `json:"functionsSchema,omitempty"`

	Temperature *float64 `json:"temp,omitempty"`
	TopP        *float64 `json:"topP,omitempty"`
	TopK        *int     `json:"topK,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
	Thinking    *string  `json:"thinking,omitempty"`

	AspectRatio *string `json:"aspectRatio,omitempty"`
	Resolution  *string `json:"resolution,omitempty"`
}

// Capture snapshots the model-specific fields of c.
func Capture(c Configuration) Subset {
	return Subset{
		Search:           ptr(c.Search),
		URLContext:       ptr(c.URLContext),
		Code:             ptr(c.Code),
		Structured:       ptr(c.Structured),
		Functions:        ptr(c.Functions),
		StructuredSchema: ptr(c.StructuredSchema),
		FunctionsSchema:  ptr(c.FunctionsSchema),
		Temperature:      ptr(c.Temperature),
		TopP:             ptr(c.TopP),
		TopK:             ptr(c.TopK),
		MaxTokens:        ptr(c.MaxTokens),
		Thinking:         ptr(c.Thinking),
		AspectRatio:      ptr(c.AspectRatio),
		Resolution:       ptr(c.Resolution),
	}
}

// SwitchModel moves c to newModel following the switch protocol:
//
//  1. snapshot the outgoing model's live subset into settings
//  2. look up the incoming model's cached subset
//  3. merge it over c field-by-field, falling back to the hardcoded
//     defaults for fields (or whole models) never cached
//  4. gate tools and clamp parameters for the new model
//
// settings is mutated in place; callers persist it alongside the config.
func SwitchModel(c *Configuration, settings ModelSettings, newModel string) {
	if newModel == "" || newModel == c.Model {
		return
	}
	if settings != nil && c.Model != "" {
		settings[c.Model] = Capture(*c)
	}

	cached := settings[newModel]
	fallback := Capture(defaultsFor(newModel))

	c.Model = newModel
	c.Search = pick(cached.Search, fallback.Search)
	c.URLContext = pick(cached.URLContext, fallback.URLContext)
	c.Code = pick(cached.Code, fallback.Code)
	c.Structured = pick(cached.Structured, fallback.Structured)
	c.Functions = pick(cached.Functions, fallback.Functions)
	c.StructuredSchema = pick(cached.StructuredSchema, fallback.StructuredSchema)
	c.FunctionsSchema = pick(cached.FunctionsSchema, fallback.FunctionsSchema)
	c.Temperature = pick(cached.Temperature, fallback.Temperature)
	c.TopP = pick(cached.TopP, fallback.TopP)
	c.TopK = pick(cached.TopK, fallback.TopK)
	c.MaxTokens = pick(cached.MaxTokens, fallback.MaxTokens)
	c.Thinking = pick(cached.Thinking, fallback.Thinking)
	c.AspectRatio = pick(cached.AspectRatio, fallback.AspectRatio)
	c.Resolution = pick(cached.Resolution, fallback.Resolution)

	GateToModel(c)
	ClampParams(c)
}

// defaultsFor builds the static default Configuration for a model.
func defaultsFor(model string) Configuration {
	d := Default()
	d.Model = model
	m := catalog.LookupOrDefault(model)
	if !m.Capabilities.Search {
		d.Search = false
	}
	if !m.Capabilities.URLContext {
		d.URLContext = false
	}
	d.Temperature = m.Temperature.Clamp(d.Temperature)
	d.TopP = m.TopP.Clamp(d.TopP)
	d.TopK = int(m.TopK.Clamp(float64(d.TopK)))
	d.MaxTokens = int(m.MaxTokens.Clamp(float64(d.MaxTokens)))
	return d
}

func ptr[T any](v T) *T { return &v }

func pick[T any](cached, fallback *T) T {
	if cached != nil {
		return *cached
	}
	if fallback != nil {
		return *fallback
	}
	var zero T
	return zero
}
