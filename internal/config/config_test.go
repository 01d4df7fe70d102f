package config_test

import (
	"testing"

	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestApplyToolToggle(t *testing.T) {
	t.Run("functions clears everything else", func(t *testing.T) {
		c := config.Default()
		c.Search = true
		c.URLContext = true
		c.Code = true

		config.ApplyToolToggle(&c, config.ToolFunctions, true)
		assert.True(t, c.Functions)
		assert.False(t, c.Search)
		assert.False(t, c.URLContext)
		assert.False(t, c.Code)
		assert.False(t, c.Structured)
	})

	t.Run("structured clears code and functions only", func(t *testing.T) {
		c := config.Default()
		c.Search = true
		c.Code = true
		c.Functions = true

		config.ApplyToolToggle(&c, config.ToolStructured, true)
		assert.True(t, c.Structured)
		assert.True(t, c.Search)
		assert.False(t, c.Code)
		assert.False(t, c.Functions)
	})

	t.Run("code clears structured and functions only", func(t *testing.T) {
		c := config.Default()
		c.Structured = true
		c.Functions = true
		c.URLContext = true

		config.ApplyToolToggle(&c, config.ToolCode, true)
		assert.True(t, c.Code)
		assert.True(t, c.URLContext)
		assert.False(t, c.Structured)
		assert.False(t, c.Functions)
	})

	t.Run("search and url coexist", func(t *testing.T) {
		c := config.Default()
		config.ApplyToolToggle(&c, config.ToolSearch, true)
		config.ApplyToolToggle(&c, config.ToolURLContext, true)
		assert.True(t, c.Search)
		assert.True(t, c.URLContext)
	})

	t.Run("search clears functions only", func(t *testing.T) {
		c := config.Default()
		c.Functions = true
		c.Code = true // functions and code do not normally coexist, but the rule is transition-based

		config.ApplyToolToggle(&c, config.ToolSearch, true)
		assert.True(t, c.Search)
		assert.True(t, c.Code)
		assert.False(t, c.Functions)
	})

	t.Run("toggling off clears nothing else", func(t *testing.T) {
		c := config.Default()
		c.Search = true
		c.URLContext = true

		config.ApplyToolToggle(&c, config.ToolSearch, false)
		assert.False(t, c.Search)
		assert.True(t, c.URLContext)
	})

	t.Run("order of toggles matters", func(t *testing.T) {
		// search on, code on, search on again: code survives because the
		// precedence is only evaluated against the just-toggled flag.
		c := config.Default()
		c.Search = false
		c.URLContext = false

		config.ApplyToolToggle(&c, config.ToolSearch, true)
		config.ApplyToolToggle(&c, config.ToolCode, true)
		config.ApplyToolToggle(&c, config.ToolSearch, true)
		assert.True(t, c.Search)
		assert.True(t, c.Code)
	})

	t.Run("spec example sequence", func(t *testing.T) {
		c := config.Default()
		c.Search = true
		c.URLContext = true

		config.ApplyToolToggle(&c, config.ToolFunctions, true)
		assert.True(t, c.Functions)
		assert.False(t, c.Search)
		assert.False(t, c.URLContext)
		assert.False(t, c.Code)
		assert.False(t, c.Structured)
	})

	t.Run("unsupported tool forced off", func(t *testing.T) {
		c := config.Default()
		c.Model = "nano-banana-pro"

		config.ApplyToolToggle(&c, config.ToolFunctions, true)
		assert.False(t, c.Functions)
	})
}

func TestClampParams(t *testing.T) {
	t.Run("out of range values are bounded", func(t *testing.T) {
		c := config.Default()
		c.Temperature = 5
		c.TopP = -1
		c.MaxTokens = 1 << 30

		config.ClampParams(&c)
		assert.Equal(t, 2.0, c.Temperature)
		assert.Equal(t, 0.0, c.TopP)
		assert.Equal(t, 65536, c.MaxTokens)
	})

	t.Run("image model has tighter temperature range", func(t *testing.T) {
		c := config.Default()
		c.Model = "nano-banana-pro"
		c.Temperature = 1.8

		config.ClampParams(&c)
		assert.Equal(t, 1.0, c.Temperature)
	})
}

func TestSwitchModel(t *testing.T) {
	t.Run("round trip restores customization", func(t *testing.T) {
		settings := config.ModelSettings{}
		c := config.Default()
		c.Model = "gemini-3-pro"
		c.Temperature = 0.3

		config.SwitchModel(&c, settings, "gemini-3-flash")
		assert.Equal(t, "gemini-3-flash", c.Model)
		c.Temperature = 1.5

		config.SwitchModel(&c, settings, "gemini-3-pro")
		assert.Equal(t, 0.3, c.Temperature)

		config.SwitchModel(&c, settings, "gemini-3-flash")
		assert.Equal(t, 1.5, c.Temperature)
	})

	t.Run("uncached model gets defaults", func(t *testing.T) {
		settings := config.ModelSettings{}
		c := config.Default()
		c.Temperature = 0.1
		c.Functions = true
		c.Search = false
		c.URLContext = false

		config.SwitchModel(&c, settings, "gemini-2.5-pro")
		assert.Equal(t, 0.7, c.Temperature)
		assert.False(t, c.Functions)
		assert.True(t, c.Search)
	})

	t.Run("switch to same model is a no-op", func(t *testing.T) {
		settings := config.ModelSettings{}
		c := config.Default()
		c.Temperature = 0.25

		config.SwitchModel(&c, settings, c.Model)
		assert.Equal(t, 0.25, c.Temperature)
		assert.Empty(t, settings)
	})

	t.Run("switch to image model gates tools and clamps", func(t *testing.T) {
		settings := config.ModelSettings{}
		c := config.Default()
		c.Search = true

		config.SwitchModel(&c, settings, "nano-banana-pro")
		assert.False(t, c.Search)
		assert.False(t, c.URLContext)
		assert.LessOrEqual(t, c.Temperature, 1.0)
		assert.LessOrEqual(t, c.MaxTokens, 8192)
	})

	t.Run("outgoing model snapshot is stored", func(t *testing.T) {
		settings := config.ModelSettings{}
		c := config.Default()
		c.StructuredSchema = `{"type":"object"}`

		config.SwitchModel(&c, settings, "gemini-3-flash")
		sub, ok := settings["gemini-3-pro"]
		assert.True(t, ok)
		if assert.NotNil(t, sub.StructuredSchema) {
			assert.Equal(t, `{"type":"object"}`, *sub.StructuredSchema)
		}
	})
}
