// Package store provides the durable key/value layer shared by every
// context. Two backends exist: a sqlite database (primary) and a plain
// JSON-file directory (fallback). Values are opaque JSON documents; the
// store performs no validation.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/state"
)

// Well-known keys.
const (
	KeyPresets           = "presets"
	KeyConfig            = "config"
	KeyModelSettings     = "modelSettings"
	KeyTheme             = "theme"
	KeyActivePresetIndex = "activePresetIndex"
	KeyActiveTab         = "activeTab"
)

// AllKeys lists every key a full snapshot occupies.
var AllKeys = []string{
	KeyPresets, KeyConfig, KeyModelSettings,
	KeyTheme, KeyActivePresetIndex, KeyActiveTab,
}

// Store is the durable KV contract. Get resolves only the keys present;
// absent keys are simply missing from the result. Set completes after the
// underlying write finished, so callers can sequence dependent feedback.
// Watch registers a change callback fired after any write, including the
// caller's own (callers are expected to apply idempotently).
type Store interface {
	Get(keys []string) (map[string]json.RawMessage, error)
	Set(values map[string]json.RawMessage) error
	Watch(onChange func()) (stop func(), err error)
	Close() error
}

// LoadState reads the full snapshot. Absent keys keep their first-run
// defaults; in particular an absent preset list resolves to the single
// "MAIN" preset seeded from the default Configuration.
func LoadState(s Store) (state.State, config.ModelSettings, error) {
	st := state.Default()
	ms := config.ModelSettings{}

	values, err := s.Get(AllKeys)
	if err != nil {
		return st, ms, fmt.Errorf("loading state: %w", err)
	}

	decode := func(key string, dst any) error {
		raw, ok := values[key]
		if !ok || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
		return nil
	}

	if err := decode(KeyPresets, &st.Presets); err != nil {
		return st, ms, err
	}
	if err := decode(KeyConfig, &st.Config); err != nil {
		return st, ms, err
	}
	if err := decode(KeyModelSettings, &ms); err != nil {
		return st, ms, err
	}
	if err := decode(KeyTheme, &st.Theme); err != nil {
		return st, ms, err
	}
	if err := decode(KeyActivePresetIndex, &st.ActivePresetIndex); err != nil {
		return st, ms, err
	}
	if err := decode(KeyActiveTab, &st.ActiveTab); err != nil {
		return st, ms, err
	}
	return st, ms, nil
}

// SaveState writes the full snapshot plus the per-model settings map in
// one Set call.
func SaveState(s Store, st state.State, ms config.ModelSettings) error {
	values := map[string]json.RawMessage{}
	encode := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		values[key] = raw
		return nil
	}

	if err := encode(KeyPresets, st.Presets); err != nil {
		return err
	}
	if err := encode(KeyConfig, st.Config); err != nil {
		return err
	}
	if err := encode(KeyModelSettings, ms); err != nil {
		return err
	}
	if err := encode(KeyTheme, st.Theme); err != nil {
		return err
	}
	if err := encode(KeyActivePresetIndex, st.ActivePresetIndex); err != nil {
		return err
	}
	if err := encode(KeyActiveTab, st.ActiveTab); err != nil {
		return err
	}
	return s.Set(values)
}
