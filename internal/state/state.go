// Package state defines the full snapshot shared between contexts and the
// preset collection operations over it.
package state

import (
	"time"

	"github.com/betterstudio/studio-sync/internal/config"
)

// Tab identifies a popup section.
type Tab string

const (
	TabPresets  Tab = "PRESETS"
	TabConfig   Tab = "CONFIG"
	TabSettings Tab = "SETTINGS"
)

// Theme is the popup color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Preset is a named value copy of a Configuration. Identity is positional:
// names may collide.
type Preset struct {
	Name      string               `json:"name"`
	Timestamp int64                `json:"timestamp,omitempty"`
	Config    config.Configuration `json:"config"`
}

// State is the complete shared snapshot. Every broadcast carries one whole
// State; there are no partial updates.
type State struct {
	Presets           []Preset             `json:"presets"`
	ActivePresetIndex int                  `json:"activePresetIndex"`
	ActiveTab         Tab                  `json:"activeTab"`
	Config            config.Configuration `json:"config"`
	Theme             Theme                `json:"theme"`
}

// Default returns the first-run State: one "MAIN" preset holding the
// default Configuration.
func Default() State {
	cfg := config.Default()
	return State{
		Presets:           []Preset{{Name: "MAIN", Timestamp: time.Now().UnixMilli(), Config: cfg.Clone()}},
		ActivePresetIndex: -1,
		ActiveTab:         TabPresets,
		Config:            cfg,
		Theme:             ThemeDark,
	}
}

// AddPreset appends a value copy of the current Configuration under name
// and activates it.
func (s *State) AddPreset(name string) {
	s.Presets = append(s.Presets, Preset{
		Name:      name,
		Timestamp: time.Now().UnixMilli(),
		Config:    s.Config.Clone(),
	})
	s.ActivePresetIndex = len(s.Presets) - 1
}

// DeletePreset removes the preset at idx, keeping the active index
// pointing at the same preset where possible.
func (s *State) DeletePreset(idx int) bool {
	if idx < 0 || idx >= len(s.Presets) {
		return false
	}
	s.Presets = append(s.Presets[:idx], s.Presets[idx+1:]...)
	switch {
	case s.ActivePresetIndex == idx:
		s.ActivePresetIndex = -1
	case s.ActivePresetIndex > idx:
		s.ActivePresetIndex--
	}
	return true
}

// MovePreset swaps the preset at idx with its neighbor in direction dir
// (-1 up, +1 down), following the active index across the swap.
func (s *State) MovePreset(idx, dir int) bool {
	target := idx + dir
	if idx < 0 || idx >= len(s.Presets) || target < 0 || target >= len(s.Presets) {
		return false
	}
	s.Presets[idx], s.Presets[target] = s.Presets[target], s.Presets[idx]
	switch s.ActivePresetIndex {
	case idx:
		s.ActivePresetIndex = target
	case target:
		s.ActivePresetIndex = idx
	}
	return true
}

// RenamePreset sets the name of the preset at idx. Empty names are
// rejected; duplicate names are allowed (identity is positional).
func (s *State) RenamePreset(idx int, name string) bool {
	if idx < 0 || idx >= len(s.Presets) || name == "" {
		return false
	}
	s.Presets[idx].Name = name
	return true
}

// ActivatePreset copies the preset's stored Configuration into the live
// Configuration. The copy is by value: later edits do not touch the preset.
func (s *State) ActivatePreset(idx int) bool {
	if idx < 0 || idx >= len(s.Presets) {
		return false
	}
	s.ActivePresetIndex = idx
	s.Config = s.Presets[idx].Config.Clone()
	return true
}
