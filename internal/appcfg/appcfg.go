package appcfg

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Settings represents ~/.studio-sync/settings.yaml.
type Settings struct {
	HubAddr  string `yaml:"hub_addr,omitempty"`
	Store    string `yaml:"store,omitempty"` // "sqlite" or "files"
	PagePath string `yaml:"page,omitempty"`  // default snapshot for run/apply
}

// Parse parses settings.yaml bytes.
func Parse(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	if s.HubAddr == "" {
		s.HubAddr = "127.0.0.1:17441"
	}
	if s.Store == "" {
		s.Store = "sqlite"
	}
	return s, nil
}

// Marshal serializes Settings to YAML bytes.
func Marshal(s Settings) ([]byte, error) {
	return yaml.Marshal(s)
}

// Load reads settings from path, returning defaults when the file is absent.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Parse(nil)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	return Parse(data)
}
