package paths

import (
	"os"
	"path/filepath"
)

func home() string {
	h, _ := os.UserHomeDir()
	return h
}

// SyncDir returns ~/.studio-sync.
func SyncDir() string {
	return filepath.Join(home(), ".studio-sync")
}

// SettingsFile returns ~/.studio-sync/settings.yaml.
func SettingsFile() string {
	return filepath.Join(SyncDir(), "settings.yaml")
}

// StoreFile returns ~/.studio-sync/state.db, the sqlite store path.
func StoreFile() string {
	return filepath.Join(SyncDir(), "state.db")
}

// FallbackDir returns ~/.studio-sync/kv, the JSON file-store directory.
func FallbackDir() string {
	return filepath.Join(SyncDir(), "kv")
}
