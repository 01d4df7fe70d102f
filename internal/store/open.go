package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Open returns the preferred backend for the given paths: sqlite when it
// can be opened, else the JSON file fallback. backend selects explicitly
// ("sqlite" or "files"); empty means prefer sqlite.
func Open(backend, sqlitePath, fallbackDir string) (Store, error) {
	switch backend {
	case "files":
		return OpenFiles(fallbackDir)
	case "", "sqlite":
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
		s, err := OpenSQLite(sqlitePath)
		if err == nil {
			return s, nil
		}
		// Degrade to the file store rather than failing startup.
		return OpenFiles(fallbackDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
