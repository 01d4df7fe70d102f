package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// filePrefix namespaces the fallback store's files, mirroring the bas_
// prefix the extension uses for its localStorage fallback.
const filePrefix = "bas_"

// FileStore is the fallback backend: one JSON file per key in a
// directory, written atomically via rename. Cross-process change
// detection uses fsnotify on the directory.
type FileStore struct {
	dir string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// OpenFiles opens (creating if needed) a file store rooted at dir.
func OpenFiles(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, filePrefix+key+".json")
}

// Get resolves the requested keys; unreadable or absent files are simply
// missing from the result.
func (s *FileStore) Get(keys []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		data, err := os.ReadFile(s.path(key))
		if err != nil {
			continue
		}
		if !json.Valid(data) {
			continue
		}
		out[key] = json.RawMessage(data)
	}
	return out, nil
}

// Set writes each value to its own file, tmp-then-rename so watchers never
// observe a torn document.
func (s *FileStore) Set(values map[string]json.RawMessage) error {
	for key, raw := range values {
		target := s.path(key)
		tmp := target + ".tmp"
		if err := os.WriteFile(tmp, raw, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
		if err := os.Rename(tmp, target); err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}
	return nil
}

// Watch fires onChange whenever any store file changes, including writes
// made through this same handle. Callers apply idempotently.
func (s *FileStore) Watch(onChange func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", s.dir, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				name := filepath.Base(ev.Name)
				if !strings.HasPrefix(name, filePrefix) || strings.HasSuffix(name, ".tmp") {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	s.mu.Lock()
	s.watcher = watcher
	s.done = done
	s.mu.Unlock()

	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.done != nil {
			close(s.done)
			s.done = nil
		}
		if s.watcher != nil {
			s.watcher.Close()
			s.watcher = nil
		}
	}
	return stop, nil
}

// Close releases the watcher if one is active.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}
