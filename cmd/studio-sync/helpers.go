package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/betterstudio/studio-sync/internal/appcfg"
	"github.com/betterstudio/studio-sync/internal/paths"
	"github.com/betterstudio/studio-sync/internal/store"
)

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadSettings() (appcfg.Settings, error) {
	if err := os.MkdirAll(paths.SyncDir(), 0755); err != nil {
		return appcfg.Settings{}, fmt.Errorf("creating sync dir: %w", err)
	}
	return appcfg.Load(paths.SettingsFile())
}

func openStore(set appcfg.Settings) (store.Store, error) {
	return store.Open(set.Store, paths.StoreFile(), paths.FallbackDir())
}

// pagePathArg resolves the page snapshot path: explicit flag/arg first,
// then the settings default.
func pagePathArg(arg string, set appcfg.Settings) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if set.PagePath != "" {
		return set.PagePath, nil
	}
	return "", fmt.Errorf("no page snapshot given (pass a path or set 'page' in %s)", paths.SettingsFile())
}
