package commands

import (
	"fmt"

	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/betterstudio/studio-sync/internal/state"
	"github.com/betterstudio/studio-sync/internal/store"
)

// Reset overwrites the stored snapshot with the first-run state and
// clears the per-model settings cache. Other live contexts pick the
// change up through their store watch.
func Reset(s store.Store) error {
	if err := store.SaveState(s, state.Default(), config.ModelSettings{}); err != nil {
		return fmt.Errorf("resetting state: %w", err)
	}
	return nil
}
