package main

import (
	"fmt"

	"github.com/betterstudio/studio-sync/internal/commands"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the first-run state",
	Long:  "Discards all presets, the live configuration, and the per-model settings cache, restoring the single MAIN preset with defaults. Live contexts pick the reset up immediately.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetForce {
			var confirmed bool
			err := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("Reset all shared state?").
						Description("Presets, configuration, and per-model settings will be lost.").
						Value(&confirmed),
				),
			).Run()
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		set, err := loadSettings()
		if err != nil {
			return err
		}
		s, err := openStore(set)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := commands.Reset(s); err != nil {
			return err
		}
		fmt.Println("State reset to first-run defaults.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip the confirmation prompt")
}
