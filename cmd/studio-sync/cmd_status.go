package main

import (
	"fmt"

	"github.com/betterstudio/studio-sync/internal/commands"
	"github.com/spf13/cobra"
)

var statusPage string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the shared configuration state",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSettings()
		if err != nil {
			return err
		}
		s, err := openStore(set)
		if err != nil {
			return err
		}
		defer s.Close()

		page := statusPage
		if page == "" {
			page = set.PagePath
		}
		report, err := commands.Status(s, page)
		if err != nil {
			return err
		}

		cfg := report.State.Config
		fmt.Printf("Model:        %s\n", cfg.Model)
		fmt.Printf("Temperature:  %g   Top P: %g   Top K: %d   Max tokens: %d\n",
			cfg.Temperature, cfg.TopP, cfg.TopK, cfg.MaxTokens)
		fmt.Printf("Tools:        search=%v url=%v code=%v structured=%v functions=%v\n",
			cfg.Search, cfg.URLContext, cfg.Code, cfg.Structured, cfg.Functions)
		if cfg.Disable {
			fmt.Println("Mirroring:    DISABLED")
		}

		fmt.Printf("Presets:      %d", len(report.State.Presets))
		if name := report.ActivePresetName(); name != "" {
			fmt.Printf(" (active: %s)", name)
		}
		fmt.Println()

		if report.Diffs == nil {
			return nil
		}
		if len(report.Diffs) == 0 {
			fmt.Println("\nPage snapshot is in sync.")
			return nil
		}
		fmt.Println("\nDIVERGED (run 'studio-sync apply' to reconcile)")
		for _, d := range report.Diffs {
			fmt.Printf("  %-16s want %-20q got %q\n", d.Field, d.Want, d.Got)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusPage, "page", "", "page snapshot to diff against")
}
