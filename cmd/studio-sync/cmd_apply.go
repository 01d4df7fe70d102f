package main

import (
	"context"
	"fmt"

	"github.com/betterstudio/studio-sync/internal/commands"
	"github.com/betterstudio/studio-sync/internal/reconcile"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply [page.html]",
	Short: "Reconcile a page snapshot in place",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSettings()
		if err != nil {
			return err
		}
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		page, err := pagePathArg(arg, set)
		if err != nil {
			return err
		}

		s, err := openStore(set)
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := commands.Apply(context.Background(), s, page, reconcile.DefaultOptions())
		if err != nil {
			return err
		}
		switch {
		case !result.Applied:
			fmt.Println("Skipped: mirroring is disabled.")
		case result.Mutations == 0:
			fmt.Println("Already in sync.")
		default:
			fmt.Printf("Applied %d change(s) to %s\n", result.Mutations, page)
		}
		return nil
	},
}
