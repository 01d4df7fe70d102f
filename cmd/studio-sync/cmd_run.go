package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/betterstudio/studio-sync/internal/bus"
	"github.com/betterstudio/studio-sync/internal/commands"
	"github.com/spf13/cobra"
)

var runNoHub bool

var runCmd = &cobra.Command{
	Use:   "run [page.html]",
	Short: "Run a live mirror context over a page snapshot",
	Long:  "Runs one context: reconciles the page snapshot against the shared state, then keeps it converged on every broadcast, store change, navigation, and page mutation until interrupted.",
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

		logger := newLogger()
		var b bus.Bus
		if !runNoHub {
			client, err := bus.Dial(set.HubAddr, "cli", logger)
			if err != nil {
				// The hub is an accelerator, not a dependency.
				fmt.Printf("hub unavailable at %s, converging through the store only\n", set.HubAddr)
			} else {
				b = client
				defer client.Close()
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return commands.Run(ctx, s, b, page, commands.DefaultRunOptions(), logger)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNoHub, "no-hub", false, "skip the broadcast hub, converge through the store only")
}
