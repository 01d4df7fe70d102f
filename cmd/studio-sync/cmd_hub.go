package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/betterstudio/studio-sync/internal/bus"
	"github.com/spf13/cobra"
)

var hubAddr string

var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Run the loopback broadcast hub",
	Long:  "The hub relays state envelopes between contexts on this machine. It binds loopback only and keeps no state; contexts that miss a broadcast converge through the store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSettings()
		if err != nil {
			return err
		}
		addr := hubAddr
		if addr == "" {
			addr = set.HubAddr
		}

		h := bus.NewHub(newLogger())
		if err := h.Start(addr); err != nil {
			return err
		}
		defer h.Close()
		fmt.Printf("hub listening on %s\n", h.Addr())

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	hubCmd.Flags().StringVar(&hubAddr, "addr", "", "listen address (loopback only)")
}
