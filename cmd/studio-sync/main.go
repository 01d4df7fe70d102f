package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.3.1"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "studio-sync",
	Short: "Mirror AI Studio configuration across contexts",
	Long:  "studio-sync keeps model, tool, parameter, and UI settings identical across every open context: a shared store, a broadcast hub, and a reconciliation engine that drives page snapshots to the stored state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show status
		return statusCmd.RunE(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("studio-sync %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(hubCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
