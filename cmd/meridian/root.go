package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - conversation session runtime",
	Long: `Meridian is a runtime for managing conversation sessions.

It provides:
  - Session lifecycle management with validated state transitions
  - Importance-ranked bounded context memory per session
  - Hierarchical token budgets with allocation journaling
  - Conversation flow controls with engagement and coherence metrics
  - Scheduled maintenance sweeps and Prometheus telemetry`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
