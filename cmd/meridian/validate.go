package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dialog-hq/meridian/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a Meridian configuration file without starting the runtime.

The same defaults and environment variable overrides applied at startup
are applied before validation, so the result reflects the effective
configuration.

Examples:
  # Validate the default config file
  meridian validate

  # Validate a specific file
  meridian validate --config /etc/meridian/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var vErr config.ValidationError
		if errors.As(err, &vErr) {
			fmt.Println("✗ Configuration invalid:")
			for _, fe := range vErr.Errors {
				fmt.Printf("  - %s\n", fe.Error())
			}
			return fmt.Errorf("%d validation error(s)", len(vErr.Errors))
		}
		return err
	}

	fmt.Println("✓ Configuration valid")
	if verbose {
		fmt.Printf("  session.max_tokens:       %d\n", cfg.Session.MaxTokens)
		fmt.Printf("  session.max_context_size: %d\n", cfg.Session.MaxContextSize)
		fmt.Printf("  journal.backend:          %s\n", cfg.Journal.Backend)
		fmt.Printf("  sweep.schedule:           %s\n", cfg.Sweep.Schedule)
	}
	return nil
}
