package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	env     string
	format  string
	quiet   bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "togglectl",
	Short: "CLI tool for managing and evaluating feature toggles",
	Long: `togglectl is a command-line tool for operating the ygg toggle evaluation service.

It provides commands for applying a full toggle state document to an
environment, reading it back, evaluating toggles against a context, and
inspecting the service's impact metrics.

Examples:
  togglectl apply features.yaml --env prod
  togglectl get --env prod
  togglectl eval my_toggle --env prod --user-id u-123
  togglectl eval-all --env prod --user-id u-123
  togglectl environments
  togglectl metrics --env prod`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the togglectl API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Environment (dev, staging, default)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
