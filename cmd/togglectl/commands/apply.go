package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ygg-project/yggcore/internal/cli"
	"github.com/ygg-project/yggcore/internal/client"
	"github.com/ygg-project/yggcore/internal/model"
)

var applyDryRun bool

var applyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Apply a full toggle state document to an environment",
	Long: `Read a complete toggles document (YAML or JSON) from a file and push it
to the service, replacing whatever state is currently applied for the
environment.

Examples:
  togglectl apply features.yaml --env prod
  togglectl apply features.json --env staging --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var features model.ClientFeatures
		if strings.HasSuffix(filename, ".json") {
			err = json.Unmarshal(data, &features)
		} else {
			err = yaml.Unmarshal(data, &features)
		}
		if err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}

		if verbose {
			fmt.Printf("Found %d toggle(s) to apply\n", len(features.Features))
		}

		if applyDryRun {
			fmt.Println("Dry run mode - the following toggles would be applied:")
			for _, toggle := range features.Features {
				fmt.Printf("  - %s (enabled: %v, strategies: %d, variants: %d)\n",
					toggle.Name, toggle.Enabled, len(toggle.Strategies), len(toggle.Variants))
			}
			return nil
		}

		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		ctx := context.Background()

		if err := c.ApplyState(ctx, effectiveEnv, features); err != nil {
			return fmt.Errorf("failed to apply state: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully applied %d toggle(s) to environment '%s'\n", len(features.Features), effectiveEnv)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Validate without applying")
}
