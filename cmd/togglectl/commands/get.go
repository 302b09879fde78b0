package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ygg-project/yggcore/internal/cli"
	"github.com/ygg-project/yggcore/internal/client"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Get the currently applied toggle state for an environment",
	Long: `Fetch the complete toggles document currently applied to an environment.

Examples:
  togglectl get --env prod
  togglectl get --env prod --format json
  togglectl get --env prod --output backup.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		ctx := context.Background()

		features, err := c.GetState(ctx, effectiveEnv)
		if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}

		if getOutput != "" {
			out, err := os.Create(getOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer out.Close()

			switch format {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(features); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			default:
				encoder := yaml.NewEncoder(out)
				defer encoder.Close()
				encoder.SetIndent(2)
				if err := encoder.Encode(features); err != nil {
					return fmt.Errorf("failed to encode YAML: %w", err)
				}
			}

			if !quiet {
				fmt.Printf("Successfully wrote %d toggle(s) to %s\n", len(features.Features), getOutput)
			}
			return nil
		}

		if quiet {
			return nil
		}

		if len(features.Features) == 0 {
			fmt.Println("No toggles applied")
			return nil
		}

		return cli.PrintFeatures(features, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "Write the document to a file instead of printing it")
}
