package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ygg-project/yggcore/internal/cli"
	"github.com/ygg-project/yggcore/internal/client"
)

var evalAllCmd = &cobra.Command{
	Use:   "eval-all",
	Short: "Resolve every applied toggle against a context",
	Long: `Resolve every toggle currently applied to an environment against a
context built from the --user-id/--session-id/--app-name/--prop flags.

Examples:
  togglectl eval-all --env prod --user-id u-123
  togglectl eval-all --env prod --user-id u-123 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		evalCtx, err := buildEvalContext(effectiveEnv)
		if err != nil {
			return err
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		ctxBg := context.Background()

		toggles, err := c.EvaluateAll(ctxBg, evalCtx)
		if err != nil {
			return fmt.Errorf("failed to evaluate toggles: %w", err)
		}

		if quiet {
			return nil
		}
		if len(toggles) == 0 {
			fmt.Println("No toggles resolved")
			return nil
		}
		return cli.PrintResolvedAll(toggles, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(evalAllCmd)
	addEvalContextFlags(evalAllCmd)
}
