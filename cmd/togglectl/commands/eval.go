package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ygg-project/yggcore/internal/cli"
	"github.com/ygg-project/yggcore/internal/client"
)

var evalCmd = &cobra.Command{
	Use:   "eval <name>",
	Short: "Resolve a single toggle against a context",
	Long: `Resolve one named toggle's enablement, variant, project, and impression
flag against a context built from the --user-id/--session-id/--app-name/
--prop flags.

Examples:
  togglectl eval my_toggle --env prod --user-id u-123
  togglectl eval my_toggle --env prod --user-id u-123 --prop plan=enterprise`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

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

		resolved, err := c.Evaluate(ctxBg, name, evalCtx)
		if err != nil {
			return fmt.Errorf("failed to evaluate toggle: %w", err)
		}

		if quiet {
			return nil
		}
		return cli.PrintResolved(name, resolved, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	addEvalContextFlags(evalCmd)
}
