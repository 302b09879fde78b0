package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ygg-project/yggcore/internal/cli"
	"github.com/ygg-project/yggcore/internal/client"
)

var environmentsCmd = &cobra.Command{
	Use:   "environments",
	Short: "List every environment with an applied toggle state",
	Long: `List every environment that currently has a toggles document stored.

Examples:
  togglectl environments --env prod`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		ctxBg := context.Background()

		envs, err := c.ListEnvironments(ctxBg)
		if err != nil {
			return fmt.Errorf("failed to list environments: %w", err)
		}

		if quiet {
			return nil
		}
		if len(envs) == 0 {
			fmt.Println("No environments found")
			return nil
		}
		for _, e := range envs {
			fmt.Println(e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(environmentsCmd)
}
