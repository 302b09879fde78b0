package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ygg-project/yggcore/internal/cli"
	"github.com/ygg-project/yggcore/internal/client"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print the service's impact-metrics registry snapshot",
	Long: `Fetch the caller-defined impact-metrics counters/gauges/histograms
currently harvested by the service.

Examples:
  togglectl metrics --env prod
  togglectl metrics --env prod --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		ctxBg := context.Background()

		data, err := c.Metrics(ctxBg)
		if err != nil {
			return fmt.Errorf("failed to fetch metrics: %w", err)
		}

		if quiet {
			return nil
		}
		return cli.PrintMetrics(data, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
