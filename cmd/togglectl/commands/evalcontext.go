package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ygg-project/yggcore/internal/ctx"
)

var (
	evalUserID      string
	evalSessionID   string
	evalAppName     string
	evalRemoteAddr  string
	evalProperties  []string
)

// addEvalContextFlags registers the context-building flags shared by every
// evaluation command.
func addEvalContextFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&evalUserID, "user-id", "", "userId context field")
	cmd.Flags().StringVar(&evalSessionID, "session-id", "", "sessionId context field")
	cmd.Flags().StringVar(&evalAppName, "app-name", "", "appName context field")
	cmd.Flags().StringVar(&evalRemoteAddr, "remote-address", "", "remoteAddress context field")
	cmd.Flags().StringArrayVar(&evalProperties, "prop", nil, "custom context property as key=value, repeatable")
}

// buildEvalContext assembles a ctx.Context from the flags registered by
// addEvalContextFlags.
func buildEvalContext(effectiveEnv string) (ctx.Context, error) {
	properties := make(map[string]string, len(evalProperties))
	for _, raw := range evalProperties {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return ctx.Context{}, fmt.Errorf("invalid --prop %q, expected key=value", raw)
		}
		properties[key] = value
	}

	return ctx.Context{
		UserID:        evalUserID,
		SessionID:     evalSessionID,
		Environment:   effectiveEnv,
		AppName:       evalAppName,
		RemoteAddress: evalRemoteAddr,
		Properties:    properties,
	}, nil
}
