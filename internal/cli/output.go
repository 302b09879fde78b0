package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/ygg-project/yggcore/internal/model"
)

// OutputFormat specifies the output format for CLI commands.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintFeatures outputs a features document's toggles in the specified format.
func PrintFeatures(features model.ClientFeatures, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(features)
	case FormatYAML:
		return printYAML(features)
	case FormatTable:
		return printToggleTable(features.Features)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintResolved outputs one resolved toggle in the specified format.
func PrintResolved(name string, resolved model.ResolvedToggle, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string]any{"name": name, "resolved": resolved})
	case FormatYAML:
		return printYAML(map[string]any{"name": name, "resolved": resolved})
	case FormatTable:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Name", "Enabled", "Variant", "Project", "Impression Data")
		table.Append(
			name,
			fmt.Sprintf("%v", resolved.Enabled),
			resolved.Variant.Name,
			resolved.Project,
			fmt.Sprintf("%v", resolved.ImpressionData),
		)
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintResolvedAll outputs every resolved toggle in the specified format.
func PrintResolvedAll(toggles map[string]model.ResolvedToggle, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string]any{"toggles": toggles})
	case FormatYAML:
		return printYAML(map[string]any{"toggles": toggles})
	case FormatTable:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Name", "Enabled", "Variant", "Project")
		for name, resolved := range toggles {
			table.Append(name, fmt.Sprintf("%v", resolved.Enabled), resolved.Variant.Name, resolved.Project)
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintMetrics outputs the impact-metrics registry snapshot in the specified
// format. There is no natural tabular shape for an arbitrary counter/gauge/
// histogram bundle, so "table" falls back to JSON.
func PrintMetrics(data map[string]any, format OutputFormat) error {
	switch format {
	case FormatYAML:
		return printYAML(data)
	default:
		return printJSON(data)
	}
}

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printToggleTable(toggles []model.Toggle) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Enabled", "Strategies", "Variants", "Project", "Impression Data")

	for _, toggle := range toggles {
		table.Append(
			toggle.Name,
			fmt.Sprintf("%v", toggle.Enabled),
			fmt.Sprintf("%d", len(toggle.Strategies)),
			fmt.Sprintf("%d", len(toggle.Variants)),
			toggle.Project,
			fmt.Sprintf("%v", toggle.ImpressionData),
		)
	}

	return table.Render()
}
