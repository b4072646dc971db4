package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/repoatlas/application"
	"github.com/rios0rios0/repoatlas/infrastructure/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <report.json>",
	Short: "Re-export a saved JSON report in another format",
	Long: `Reads a report previously written by "scan" in JSON format and
renders it again in the requested format, without rescanning anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (defaults to the input name with a new extension)")
	reportCmd.Flags().StringVarP(&outputFormat, "format", "f", "markdown", "Output format: json, json-compact, yaml, markdown, html")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read report %q: %w", args[0], err)
	}

	var rep application.Report
	if unmarshalErr := json.Unmarshal(data, &rep); unmarshalErr != nil {
		return fmt.Errorf("failed to parse report %q: %w", args[0], unmarshalErr)
	}

	target := outputFile
	if target == "" {
		target = args[0] + "." + extensionFor(outputFormat)
	}

	return report.Export(&rep, target, outputFormat)
}

func extensionFor(format string) string {
	switch format {
	case report.FormatYAML:
		return "yaml"
	case report.FormatMarkdown:
		return "md"
	case report.FormatHTML:
		return "html"
	default:
		return "json"
	}
}
