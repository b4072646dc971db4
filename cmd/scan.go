package cmd

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/repoatlas/application"
	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/infrastructure/report"
	"github.com/rios0rios0/repoatlas/infrastructure/store"
)

var (
	outputFile   string
	outputFormat string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a group and build the inventory report",
	Long: `Scans every repository in the configured group, runs the technology
detectors and cross-repository analyzers, and writes the report.

Repositories that cannot be fetched or exceed the per-repository timeout are
skipped and listed in the run summary; they never abort the scan.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report output file (overrides the config file)")
	scanCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Report format: json, json-compact, yaml, markdown, html")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Provider.Group == "" {
		return fmt.Errorf("no group configured; set provider.group or pass --group")
	}
	if outputFile != "" {
		cfg.Reporting.OutputFile = outputFile
	}
	if outputFormat != "" {
		cfg.Reporting.Format = outputFormat
	}

	container, err := buildContainer(cfg)
	if err != nil {
		return err
	}

	return container.Invoke(func(service *application.Service) error {
		result, runErr := service.Run(cmd.Context(), cfg.Provider.Group)
		if runErr != nil {
			return runErr
		}

		for _, failure := range result.Scan.Failures {
			logger.Warnf(
				"Skipped %s (%s)", failure.Project.Path, failure.Reason,
			)
		}

		if exportErr := report.Export(
			result.Report, cfg.Reporting.OutputFile, cfg.Reporting.Format,
		); exportErr != nil {
			return exportErr
		}

		return persistRun(cfg, result)
	})
}

// persistRun saves the run to Postgres when a DSN is configured. Storage
// failures are logged, not fatal: the report on disk is the primary output.
func persistRun(cfg *config.Config, result *application.RunResult) error {
	if cfg.Storage.PostgresDSN == "" {
		return nil
	}

	pg, err := store.NewPostgresStore(cfg.Storage.PostgresDSN)
	if err != nil {
		logger.Warnf("Failed to connect to storage: %v", err)
		return nil
	}

	saveErr := pg.SaveRun(result.Report, store.RunMeta{
		Group:      cfg.Provider.Group,
		Provider:   cfg.Provider.Type,
		Attempted:  result.Scan.Attempted,
		Failed:     len(result.Scan.Failures),
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	})
	if saveErr != nil {
		logger.Warnf("Failed to persist scan run: %v", saveErr)
	}
	return nil
}
