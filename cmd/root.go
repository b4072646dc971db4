package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/repoatlas/config"
)

var (
	// Global flags
	configPath string
	token      string
	group      string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "repoatlas",
	Short: "Technology inventory for groups of repositories",
	Long: `A CLI tool that scans every repository in a GitLab group, GitHub
organization or local clone directory, detects the technologies in use,
and infers cross-repository connections.

The inventory covers:
- Frameworks, datastores, infrastructure and CI/CD tooling per repository
- Exposed HTTP endpoints and the services calling them
- Declared package dependencies and the repositories publishing them
- Documentation coverage (README, API, setup, architecture)`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetFormatter(&logger.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().String("url", "", "Provider base URL (self-hosted instances or local clone root)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "Auth token for the provider (overrides the config file)")
	rootCmd.PersistentFlags().StringVarP(&group, "group", "g", "", "Group or organization to inventory (overrides the config file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// loadConfig resolves the configuration from --config, the default search
// locations, or built-in defaults, then layers the global flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case configPath != "":
		cfg, err = config.Load(configPath)
	default:
		if found, findErr := config.FindConfigFile(); findErr == nil {
			logger.Debugf("Using config file %s", found)
			cfg, err = config.Load(found)
		} else {
			cfg = config.Default()
		}
	}
	if err != nil {
		return nil, err
	}

	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.Provider.URL = url
	}
	if token != "" {
		cfg.Provider.Token = token
	}
	if group != "" {
		cfg.Provider.Group = group
	}

	return cfg, nil
}
