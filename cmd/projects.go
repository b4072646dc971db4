package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/repoatlas/domain"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the projects of the configured group without scanning",
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Provider.Group == "" {
		return fmt.Errorf("no group configured; set provider.group or pass --group")
	}

	container, err := buildContainer(cfg)
	if err != nil {
		return err
	}

	return container.Invoke(func(prov domain.Provider) error {
		projects, listErr := prov.ListGroupProjects(cmd.Context(), cfg.Provider.Group)
		if listErr != nil {
			return listErr
		}

		for _, project := range projects {
			fmt.Printf("%-50s %s\n", project.Path, project.DefaultRef)
		}
		fmt.Printf("\n%d projects in %s\n", len(projects), cfg.Provider.Group)
		return nil
	})
}
