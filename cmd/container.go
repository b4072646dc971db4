package cmd

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/repoatlas/application"
	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
	"github.com/rios0rios0/repoatlas/infrastructure/analyzer"
	"github.com/rios0rios0/repoatlas/infrastructure/detector"
	"github.com/rios0rios0/repoatlas/infrastructure/provider"
	"github.com/rios0rios0/repoatlas/infrastructure/provider/github"
	"github.com/rios0rios0/repoatlas/infrastructure/provider/gitlab"
	"github.com/rios0rios0/repoatlas/infrastructure/provider/local"
)

// buildContainer wires the pipeline through DIG so every command resolves
// the same graph from the same config.
func buildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	constructors := []any{
		func() *config.Config { return cfg },
		newProviderRegistry,
		newProvider,
		newDetectors,
		newScanner,
		newAnalyzers,
		newService,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}

	return container, nil
}

func newProviderRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register("gitlab", gitlab.New)
	registry.Register("github", github.New)
	registry.Register("local", local.New)
	return registry
}

func newProvider(cfg *config.Config, registry *provider.Registry) (domain.Provider, error) {
	return registry.Get(cfg.Provider)
}

func newDetectors(cfg *config.Config) []domain.Detector {
	return detector.FromConfig(cfg.Detectors)
}

func newScanner(
	prov domain.Provider,
	detectors []domain.Detector,
	cfg *config.Config,
) *application.Scanner {
	return application.NewScanner(prov, detectors, cfg.Scanning)
}

func newAnalyzers(cfg *config.Config, scanner *application.Scanner) []domain.Analyzer {
	return analyzer.FromConfig(cfg.Analyzers, scanner.Contents())
}

func newService(
	prov domain.Provider,
	scanner *application.Scanner,
	analyzers []domain.Analyzer,
) *application.Service {
	return application.NewService(prov, scanner, analyzers)
}
