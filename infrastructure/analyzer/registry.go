// Package analyzer assembles the cross-repository analysis pipeline.
package analyzer

import (
	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
	"github.com/rios0rios0/repoatlas/infrastructure/analyzer/connection"
	"github.com/rios0rios0/repoatlas/infrastructure/analyzer/dependency"
	documentation "github.com/rios0rios0/repoatlas/infrastructure/analyzer/documentation"
)

// FromConfig builds the enabled analyzer set in execution order:
// documentation first (per-repository), then dependencies, then connections.
// Order matters only for log readability; the analyzers are independent.
func FromConfig(
	cfg config.AnalyzersConfig,
	reader domain.ContentReader,
) []domain.Analyzer {
	var analyzers []domain.Analyzer

	if config.Enabled(cfg.Documentation) {
		analyzers = append(analyzers, documentation.New(reader))
	}
	if config.Enabled(cfg.Dependencies) {
		analyzers = append(analyzers, dependency.New(reader))
	}
	if config.Enabled(cfg.Connections) {
		analyzers = append(analyzers, connection.New(reader))
	}

	return analyzers
}
