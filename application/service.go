package application

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repoatlas/domain"
)

// Service runs the full inventory pipeline: list the group, scan every
// repository, run the cross-repository analyzers, build the report.
type Service struct {
	provider  domain.Provider
	scanner   *Scanner
	analyzers []domain.Analyzer
}

// NewService wires the pipeline. The analyzers run in the given order after
// every scan worker has finished.
func NewService(
	provider domain.Provider,
	scanner *Scanner,
	analyzers []domain.Analyzer,
) *Service {
	return &Service{
		provider:  provider,
		scanner:   scanner,
		analyzers: analyzers,
	}
}

// RunResult bundles the report with the raw scan outcome for callers that
// persist or summarize the run.
type RunResult struct {
	Report     *Report
	Scan       *ScanResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run inventories one group. Failing to list the group is the only fatal
// error; individual repository failures are tolerated and reported.
func (s *Service) Run(ctx context.Context, group string) (*RunResult, error) {
	startedAt := time.Now().UTC()

	projects, err := s.provider.ListGroupProjects(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects of group %q: %w", group, err)
	}
	if len(projects) == 0 {
		logger.Warnf("Group %q has no projects", group)
	}

	scan := s.scanner.Scan(ctx, projects)

	for _, analyzer := range s.analyzers {
		logger.Infof("Running %s analyzer", analyzer.Name())
		analyzer.Analyze(ctx, scan.Records)
	}

	report := BuildReport(scan.Records)
	report.GeneratedAt = startedAt.Format(time.RFC3339)

	return &RunResult{
		Report:     report,
		Scan:       scan,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}, nil
}
