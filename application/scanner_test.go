package application_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repoatlas/application"
	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
	testdoubles "github.com/rios0rios0/repoatlas/test"
)

func scanningConfig(workers, timeoutSeconds int) config.ScanningConfig {
	return config.ScanningConfig{
		ConcurrentScans: workers,
		TimeoutSeconds:  timeoutSeconds,
		FileExtensions:  []string{".py", ".go", ".md"},
	}
}

func handles(n int) []domain.ProjectHandle {
	out := make([]domain.ProjectHandle, 0, n)
	for i := range n {
		name := fmt.Sprintf("repo-%02d", i)
		out = append(out, domain.ProjectHandle{
			ID:   fmt.Sprintf("%d", i),
			Name: name,
			Path: "acme/" + name,
		})
	}
	return out
}

func TestScan(t *testing.T) {
	t.Parallel()

	t.Run("should scan every repository and tolerate a missing one", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(10)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			DetailsErrs: map[string]error{
				"acme/repo-03": fmt.Errorf("%w: project gone", domain.ErrNotFound),
			},
		}
		scanner := application.NewScanner(provider, nil, scanningConfig(3, 30))

		// when
		result := scanner.Scan(context.Background(), projects)

		// then
		assert.Equal(t, 10, result.Attempted)
		assert.Equal(t, 9, result.Succeeded())
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "acme/repo-03", result.Failures[0].Project.Path)
		assert.Equal(t, application.FailureNotFound, result.Failures[0].Reason)
	})

	t.Run("should drop a repository that exceeds its timeout", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(3)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			Delays: map[string]time.Duration{
				"acme/repo-01": 3 * time.Second,
			},
		}
		scanner := application.NewScanner(provider, nil, scanningConfig(3, 1))

		// when
		start := time.Now()
		result := scanner.Scan(context.Background(), projects)

		// then
		assert.Less(t, time.Since(start), 3*time.Second)
		assert.Equal(t, 2, result.Succeeded())
		require.Len(t, result.Failures, 1)
		assert.Equal(t, application.FailureTimeout, result.Failures[0].Reason)
		assert.Equal(t, "acme/repo-01", result.Failures[0].Project.Path)
	})

	t.Run("should fetch only files on the extension allow-list", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(1)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			Trees: map[string][]string{
				"acme/repo-00": {"app.py", "logo.png", "main.go", "vendor.tar.gz"},
			},
			FileContents: map[string]map[string]string{
				"acme/repo-00": {
					"app.py":  "print('hi')",
					"main.go": "package main",
				},
			},
		}
		scanner := application.NewScanner(provider, nil, scanningConfig(1, 30))

		// when
		result := scanner.Scan(context.Background(), projects)

		// then
		require.Equal(t, 1, result.Succeeded())
		assert.Equal(t, []string{"app.py", "main.go"}, result.Records[0].AnalyzedFiles)
		assert.Len(t, provider.FetchedFiles, 2)
	})

	t.Run("should skip a file that fails to fetch and keep the rest", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(1)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			Trees: map[string][]string{
				"acme/repo-00": {"bad.py", "good.py"},
			},
			FileContents: map[string]map[string]string{
				"acme/repo-00": {"good.py": "import os"},
			},
			FileErrs: map[string]error{
				"bad.py": fmt.Errorf("boom"),
			},
		}
		scanner := application.NewScanner(provider, nil, scanningConfig(1, 30))

		// when
		result := scanner.Scan(context.Background(), projects)

		// then
		require.Equal(t, 1, result.Succeeded())
		assert.Equal(t, []string{"good.py"}, result.Records[0].AnalyzedFiles)
		assert.Empty(t, result.Failures)
	})

	t.Run("should run detectors on every analyzed file", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(2)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			Trees: map[string][]string{
				"acme/repo-00": {"a.py"},
				"acme/repo-01": {"b.py"},
			},
			FileContents: map[string]map[string]string{
				"acme/repo-00": {"a.py": "from flask import Flask"},
				"acme/repo-01": {"b.py": "import os"},
			},
		}
		spy := &testdoubles.SpyDetector{
			DetectorName: "backend",
			Category:     domain.CategoryBackend,
			Observation:  &domain.TechnologyObservation{Name: "Flask", Confidence: 1},
		}
		scanner := application.NewScanner(
			provider, []domain.Detector{spy}, scanningConfig(2, 30),
		)

		// when
		result := scanner.Scan(context.Background(), projects)

		// then
		assert.Equal(t, 2, result.Succeeded())
		assert.ElementsMatch(t, []string{"a.py", "b.py"}, spy.SeenFiles)
		for _, record := range result.Records {
			assert.Len(t, record.Technologies[domain.CategoryBackend], 1)
		}
	})

	t.Run("should survive a panicking detector", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(1)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			Trees:    map[string][]string{"acme/repo-00": {"a.py", "b.py"}},
			FileContents: map[string]map[string]string{
				"acme/repo-00": {"a.py": "x", "b.py": "y"},
			},
		}
		angry := &testdoubles.SpyDetector{DetectorName: "angry", PanicOn: "a.py"}
		scanner := application.NewScanner(
			provider, []domain.Detector{angry}, scanningConfig(1, 30),
		)

		// when
		result := scanner.Scan(context.Background(), projects)

		// then
		require.Equal(t, 1, result.Succeeded())
		assert.Equal(t, []string{"a.py", "b.py"}, result.Records[0].AnalyzedFiles)
	})

	t.Run("should serve committed contents without refetching", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(1)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			Trees:    map[string][]string{"acme/repo-00": {"app.py"}},
			FileContents: map[string]map[string]string{
				"acme/repo-00": {"app.py": "print('hi')"},
			},
		}
		scanner := application.NewScanner(provider, nil, scanningConfig(1, 30))
		result := scanner.Scan(context.Background(), projects)
		require.Equal(t, 1, result.Succeeded())
		fetchesAfterScan := len(provider.FetchedFiles)

		// when
		content, ok := scanner.Contents().FileContent(
			context.Background(), result.Records[0], "app.py",
		)

		// then
		assert.True(t, ok)
		assert.Equal(t, "print('hi')", content)
		assert.Len(t, provider.FetchedFiles, fetchesAfterScan)
	})

	t.Run("should return an empty result for an empty project list", func(t *testing.T) {
		t.Parallel()

		// given
		scanner := application.NewScanner(
			&testdoubles.SpyProvider{}, nil, scanningConfig(3, 30),
		)

		// when
		result := scanner.Scan(context.Background(), nil)

		// then
		assert.Zero(t, result.Attempted)
		assert.Empty(t, result.Records)
		assert.Empty(t, result.Failures)
	})
}
