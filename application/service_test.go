package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repoatlas/application"
	"github.com/rios0rios0/repoatlas/domain"
	testdoubles "github.com/rios0rios0/repoatlas/test"
)

func TestServiceRun(t *testing.T) {
	t.Parallel()

	t.Run("should scan, analyze and report the whole group", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(4)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			Trees: map[string][]string{
				"acme/repo-00": {"main.py"},
			},
			FileContents: map[string]map[string]string{
				"acme/repo-00": {"main.py": "from flask import Flask"},
			},
		}
		scanner := application.NewScanner(provider, nil, scanningConfig(2, 30))
		analyzer := &testdoubles.SpyAnalyzer{AnalyzerName: "spy"}
		service := application.NewService(provider, scanner, []domain.Analyzer{analyzer})

		// when
		result, err := service.Run(context.Background(), "acme")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"acme"}, provider.ListedGroups)
		require.Len(t, analyzer.Calls, 1)
		assert.Len(t, analyzer.Calls[0], 4)
		assert.Equal(t, 4, result.Report.Summary.TotalRepositories)
		assert.NotEmpty(t, result.Report.GeneratedAt)
		assert.Equal(t, 4, result.Scan.Attempted)
	})

	t.Run("should fail when the group cannot be listed", func(t *testing.T) {
		t.Parallel()

		// given
		provider := &testdoubles.SpyProvider{ListErr: errors.New("401 unauthorized")}
		scanner := application.NewScanner(provider, nil, scanningConfig(2, 30))
		service := application.NewService(provider, scanner, nil)

		// when
		_, err := service.Run(context.Background(), "acme")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "acme")
	})

	t.Run("should run analyzers only on successfully scanned records", func(t *testing.T) {
		t.Parallel()

		// given
		projects := handles(3)
		provider := &testdoubles.SpyProvider{
			Projects: projects,
			DetailsErrs: map[string]error{
				"acme/repo-01": errors.New("500 internal error"),
			},
		}
		scanner := application.NewScanner(provider, nil, scanningConfig(3, 30))
		analyzer := &testdoubles.SpyAnalyzer{}
		service := application.NewService(provider, scanner, []domain.Analyzer{analyzer})

		// when
		result, err := service.Run(context.Background(), "acme")

		// then
		require.NoError(t, err)
		require.Len(t, analyzer.Calls, 1)
		assert.Len(t, analyzer.Calls[0], 2)
		require.Len(t, result.Scan.Failures, 1)
		assert.Equal(t, application.FailureRetrieval, result.Scan.Failures[0].Reason)
	})
}
