package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repoatlas/application"
	"github.com/rios0rios0/repoatlas/domain"
)

func recordWith(path string, techs map[domain.Category][]string) *domain.Record {
	record := domain.NewRecord(domain.ProjectHandle{
		ID: path, Name: path, Path: "acme/" + path,
	})
	for category, names := range techs {
		for _, name := range names {
			record.AddTechnology(category, domain.TechnologyObservation{
				Name: name, Confidence: 1,
			})
		}
	}
	return record
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	t.Run("should be deterministic for the same records", func(t *testing.T) {
		t.Parallel()

		// given
		records := []*domain.Record{
			recordWith("a", map[domain.Category][]string{
				domain.CategoryFrontend: {"React", "Vue.js"},
				domain.CategoryDatabase: {"PostgreSQL"},
			}),
			recordWith("b", map[domain.Category][]string{
				domain.CategoryFrontend: {"React"},
			}),
		}
		records[0].AddDependency(domain.DependencyServices, "acme/b")

		// when
		first := application.BuildReport(records)
		second := application.BuildReport(records)

		// then
		assert.Equal(t, first, second)
	})

	t.Run("should count repositories per technology and sort descending", func(t *testing.T) {
		t.Parallel()

		// given
		records := []*domain.Record{
			recordWith("a", map[domain.Category][]string{domain.CategoryFrontend: {"Vue.js"}}),
			recordWith("b", map[domain.Category][]string{domain.CategoryFrontend: {"React", "Vue.js"}}),
			recordWith("c", map[domain.Category][]string{domain.CategoryFrontend: {"Vue.js"}}),
		}

		// when
		report := application.BuildReport(records)

		// then
		counts := report.Summary.Categories["frontend"]
		require.Len(t, counts, 2)
		assert.Equal(t, application.TechnologyCount{Name: "Vue.js", Repositories: 3}, counts[0])
		assert.Equal(t, application.TechnologyCount{Name: "React", Repositories: 1}, counts[1])
	})

	t.Run("should cap the global top list at ten entries", func(t *testing.T) {
		t.Parallel()

		// given
		names := []string{
			"t01", "t02", "t03", "t04", "t05", "t06",
			"t07", "t08", "t09", "t10", "t11", "t12",
		}
		records := []*domain.Record{
			recordWith("a", map[domain.Category][]string{domain.CategoryBackend: names}),
		}

		// when
		report := application.BuildReport(records)

		// then
		assert.Len(t, report.Summary.TopTechnologies, 10)
	})

	t.Run("should not mutate the records", func(t *testing.T) {
		t.Parallel()

		// given
		record := recordWith("a", map[domain.Category][]string{
			domain.CategoryBackend: {"Django"},
		})
		record.AddAPIEndpoint("/users/:param", "GET", "urls.py")
		record.AddAPIEndpoint("/users/:param", "GET", "api.py")

		// when
		application.BuildReport([]*domain.Record{record})

		// then
		assert.Len(t, record.APIs, 2)
		assert.Len(t, record.Technologies[domain.CategoryBackend], 1)
	})

	t.Run("should deduplicate endpoints in the repository view only", func(t *testing.T) {
		t.Parallel()

		// given
		record := recordWith("a", nil)
		record.AddAPIEndpoint("/orders", "POST", "app.py")
		record.AddAPIEndpoint("/orders", "POST", "other.py")
		record.AddAPIEndpoint("/orders", "GET", "app.py")

		// when
		report := application.BuildReport([]*domain.Record{record})

		// then
		require.Len(t, report.Repositories, 1)
		assert.Len(t, report.Repositories[0].APIs, 2)
	})

	t.Run("should emit service, repository and package edges", func(t *testing.T) {
		t.Parallel()

		// given
		consumer := recordWith("checkout", nil)
		consumer.AddDependency(domain.DependencyServices, "orders")
		consumer.AddDependency(domain.DependencyRepositories, "billing")
		consumer.AddDependency(domain.DependencyPackages, "acme/data-models")

		// when
		report := application.BuildReport([]*domain.Record{consumer})

		// then
		require.Len(t, report.Connections.Services, 1)
		assert.Equal(t, application.Edge{From: "acme/checkout", To: "orders"}, report.Connections.Services[0])
		require.Len(t, report.Connections.Repositories, 1)
		assert.Equal(t, application.Edge{From: "acme/checkout", To: "billing"}, report.Connections.Repositories[0])
		require.Len(t, report.Connections.Packages, 1)
		assert.Equal(t, application.Edge{From: "acme/checkout", To: "acme/data-models"}, report.Connections.Packages[0])
	})

	t.Run("should surface per-ecosystem dependency counts in the view", func(t *testing.T) {
		t.Parallel()

		// given
		record := recordWith("polyglot", nil)
		record.CountDependencies("python", 4)
		record.CountDependencies("node", 2)

		// when
		report := application.BuildReport([]*domain.Record{record})

		// then
		require.Len(t, report.Repositories, 1)
		assert.Equal(t,
			map[string]int{"python": 4, "node": 2},
			report.Repositories[0].DependencyTypes,
		)
	})

	t.Run("should summarize documentation coverage", func(t *testing.T) {
		t.Parallel()

		// given
		documented := recordWith("a", nil)
		documented.SetReadme(domain.DocRecord{Path: "README.md", Content: "# a"})
		documented.AddSetupInstructions(domain.DocRecord{Path: "INSTALL.md"})
		bare := recordWith("b", nil)

		// when
		report := application.BuildReport([]*domain.Record{documented, bare})

		// then
		assert.Equal(t, 1, report.Summary.Documentation.WithReadme)
		assert.Equal(t, 1, report.Summary.Documentation.WithSetupDocs)
		assert.Zero(t, report.Summary.Documentation.WithAPIDocs)
		assert.True(t, report.Repositories[0].Documentation.HasReadme)
		assert.False(t, report.Repositories[1].Documentation.HasReadme)
	})

	t.Run("should handle an empty record set", func(t *testing.T) {
		t.Parallel()

		// when
		report := application.BuildReport(nil)

		// then
		assert.Zero(t, report.Summary.TotalRepositories)
		assert.Empty(t, report.Repositories)
		assert.Empty(t, report.Summary.TopTechnologies)
	})
}
