package application

import (
	"sort"

	"github.com/rios0rios0/repoatlas/domain"
)

// Report is the exportable outcome of one inventory run. Everything in it is
// derived from the records; BuildReport never touches providers or clocks, so
// the same records always yield the same report. GeneratedAt is stamped by
// the caller right before export.
type Report struct {
	GeneratedAt  string           `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	Summary      Summary          `json:"summary" yaml:"summary"`
	Repositories []RepositoryView `json:"repositories" yaml:"repositories"`
	Connections  Connections      `json:"connections" yaml:"connections"`
}

// Summary aggregates technology usage across the whole record set.
type Summary struct {
	TotalRepositories int                          `json:"total_repositories" yaml:"total_repositories"`
	Categories        map[string][]TechnologyCount `json:"categories" yaml:"categories"`
	TopTechnologies   []TechnologyCount            `json:"top_technologies" yaml:"top_technologies"`
	Documentation     DocumentationSummary         `json:"documentation" yaml:"documentation"`
}

// TechnologyCount is one technology and the number of repositories using it.
type TechnologyCount struct {
	Name         string `json:"name" yaml:"name"`
	Repositories int    `json:"repositories" yaml:"repositories"`
}

// DocumentationSummary counts documentation coverage across repositories.
type DocumentationSummary struct {
	WithReadme       int `json:"with_readme" yaml:"with_readme"`
	WithAPIDocs      int `json:"with_api_docs" yaml:"with_api_docs"`
	WithSetupDocs    int `json:"with_setup_docs" yaml:"with_setup_docs"`
	WithArchitecture int `json:"with_architecture_docs" yaml:"with_architecture_docs"`
}

// RepositoryView is the per-repository section of the report.
type RepositoryView struct {
	Name            string                      `json:"name" yaml:"name"`
	Path            string                      `json:"path" yaml:"path"`
	WebURL          string                      `json:"web_url,omitempty" yaml:"web_url,omitempty"`
	DefaultRef      string                      `json:"default_ref" yaml:"default_ref"`
	AnalyzedFiles   int                         `json:"analyzed_files" yaml:"analyzed_files"`
	Technologies    map[string][]TechnologyView `json:"technologies" yaml:"technologies"`
	APIs            []APIView                   `json:"apis,omitempty" yaml:"apis,omitempty"`
	Dependencies    map[string][]string         `json:"dependencies" yaml:"dependencies"`
	DependencyTypes map[string]int              `json:"dependency_types,omitempty" yaml:"dependency_types,omitempty"`
	Documentation   DocumentationView           `json:"documentation" yaml:"documentation"`
}

// TechnologyView is one technology entry in a repository view.
type TechnologyView struct {
	Name       string  `json:"name" yaml:"name"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Version    string  `json:"version,omitempty" yaml:"version,omitempty"`
	DetectedIn string  `json:"detected_in,omitempty" yaml:"detected_in,omitempty"`
}

// APIView is one exposed endpoint in a repository view.
type APIView struct {
	Method     string `json:"method" yaml:"method"`
	Path       string `json:"path" yaml:"path"`
	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`
}

// DocumentationView summarizes the documentation found in one repository.
type DocumentationView struct {
	HasReadme        bool `json:"has_readme" yaml:"has_readme"`
	APIDocs          int  `json:"api_docs" yaml:"api_docs"`
	SetupDocs        int  `json:"setup_docs" yaml:"setup_docs"`
	ArchitectureDocs int  `json:"architecture_docs" yaml:"architecture_docs"`
}

// Connections lists the inferred cross-repository edges: repositories are
// matched API calls, services are name references, packages are manifest
// links.
type Connections struct {
	Services     []Edge `json:"services" yaml:"services"`
	Repositories []Edge `json:"repositories" yaml:"repositories"`
	Packages     []Edge `json:"packages" yaml:"packages"`
}

// Edge is one directed dependency between two repository paths.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

const topTechnologiesLimit = 10

// BuildReport derives the report from the completed records. It is a pure
// transformation: it never mutates the records and has no side effects.
func BuildReport(records []*domain.Record) *Report {
	report := &Report{
		Summary: Summary{
			TotalRepositories: len(records),
			Categories:        map[string][]TechnologyCount{},
		},
		Repositories: make([]RepositoryView, 0, len(records)),
	}

	counters := map[domain.Category]*techCounter{}

	for _, record := range records {
		report.Repositories = append(report.Repositories, buildView(record))

		for _, category := range categoriesOf(record) {
			c := counters[category]
			if c == nil {
				c = &techCounter{count: map[string]int{}}
				counters[category] = c
			}
			for _, obs := range record.Technologies[category] {
				if _, seen := c.count[obs.Name]; !seen {
					c.order = append(c.order, obs.Name)
				}
				c.count[obs.Name]++
			}
		}

		docs := record.Documentation
		if docs.Readme != nil {
			report.Summary.Documentation.WithReadme++
		}
		if len(docs.APIDocs) > 0 {
			report.Summary.Documentation.WithAPIDocs++
		}
		if len(docs.SetupInstructions) > 0 {
			report.Summary.Documentation.WithSetupDocs++
		}
		if len(docs.Architecture) > 0 {
			report.Summary.Documentation.WithArchitecture++
		}
	}

	var global []TechnologyCount
	for _, category := range allCategories(counters) {
		c := counters[category]
		counts := make([]TechnologyCount, 0, len(c.order))
		for _, name := range c.order {
			counts = append(counts, TechnologyCount{
				Name:         name,
				Repositories: c.count[name],
			})
		}
		sortCounts(counts)
		report.Summary.Categories[string(category)] = counts
		global = append(global, counts...)
	}

	sortCounts(global)
	if len(global) > topTechnologiesLimit {
		global = global[:topTechnologiesLimit]
	}
	report.Summary.TopTechnologies = global

	report.Connections = buildConnections(records)
	return report
}

func buildView(record *domain.Record) RepositoryView {
	view := RepositoryView{
		Name:          record.Name,
		Path:          record.Path,
		WebURL:        record.WebURL,
		DefaultRef:    record.DefaultRef,
		AnalyzedFiles: len(record.AnalyzedFiles),
		Technologies:  map[string][]TechnologyView{},
		Dependencies:  map[string][]string{},
	}

	for _, category := range categoriesOf(record) {
		observations := record.Technologies[category]
		techs := make([]TechnologyView, 0, len(observations))
		for _, obs := range observations {
			techs = append(techs, TechnologyView{
				Name:       obs.Name,
				Confidence: obs.Confidence,
				Version:    obs.Version,
				DetectedIn: obs.DetectedIn,
			})
		}
		view.Technologies[string(category)] = techs
	}

	for _, api := range dedupEndpoints(record.APIs) {
		view.APIs = append(view.APIs, APIView{
			Method:     api.Method,
			Path:       api.Path,
			SourceFile: api.SourceFile,
		})
	}

	for kind, names := range record.Dependencies {
		sorted := append([]string(nil), names...)
		sort.Strings(sorted)
		view.Dependencies[string(kind)] = sorted
	}

	if len(record.DependencyTypes) > 0 {
		view.DependencyTypes = make(map[string]int, len(record.DependencyTypes))
		for ecosystem, total := range record.DependencyTypes {
			view.DependencyTypes[ecosystem] = total
		}
	}

	docs := record.Documentation
	view.Documentation = DocumentationView{
		HasReadme:        docs.Readme != nil,
		APIDocs:          len(docs.APIDocs),
		SetupDocs:        len(docs.SetupInstructions),
		ArchitectureDocs: len(docs.Architecture),
	}

	return view
}

// dedupEndpoints collapses repeated observations of the same endpoint for
// display; the raw observations stay on the record.
func dedupEndpoints(apis []domain.APIEndpoint) []domain.APIEndpoint {
	seen := map[string]bool{}
	var out []domain.APIEndpoint
	for _, api := range apis {
		key := api.Method + " " + api.Path
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, api)
	}
	return out
}

func buildConnections(records []*domain.Record) Connections {
	var conns Connections
	for _, record := range records {
		for _, target := range sortedDeps(record, domain.DependencyServices) {
			conns.Services = append(conns.Services, Edge{
				From: record.Path, To: target,
			})
		}
		for _, target := range sortedDeps(record, domain.DependencyRepositories) {
			conns.Repositories = append(conns.Repositories, Edge{
				From: record.Path, To: target,
			})
		}
		for _, target := range sortedDeps(record, domain.DependencyPackages) {
			conns.Packages = append(conns.Packages, Edge{
				From: record.Path, To: target,
			})
		}
	}
	return conns
}

func sortedDeps(record *domain.Record, kind domain.DependencyKind) []string {
	out := append([]string(nil), record.Dependencies[kind]...)
	sort.Strings(out)
	return out
}

// categoriesOf returns the record's category keys in display order: the
// built-in categories first, any custom categories after, alphabetically.
func categoriesOf(record *domain.Record) []domain.Category {
	out := make([]domain.Category, 0, len(record.Technologies))
	builtin := map[domain.Category]bool{}
	for _, c := range domain.BuiltinCategories {
		builtin[c] = true
		if _, ok := record.Technologies[c]; ok {
			out = append(out, c)
		}
	}

	var extra []domain.Category
	for c := range record.Technologies {
		if !builtin[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// techCounter tallies per-technology repository counts, remembering
// encounter order so ties sort stably.
type techCounter struct {
	order []string
	count map[string]int
}

func allCategories(counters map[domain.Category]*techCounter) []domain.Category {
	out := make([]domain.Category, 0, len(counters))
	builtin := map[domain.Category]bool{}
	for _, c := range domain.BuiltinCategories {
		builtin[c] = true
		if _, ok := counters[c]; ok {
			out = append(out, c)
		}
	}

	var extra []domain.Category
	for c := range counters {
		if !builtin[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// sortCounts orders by descending repository count; ties keep their
// encounter order.
func sortCounts(counts []TechnologyCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Repositories > counts[j].Repositories
	})
}
