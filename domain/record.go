package domain

// Category classifies a detected technology. The five built-in categories are
// fixed; custom detectors may introduce their own.
type Category string

const (
	CategoryFrontend       Category = "frontend"
	CategoryBackend        Category = "backend"
	CategoryDatabase       Category = "database"
	CategoryInfrastructure Category = "infrastructure"
	CategoryCICD           Category = "cicd"
)

// BuiltinCategories lists the fixed category set in display order.
var BuiltinCategories = []Category{
	CategoryFrontend,
	CategoryBackend,
	CategoryDatabase,
	CategoryInfrastructure,
	CategoryCICD,
}

// DependencyKind names one of the record's dependency sets. Repositories
// holds API-call edges (the connection analyzer matched an exposed endpoint),
// services holds name-reference edges, packages holds cross-repository
// manifest links.
type DependencyKind string

const (
	DependencyImports      DependencyKind = "imports"
	DependencyServices     DependencyKind = "services"
	DependencyRepositories DependencyKind = "repositories"
	DependencyPackages     DependencyKind = "packages"
)

// TechnologyObservation is one piece of evidence that a named technology is
// used in a repository.
type TechnologyObservation struct {
	Name       string
	Confidence float64 // 0..1
	DetectedIn string  // file the evidence came from
	Version    string
	Extra      map[string]string
}

// APIEndpoint is a single endpoint observation extracted from source text.
// Observations are append-only and never deduplicated: the same endpoint seen
// in many files is stronger evidence for the connection analyzer, not noise.
type APIEndpoint struct {
	Path       string // normalized
	Method     string // GET/POST/PUT/DELETE/PATCH
	SourceFile string
}

// DocRecord is one extracted documentation artifact.
type DocRecord struct {
	Path    string
	Content string
}

// Documentation groups the documentation artifacts of a repository. A
// repository has at most one README; the other kinds accumulate.
type Documentation struct {
	Readme            *DocRecord
	APIDocs           []DocRecord
	SetupInstructions []DocRecord
	Architecture      []DocRecord
}

// Record holds every finding for one scanned repository. It is created when a
// scan begins, populated by detectors and the cross-repository analyzers, and
// treated as read-only once the summary is built. A repository whose scan
// fails or times out never produces a Record at all.
type Record struct {
	ID         string
	Name       string
	Path       string // namespace-qualified, e.g. "group/project"
	DefaultRef string
	WebURL     string

	Scanned       bool
	AnalyzedFiles []string // fetch order, kept for traceability

	Technologies    map[Category][]TechnologyObservation
	APIs            []APIEndpoint
	Dependencies    map[DependencyKind][]string
	DependencyTypes map[string]int // parsed manifest dependencies per ecosystem
	Documentation   Documentation
}

// NewRecord creates an empty record from provider-supplied project details.
func NewRecord(handle ProjectHandle) *Record {
	ref := handle.DefaultRef
	if ref == "" {
		ref = "main"
	}
	return &Record{
		ID:         handle.ID,
		Name:       handle.Name,
		Path:       handle.Path,
		DefaultRef: ref,
		WebURL:     handle.WebURL,
		Technologies: map[Category][]TechnologyObservation{
			CategoryFrontend:       {},
			CategoryBackend:        {},
			CategoryDatabase:       {},
			CategoryInfrastructure: {},
			CategoryCICD:           {},
		},
		Dependencies: map[DependencyKind][]string{
			DependencyImports:      {},
			DependencyServices:     {},
			DependencyRepositories: {},
			DependencyPackages:     {},
		},
		DependencyTypes: map[string]int{},
	}
}

// Handle rebuilds the provider handle for this record, used by content readers
// that need to fetch files on behalf of an analyzer.
func (r *Record) Handle() ProjectHandle {
	return ProjectHandle{
		ID:         r.ID,
		Name:       r.Name,
		Path:       r.Path,
		DefaultRef: r.DefaultRef,
		WebURL:     r.WebURL,
	}
}

// AddTechnology records an observation, merging with any earlier observation
// of the same (category, name): the higher confidence wins, and version/extra
// are overwritten only when the new confidence is not lower. Feeding the same
// observation twice never creates a duplicate and never lowers confidence.
func (r *Record) AddTechnology(category Category, obs TechnologyObservation) {
	if obs.Name == "" {
		return
	}
	if r.Technologies == nil {
		r.Technologies = make(map[Category][]TechnologyObservation)
	}

	list := r.Technologies[category]
	for i := range list {
		if list[i].Name != obs.Name {
			continue
		}
		if obs.Confidence < list[i].Confidence {
			return
		}
		list[i].Confidence = obs.Confidence
		if obs.DetectedIn != "" {
			list[i].DetectedIn = obs.DetectedIn
		}
		if obs.Version != "" {
			list[i].Version = obs.Version
		}
		if len(obs.Extra) > 0 {
			list[i].Extra = obs.Extra
		}
		return
	}

	r.Technologies[category] = append(list, obs)
}

// AddAPIEndpoint appends an endpoint observation. No deduplication on purpose.
func (r *Record) AddAPIEndpoint(path, method, sourceFile string) {
	if method == "" {
		method = "GET"
	}
	r.APIs = append(r.APIs, APIEndpoint{
		Path:       path,
		Method:     method,
		SourceFile: sourceFile,
	})
}

// AddDependency records a dependency target, deduplicated by exact string
// equality within its kind.
func (r *Record) AddDependency(kind DependencyKind, name string) {
	if name == "" {
		return
	}
	if r.Dependencies == nil {
		r.Dependencies = make(map[DependencyKind][]string)
	}
	for _, existing := range r.Dependencies[kind] {
		if existing == name {
			return
		}
	}
	r.Dependencies[kind] = append(r.Dependencies[kind], name)
}

// CountDependencies bumps the per-ecosystem tally of parsed manifest entries.
func (r *Record) CountDependencies(ecosystem string, n int) {
	if ecosystem == "" || n == 0 {
		return
	}
	if r.DependencyTypes == nil {
		r.DependencyTypes = map[string]int{}
	}
	r.DependencyTypes[ecosystem] += n
}

// SetReadme stores the repository README. The first README found wins;
// later calls are ignored.
func (r *Record) SetReadme(doc DocRecord) {
	if r.Documentation.Readme != nil {
		return
	}
	r.Documentation.Readme = &doc
}

// AddAPIDoc appends an API documentation artifact.
func (r *Record) AddAPIDoc(doc DocRecord) {
	r.Documentation.APIDocs = append(r.Documentation.APIDocs, doc)
}

// AddSetupInstructions appends a setup/install documentation artifact.
func (r *Record) AddSetupInstructions(doc DocRecord) {
	r.Documentation.SetupInstructions = append(r.Documentation.SetupInstructions, doc)
}

// AddArchitectureDoc appends an architecture documentation artifact.
func (r *Record) AddArchitectureDoc(doc DocRecord) {
	r.Documentation.Architecture = append(r.Documentation.Architecture, doc)
}
