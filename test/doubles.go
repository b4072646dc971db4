// Package testdoubles provides test doubles (spies, stubs, dummies) for domain
// interfaces. These are hand-crafted implementations — no mock frameworks.
package testdoubles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rios0rios0/repoatlas/domain"
)

// ---------------------------------------------------------------------------
// SpyProvider
// ---------------------------------------------------------------------------

// SpyProvider implements domain.Provider as a configurable spy.
// Configure the response fields for the methods your test exercises, then
// inspect the call-tracking fields to verify behavior. The spy is safe for
// concurrent use; the scanner calls it from multiple workers.
type SpyProvider struct {
	mu sync.Mutex

	// --- identity ---
	ProviderName string

	// --- ListGroupProjects ---
	Projects []domain.ProjectHandle
	ListErr  error
	// spy: groups that were requested
	ListedGroups []string

	// --- GetProjectDetails ---
	DetailsErrs map[string]error // handle.Path -> error

	// --- GetProjectTree ---
	Trees    map[string][]string // handle.Path -> file paths
	TreeErrs map[string]error
	// Delays simulates a slow repository; the sleep deliberately ignores the
	// context so timeout handling can be exercised.
	Delays map[string]time.Duration

	// --- GetFileContent ---
	FileContents map[string]map[string]string // handle.Path -> path -> content
	FileErrs     map[string]error             // file path -> error
	// spy: "handle.Path file" strings in fetch order
	FetchedFiles []string
}

var _ domain.Provider = (*SpyProvider)(nil)

func (p *SpyProvider) Name() string {
	if p.ProviderName == "" {
		return "spy"
	}
	return p.ProviderName
}

func (p *SpyProvider) ListGroupProjects(
	_ context.Context,
	group string,
) ([]domain.ProjectHandle, error) {
	p.mu.Lock()
	p.ListedGroups = append(p.ListedGroups, group)
	p.mu.Unlock()
	return p.Projects, p.ListErr
}

func (p *SpyProvider) GetProjectDetails(
	_ context.Context,
	handle domain.ProjectHandle,
) (domain.ProjectHandle, error) {
	if err := p.DetailsErrs[handle.Path]; err != nil {
		return handle, err
	}
	return handle, nil
}

func (p *SpyProvider) GetProjectTree(
	_ context.Context,
	handle domain.ProjectHandle,
) ([]string, error) {
	if delay := p.Delays[handle.Path]; delay > 0 {
		time.Sleep(delay)
	}
	if err := p.TreeErrs[handle.Path]; err != nil {
		return nil, err
	}
	return p.Trees[handle.Path], nil
}

func (p *SpyProvider) GetFileContent(
	_ context.Context,
	handle domain.ProjectHandle,
	path string,
) (string, error) {
	p.mu.Lock()
	p.FetchedFiles = append(p.FetchedFiles, handle.Path+" "+path)
	p.mu.Unlock()

	if err := p.FileErrs[path]; err != nil {
		return "", err
	}
	if files := p.FileContents[handle.Path]; files != nil {
		if content, ok := files[path]; ok {
			return content, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
}

// ---------------------------------------------------------------------------
// SpyDetector
// ---------------------------------------------------------------------------

// SpyDetector implements domain.Detector as a configurable spy.
type SpyDetector struct {
	mu sync.Mutex

	// --- identity ---
	DetectorName string

	// --- Detect ---
	// Observation, when set, is recorded under Category for every file.
	Category    domain.Category
	Observation *domain.TechnologyObservation
	// PanicOn triggers a panic when the named file is seen.
	PanicOn string
	// spy: files that were inspected
	SeenFiles []string
}

var _ domain.Detector = (*SpyDetector)(nil)

func (d *SpyDetector) Name() string {
	if d.DetectorName == "" {
		return "spy"
	}
	return d.DetectorName
}

func (d *SpyDetector) Detect(record *domain.Record, _, path string) {
	d.mu.Lock()
	d.SeenFiles = append(d.SeenFiles, path)
	d.mu.Unlock()

	if d.PanicOn != "" && d.PanicOn == path {
		panic("detector blew up on " + path)
	}
	if d.Observation != nil {
		obs := *d.Observation
		obs.DetectedIn = path
		record.AddTechnology(d.Category, obs)
	}
}

// ---------------------------------------------------------------------------
// SpyAnalyzer
// ---------------------------------------------------------------------------

// SpyAnalyzer implements domain.Analyzer as a call recorder.
type SpyAnalyzer struct {
	AnalyzerName string

	// spy: record batches received
	Calls [][]*domain.Record
}

var _ domain.Analyzer = (*SpyAnalyzer)(nil)

func (a *SpyAnalyzer) Name() string {
	if a.AnalyzerName == "" {
		return "spy"
	}
	return a.AnalyzerName
}

func (a *SpyAnalyzer) Analyze(_ context.Context, records []*domain.Record) {
	a.Calls = append(a.Calls, records)
}

// ---------------------------------------------------------------------------
// StubContentReader
// ---------------------------------------------------------------------------

// StubContentReader serves file contents from an in-memory map, keyed by
// record path. Use it to drive the analyzers without a scanner.
type StubContentReader struct {
	// Files maps record.Path -> file path -> content.
	Files map[string]map[string]string
}

var _ domain.ContentReader = (*StubContentReader)(nil)

func (r *StubContentReader) FileContent(
	_ context.Context,
	record *domain.Record,
	path string,
) (string, bool) {
	files := r.Files[record.Path]
	if files == nil {
		return "", false
	}
	content, ok := files[path]
	return content, ok
}
