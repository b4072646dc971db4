package application

import (
	"context"
	"sync"

	"github.com/rios0rios0/repoatlas/domain"
)

// ContentStore caches the file contents collected while scanning so the
// cross-repository analyzers can re-read them without going back to the
// provider. A miss falls back to a provider fetch (the analyzers sometimes
// ask for files outside the scan allow-list, e.g. README variants).
//
// Writers are the scan workers; each commits a whole repository at once
// under the mutex, and no two workers ever commit the same repository.
type ContentStore struct {
	provider domain.Provider

	mu    sync.RWMutex
	files map[string]map[string]string // record ID -> path -> content
}

var _ domain.ContentReader = (*ContentStore)(nil)

// NewContentStore creates a store backed by the given provider for misses.
func NewContentStore(provider domain.Provider) *ContentStore {
	return &ContentStore{
		provider: provider,
		files:    make(map[string]map[string]string),
	}
}

// Commit stores the fetched contents of one completed repository scan.
// Dropped or timed-out repositories are never committed.
func (s *ContentStore) Commit(recordID string, files map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[recordID] = files
}

// FileContent returns the content of path in the given repository. Cached
// content is served first; unknown paths are fetched from the provider and
// cached. A missing file yields ("", false) and is never an error.
func (s *ContentStore) FileContent(
	ctx context.Context,
	record *domain.Record,
	path string,
) (string, bool) {
	s.mu.RLock()
	files, known := s.files[record.ID]
	if known {
		if content, ok := files[path]; ok {
			s.mu.RUnlock()
			return content, true
		}
	}
	s.mu.RUnlock()

	if s.provider == nil {
		return "", false
	}

	content, err := s.provider.GetFileContent(ctx, record.Handle(), path)
	if err != nil {
		return "", false
	}
	content = cleanContent(content)

	s.mu.Lock()
	if s.files[record.ID] == nil {
		s.files[record.ID] = make(map[string]string)
	}
	s.files[record.ID][path] = content
	s.mu.Unlock()

	return content, true
}
