package domain

import "context"

// ProjectHandle identifies a repository on a hosting provider. The ID is
// opaque and provider-assigned; Path is the namespace-qualified slug.
type ProjectHandle struct {
	ID         string
	Name       string
	Path       string
	DefaultRef string
	WebURL     string
}

// Provider abstracts the repository content source (GitLab, GitHub, a local
// clone, ...). Implementations handle authentication and pagination; callers
// only see project handles, file trees, and file contents.
//
// GetFileContent must return an error matching ErrNotFound for missing files
// and branches so the scanner can tell expected absence from real failures.
type Provider interface {
	// Name returns the provider identifier (e.g. "gitlab", "github", "local").
	Name() string

	// ListGroupProjects lists every project in a group/organization,
	// including subgroups where the provider supports them.
	ListGroupProjects(ctx context.Context, group string) ([]ProjectHandle, error)

	// GetProjectDetails refreshes the handle with full project metadata.
	GetProjectDetails(ctx context.Context, handle ProjectHandle) (ProjectHandle, error)

	// GetProjectTree returns the recursive file listing (blob paths only)
	// of the project's default ref.
	GetProjectTree(ctx context.Context, handle ProjectHandle) ([]string, error)

	// GetFileContent reads one file from the project's default ref.
	GetFileContent(ctx context.Context, handle ProjectHandle, path string) (string, error)
}

// ContentReader gives analyzers read access to the file contents collected
// during a scan without going back to the provider for every file.
type ContentReader interface {
	// FileContent returns the content of path in the given repository and
	// whether it could be obtained.
	FileContent(ctx context.Context, record *Record, path string) (string, bool)
}
