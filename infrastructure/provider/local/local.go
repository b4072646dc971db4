package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
)

const providerName = "local"

// Provider implements domain.Provider over a directory of local git clones.
// The configured URL is the root directory; a "group" is a subdirectory of
// it, and every git repository directly below the group becomes a project.
// Files are read from the HEAD commit, not the working tree, so the provider
// sees the same content a remote provider would.
type Provider struct {
	root string
}

// New creates a local provider rooted at the configured directory.
func New(cfg config.ProviderConfig) (domain.Provider, error) {
	info, err := os.Stat(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open clone root %q: %w", cfg.URL, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("clone root %q is not a directory", cfg.URL)
	}
	return &Provider{root: cfg.URL}, nil
}

func (p *Provider) Name() string { return providerName }

// ListGroupProjects lists every git repository directly below the group
// directory. Non-repository directories are skipped.
func (p *Provider) ListGroupProjects(
	ctx context.Context,
	group string,
) ([]domain.ProjectHandle, error) {
	dir := filepath.Join(p.root, filepath.FromSlash(group))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: group directory %q", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("failed to read group directory %q: %w", dir, err)
	}

	var handles []domain.ProjectHandle
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !entry.IsDir() {
			continue
		}

		repoDir := filepath.Join(dir, entry.Name())
		handle, openErr := p.openHandle(repoDir, group, entry.Name())
		if openErr != nil {
			continue
		}
		handles = append(handles, handle)
	}

	return handles, nil
}

// GetProjectDetails re-reads the repository metadata from disk.
func (p *Provider) GetProjectDetails(
	_ context.Context,
	handle domain.ProjectHandle,
) (domain.ProjectHandle, error) {
	refreshed, err := p.openHandle(handle.ID, filepath.Dir(handle.Path), handle.Name)
	if err != nil {
		return handle, err
	}
	refreshed.Path = handle.Path
	return refreshed, nil
}

// GetProjectTree returns every file path in the HEAD commit tree.
func (p *Provider) GetProjectTree(
	_ context.Context,
	handle domain.ProjectHandle,
) ([]string, error) {
	tree, err := p.headTree(handle)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tree of %q: %w", handle.Path, err)
	}

	return paths, nil
}

// GetFileContent reads one file from the HEAD commit tree.
func (p *Provider) GetFileContent(
	_ context.Context,
	handle domain.ProjectHandle,
	path string,
) (string, error) {
	tree, err := p.headTree(handle)
	if err != nil {
		return "", err
	}

	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %q", domain.ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to open file %q: %w", path, err)
	}

	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}

	return content, nil
}

func (p *Provider) openHandle(repoDir, group, name string) (domain.ProjectHandle, error) {
	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return domain.ProjectHandle{}, fmt.Errorf(
			"failed to open repository %q: %w", repoDir, err,
		)
	}

	defaultRef := "main"
	if head, headErr := repo.Head(); headErr == nil {
		defaultRef = head.Name().Short()
	}

	path := name
	if group != "" && group != "." {
		path = group + "/" + name
	}

	return domain.ProjectHandle{
		ID:         repoDir,
		Name:       name,
		Path:       path,
		DefaultRef: defaultRef,
		WebURL:     "file://" + repoDir,
	}, nil
}

func (p *Provider) headTree(handle domain.ProjectHandle) (*object.Tree, error) {
	repo, err := git.PlainOpen(handle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %q: %w", handle.ID, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("%w: repository %q has no HEAD", domain.ErrNotFound, handle.Path)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD of %q: %w", handle.Path, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %q: %w", handle.Path, err)
	}

	return tree, nil
}
