package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
)

const (
	providerName = "github"
	perPage      = 100
)

// Provider implements domain.Provider for GitHub organizations.
type Provider struct {
	client *gh.Client
}

// New creates a new GitHub provider from the provider config.
func New(cfg config.ProviderConfig) (domain.Provider, error) {
	httpClient := http.DefaultClient
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := gh.NewClient(httpClient)
	if cfg.URL != "" {
		enterprise, err := client.WithEnterpriseURLs(cfg.URL, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise URL %q: %w", cfg.URL, err)
		}
		client = enterprise
	}

	return &Provider{client: client}, nil
}

func (p *Provider) Name() string { return providerName }

// ListGroupProjects lists all repositories of an organization, falling back
// to user repositories when the organization does not exist.
func (p *Provider) ListGroupProjects(
	ctx context.Context,
	group string,
) ([]domain.ProjectHandle, error) {
	var handles []domain.ProjectHandle
	opts := &gh.RepositoryListByOrgOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	for {
		repos, resp, err := p.client.Repositories.ListByOrg(ctx, group, opts)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return p.listUserRepositories(ctx, group)
			}
			return nil, fmt.Errorf("failed to list repositories of %q: %w", group, err)
		}

		for _, repo := range repos {
			handles = append(handles, toHandle(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return handles, nil
}

func (p *Provider) listUserRepositories(
	ctx context.Context,
	user string,
) ([]domain.ProjectHandle, error) {
	var handles []domain.ProjectHandle
	opts := &gh.RepositoryListByUserOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	for {
		repos, resp, err := p.client.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, classify(resp, fmt.Errorf(
				"failed to list repositories of user %q: %w", user, err,
			))
		}

		for _, repo := range repos {
			handles = append(handles, toHandle(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return handles, nil
}

// GetProjectDetails refreshes the handle with full repository metadata.
func (p *Provider) GetProjectDetails(
	ctx context.Context,
	handle domain.ProjectHandle,
) (domain.ProjectHandle, error) {
	owner, name, err := splitPath(handle.Path)
	if err != nil {
		return handle, err
	}

	repo, resp, err := p.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return handle, classify(resp, fmt.Errorf(
			"failed to get repository %q: %w", handle.Path, err,
		))
	}

	return toHandle(repo), nil
}

// GetProjectTree returns the recursive blob listing of the default ref.
func (p *Provider) GetProjectTree(
	ctx context.Context,
	handle domain.ProjectHandle,
) ([]string, error) {
	owner, name, err := splitPath(handle.Path)
	if err != nil {
		return nil, err
	}

	tree, resp, err := p.client.Git.GetTree(ctx, owner, name, handle.DefaultRef, true)
	if err != nil {
		return nil, classify(resp, fmt.Errorf(
			"failed to list tree of %q: %w", handle.Path, err,
		))
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			paths = append(paths, entry.GetPath())
		}
	}

	return paths, nil
}

// GetFileContent reads a single file from the default ref.
func (p *Provider) GetFileContent(
	ctx context.Context,
	handle domain.ProjectHandle,
	path string,
) (string, error) {
	owner, name, err := splitPath(handle.Path)
	if err != nil {
		return "", err
	}

	file, _, resp, err := p.client.Repositories.GetContents(
		ctx, owner, name, path,
		&gh.RepositoryContentGetOptions{Ref: handle.DefaultRef},
	)
	if err != nil {
		return "", classify(resp, fmt.Errorf(
			"failed to get file %q: %w", path, err,
		))
	}
	if file == nil {
		// GetContents returns a directory listing for directory paths.
		return "", fmt.Errorf("%w: %q is not a file", domain.ErrNotFound, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode file %q: %w", path, err)
	}

	return content, nil
}

func splitPath(path string) (string, string, error) {
	owner, name, found := strings.Cut(path, "/")
	if !found || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository path %q", path)
	}
	return owner, name, nil
}

func toHandle(repo *gh.Repository) domain.ProjectHandle {
	defaultBranch := repo.GetDefaultBranch()
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	return domain.ProjectHandle{
		ID:         strconv.FormatInt(repo.GetID(), 10),
		Name:       repo.GetName(),
		Path:       repo.GetFullName(),
		DefaultRef: defaultBranch,
		WebURL:     repo.GetHTMLURL(),
	}
}

func classify(resp *gh.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}
