package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
)

const (
	providerName = "gitlab"
	perPage      = 100
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

// Provider implements domain.Provider for GitLab groups.
type Provider struct {
	client *gl.Client
}

// New creates a new GitLab provider from the provider config. An empty URL
// targets gitlab.com.
func New(cfg config.ProviderConfig) (domain.Provider, error) {
	var opts []gl.ClientOptionFunc
	if cfg.URL != "" {
		opts = append(opts, gl.WithBaseURL(cfg.URL))
	}

	client, err := gl.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string { return providerName }

// ListGroupProjects lists all projects in a GitLab group, including
// subgroups.
func (p *Provider) ListGroupProjects(
	ctx context.Context,
	group string,
) ([]domain.ProjectHandle, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var handles []domain.ProjectHandle
	opts := &gl.ListGroupProjectsOptions{
		ListOptions:      gl.ListOptions{PerPage: perPage},
		IncludeSubGroups: gl.Ptr(true),
	}

	for {
		projects, resp, err := p.client.Groups.ListGroupProjects(
			group, opts, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, classify(resp, fmt.Errorf(
				"failed to list projects in group %q: %w", group, err,
			))
		}

		for _, proj := range projects {
			handles = append(handles, toHandle(proj))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return handles, nil
}

// GetProjectDetails refreshes the handle with full project metadata.
func (p *Provider) GetProjectDetails(
	ctx context.Context,
	handle domain.ProjectHandle,
) (domain.ProjectHandle, error) {
	if p.client == nil {
		return handle, errClientNotInitialized
	}

	proj, resp, err := p.client.Projects.GetProject(
		pid(handle), nil, gl.WithContext(ctx),
	)
	if err != nil {
		return handle, classify(resp, fmt.Errorf(
			"failed to get project %q: %w", handle.Path, err,
		))
	}

	return toHandle(proj), nil
}

// GetProjectTree returns the recursive blob listing of the default ref.
func (p *Provider) GetProjectTree(
	ctx context.Context,
	handle domain.ProjectHandle,
) ([]string, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var paths []string
	opts := &gl.ListTreeOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Ref:         gl.Ptr(handle.DefaultRef),
		Recursive:   gl.Ptr(true),
	}

	for {
		nodes, resp, err := p.client.Repositories.ListTree(
			pid(handle), opts, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, classify(resp, fmt.Errorf(
				"failed to list tree of %q: %w", handle.Path, err,
			))
		}

		for _, node := range nodes {
			if node.Type == "blob" {
				paths = append(paths, node.Path)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return paths, nil
}

// GetFileContent reads a single file from the default ref.
func (p *Provider) GetFileContent(
	ctx context.Context,
	handle domain.ProjectHandle,
	path string,
) (string, error) {
	if p.client == nil {
		return "", errClientNotInitialized
	}

	raw, resp, err := p.client.RepositoryFiles.GetRawFile(
		pid(handle), path,
		&gl.GetRawFileOptions{Ref: gl.Ptr(handle.DefaultRef)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return "", classify(resp, fmt.Errorf(
			"failed to get file %q: %w", path, err,
		))
	}

	return string(raw), nil
}

// pid picks the project identifier the API accepts: the numeric ID when we
// have one, the namespace path otherwise.
func pid(handle domain.ProjectHandle) any {
	if id, err := strconv.Atoi(handle.ID); err == nil {
		return id
	}
	return handle.Path
}

func toHandle(proj *gl.Project) domain.ProjectHandle {
	defaultBranch := proj.DefaultBranch
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	return domain.ProjectHandle{
		ID:         strconv.Itoa(proj.ID),
		Name:       proj.Path,
		Path:       proj.PathWithNamespace,
		DefaultRef: defaultBranch,
		WebURL:     proj.WebURL,
	}
}

// classify maps provider 404s onto domain.ErrNotFound so the scanner can
// tell expected absence from real failures.
func classify(resp *gl.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}
