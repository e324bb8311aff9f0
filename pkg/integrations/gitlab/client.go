package gitlab

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/matzehuels/pkgrepo/pkg/cache"
	"github.com/matzehuels/pkgrepo/pkg/integrations"
)

const webURL = "https://gitlab.com"

// Namespace segments never start with "-", which keeps "/-/tree" and
// "/-/tags" out of the project path.
var repoURLPattern = regexp.MustCompile(
	`^https?://gitlab\.com/((?:[a-zA-Z0-9_.][^/?#]*/)+[a-zA-Z0-9_.][^/?#]*?)(?:\.git)?(?:/-/tree/([^?#]+?)|/-/(tags))?/?$`)

// Client provides access to the GitLab API for repository and download
// metadata. It handles HTTP requests with caching, automatic retries, and
// optional authentication.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL     string
	prereleases bool
}

// NewClient creates a GitLab API client with optional authentication.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (nil disables caching)
//   - token: GitLab personal access token (empty string for unauthenticated)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"PRIVATE-TOKEN": token}
	}

	base := integrations.NewClient(backend, "gitlab:", cacheTTL, headers)
	base.WithKeyer(cache.TokenKeyer(token))
	return &Client{Client: base, baseURL: webURL + "/api/v4"}
}

// WithPrereleases makes tag-based downloads consider prerelease versions.
func (c *Client) WithPrereleases(enabled bool) *Client {
	c.prereleases = enabled
	return c
}

// Name identifies the host.
func (c *Client) Name() string { return "gitlab" }

// CanHandle reports whether url is a GitLab project details URL.
func (c *Client) CanHandle(url string) bool {
	_, ok := parseRepoURL(url)
	return ok
}

type projectRef struct {
	path   string // namespace/project, possibly with subgroups
	branch string
	tags   bool
}

func (r projectRef) id() string   { return integrations.PathEscape(r.path) }
func (r projectRef) name() string { return path.Base(r.path) }

func parseRepoURL(raw string) (projectRef, bool) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return projectRef{}, false
	}
	return projectRef{path: m[1], branch: m[2], tags: m[3] != ""}, true
}

// RepoInfo fetches project-level metadata for a details URL.
func (c *Client) RepoInfo(ctx context.Context, url string) (*integrations.RepoInfo, error) {
	ref, ok := parseRepoURL(url)
	if !ok {
		return nil, fmt.Errorf("gitlab: unrecognized url %q", url)
	}
	p, err := c.fetchProject(ctx, ref)
	if err != nil {
		return nil, err
	}

	info := &integrations.RepoInfo{
		Name:        p.Name,
		Description: p.Description,
		Homepage:    p.WebURL,
		Author:      p.Namespace.Path,
		Readme:      p.ReadmeURL,
	}
	if info.Description == "" {
		info.Description = "No description provided"
	}
	if p.IssuesEnabled {
		info.Issues = p.WebURL + "/-/issues"
	}
	return info, nil
}

// DownloadInfo resolves the archive of a details URL. A /-/tags URL yields
// the highest version tag; any other URL yields the head of its branch.
func (c *Client) DownloadInfo(ctx context.Context, url string) (*integrations.DownloadInfo, error) {
	ref, ok := parseRepoURL(url)
	if !ok {
		return nil, fmt.Errorf("gitlab: unrecognized url %q", url)
	}
	if ref.tags {
		return c.tagDownload(ctx, ref)
	}

	branch := ref.branch
	if branch == "" {
		p, err := c.fetchProject(ctx, ref)
		if err != nil {
			return nil, err
		}
		branch = p.DefaultBranch
	}
	var b apiRef
	endpoint := fmt.Sprintf("%s/projects/%s/repository/branches/%s", c.baseURL, ref.id(), integrations.PathEscape(branch))
	if err := c.Get(ctx, endpoint, &b); err != nil {
		return nil, notFound(err, ref.path+"@"+branch)
	}
	return &integrations.DownloadInfo{
		Version: integrations.CommitVersion(b.Commit.CommittedDate),
		URL:     archiveURL(ref, branch),
		Date:    integrations.FormatDate(b.Commit.CommittedDate),
	}, nil
}

func (c *Client) tagDownload(ctx context.Context, ref projectRef) (*integrations.DownloadInfo, error) {
	var tags []apiRef
	endpoint := fmt.Sprintf("%s/projects/%s/repository/tags?per_page=100", c.baseURL, ref.id())
	if err := c.Get(ctx, endpoint, &tags); err != nil {
		return nil, notFound(err, ref.path)
	}

	names := make([]string, len(tags))
	dates := make(map[string]time.Time, len(tags))
	for i, t := range tags {
		names[i] = t.Name
		dates[t.Name] = t.Commit.CommittedDate
	}
	tag, version, ok := integrations.LatestTag(names, c.prereleases)
	if !ok {
		return nil, fmt.Errorf("%w: no version tags in gitlab project %s", integrations.ErrNotFound, ref.path)
	}
	return &integrations.DownloadInfo{
		Version: version,
		URL:     archiveURL(ref, tag),
		Date:    integrations.FormatDate(dates[tag]),
	}, nil
}

func (c *Client) fetchProject(ctx context.Context, ref projectRef) (*apiProject, error) {
	var p apiProject
	if err := c.Get(ctx, fmt.Sprintf("%s/projects/%s", c.baseURL, ref.id()), &p); err != nil {
		return nil, notFound(err, ref.path)
	}
	return &p, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return fmt.Errorf("%w: gitlab project %s", err, what)
	}
	return err
}

func archiveURL(ref projectRef, gitRef string) string {
	return fmt.Sprintf("%s/%s/-/archive/%s/%s-%s.zip", webURL, ref.path, gitRef, ref.name(), path.Base(gitRef))
}

type apiProject struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	WebURL        string `json:"web_url"`
	ReadmeURL     string `json:"readme_url"`
	DefaultBranch string `json:"default_branch"`
	IssuesEnabled bool   `json:"issues_enabled"`
	Namespace     struct {
		Path string `json:"path"`
	} `json:"namespace"`
}

// apiRef is a branch or tag with its head commit.
type apiRef struct {
	Name   string `json:"name"`
	Commit struct {
		CommittedDate time.Time `json:"committed_date"`
	} `json:"commit"`
}
