package bitbucket

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/matzehuels/pkgrepo/pkg/cache"
	"github.com/matzehuels/pkgrepo/pkg/integrations"
)

const (
	apiURL = "https://api.bitbucket.org/2.0"
	webURL = "https://bitbucket.org"
)

var repoURLPattern = regexp.MustCompile(`^https?://bitbucket\.org/([^/?#]+)/([^/?#]+?)(?:\.git)?(?:/src/([^?#]+?)|/?#(tags))?/?$`)

// Client provides access to the BitBucket Cloud API (2.0) for repository
// and download metadata.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL     string
	prereleases bool
}

// NewClient creates a BitBucket API client. token is an app password or
// access token sent as a bearer credential; pass an empty string for
// anonymous access to public repositories.
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"Authorization": "Bearer " + token}
	}

	base := integrations.NewClient(backend, "bitbucket:", cacheTTL, headers)
	base.WithKeyer(cache.TokenKeyer(token))
	return &Client{Client: base, baseURL: apiURL}
}

// WithPrereleases makes tag-based downloads consider prerelease versions.
func (c *Client) WithPrereleases(enabled bool) *Client {
	c.prereleases = enabled
	return c
}

// Name identifies the host.
func (c *Client) Name() string { return "bitbucket" }

// CanHandle reports whether url is a BitBucket repository details URL.
func (c *Client) CanHandle(url string) bool {
	_, ok := parseRepoURL(url)
	return ok
}

type repoRef struct {
	workspace, repo string
	branch          string
	tags            bool
}

func parseRepoURL(raw string) (repoRef, bool) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return repoRef{}, false
	}
	return repoRef{workspace: m[1], repo: m[2], branch: m[3], tags: m[4] != ""}, true
}

func (r repoRef) api(base string) string {
	return fmt.Sprintf("%s/repositories/%s/%s", base, r.workspace, r.repo)
}

// RepoInfo fetches repository-level metadata for a details URL.
func (c *Client) RepoInfo(ctx context.Context, url string) (*integrations.RepoInfo, error) {
	ref, ok := parseRepoURL(url)
	if !ok {
		return nil, fmt.Errorf("bitbucket: unrecognized url %q", url)
	}
	r, err := c.fetchRepo(ctx, ref)
	if err != nil {
		return nil, err
	}

	info := &integrations.RepoInfo{
		Name:        r.Name,
		Description: r.Description,
		Homepage:    r.Website,
		Author:      r.Owner.Nickname,
	}
	if info.Description == "" {
		info.Description = "No description provided"
	}
	if info.Homepage == "" {
		info.Homepage = r.Links.HTML.Href
	}
	if info.Author == "" {
		info.Author = r.Owner.DisplayName
	}
	if r.HasIssues {
		info.Issues = r.Links.HTML.Href + "/issues"
	}
	return info, nil
}

// DownloadInfo resolves the archive of a details URL. A #tags URL yields the
// highest version tag; any other URL yields the head of its branch.
func (c *Client) DownloadInfo(ctx context.Context, url string) (*integrations.DownloadInfo, error) {
	ref, ok := parseRepoURL(url)
	if !ok {
		return nil, fmt.Errorf("bitbucket: unrecognized url %q", url)
	}
	if ref.tags {
		return c.tagDownload(ctx, ref)
	}

	branch := ref.branch
	if branch == "" {
		r, err := c.fetchRepo(ctx, ref)
		if err != nil {
			return nil, err
		}
		branch = r.MainBranch.Name
	}
	var b apiRef
	endpoint := ref.api(c.baseURL) + "/refs/branches/" + integrations.PathEscape(branch)
	if err := c.Get(ctx, endpoint, &b); err != nil {
		return nil, notFound(err, ref, branch)
	}
	return &integrations.DownloadInfo{
		Version: integrations.CommitVersion(b.Target.Date),
		URL:     archiveURL(ref, branch),
		Date:    integrations.FormatDate(b.Target.Date),
	}, nil
}

func (c *Client) tagDownload(ctx context.Context, ref repoRef) (*integrations.DownloadInfo, error) {
	var page struct {
		Values []apiRef `json:"values"`
	}
	endpoint := ref.api(c.baseURL) + "/refs/tags?sort=-target.date&pagelen=100"
	if err := c.Get(ctx, endpoint, &page); err != nil {
		return nil, notFound(err, ref, "")
	}

	names := make([]string, len(page.Values))
	dates := make(map[string]time.Time, len(page.Values))
	for i, t := range page.Values {
		names[i] = t.Name
		dates[t.Name] = t.Target.Date
	}
	tag, version, ok := integrations.LatestTag(names, c.prereleases)
	if !ok {
		return nil, fmt.Errorf("%w: no version tags in bitbucket repo %s/%s", integrations.ErrNotFound, ref.workspace, ref.repo)
	}
	return &integrations.DownloadInfo{
		Version: version,
		URL:     archiveURL(ref, tag),
		Date:    integrations.FormatDate(dates[tag]),
	}, nil
}

func (c *Client) fetchRepo(ctx context.Context, ref repoRef) (*apiRepo, error) {
	var r apiRepo
	if err := c.Get(ctx, ref.api(c.baseURL), &r); err != nil {
		return nil, notFound(err, ref, "")
	}
	return &r, nil
}

func notFound(err error, ref repoRef, branch string) error {
	if !errors.Is(err, integrations.ErrNotFound) {
		return err
	}
	if branch != "" {
		return fmt.Errorf("%w: bitbucket repo %s/%s@%s", err, ref.workspace, ref.repo, branch)
	}
	return fmt.Errorf("%w: bitbucket repo %s/%s", err, ref.workspace, ref.repo)
}

func archiveURL(ref repoRef, gitRef string) string {
	return fmt.Sprintf("%s/%s/%s/get/%s.zip", webURL, ref.workspace, ref.repo, gitRef)
}

type apiRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Website     string `json:"website"`
	HasIssues   bool   `json:"has_issues"`
	MainBranch  struct {
		Name string `json:"name"`
	} `json:"mainbranch"`
	Owner struct {
		Nickname    string `json:"nickname"`
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Links struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"links"`
}

// apiRef is a branch or tag with its target commit.
type apiRef struct {
	Name   string `json:"name"`
	Target struct {
		Date time.Time `json:"date"`
	} `json:"target"`
}
