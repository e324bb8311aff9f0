package github

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/pkgrepo/pkg/cache"
	"github.com/matzehuels/pkgrepo/pkg/integrations"
)

const (
	apiURL      = "https://api.github.com"
	codeloadURL = "https://codeload.github.com"

	// maxUserPages bounds pagination of a user's repository listing.
	maxUserPages = 10
	perPage      = 100
)

var (
	repoURLPattern = regexp.MustCompile(`^https?://github\.com/([^/?#]+)/([^/?#]+?)(?:\.git)?(?:/tree/([^?#]+?)|/(tags))?/?$`)
	userURLPattern = regexp.MustCompile(`^https?://github\.com/([^/?#]+)/?$`)
)

// Client provides access to the GitHub API for repository and download
// metadata. It handles HTTP requests with caching, automatic retries, and
// optional authentication.
type Client struct {
	*integrations.Client
	baseURL     string
	prereleases bool
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower rate limits).
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	base := integrations.NewClient(backend, "github:", cacheTTL, headers)
	base.WithKeyer(cache.TokenKeyer(token))
	return &Client{
		Client:  base,
		baseURL: apiURL,
	}
}

// WithPrereleases makes tag-based downloads consider prerelease versions.
func (c *Client) WithPrereleases(enabled bool) *Client {
	c.prereleases = enabled
	return c
}

// Name identifies the host.
func (c *Client) Name() string { return "github" }

// CanHandle reports whether url is a GitHub repository details URL.
func (c *Client) CanHandle(url string) bool {
	_, ok := parseRepoURL(url)
	return ok
}

// repoRef is a parsed details URL.
type repoRef struct {
	owner, repo string
	branch      string // empty selects the default branch
	tags        bool
}

func parseRepoURL(raw string) (repoRef, bool) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return repoRef{}, false
	}
	ref := repoRef{owner: m[1], repo: m[2], branch: m[3], tags: m[4] != ""}
	if ValidateRepoRef(ref.owner, ref.repo) != nil {
		return repoRef{}, false
	}
	if ref.branch != "" && ValidateBranch(ref.branch) != nil {
		return repoRef{}, false
	}
	return ref, true
}

// MatchUserURL extracts the user from a https://github.com/<user> URL.
func MatchUserURL(raw string) (user string, ok bool) {
	m := userURLPattern.FindStringSubmatch(raw)
	if m == nil || ValidateOwner(m[1]) != nil {
		return "", false
	}
	return m[1], true
}

// RepoInfo fetches repository-level metadata for a details URL.
func (c *Client) RepoInfo(ctx context.Context, url string) (*integrations.RepoInfo, error) {
	ref, ok := parseRepoURL(url)
	if !ok {
		return nil, fmt.Errorf("github: unrecognized url %q", url)
	}
	data, err := c.fetchRepo(ctx, ref.owner, ref.repo)
	if err != nil {
		return nil, err
	}

	info := repoInfo(data)
	branch := ref.branch
	if branch == "" {
		branch = data.DefaultBranch
	}
	if readme, err := c.fetchReadme(ctx, ref.owner, ref.repo, branch); err == nil {
		info.Readme = readme
	}
	return info, nil
}

func repoInfo(data *apiRepoResponse) *integrations.RepoInfo {
	info := &integrations.RepoInfo{
		Name:        data.Name,
		Description: data.Description,
		Homepage:    data.Homepage,
		Author:      data.Owner.Login,
	}
	if info.Description == "" {
		info.Description = "No description provided"
	}
	if info.Homepage == "" {
		info.Homepage = data.HTMLURL
	}
	if data.HasIssues {
		info.Issues = data.HTMLURL + "/issues"
	}
	return info
}

// DownloadInfo resolves the archive of a details URL. A /tags URL yields the
// highest version tag; any other URL yields the head of its branch.
func (c *Client) DownloadInfo(ctx context.Context, url string) (*integrations.DownloadInfo, error) {
	ref, ok := parseRepoURL(url)
	if !ok {
		return nil, fmt.Errorf("github: unrecognized url %q", url)
	}
	if ref.tags {
		return c.tagDownload(ctx, ref)
	}

	branch := ref.branch
	if branch == "" {
		data, err := c.fetchRepo(ctx, ref.owner, ref.repo)
		if err != nil {
			return nil, err
		}
		branch = data.DefaultBranch
	}
	date, err := c.commitDate(ctx, ref.owner, ref.repo, branch)
	if err != nil {
		return nil, err
	}
	return &integrations.DownloadInfo{
		Version: integrations.CommitVersion(date),
		URL:     archiveURL(ref.owner, ref.repo, branch),
		Date:    integrations.FormatDate(date),
	}, nil
}

func (c *Client) tagDownload(ctx context.Context, ref repoRef) (*integrations.DownloadInfo, error) {
	var tags []apiTagResponse
	url := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=%d", c.baseURL, ref.owner, ref.repo, perPage)
	if err := c.Get(ctx, url, &tags); err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	tag, version, ok := integrations.LatestTag(names, c.prereleases)
	if !ok {
		return nil, fmt.Errorf("%w: no version tags in github repo %s/%s", integrations.ErrNotFound, ref.owner, ref.repo)
	}
	date, err := c.commitDate(ctx, ref.owner, ref.repo, tag)
	if err != nil {
		return nil, err
	}
	return &integrations.DownloadInfo{
		Version: version,
		URL:     archiveURL(ref.owner, ref.repo, tag),
		Date:    integrations.FormatDate(date),
	}, nil
}

// UserRepos lists the public repositories of the user behind a
// https://github.com/<user> URL, skipping forks and archived repositories.
func (c *Client) UserRepos(ctx context.Context, userURL string) ([]Repo, error) {
	user, ok := MatchUserURL(userURL)
	if !ok {
		return nil, fmt.Errorf("github: not a user url %q", userURL)
	}

	var repos []Repo
	for page := 1; page <= maxUserPages; page++ {
		var data []apiRepoResponse
		url := fmt.Sprintf("%s/users/%s/repos?per_page=%d&page=%d", c.baseURL, user, perPage, page)
		if err := c.Get(ctx, url, &data); err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return nil, fmt.Errorf("%w: github user %s", err, user)
			}
			return nil, err
		}
		for _, r := range data {
			if r.Fork || r.Archived {
				continue
			}
			repos = append(repos, Repo{
				Name:          r.Name,
				FullName:      r.FullName,
				Description:   r.Description,
				Homepage:      r.Homepage,
				HTMLURL:       r.HTMLURL,
				Owner:         r.Owner.Login,
				DefaultBranch: r.DefaultBranch,
			})
		}
		if len(data) < perPage {
			break
		}
	}
	return repos, nil
}

func (c *Client) fetchRepo(ctx context.Context, owner, repo string) (*apiRepoResponse, error) {
	var data apiRepoResponse
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: github repo %s/%s", err, owner, repo)
		}
		return nil, err
	}
	return &data, nil
}

func (c *Client) commitDate(ctx context.Context, owner, repo, ref string) (time.Time, error) {
	var data []apiCommitResponse
	url := fmt.Sprintf("%s/repos/%s/%s/commits?sha=%s&per_page=1",
		c.baseURL, owner, repo, integrations.PathEscape(ref))
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return time.Time{}, fmt.Errorf("%w: github ref %s/%s@%s", err, owner, repo, ref)
		}
		return time.Time{}, err
	}
	if len(data) == 0 {
		return time.Time{}, fmt.Errorf("%w: no commits at %s/%s@%s", integrations.ErrNotFound, owner, repo, ref)
	}
	return data[0].Commit.Committer.Date, nil
}

func (c *Client) fetchReadme(ctx context.Context, owner, repo, ref string) (string, error) {
	var data struct {
		DownloadURL string `json:"download_url"`
	}
	url := fmt.Sprintf("%s/repos/%s/%s/readme?ref=%s", c.baseURL, owner, repo, integrations.PathEscape(ref))
	if err := c.Get(ctx, url, &data); err != nil {
		return "", err
	}
	return data.DownloadURL, nil
}

// UserRepoURL returns the details URL of a repository listed by [Client.UserRepos].
func UserRepoURL(r Repo) string {
	return "https://github.com/" + r.Owner + "/" + r.Name
}

func archiveURL(owner, repo, ref string) string {
	return fmt.Sprintf("%s/%s/%s/zip/%s", codeloadURL, owner, repo, strings.TrimPrefix(ref, "/"))
}
