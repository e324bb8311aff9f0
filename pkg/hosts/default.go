package hosts

import (
	"time"

	"github.com/matzehuels/pkgrepo/pkg/cache"
	"github.com/matzehuels/pkgrepo/pkg/integrations"
	"github.com/matzehuels/pkgrepo/pkg/integrations/bitbucket"
	"github.com/matzehuels/pkgrepo/pkg/integrations/github"
	"github.com/matzehuels/pkgrepo/pkg/integrations/gitlab"
)

// Options configures the built-in providers.
type Options struct {
	GitHubToken    string
	BitBucketToken string
	GitLabToken    string

	// CacheTTL is how long API responses are cached.
	CacheTTL time.Duration
	// Timeout bounds each HTTP request. Zero selects the default.
	Timeout time.Duration
	// Prereleases lets tag-based downloads pick prerelease versions.
	Prereleases bool
	// Refresh bypasses cached responses.
	Refresh bool
}

// Default returns a registry of the GitHub, BitBucket and GitLab clients,
// in that priority order, sharing one cache backend. The GitHub client is
// also returned for user-level repository listings.
func Default(backend cache.Cache, opts Options) (*Registry, *github.Client) {
	httpClient := integrations.NewHTTPClientWithTimeout(opts.Timeout)
	configure := func(c *integrations.Client) { c.WithHTTPClient(httpClient).WithRefresh(opts.Refresh) }

	gh := github.NewClient(backend, opts.GitHubToken, opts.CacheTTL).WithPrereleases(opts.Prereleases)
	bb := bitbucket.NewClient(backend, opts.BitBucketToken, opts.CacheTTL).WithPrereleases(opts.Prereleases)
	gl := gitlab.NewClient(backend, opts.GitLabToken, opts.CacheTTL).WithPrereleases(opts.Prereleases)
	for _, c := range []*integrations.Client{gh.Client, bb.Client, gl.Client} {
		configure(c)
	}
	return NewRegistry(gh, bb, gl), gh
}
