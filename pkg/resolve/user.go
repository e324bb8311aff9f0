package resolve

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
	"github.com/matzehuels/pkgrepo/pkg/integrations"
	"github.com/matzehuels/pkgrepo/pkg/integrations/github"
	"github.com/matzehuels/pkgrepo/pkg/observability"
	"github.com/matzehuels/pkgrepo/pkg/release"
)

// UserLister lists a GitHub account's repositories and resolves their
// downloads. It is implemented by *github.Client.
type UserLister interface {
	UserRepos(ctx context.Context, userURL string) ([]github.Repo, error)
	DownloadInfo(ctx context.Context, url string) (*integrations.DownloadInfo, error)
}

// GitHubUserProvider treats every repository of a GitHub user or
// organization as a package. Each package installs the head of its default
// branch on every platform, so nothing is ever unavailable or renamed.
type GitHubUserProvider struct {
	userURL string
	client  UserLister
	opts    Options
}

// NewGitHubUserProvider creates a provider for a https://github.com/<user> URL.
func NewGitHubUserProvider(userURL string, client UserLister, opts Options) *GitHubUserProvider {
	return &GitHubUserProvider{userURL: userURL, client: client, opts: opts.WithDefaults()}
}

// MatchURL reports whether the URL names a GitHub account.
func (p *GitHubUserProvider) MatchURL() bool {
	_, ok := github.MatchUserURL(p.userURL)
	return ok
}

// Packages resolves one package per repository of the account.
func (p *GitHubUserProvider) Packages(ctx context.Context) (res *Result, err error) {
	hooks := observability.Resolve()
	start := time.Now()
	hooks.OnResolveStart(ctx, p.userURL)
	defer func() {
		var resolved int
		if res != nil {
			resolved = len(res.Packages)
		}
		hooks.OnResolveComplete(ctx, p.userURL, resolved, 0, time.Since(start), err)
	}()

	repos, err := p.client.UserRepos(ctx, p.userURL)
	if err != nil {
		if cerr := pkgerrors.FromContext(ctx); cerr != nil {
			return nil, cerr
		}
		code := pkgerrors.ErrCodeNetwork
		if integrations.IsNotFound(err) {
			code = pkgerrors.ErrCodeNotFound
		}
		return nil, pkgerrors.Wrap(code, err, "error listing repositories of %s", p.userURL)
	}

	slots := make([]*ResolvedPackage, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, r := range repos {
		g.Go(func() error {
			dl, err := p.client.DownloadInfo(gctx, github.UserRepoURL(r))
			if err != nil {
				if gctx.Err() == nil {
					p.opts.Logger.Warn("skipping repository", "repo", r.FullName, "err", err)
					hooks.OnPackageSkipped(ctx, p.userURL, r.Name, string(pkgerrors.ErrCodeInvalidDetails))
				}
				return nil
			}
			slots[i] = userPackage(r, dl)
			return nil
		})
	}
	_ = g.Wait()
	if cerr := pkgerrors.FromContext(ctx); cerr != nil {
		return nil, cerr
	}

	res = newResult()
	for _, pkg := range slots {
		if pkg == nil {
			continue
		}
		if _, seen := res.Packages[pkg.Name]; !seen {
			res.Order = append(res.Order, pkg.Name)
		}
		res.Packages[pkg.Name] = *pkg
	}
	return res, nil
}

func userPackage(r github.Repo, dl *integrations.DownloadInfo) *ResolvedPackage {
	pkg := &ResolvedPackage{
		Name:         r.Name,
		Description:  r.Description,
		Author:       r.Owner,
		Homepage:     r.Homepage,
		LastModified: dl.Date,
		Download: release.Release{
			Platforms: []string{"*"},
			URL:       dl.URL,
			Version:   dl.Version,
			Date:      dl.Date,
		},
	}
	if pkg.Description == "" {
		pkg.Description = "No description provided"
	}
	if pkg.Homepage == "" {
		pkg.Homepage = r.HTMLURL
	}
	return pkg
}

// Renamed is always empty for a user provider.
func (p *GitHubUserProvider) Renamed(context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

// Unavailable is always empty for a user provider.
func (p *GitHubUserProvider) Unavailable() []string { return []string{} }
