package resolve

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
	"github.com/matzehuels/pkgrepo/pkg/hosts"
	"github.com/matzehuels/pkgrepo/pkg/manifest"
	"github.com/matzehuels/pkgrepo/pkg/observability"
	"github.com/matzehuels/pkgrepo/pkg/release"
)

// Provider resolves one package repository.
type Provider interface {
	// MatchURL reports whether the provider can serve its repository URL.
	MatchURL() bool
	// Packages resolves every package. The result is rebuilt on each call.
	Packages(ctx context.Context) (*Result, error)
	// Renamed returns the old-to-new package name map.
	Renamed(ctx context.Context) (map[string]string, error)
	// Unavailable lists the packages of the last Packages call that have no
	// release for the target.
	Unavailable() []string
}

// Options configures a resolution.
type Options struct {
	Target  release.Target
	Workers int
	Logger  *log.Logger
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = manifest.DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// ManifestProvider resolves a repository described by a JSON manifest.
// The manifest and its includes are fetched once and memoized; resolution
// runs afresh on every call.
//
// All methods are safe for concurrent use.
type ManifestProvider struct {
	repoURL  string
	expander *manifest.Expander
	enricher *Enricher
	opts     Options

	fetchMu  sync.Mutex
	root     *manifest.Manifest
	packages []manifest.RawPackage

	mu          sync.Mutex
	unavailable []string
}

// NewManifestProvider creates a provider for the manifest at repoURL.
func NewManifestProvider(repoURL string, fetcher manifest.Fetcher, registry *hosts.Registry, opts Options) *ManifestProvider {
	opts = opts.WithDefaults()
	return &ManifestProvider{
		repoURL:  repoURL,
		expander: manifest.NewExpander(fetcher, opts.Logger, opts.Workers),
		enricher: NewEnricher(registry),
		opts:     opts,
	}
}

// MatchURL always reports true; any URL may point at a manifest.
func (p *ManifestProvider) MatchURL() bool { return true }

// fetch expands the manifest on first use. Failures are not memoized.
func (p *ManifestProvider) fetch(ctx context.Context) (*manifest.Manifest, []manifest.RawPackage, error) {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	if p.root != nil {
		return p.root, p.packages, nil
	}
	pkgs, root, err := p.expander.Expand(ctx, p.repoURL)
	if err != nil {
		return nil, nil, err
	}
	p.root, p.packages = root, pkgs
	return root, pkgs, nil
}

// Packages implements [Provider]; see [ManifestProvider.Resolve].
func (p *ManifestProvider) Packages(ctx context.Context) (*Result, error) {
	return p.Resolve(ctx)
}

// Resolve expands, normalizes, enriches and selects every package of the
// repository. Packages are normalized concurrently and merged in manifest
// order. A cancelled context yields a CANCELED or TIMEOUT error and no
// result.
func (p *ManifestProvider) Resolve(ctx context.Context) (res *Result, err error) {
	hooks := observability.Resolve()
	start := time.Now()
	hooks.OnResolveStart(ctx, p.repoURL)
	defer func() {
		var resolved, unavailable int
		if res != nil {
			resolved, unavailable = len(res.Packages), len(res.Unavailable)
		}
		hooks.OnResolveComplete(ctx, p.repoURL, resolved, unavailable, time.Since(start), err)
	}()

	logger := p.opts.Logger.With("run", uuid.NewString(), "repository", p.repoURL)

	root, pkgs, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	norm := normalizerFor(root.SchemaVersion, p.enricher, logger)
	slots := make([]*PackageDescriptor, len(pkgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, raw := range pkgs {
		g.Go(func() error {
			d, err := norm.normalize(gctx, raw)
			if err != nil {
				if gctx.Err() == nil {
					logger.Error("skipping package", "package", packageLabel(raw), "err", err)
					hooks.OnPackageSkipped(ctx, p.repoURL, packageLabel(raw), string(pkgerrors.GetCode(err)))
				}
				return nil
			}
			slots[i] = &d
			return nil
		})
	}
	_ = g.Wait()
	if cerr := pkgerrors.FromContext(ctx); cerr != nil {
		return nil, cerr
	}

	descs := make([]PackageDescriptor, 0, len(slots))
	names := make([]string, len(slots))
	for i, d := range slots {
		if d != nil {
			descs = append(descs, *d)
			names[i] = d.Name
		}
	}

	agg := &aggregator{
		repoURL: p.repoURL,
		target:  p.opts.Target,
		logger:  logger,
		skipped: func(name, reason string) { hooks.OnPackageSkipped(ctx, p.repoURL, name, reason) },
	}
	res = agg.aggregate(descs)
	res.Renamed = renamedPackages(root, pkgs, names)

	p.mu.Lock()
	p.unavailable = append([]string(nil), res.Unavailable...)
	p.mu.Unlock()

	logger.Debug("resolved repository", "packages", len(res.Packages), "unavailable", len(res.Unavailable))
	return res, nil
}

// Renamed returns the renamed-package map, fetching the manifest if needed.
// Packages that take their name from a details URL are only covered by
// the Renamed field of a full [ManifestProvider.Resolve].
func (p *ManifestProvider) Renamed(ctx context.Context) (map[string]string, error) {
	root, pkgs, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return renamedPackages(root, pkgs, nil), nil
}

// Unavailable returns the unavailable packages of the last Resolve call.
func (p *ManifestProvider) Unavailable() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.unavailable...)
}

// Sources groups the collaborators [ForURL] builds providers from.
type Sources struct {
	Fetcher  manifest.Fetcher
	Registry *hosts.Registry
	// GitHub lists user repositories; nil disables user URLs.
	GitHub UserLister
}

// ForURL returns the provider for repoURL, trying the most specific
// provider first: a GitHub account URL becomes a [GitHubUserProvider],
// anything else a [ManifestProvider].
func ForURL(repoURL string, src Sources, opts Options) Provider {
	if src.GitHub != nil {
		if up := NewGitHubUserProvider(repoURL, src.GitHub, opts); up.MatchURL() {
			return up
		}
	}
	return NewManifestProvider(repoURL, src.Fetcher, src.Registry, opts)
}
