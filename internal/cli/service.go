package cli

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgrepo/pkg/cache"
	"github.com/matzehuels/pkgrepo/pkg/hosts"
	"github.com/matzehuels/pkgrepo/pkg/integrations"
	"github.com/matzehuels/pkgrepo/pkg/integrations/github"
	"github.com/matzehuels/pkgrepo/pkg/resolve"
)

// service wires the transport, the host providers and the resolver for one
// process. It is shared by the resolve and serve commands.
type service struct {
	cfg      Config
	backend  cache.Cache
	fetcher  *integrations.Client
	registry *hosts.Registry
	github   *github.Client
	logger   *log.Logger
}

// newService builds the collaborators described by cfg. Close releases
// the cache backend.
func newService(ctx context.Context, cfg Config, o overrides, logger *log.Logger) (*service, error) {
	integrations.SetUserAgent(cfg.UserAgent)

	backend, err := newCache(ctx, cfg, o.noCache)
	if err != nil {
		return nil, err
	}

	registry, gh := hosts.Default(backend, hosts.Options{
		GitHubToken:    cfg.GitHubToken,
		BitBucketToken: cfg.BitBucketToken,
		GitLabToken:    cfg.GitLabToken,
		CacheTTL:       cfg.CacheTTL,
		Timeout:        cfg.Timeout,
		Prereleases:    cfg.InstallPrereleases,
		Refresh:        o.refresh,
	})

	fetcher := integrations.NewClient(backend, "manifest:", cfg.CacheTTL, nil).
		WithHTTPClient(integrations.NewHTTPClientWithTimeout(cfg.Timeout)).
		WithRefresh(o.refresh)

	logger.Debug("service ready", "hosts", registry.Names(), "target", cfg.Target().Tag(), "host_version", cfg.HostVersion)
	return &service{
		cfg:      cfg,
		backend:  backend,
		fetcher:  fetcher,
		registry: registry,
		github:   gh,
		logger:   logger,
	}, nil
}

// Provider returns the provider for repoURL.
func (s *service) Provider(repoURL string) resolve.Provider {
	return resolve.ForURL(repoURL, resolve.Sources{
		Fetcher:  s.fetcher,
		Registry: s.registry,
		GitHub:   s.github,
	}, resolve.Options{
		Target:  s.cfg.Target(),
		Workers: s.cfg.Workers,
		Logger:  s.logger,
	})
}

func (s *service) Close() error {
	return s.backend.Close()
}
