package resolve

import (
	"context"

	"github.com/matzehuels/pkgrepo/pkg/hosts"
	"github.com/matzehuels/pkgrepo/pkg/integrations"
)

// Enricher overlays explicit manifest fields on metadata fetched from the
// code host behind a details URL.
type Enricher struct {
	registry *hosts.Registry
}

// NewEnricher creates an enricher backed by registry.
func NewEnricher(registry *hosts.Registry) *Enricher {
	if registry == nil {
		registry = hosts.NewRegistry()
	}
	return &Enricher{registry: registry}
}

// Repo returns repository fields for detailsURL with explicit fields taking
// precedence. The error is [hosts.ErrNotApplicable] when no provider
// recognizes the URL, or the provider's lookup error.
func (e *Enricher) Repo(ctx context.Context, explicit integrations.RepoInfo, detailsURL string) (integrations.RepoInfo, error) {
	info, err := e.registry.RepoInfo(ctx, detailsURL)
	if err != nil {
		return explicit, err
	}
	if info == nil {
		return explicit, hosts.ErrNotApplicable
	}
	return hosts.OverlayRepo(*info, explicit), nil
}

// Download returns release fields for detailsURL with explicit fields
// taking precedence.
func (e *Enricher) Download(ctx context.Context, explicit integrations.DownloadInfo, detailsURL string) (integrations.DownloadInfo, error) {
	info, err := e.registry.DownloadInfo(ctx, detailsURL)
	if err != nil {
		return explicit, err
	}
	if info == nil {
		return explicit, hosts.ErrNotApplicable
	}
	return hosts.OverlayDownload(*info, explicit), nil
}
