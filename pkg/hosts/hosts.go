package hosts

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/pkgrepo/pkg/integrations"
)

// ErrNotApplicable is returned when no registered provider recognizes a
// details URL.
var ErrNotApplicable = errors.New("no host provider recognizes url")

// Provider turns a code hosting "details" URL into repository-level and
// release-level metadata.
type Provider interface {
	// Name returns the provider identifier (e.g., "github").
	Name() string
	// CanHandle reports whether the provider recognizes the URL shape.
	// Recognition is mutually exclusive across the built-in providers.
	CanHandle(url string) bool
	// RepoInfo returns name, description, homepage and author.
	RepoInfo(ctx context.Context, url string) (*integrations.RepoInfo, error)
	// DownloadInfo returns the archive URL, version and date of the
	// release the URL points at.
	DownloadInfo(ctx context.Context, url string) (*integrations.DownloadInfo, error)
}

// Registry is an ordered list of providers. The first provider whose
// CanHandle matches a URL serves it.
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry that consults providers in the given order.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Names lists the registered providers in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// For returns the provider responsible for url, or [ErrNotApplicable].
func (r *Registry) For(url string) (Provider, error) {
	for _, p := range r.providers {
		if p.CanHandle(url) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotApplicable, url)
}

// RepoInfo looks up repository metadata through the responsible provider.
func (r *Registry) RepoInfo(ctx context.Context, url string) (*integrations.RepoInfo, error) {
	p, err := r.For(url)
	if err != nil {
		return nil, err
	}
	return p.RepoInfo(ctx, url)
}

// DownloadInfo looks up release metadata through the responsible provider.
func (r *Registry) DownloadInfo(ctx context.Context, url string) (*integrations.DownloadInfo, error) {
	p, err := r.For(url)
	if err != nil {
		return nil, err
	}
	return p.DownloadInfo(ctx, url)
}
