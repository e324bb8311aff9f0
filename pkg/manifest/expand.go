package manifest

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
)

// DefaultWorkers bounds concurrent include fetches.
const DefaultWorkers = 8

// Fetcher retrieves the raw bytes behind a URL. It is implemented by
// integrations.Client, which owns retries and caching.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Expander flattens a root manifest and its includes into one package list.
type Expander struct {
	Fetcher Fetcher
	Logger  *log.Logger
	Workers int
}

// NewExpander creates an expander. A nil logger selects log.Default() and
// a non-positive workers value selects [DefaultWorkers].
func NewExpander(f Fetcher, logger *log.Logger, workers int) *Expander {
	if logger == nil {
		logger = log.Default()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Expander{Fetcher: f, Logger: logger, Workers: workers}
}

// Expand fetches rootURL and every manifest it includes. The returned list
// holds the root's packages followed by each include's packages in
// include-list order. An include that is not an absolute http(s) URL after
// resolution, or that fails to load, is logged and contributes nothing;
// only a failure of the root aborts.
func (e *Expander) Expand(ctx context.Context, rootURL string) ([]RawPackage, *Manifest, error) {
	if err := pkgerrors.ValidateURL(rootURL); err != nil {
		return nil, nil, err
	}
	data, err := e.Fetcher.Fetch(ctx, rootURL)
	if err != nil {
		if cerr := pkgerrors.FromContext(ctx); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.ErrCodeManifestUnreadable, err, "error downloading repository %s", rootURL)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.GetCode(err), err, "repository %s is not a valid repository file", rootURL)
	}

	pkgs := append([]RawPackage(nil), m.Packages...)
	if len(m.Includes) == 0 {
		return pkgs, m, nil
	}

	base, _ := url.Parse(rootURL)
	slots := make([][]RawPackage, len(m.Includes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers)
	for i, ref := range m.Includes {
		include := ResolveInclude(base, ref)
		g.Go(func() error {
			slots[i] = e.fetchInclude(gctx, include)
			return nil
		})
	}
	_ = g.Wait()

	if cerr := pkgerrors.FromContext(ctx); cerr != nil {
		return nil, nil, cerr
	}
	for _, s := range slots {
		pkgs = append(pkgs, s...)
	}
	return pkgs, m, nil
}

func (e *Expander) fetchInclude(ctx context.Context, include string) []RawPackage {
	if err := pkgerrors.ValidateURL(include); err != nil {
		e.Logger.Warn("skipping invalid include", "url", include, "err", err)
		return nil
	}
	data, err := e.Fetcher.Fetch(ctx, include)
	if err != nil {
		if ctx.Err() == nil {
			e.Logger.Warn("include fetch failed", "url", include, "err", err)
		}
		return nil
	}
	pkgs, err := ParseInclude(data)
	if err != nil {
		e.Logger.Warn("error parsing JSON from repository", "url", include)
		return nil
	}
	e.Logger.Debug("included repository", "url", include, "packages", len(pkgs))
	return pkgs
}

// ResolveInclude resolves an include reference against the root manifest
// URL. References starting with "./" or "../" are joined to the directory
// of the root path; anything else is returned unchanged.
func ResolveInclude(root *url.URL, ref string) string {
	if root == nil || !(strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../")) {
		return ref
	}
	dir := root.Path
	if dir == "" {
		dir = "/"
	}
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir)
	}
	u := url.URL{Scheme: root.Scheme, Host: root.Host, Path: path.Join(dir, ref)}
	return u.String()
}
