// Package api serves resolved package repositories over HTTP.
//
// Routes:
//
//	GET /healthz                      liveness probe and build version
//	GET /v1/packages?repo=<url>       resolved packages, unavailable list and renames
//	GET /v1/renamed?repo=<url>        renamed-package map only
//
// Errors are reported as {"error": ..., "code": ...} with a status derived
// from the error code.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pkgrepo/pkg/buildinfo"
	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
	"github.com/matzehuels/pkgrepo/pkg/resolve"
)

// Resolver builds a provider for a repository URL.
type Resolver interface {
	Provider(repoURL string) resolve.Provider
}

// ResolverFunc adapts a function to [Resolver].
type ResolverFunc func(repoURL string) resolve.Provider

// Provider calls f.
func (f ResolverFunc) Provider(repoURL string) resolve.Provider { return f(repoURL) }

// PackagesResponse is the body of GET /v1/packages.
type PackagesResponse struct {
	Repository  string                    `json:"repository"`
	Packages    []resolve.ResolvedPackage `json:"packages"`
	Unavailable []string                  `json:"unavailable"`
	Renamed     map[string]string         `json:"renamed"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string         `json:"error"`
	Code  pkgerrors.Code `json:"code,omitempty"`
}

// Options configures the server.
type Options struct {
	Logger *log.Logger
	// Timeout bounds a single resolution. Zero means no limit beyond the
	// request context.
	Timeout time.Duration
}

type routes struct {
	resolver Resolver
	logger   *log.Logger
	timeout  time.Duration
}

// NewServer returns the router for the package API.
func NewServer(resolver Resolver, opts Options) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	rr := &routes{resolver: resolver, logger: opts.Logger, timeout: opts.Timeout}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(opts.Logger))

	r.Get("/healthz", healthHandler)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/packages", rr.listPackages)
		r.Get("/renamed", rr.listRenamed)
	})
	return r
}

func loggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (rr *routes) provider(w http.ResponseWriter, r *http.Request) (resolve.Provider, string, bool) {
	repo := r.URL.Query().Get("repo")
	if err := pkgerrors.ValidateURL(repo); err != nil {
		writeError(w, err)
		return nil, "", false
	}
	return rr.resolver.Provider(repo), repo, true
}

func (rr *routes) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if rr.timeout > 0 {
		return context.WithTimeout(r.Context(), rr.timeout)
	}
	return context.WithCancel(r.Context())
}

func (rr *routes) listPackages(w http.ResponseWriter, r *http.Request) {
	p, repo, ok := rr.provider(w, r)
	if !ok {
		return
	}
	ctx, cancel := rr.withTimeout(r)
	defer cancel()

	res, err := p.Packages(ctx)
	if err != nil {
		rr.logger.Warn("resolve failed", "repository", repo, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PackagesResponse{
		Repository:  repo,
		Packages:    res.Sorted(),
		Unavailable: res.Unavailable,
		Renamed:     res.Renamed,
	})
}

func (rr *routes) listRenamed(w http.ResponseWriter, r *http.Request) {
	p, repo, ok := rr.provider(w, r)
	if !ok {
		return
	}
	ctx, cancel := rr.withTimeout(r)
	defer cancel()

	renamed, err := p.Renamed(ctx)
	if err != nil {
		rr.logger.Warn("renamed lookup failed", "repository", repo, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	switch codeOf(err) {
	case pkgerrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case pkgerrors.ErrCodeInvalidManifest, pkgerrors.ErrCodeInvalidSchemaVersion:
		return http.StatusUnprocessableEntity
	case pkgerrors.ErrCodeManifestUnreadable, pkgerrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case pkgerrors.ErrCodeNotFound, pkgerrors.ErrCodePackageNotFound:
		return http.StatusNotFound
	case pkgerrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case pkgerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case pkgerrors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(err error) pkgerrors.Code {
	var rl *pkgerrors.RateLimitedError
	if errors.As(err, &rl) {
		return rl.Code()
	}
	return pkgerrors.GetCode(err)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), ErrorResponse{
		Error: pkgerrors.UserMessage(err),
		Code:  codeOf(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
