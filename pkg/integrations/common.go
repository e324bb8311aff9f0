package integrations

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/matzehuels/pkgrepo/pkg/buildinfo"
	"github.com/matzehuels/pkgrepo/pkg/cache"
)

// DefaultTimeout is the per-request timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a repository, branch or tag doesn't exist.
	ErrNotFound = cache.ErrNotFound

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = cache.ErrNetwork
)

// RepoInfo holds repository-level metadata fetched from a hosting API.
type RepoInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Homepage    string `json:"homepage"`
	Author      string `json:"author"`
	Issues      string `json:"issues,omitempty"`
	Readme      string `json:"readme,omitempty"`
	Donate      string `json:"donate,omitempty"`
}

// DownloadInfo describes one downloadable archive of a repository at a
// branch head or a tag.
type DownloadInfo struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Date    string `json:"date"` // "2006-01-02 15:04:05", UTC

	// Platforms and HostVersion are optional; code hosts leave them empty.
	Platforms   []string `json:"platforms,omitempty"`
	HostVersion string   `json:"host_version,omitempty"`
}

// DateLayout is the timestamp layout used for release dates.
const DateLayout = "2006-01-02 15:04:05"

var userAgent = "pkgrepo/" + buildinfo.Version

// UserAgent returns the User-Agent header sent with every request.
func UserAgent() string { return userAgent }

// SetUserAgent overrides the User-Agent header for clients created afterwards.
func SetUserAgent(ua string) {
	if ua != "" {
		userAgent = ua
	}
}

// NewHTTPClient creates an HTTP client with the default request timeout.
func NewHTTPClient() *http.Client {
	return NewHTTPClientWithTimeout(DefaultTimeout)
}

// NewHTTPClientWithTimeout creates an HTTP client with the given timeout.
// A non-positive timeout selects [DefaultTimeout].
func NewHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// FormatDate renders t in [DateLayout] (UTC).
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// CommitVersion derives a version from a commit timestamp, for downloads of
// a branch head: "2024-03-01 12:30:00" becomes "2024.03.01.12.30.00".
func CommitVersion(t time.Time) string {
	return t.UTC().Format("2006.01.02.15.04.05")
}

// LatestTag returns the tag with the highest version among tags. Tags that
// do not parse as versions are ignored, as are prereleases unless
// prereleases is true. ok is false when no tag qualifies.
func LatestTag(tags []string, prereleases bool) (tag, ver string, ok bool) {
	type candidate struct {
		tag string
		v   *version.Version
	}
	var cands []candidate
	for _, t := range tags {
		v, err := version.NewVersion(t)
		if err != nil {
			continue
		}
		if v.Prerelease() != "" && !prereleases {
			continue
		}
		cands = append(cands, candidate{t, v})
	}
	if len(cands) == 0 {
		return "", "", false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].v.GreaterThan(cands[j].v)
	})
	best := cands[0].tag
	return best, strings.TrimPrefix(best, "v"), true
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, and git+ prefixes, and removes .git suffixes and
// trailing slashes. Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}

// PathEscape percent-encodes a string for use as a single URL path segment.
func PathEscape(s string) string { return url.PathEscape(s) }
