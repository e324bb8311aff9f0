package release

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
)

// Release is one downloadable version of a package.
type Release struct {
	// Platforms lists the tags the release installs on ("*", "windows",
	// "osx-x64"). An empty list means "*".
	Platforms   []string   `json:"platforms"`
	HostVersion Constraint `json:"host_version,omitempty"`
	URL         string     `json:"url"`
	Version     string     `json:"version,omitempty"`
	Date        string     `json:"date,omitempty"`
}

// Target is the runtime environment releases are selected for.
type Target struct {
	Platform    string // "windows", "osx" or "linux"
	Arch        string // "x32" or "x64"; may be empty
	HostVersion int    // host application build number
}

// Tag returns the full platform tag, e.g. "windows-x64".
func (t Target) Tag() string {
	if t.Arch == "" {
		return t.Platform
	}
	return t.Platform + "-" + t.Arch
}

// Platform specificity of a release for a target; higher is more specific.
const (
	noMatch = -1
	anyTag  = 0
	osTag   = 1
	fullTag = 2
)

// Specificity scores how precisely platforms names the target: an exact tag
// beats a platform prefix, which beats "*". It returns -1 when no tag
// applies.
func Specificity(platforms []string, t Target) int {
	if len(platforms) == 0 {
		return anyTag
	}
	tag := t.Tag()
	best := noMatch
	for _, p := range platforms {
		var s int
		switch {
		case p == tag:
			s = fullTag
		case p != "" && strings.HasPrefix(tag, p+"-"):
			s = osTag
		case p == "*":
			s = anyTag
		default:
			continue
		}
		best = max(best, s)
	}
	return best
}

// Eligible reports whether r installs on t.
func Eligible(r Release, t Target) bool {
	return Specificity(r.Platforms, t) != noMatch && r.HostVersion.Satisfied(t.HostVersion)
}

type candidate struct {
	Release
	index int
	score int
}

func eligible(releases []Release, t Target) (cands []candidate, versioned bool) {
	for i, rel := range releases {
		if !Eligible(rel, t) {
			continue
		}
		cands = append(cands, candidate{rel, i, Specificity(rel.Platforms, t)})
		versioned = versioned || rel.Version != ""
	}
	return cands, versioned
}

// Select picks the best eligible release for t. Releases are ordered by
// version (highest first), then date (most recent first), then platform
// specificity, then declared order. When no eligible release carries a
// version it behaves like [SelectPlatform]. ok is false when nothing is
// eligible.
func Select(releases []Release, t Target) (r Release, ok bool) {
	cands, versioned := eligible(releases, t)
	if !versioned {
		return bestPlatform(cands)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if c := CompareVersions(a.Version, b.Version); c != 0 {
			return c > 0
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.index < b.index
	})
	return cands[0].Release, true
}

// SelectPlatform picks the eligible release with the most specific platform
// tag, ties going to declared order. Versions are not consulted; this is
// the selection used for per-platform schema 1.x downloads.
func SelectPlatform(releases []Release, t Target) (r Release, ok bool) {
	cands, _ := eligible(releases, t)
	return bestPlatform(cands)
}

func bestPlatform(cands []candidate) (Release, bool) {
	if len(cands) == 0 {
		return Release{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return best.Release, true
}

// CompareVersions compares two version strings, returning -1, 0 or 1.
// An empty version sorts lowest, then unparseable versions in lexical
// order, then parseable versions in numeric order.
func CompareVersions(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	}
	return strings.Compare(a, b)
}
