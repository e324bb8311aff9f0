package resolve

import (
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgrepo/pkg/manifest"
	"github.com/matzehuels/pkgrepo/pkg/release"
)

var nodeloadZipball = regexp.MustCompile(`^(https://nodeload\.github\.com/[^/]+/[^/]+/)zipball(/.*)$`)

// RewriteLegacyURL replaces the retired nodeload "zipball" download form
// with "zip".
func RewriteLegacyURL(u string) string {
	return nodeloadZipball.ReplaceAllString(u, "${1}zip${2}")
}

// aggregator folds normalized packages into a Result. It is used from a
// single goroutine.
type aggregator struct {
	repoURL string
	target  release.Target
	logger  *log.Logger
	skipped func(name, reason string)
}

func (a *aggregator) aggregate(descs []PackageDescriptor) *Result {
	res := newResult()
	for _, d := range descs {
		choose := release.Select
		if !d.Schema.IsV2() {
			choose = release.SelectPlatform
		}
		rel, ok := choose(d.Releases, a.target)
		if !ok {
			res.Unavailable = append(res.Unavailable, d.Name)
			continue
		}
		if rel.URL == "" {
			a.logger.Warn("no download url for package", "package", d.Name, "repository", a.repoURL)
			a.skipped(d.Name, "missing_download")
			continue
		}
		rel.URL = RewriteLegacyURL(rel.URL)
		if len(rel.Platforms) == 0 {
			rel.Platforms = []string{"*"}
		}

		homepage := d.Homepage
		if homepage == "" {
			homepage = a.repoURL
		}
		if _, seen := res.Packages[d.Name]; !seen {
			res.Order = append(res.Order, d.Name)
		}
		res.Packages[d.Name] = ResolvedPackage{
			Name:         d.Name,
			Description:  d.Description,
			Author:       d.Author,
			Homepage:     homepage,
			LastModified: d.LastModified,
			Readme:       d.Readme,
			Issues:       d.Issues,
			Donate:       d.Donate,
			Buy:          d.Buy,
			Labels:       d.Labels,
			Download:     rel,
		}
	}
	return res
}

// renamedPackages returns the old-to-new name map. Before schema 2.0 it is
// the manifest's renamed_packages key; from 2.0 on it is derived from each
// package's previous_names. names, when set, holds the resolved name of
// each entry of pkgs by index and wins over the manifest name; entries
// with neither are left out.
func renamedPackages(m *manifest.Manifest, pkgs []manifest.RawPackage, names []string) map[string]string {
	out := make(map[string]string)
	if !m.SchemaVersion.IsV2() {
		for old, name := range m.RenamedPackages {
			out[old] = name
		}
		return out
	}
	for i, p := range pkgs {
		name := p.Name
		if names != nil && names[i] != "" {
			name = names[i]
		}
		if name == "" {
			continue
		}
		for _, old := range p.PreviousNames {
			out[old] = name
		}
	}
	return out
}
