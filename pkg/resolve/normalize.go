package resolve

import (
	"context"

	"github.com/charmbracelet/log"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
	"github.com/matzehuels/pkgrepo/pkg/integrations"
	"github.com/matzehuels/pkgrepo/pkg/manifest"
	"github.com/matzehuels/pkgrepo/pkg/release"
)

// normalizer turns a raw manifest entry into a descriptor. A non-nil error
// means the package is skipped; it never becomes a candidate.
type normalizer interface {
	normalize(ctx context.Context, raw manifest.RawPackage) (PackageDescriptor, error)
}

// normalizerFor dispatches on the schema family once per resolution pass.
func normalizerFor(v manifest.SchemaVersion, e *Enricher, logger *log.Logger) normalizer {
	if v.IsV2() {
		return schemaV2{enricher: e, logger: logger}
	}
	return schemaV1{version: v}
}

func baseDescriptor(raw manifest.RawPackage, v manifest.SchemaVersion) PackageDescriptor {
	return PackageDescriptor{
		Name:         raw.Name,
		Description:  raw.Description,
		Author:       raw.Author,
		Homepage:     raw.Homepage,
		LastModified: raw.LastModified,
		Readme:       raw.Readme,
		Issues:       raw.Issues,
		Donate:       raw.Donate,
		Buy:          raw.Buy,
		Labels:       raw.Labels,
		Schema:       v,
	}
}

// schemaV1 handles 1.0, 1.1 and 1.2 manifests, where every download is
// spelled out under a platforms map.
type schemaV1 struct {
	version manifest.SchemaVersion
}

func (n schemaV1) normalize(_ context.Context, raw manifest.RawPackage) (PackageDescriptor, error) {
	if err := pkgerrors.ValidatePackageName(raw.Name); err != nil {
		return PackageDescriptor{}, err
	}
	d := baseDescriptor(raw, n.version)
	for _, p := range raw.Platforms {
		if len(p.Downloads) == 0 {
			continue
		}
		dl := p.Downloads[0]
		d.Releases = append(d.Releases, release.Release{
			Platforms: []string{p.Name},
			URL:       dl.URL,
			Version:   dl.Version,
			Date:      raw.LastModified,
		})
	}
	return d, nil
}

// schemaV2 handles 2.0 manifests, which delegate repository and release
// metadata to details URLs.
type schemaV2 struct {
	enricher *Enricher
	logger   *log.Logger
}

func (n schemaV2) normalize(ctx context.Context, raw manifest.RawPackage) (PackageDescriptor, error) {
	d := baseDescriptor(raw, manifest.SchemaV2_0)

	if raw.Details != "" {
		explicit := integrations.RepoInfo{
			Name:        raw.Name,
			Description: raw.Description,
			Homepage:    raw.Homepage,
			Author:      raw.Author,
			Issues:      raw.Issues,
			Readme:      raw.Readme,
			Donate:      raw.Donate,
		}
		info, err := n.enricher.Repo(ctx, explicit, raw.Details)
		if err != nil {
			return PackageDescriptor{}, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidDetails, err, `invalid "details" key for package %q`, packageLabel(raw))
		}
		d.Name = info.Name
		d.Description = info.Description
		d.Homepage = info.Homepage
		d.Author = info.Author
		d.Issues = info.Issues
		d.Readme = info.Readme
		d.Donate = info.Donate
	}
	if err := pkgerrors.ValidatePackageName(d.Name); err != nil {
		return PackageDescriptor{}, err
	}

	releases := raw.Releases
	if len(releases) == 0 && raw.Details != "" {
		releases = []manifest.RawRelease{{Details: raw.Details}}
	}
	for _, rr := range releases {
		dl := integrations.DownloadInfo{
			Version:     rr.Version,
			URL:         rr.URL,
			Date:        rr.Date,
			Platforms:   rr.Platforms,
			HostVersion: rr.HostVersion,
		}

		details := rr.Details
		if details == "" {
			details = raw.Details
		}
		if details != "" {
			merged, err := n.enricher.Download(ctx, dl, details)
			if err != nil {
				if ctx.Err() != nil {
					return PackageDescriptor{}, ctx.Err()
				}
				n.logger.Warn(`invalid "details" key under "releases"`, "package", d.Name, "details", details, "reason", "invalid_details", "err", err)
				continue
			}
			dl = merged
		}

		d.Releases = append(d.Releases, release.Release{
			Platforms:   dl.Platforms,
			HostVersion: release.Constraint(dl.HostVersion),
			Version:     dl.Version,
			URL:         dl.URL,
			Date:        dl.Date,
		})
	}
	return d, nil
}

// packageLabel names a raw entry in messages before its name is known.
func packageLabel(raw manifest.RawPackage) string {
	if raw.Name != "" {
		return raw.Name
	}
	return raw.Details
}
