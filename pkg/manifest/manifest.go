package manifest

import (
	"github.com/tidwall/gjson"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
)

// Manifest is a parsed repository manifest.
type Manifest struct {
	SchemaVersion   SchemaVersion
	Packages        []RawPackage
	Includes        []string
	RenamedPackages map[string]string
}

// RawPackage is one entry of a manifest's packages array, before schema
// normalization. Fields absent from the JSON are left empty.
type RawPackage struct {
	Name         string
	Description  string
	Author       string
	Homepage     string
	LastModified string

	// Details is a code hosting URL (schema 2.0).
	Details  string
	Releases []RawRelease

	// Platforms is the schema 1.x platform map in declared order.
	Platforms []LegacyPlatform

	PreviousNames []string

	Readme string
	Issues string
	Donate string
	Buy    string
	Labels []string
}

// LegacyPlatform is one key of a schema 1.x platforms map.
type LegacyPlatform struct {
	Name      string
	Downloads []LegacyDownload
}

// LegacyDownload is an explicit schema 1.x download.
type LegacyDownload struct {
	Version string
	URL     string
}

// RawRelease is one entry of a schema 2.0 releases array.
type RawRelease struct {
	Details     string
	Platforms   []string
	HostVersion string
	Version     string
	URL         string
	Date        string
}

// Parse decodes a root manifest. The JSON must be well formed, carry a
// supported schema_version and a packages array.
func Parse(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, pkgerrors.New(pkgerrors.ErrCodeManifestUnreadable, "manifest is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, pkgerrors.New(pkgerrors.ErrCodeManifestUnreadable, "manifest is not a JSON object")
	}

	version, err := ParseSchemaVersion(root.Get("schema_version"))
	if err != nil {
		return nil, err
	}

	pkgs := root.Get("packages")
	if !pkgs.IsArray() {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidManifest, `the "packages" JSON key is missing`)
	}

	m := &Manifest{
		SchemaVersion: version,
		Packages:      parsePackages(pkgs),
		Includes:      stringList(root.Get("includes")),
	}
	if renamed := root.Get("renamed_packages"); renamed.IsObject() {
		m.RenamedPackages = make(map[string]string)
		renamed.ForEach(func(k, v gjson.Result) bool {
			if v.Type == gjson.String {
				m.RenamedPackages[k.String()] = v.Str
			}
			return true
		})
	}
	return m, nil
}

// ParseInclude decodes the packages of an included manifest. Only the
// packages array is read; includes are not expanded further.
func ParseInclude(data []byte) ([]RawPackage, error) {
	if !gjson.ValidBytes(data) {
		return nil, pkgerrors.New(pkgerrors.ErrCodeManifestUnreadable, "include is not valid JSON")
	}
	return parsePackages(gjson.GetBytes(data, "packages")), nil
}

func parsePackages(arr gjson.Result) []RawPackage {
	var out []RawPackage
	arr.ForEach(func(_, p gjson.Result) bool {
		if p.IsObject() {
			out = append(out, parsePackage(p))
		}
		return true
	})
	return out
}

func parsePackage(p gjson.Result) RawPackage {
	pkg := RawPackage{
		Name:          p.Get("name").String(),
		Description:   p.Get("description").String(),
		Author:        p.Get("author").String(),
		Homepage:      p.Get("homepage").String(),
		LastModified:  p.Get("last_modified").String(),
		Details:       p.Get("details").String(),
		PreviousNames: stringList(p.Get("previous_names")),
		Readme:        p.Get("readme").String(),
		Issues:        p.Get("issues").String(),
		Donate:        p.Get("donate").String(),
		Buy:           p.Get("buy").String(),
		Labels:        stringList(p.Get("labels")),
	}

	p.Get("releases").ForEach(func(_, r gjson.Result) bool {
		if r.IsObject() {
			pkg.Releases = append(pkg.Releases, parseRelease(r))
		}
		return true
	})

	// ForEach walks object keys in document order
	p.Get("platforms").ForEach(func(k, v gjson.Result) bool {
		lp := LegacyPlatform{Name: k.String()}
		v.ForEach(func(_, d gjson.Result) bool {
			lp.Downloads = append(lp.Downloads, LegacyDownload{
				Version: d.Get("version").String(),
				URL:     d.Get("url").String(),
			})
			return true
		})
		pkg.Platforms = append(pkg.Platforms, lp)
		return true
	})
	return pkg
}

func parseRelease(r gjson.Result) RawRelease {
	host := r.Get("sublime_text")
	if !host.Exists() {
		host = r.Get("host_version")
	}
	return RawRelease{
		Details:     r.Get("details").String(),
		Platforms:   stringList(r.Get("platforms")),
		HostVersion: host.String(),
		Version:     r.Get("version").String(),
		URL:         r.Get("url").String(),
		Date:        r.Get("date").String(),
	}
}

// stringList reads a string or an array of strings.
func stringList(r gjson.Result) []string {
	switch {
	case r.Type == gjson.String:
		return []string{r.Str}
	case r.IsArray():
		var out []string
		for _, v := range r.Array() {
			if v.Type == gjson.String {
				out = append(out, v.Str)
			}
		}
		return out
	}
	return nil
}
