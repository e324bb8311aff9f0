package resolve

import (
	"github.com/matzehuels/pkgrepo/pkg/manifest"
	"github.com/matzehuels/pkgrepo/pkg/release"
)

// PackageDescriptor is a package after schema normalization: explicit and
// host-provided fields merged, releases not yet selected.
type PackageDescriptor struct {
	Name         string
	Description  string
	Author       string
	Homepage     string
	LastModified string

	Readme string
	Issues string
	Donate string
	Buy    string
	Labels []string

	Releases []release.Release

	// Schema records which normalizer produced the descriptor, which in
	// turn decides how a release is selected.
	Schema manifest.SchemaVersion
}

// ResolvedPackage is a package with its chosen release.
type ResolvedPackage struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Author       string   `json:"author,omitempty"`
	Homepage     string   `json:"homepage"`
	LastModified string   `json:"last_modified,omitempty"`
	Readme       string   `json:"readme,omitempty"`
	Issues       string   `json:"issues,omitempty"`
	Donate       string   `json:"donate,omitempty"`
	Buy          string   `json:"buy,omitempty"`
	Labels       []string `json:"labels,omitempty"`

	Download release.Release `json:"download"`
}

// Result is the outcome of resolving one repository.
type Result struct {
	// Packages maps package name to its resolved form.
	Packages map[string]ResolvedPackage `json:"packages"`
	// Order lists the package names in manifest order. A name that occurs
	// more than once keeps the position of its first occurrence.
	Order []string `json:"order"`
	// Unavailable lists packages with no release for the target.
	Unavailable []string `json:"unavailable"`
	// Renamed maps former package names to current ones.
	Renamed map[string]string `json:"renamed"`
}

// Sorted returns the resolved packages in manifest order.
func (r *Result) Sorted() []ResolvedPackage {
	out := make([]ResolvedPackage, 0, len(r.Order))
	for _, name := range r.Order {
		out = append(out, r.Packages[name])
	}
	return out
}

func newResult() *Result {
	return &Result{
		Packages:    make(map[string]ResolvedPackage),
		Order:       []string{},
		Unavailable: []string{},
		Renamed:     make(map[string]string),
	}
}
