// Package resolve turns a package repository into the set of packages
// installable on a target platform and host version.
//
// # Pipeline
//
// [ManifestProvider.Resolve] runs the stages in order:
//
//  1. Expand: fetch the manifest and its includes ([manifest.Expander])
//  2. Normalize: convert each entry into a [PackageDescriptor], with one
//     normalizer for the 1.x schemas and one for 2.0
//  3. Enrich: for 2.0 entries, merge host metadata behind details URLs
//     with the explicit fields, which always win ([Enricher])
//  4. Select: choose one release per package ([release.Select])
//  5. Aggregate: build the name map, the unavailable list and the
//     renamed-package map
//
// Entries are normalized concurrently and merged in manifest order, so
// the [Result] matches a sequential run.
//
// # Failures
//
// A manifest that cannot be fetched or parsed, an unsupported
// schema_version, a missing packages key or a cancelled context fails the
// whole resolution with a typed error from pkg/errors. Everything else is
// isolated per package: unresolvable details skip the package, a package
// with no compatible release is listed as unavailable, and a release with
// no download URL is skipped.
//
// # Providers
//
// [ForURL] picks between a [ManifestProvider] and a [GitHubUserProvider],
// which serves every repository of a GitHub account as a package.
package resolve
