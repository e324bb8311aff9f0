// Package pkg provides the libraries behind pkgrepo, a resolver for package
// repository manifests.
//
// # Overview
//
// A repository is a JSON manifest listing packages, optionally spread over
// include files. Resolution turns it into one downloadable release per
// package for a target platform and host version. The pkg directory is
// organized as follows:
//
//  1. [manifest] - Manifest parsing, schema versions and include expansion
//  2. [resolve] - Schema normalization, metadata enrichment and aggregation
//  3. [release] - Host version constraints and release selection
//  4. [hosts] - Host provider registry (GitHub, BitBucket, GitLab)
//  5. [integrations] - HTTP transport and code hosting API clients
//  6. [cache] - Transport cache backends (file, Redis, null)
//  7. [errors] - Structured error codes
//  8. [observability] - Optional instrumentation hooks
//
// # Architecture
//
// The typical data flow:
//
//	repository.json + includes
//	         ↓
//	    [manifest] package (expand, parse, detect schema)
//	         ↓
//	    [resolve] package (normalize + enrich via [hosts])
//	         ↓
//	    [release] package (pick the release for the target)
//	         ↓
//	    resolve.Result (packages, unavailable, renamed)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/pkgrepo/pkg/cache"
//	    "github.com/matzehuels/pkgrepo/pkg/hosts"
//	    "github.com/matzehuels/pkgrepo/pkg/integrations"
//	    "github.com/matzehuels/pkgrepo/pkg/release"
//	    "github.com/matzehuels/pkgrepo/pkg/resolve"
//	)
//
//	backend := cache.NewNullCache()
//	registry, _ := hosts.Default(backend, hosts.Options{})
//	fetcher := integrations.NewClient(backend, "manifest:", time.Hour, nil)
//
//	p := resolve.NewManifestProvider(repoURL, fetcher, registry, resolve.Options{
//	    Target: release.Target{Platform: "linux", Arch: "x64", HostVersion: 4169},
//	})
//	res, err := p.Resolve(ctx)
//
// [manifest]: github.com/matzehuels/pkgrepo/pkg/manifest
// [resolve]: github.com/matzehuels/pkgrepo/pkg/resolve
// [release]: github.com/matzehuels/pkgrepo/pkg/release
// [hosts]: github.com/matzehuels/pkgrepo/pkg/hosts
// [integrations]: github.com/matzehuels/pkgrepo/pkg/integrations
// [cache]: github.com/matzehuels/pkgrepo/pkg/cache
// [errors]: github.com/matzehuels/pkgrepo/pkg/errors
// [observability]: github.com/matzehuels/pkgrepo/pkg/observability
package pkg
