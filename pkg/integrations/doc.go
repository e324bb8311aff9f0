// Package integrations provides HTTP clients for code hosting APIs.
//
// # Overview
//
// This package contains the transport shared by manifest retrieval and the
// host metadata clients. Each host has its own subpackage:
//
//   - [github]: GitHub repositories, branches, tags and user listings
//   - [bitbucket]: BitBucket Cloud repositories
//   - [gitlab]: GitLab projects
//
// # Client Pattern
//
// All host clients follow a consistent pattern:
//
//	client := github.NewClient(backend, token, 24*time.Hour)
//	info, err := client.RepoInfo(ctx, "https://github.com/owner/repo")
//	dl, err := client.DownloadInfo(ctx, "https://github.com/owner/repo/tags")
//
// Clients handle:
//   - HTTP requests with retry and rate limit detection
//   - Response caching through a pluggable [cache.Cache]
//   - API-specific parsing into [RepoInfo] and [DownloadInfo]
//
// # Shared Infrastructure
//
// The [Client] type provides the shared HTTP functionality. Its Fetch method
// also serves as the manifest transport: bodies are cached under the
// client's namespace, 5xx responses and connection failures are retried
// with backoff, and 404 responses map to [ErrNotFound].
//
// # Adding a New Host
//
// To add support for another code host:
//
//  1. Create a subpackage: pkg/integrations/<host>/
//  2. Define response structs matching the API schema
//  3. Implement Name, CanHandle, RepoInfo and DownloadInfo
//  4. Use [NewClient] for HTTP with caching
//  5. Register it in [hosts.Registry]
//
// [github]: github.com/matzehuels/pkgrepo/pkg/integrations/github
// [bitbucket]: github.com/matzehuels/pkgrepo/pkg/integrations/bitbucket
// [gitlab]: github.com/matzehuels/pkgrepo/pkg/integrations/gitlab
// [cache.Cache]: github.com/matzehuels/pkgrepo/pkg/cache.Cache
// [hosts.Registry]: github.com/matzehuels/pkgrepo/pkg/hosts.Registry
package integrations
