// Package gitlab provides an HTTP client for the GitLab API.
//
// # Overview
//
// This package resolves GitLab "details" URLs from repository manifests,
// complementing the GitHub and BitBucket clients for packages hosted on
// gitlab.com. It talks to the v4 REST API.
//
// # Details URLs
//
//   - https://gitlab.com/owner/repo: head of the default branch
//   - https://gitlab.com/owner/repo/-/tree/branch: head of a named branch
//   - https://gitlab.com/owner/repo/-/tags: highest version tag
//
// Subgroups are supported (https://gitlab.com/group/sub/repo).
//
// # Usage
//
//	client := gitlab.NewClient(backend, token, 24*time.Hour)
//	dl, err := client.DownloadInfo(ctx, "https://gitlab.com/owner/repo/-/tags")
//
// # Authentication
//
// A GitLab personal access token is optional. Without a token, only
// public repositories can be accessed.
package gitlab
