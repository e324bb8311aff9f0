// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package turns GitHub "details" URLs found in repository manifests
// into repository metadata and downloadable archives, using the REST API
// at https://api.github.com.
//
// # Details URLs
//
// Three URL shapes are recognized:
//
//   - https://github.com/owner/repo: head of the default branch
//   - https://github.com/owner/repo/tree/branch: head of a named branch
//   - https://github.com/owner/repo/tags: highest version tag
//
// Branch downloads are versioned by their last commit time
// ("2024.03.01.12.30.00"); tag downloads use the tag with any leading "v"
// removed. Archives are served from codeload.github.com.
//
// # Usage
//
//	client := github.NewClient(backend, token, 24*time.Hour)
//
//	info, err := client.RepoInfo(ctx, "https://github.com/owner/repo")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dl, err := client.DownloadInfo(ctx, "https://github.com/owner/repo/tags")
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour. Cache entries are scoped
// per token.
//
// # User Repositories
//
// [Client.UserRepos] lists the repositories of a https://github.com/user
// URL, which lets a whole account act as a package repository.
package github
