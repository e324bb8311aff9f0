// Package bitbucket provides an HTTP client for the BitBucket Cloud API.
//
// Recognized details URLs are https://bitbucket.org/owner/repo (default
// branch), https://bitbucket.org/owner/repo/src/branch and
// https://bitbucket.org/owner/repo#tags (highest version tag). Archives are
// served from https://bitbucket.org/owner/repo/get/<ref>.zip.
package bitbucket
