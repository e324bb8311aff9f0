package github

import "time"

// Repo is a repository owned by a GitHub user or organization.
type Repo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Homepage      string `json:"homepage"`
	HTMLURL       string `json:"html_url"`
	Owner         string `json:"owner"`
	DefaultBranch string `json:"default_branch"`
}

// apiRepoResponse is the GitHub API response for /repos/{owner}/{repo}.
type apiRepoResponse struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Homepage      string `json:"homepage"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	HasIssues     bool   `json:"has_issues"`
	Fork          bool   `json:"fork"`
	Archived      bool   `json:"archived"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// apiTagResponse is one entry of /repos/{owner}/{repo}/tags.
type apiTagResponse struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// apiCommitResponse is one entry of /repos/{owner}/{repo}/commits.
type apiCommitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}
