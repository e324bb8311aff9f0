package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/repositories/owner/repo":
			fmt.Fprint(w, `{"name":"repo","description":"","website":"","has_issues":true,
				"mainbranch":{"name":"default"},"owner":{"nickname":"owner","display_name":"The Owner"},
				"links":{"html":{"href":"https://bitbucket.org/owner/repo"}}}`)
		case "/repositories/owner/repo/refs/branches/default":
			fmt.Fprint(w, `{"name":"default","target":{"date":"2021-02-03T04:05:06+00:00"}}`)
		case "/repositories/owner/repo/refs/tags":
			if r.URL.Query().Get("sort") != "-target.date" {
				t.Errorf("tags should be sorted by date, got %q", r.URL.RawQuery)
			}
			fmt.Fprint(w, `{"values":[{"name":"v2.1","target":{"date":"2021-01-01T00:00:00Z"}},
				{"name":"v2.0","target":{"date":"2020-01-01T00:00:00Z"}}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c := NewClient(nil, "", 0)
	c.baseURL = server.URL
	return c
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url  string
		want repoRef
		ok   bool
	}{
		{"https://bitbucket.org/owner/repo", repoRef{workspace: "owner", repo: "repo"}, true},
		{"https://bitbucket.org/owner/repo/src/dev", repoRef{workspace: "owner", repo: "repo", branch: "dev"}, true},
		{"https://bitbucket.org/owner/repo/src/dev/", repoRef{workspace: "owner", repo: "repo", branch: "dev"}, true},
		{"https://bitbucket.org/owner/repo#tags", repoRef{workspace: "owner", repo: "repo", tags: true}, true},
		{"https://bitbucket.org/owner", repoRef{}, false},
		{"https://github.com/owner/repo", repoRef{}, false},
	}
	for _, tt := range tests {
		got, ok := parseRepoURL(tt.url)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseRepoURL(%q) = %+v, %v; want %+v, %v", tt.url, got, ok, tt.want, tt.ok)
		}
	}
}

func TestClient_RepoInfo(t *testing.T) {
	info, err := testClient(t).RepoInfo(context.Background(), "https://bitbucket.org/owner/repo")
	if err != nil {
		t.Fatalf("RepoInfo failed: %v", err)
	}
	if info.Author != "owner" || info.Homepage != "https://bitbucket.org/owner/repo" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Description != "No description provided" {
		t.Errorf("Description = %q", info.Description)
	}
}

func TestClient_DownloadInfo(t *testing.T) {
	c := testClient(t)

	dl, err := c.DownloadInfo(context.Background(), "https://bitbucket.org/owner/repo")
	if err != nil {
		t.Fatalf("branch DownloadInfo failed: %v", err)
	}
	if dl.URL != "https://bitbucket.org/owner/repo/get/default.zip" || dl.Version != "2021.02.03.04.05.06" {
		t.Errorf("branch download = %+v", dl)
	}

	dl, err = c.DownloadInfo(context.Background(), "https://bitbucket.org/owner/repo#tags")
	if err != nil {
		t.Fatalf("tag DownloadInfo failed: %v", err)
	}
	if dl.URL != "https://bitbucket.org/owner/repo/get/v2.1.zip" || dl.Version != "2.1" {
		t.Errorf("tag download = %+v", dl)
	}
	if dl.Date != "2021-01-01 00:00:00" {
		t.Errorf("Date = %s", dl.Date)
	}
}

func TestClient_UnknownBranch(t *testing.T) {
	if _, err := testClient(t).DownloadInfo(context.Background(), "https://bitbucket.org/owner/repo/src/gone"); err == nil {
		t.Error("expected error for missing branch")
	}
}
