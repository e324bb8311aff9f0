package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/pkgrepo/pkg/cache"
	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
)

func TestNewClient(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(c, "test:", time.Hour, headers)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.cache != c {
		t.Error("NewClient() cache not set correctly")
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
	if client.headers["User-Agent"] == "" {
		t.Error("NewClient() should set a User-Agent")
	}
}

func TestNewClientNilBackend(t *testing.T) {
	client := NewClient(nil, "test:", time.Hour, nil)
	if client.cache == nil {
		t.Fatal("nil backend should be replaced by a null cache")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.Header.Get("X-Default") != "default" {
			t.Errorf("default header missing")
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client := NewClient(nil, "test:", time.Hour, map[string]string{"X-Default": "default"})
	client.WithHTTPClient(server.Client())

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientFetchCached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"schema_version":"2.0","packages":[]}`))
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()
	client := NewClient(c, "test:", time.Hour, nil)

	for i := 0; i < 3; i++ {
		data, err := client.Fetch(context.Background(), server.URL+"/repository.json")
		if err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
		if !strings.Contains(string(data), "schema_version") {
			t.Errorf("Fetch() body = %s", data)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}

	client.WithRefresh(true)
	if _, err := client.Fetch(context.Background(), server.URL+"/repository.json"); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("refresh should bypass cache; server hit %d times, want 2", n)
	}
}

func TestClientGet404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(nil, "test:", time.Hour, nil)

	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() should report true")
	}
}

func TestClientGet500(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(nil, "test:", time.Hour, nil)

	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)
	if err == nil {
		t.Fatal("Get() should return error for 500")
	}
	var retryErr *cache.RetryableError
	if !errors.As(err, &retryErr) {
		t.Errorf("Get() error should be RetryableError, got %T", err)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestClientRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(nil, "test:", time.Hour, nil)

	_, err := client.Fetch(context.Background(), server.URL)
	var rl *pkgerrors.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 60 {
		t.Errorf("RetryAfter = %d, want 60", rl.RetryAfter)
	}
}

func TestClientCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(nil, "test:", 0, nil).Fetch(ctx, server.URL)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if cache.IsRetryable(err) {
		t.Error("errors from a canceled context must not be retryable")
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantErr    bool
		wantType   error
		isRetryErr bool
	}{
		{name: "200 OK", code: 200},
		{name: "404 Not Found", code: 404, wantErr: true, wantType: ErrNotFound},
		{name: "500 Internal Server Error", code: 500, wantErr: true, isRetryErr: true},
		{name: "502 Bad Gateway", code: 502, wantErr: true, isRetryErr: true},
		{name: "503 Service Unavailable", code: 503, wantErr: true, isRetryErr: true},
		{name: "400 Bad Request", code: 400, wantErr: true, wantType: ErrNetwork},
		{name: "403 Forbidden", code: 403, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.code)

			if !tt.wantErr {
				if err != nil {
					t.Errorf("checkStatus() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("checkStatus() should return error")
			}
			if tt.wantType != nil && !errors.Is(err, tt.wantType) {
				t.Errorf("checkStatus() error = %v, want %v", err, tt.wantType)
			}
			if tt.isRetryErr && !cache.IsRetryable(err) {
				t.Errorf("checkStatus() error should be RetryableError, got %T", err)
			}
		})
	}
}

func TestNormalizeRepoURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"https url", "https://github.com/user/repo", "https://github.com/user/repo"},
		{"with .git suffix", "https://github.com/user/repo.git", "https://github.com/user/repo"},
		{"trailing slash", "https://github.com/user/repo/", "https://github.com/user/repo"},
		{"git@ to https", "git@github.com:user/repo", "https://github.com/user/repo"},
		{"git:// to https", "git://github.com/user/repo", "https://github.com/user/repo"},
		{"git+ prefix", "git+https://github.com/user/repo", "https://github.com/user/repo"},
		{"with spaces", "  https://github.com/user/repo  ", "https://github.com/user/repo"},
		{"combined", "git+git@github.com:user/repo.git", "https://github.com/user/repo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRepoURL(tt.input); got != tt.want {
				t.Errorf("NormalizeRepoURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLatestTag(t *testing.T) {
	tests := []struct {
		name        string
		tags        []string
		prereleases bool
		wantTag     string
		wantVer     string
		wantOK      bool
	}{
		{"numeric order", []string{"v1.9.0", "v1.10.0", "v1.2.0"}, false, "v1.10.0", "1.10.0", true},
		{"skips non-versions", []string{"latest", "st2", "2.0"}, false, "2.0", "2.0", true},
		{"skips prereleases", []string{"v1.0.0", "v2.0.0-rc1"}, false, "v1.0.0", "1.0.0", true},
		{"allows prereleases", []string{"v1.0.0", "v2.0.0-rc1"}, true, "v2.0.0-rc1", "2.0.0-rc1", true},
		{"none", []string{"nightly"}, false, "", "", false},
		{"empty", nil, false, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, ver, ok := LatestTag(tt.tags, tt.prereleases)
			if tag != tt.wantTag || ver != tt.wantVer || ok != tt.wantOK {
				t.Errorf("LatestTag() = %q, %q, %v; want %q, %q, %v", tag, ver, ok, tt.wantTag, tt.wantVer, tt.wantOK)
			}
		})
	}
}

func TestCommitVersion(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 5, 0, time.FixedZone("CET", 3600))
	if got := CommitVersion(ts); got != "2024.03.01.11.30.05" {
		t.Errorf("CommitVersion() = %s", got)
	}
	if got := FormatDate(ts); got != "2024-03-01 11:30:05" {
		t.Errorf("FormatDate() = %s", got)
	}
}
