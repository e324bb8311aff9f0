package manifest

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
)

type mapFetcher struct {
	mu    sync.Mutex
	docs  map[string]string
	calls map[string]int
}

func newMapFetcher(docs map[string]string) *mapFetcher {
	return &mapFetcher{docs: docs, calls: make(map[string]int)}
}

func (f *mapFetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls[u]++
	f.mu.Unlock()
	doc, ok := f.docs[u]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(doc), nil
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestResolveInclude(t *testing.T) {
	tests := []struct {
		root string
		ref  string
		want string
	}{
		{"https://example.com/a/repo.json", "../b.json", "https://example.com/b.json"},
		{"https://example.com/a/repo.json", "./c.json", "https://example.com/a/c.json"},
		{"https://example.com/a/b/repo.json", "../../d.json", "https://example.com/d.json"},
		{"https://example.com/a/", "./e.json", "https://example.com/a/e.json"},
		{"https://example.com", "./f.json", "https://example.com/f.json"},
		{"https://example.com/repo.json", "https://other.org/x.json", "https://other.org/x.json"},
		{"https://example.com/repo.json", "sub/x.json", "sub/x.json"},
	}
	for _, tt := range tests {
		root, _ := url.Parse(tt.root)
		if got := ResolveInclude(root, tt.ref); got != tt.want {
			t.Errorf("ResolveInclude(%s, %s) = %s, want %s", tt.root, tt.ref, got, tt.want)
		}
	}
}

func TestExpandNoIncludes(t *testing.T) {
	f := newMapFetcher(map[string]string{
		"https://example.com/repo.json": `{"schema_version": "2.0", "packages": [{"name": "A"}, {"name": "B"}]}`,
	})
	pkgs, m, err := NewExpander(f, quietLogger(), 0).Expand(context.Background(), "https://example.com/repo.json")
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(pkgs) != 2 || pkgs[0].Name != "A" || pkgs[1].Name != "B" {
		t.Errorf("Expand() packages = %+v", pkgs)
	}
	if m.SchemaVersion != SchemaV2_0 {
		t.Errorf("SchemaVersion = %s", m.SchemaVersion)
	}
}

func TestExpandIncludesInOrder(t *testing.T) {
	f := newMapFetcher(map[string]string{
		"https://example.com/a/repo.json": `{
			"schema_version": "2.0",
			"packages": [{"name": "Root"}],
			"includes": ["../b.json", "./missing.json", "https://other.org/c.json", "./broken.json"]
		}`,
		"https://example.com/b.json":        `{"packages": [{"name": "B1"}, {"name": "B2"}], "includes": ["./never.json"]}`,
		"https://other.org/c.json":          `{"packages": [{"name": "C"}]}`,
		"https://example.com/a/broken.json": `{"packages": [`,
	})

	pkgs, _, err := NewExpander(f, quietLogger(), 2).Expand(context.Background(), "https://example.com/a/repo.json")
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	var names []string
	for _, p := range pkgs {
		names = append(names, p.Name)
	}
	want := []string{"Root", "B1", "B2", "C"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
	if f.calls["https://example.com/never.json"] != 0 {
		t.Error("nested includes must not be expanded")
	}
	if f.calls["https://example.com/b.json"] != 1 {
		t.Errorf("include fetched %d times, want 1", f.calls["https://example.com/b.json"])
	}
}

func TestExpandSkipsInvalidIncludeURLs(t *testing.T) {
	f := newMapFetcher(map[string]string{
		"https://example.com/repo.json": `{
			"schema_version": "2.0",
			"packages": [{"name": "Root"}],
			"includes": ["sub/x.json", "ftp://example.com/y.json", "https://", "./ok.json"]
		}`,
		"sub/x.json":                  `{"packages": [{"name": "X"}]}`,
		"ftp://example.com/y.json":    `{"packages": [{"name": "Y"}]}`,
		"https://example.com/ok.json": `{"packages": [{"name": "OK"}]}`,
	})

	pkgs, _, err := NewExpander(f, quietLogger(), 0).Expand(context.Background(), "https://example.com/repo.json")
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(pkgs) != 2 || pkgs[0].Name != "Root" || pkgs[1].Name != "OK" {
		t.Errorf("Expand() packages = %+v", pkgs)
	}
	for _, u := range []string{"sub/x.json", "ftp://example.com/y.json", "https://"} {
		if f.calls[u] != 0 {
			t.Errorf("invalid include %s was fetched", u)
		}
	}
}

func TestExpandRootFailures(t *testing.T) {
	f := newMapFetcher(map[string]string{
		"https://example.com/garbage.json": `<html>`,
		"https://example.com/v3.json":      `{"schema_version": 3.0, "packages": []}`,
	})
	e := NewExpander(f, quietLogger(), 0)

	tests := []struct {
		url  string
		code pkgerrors.Code
	}{
		{"https://example.com/garbage.json", pkgerrors.ErrCodeManifestUnreadable},
		{"https://example.com/v3.json", pkgerrors.ErrCodeInvalidSchemaVersion},
		{"https://example.com/absent.json", pkgerrors.ErrCodeManifestUnreadable},
		{"ftp://example.com/repo.json", pkgerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		pkgs, m, err := e.Expand(context.Background(), tt.url)
		if !pkgerrors.Is(err, tt.code) {
			t.Errorf("Expand(%s) error = %v, want %s", tt.url, err, tt.code)
		}
		if pkgs != nil || m != nil {
			t.Errorf("Expand(%s) returned partial output", tt.url)
		}
	}
}

func TestExpandCanceled(t *testing.T) {
	f := newMapFetcher(map[string]string{
		"https://example.com/repo.json": `{"schema_version": "2.0", "packages": []}`,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewExpander(f, quietLogger(), 0).Expand(ctx, "https://example.com/repo.json")
	if !pkgerrors.Is(err, pkgerrors.ErrCodeCanceled) {
		t.Errorf("Expand() error = %v, want CANCELED", err)
	}
}
