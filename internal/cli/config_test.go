package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearTokenEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GITHUB_TOKEN", "GITLAB_TOKEN", "BITBUCKET_TOKEN"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.HostVersion != defaultHostVersion || cfg.Workers != 8 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Timeout != 30*time.Second || cfg.CacheTTL != 24*time.Hour {
		t.Errorf("durations = %v, %v", cfg.Timeout, cfg.CacheTTL)
	}
}

func TestHostPlatformArch(t *testing.T) {
	tests := []struct{ goos, goarch, platform, arch string }{
		{"windows", "amd64", "windows", "x64"},
		{"darwin", "arm64", "osx", "arm64"},
		{"linux", "386", "linux", "x32"},
		{"freebsd", "riscv64", "linux", ""},
	}
	for _, tt := range tests {
		if got := hostPlatform(tt.goos); got != tt.platform {
			t.Errorf("hostPlatform(%s) = %s, want %s", tt.goos, got, tt.platform)
		}
		if got := hostArch(tt.goarch); got != tt.arch {
			t.Errorf("hostArch(%s) = %s, want %s", tt.goarch, got, tt.arch)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearTokenEnv(t)
	path := writeConfig(t, `
platform = "windows"
arch = "x32"
host_version = 3211
install_prereleases = true
timeout = "5s"
cache_ttl = "1h"
workers = 2
user_agent = "custom/1.0"
github_token = "from-file"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Platform != "windows" || cfg.Arch != "x32" || cfg.HostVersion != 3211 {
		t.Errorf("target = %+v", cfg.Target())
	}
	if !cfg.InstallPrereleases || cfg.Workers != 2 || cfg.UserAgent != "custom/1.0" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second || cfg.CacheTTL != time.Hour {
		t.Errorf("durations = %v, %v", cfg.Timeout, cfg.CacheTTL)
	}
	if cfg.GitHubToken != "from-file" {
		t.Errorf("GitHubToken = %q", cfg.GitHubToken)
	}
	if got := cfg.Target().Tag(); got != "windows-x32" {
		t.Errorf("Tag = %s", got)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("GITHUB_TOKEN", "from-env")
	t.Setenv("GITLAB_TOKEN", "gl-env")
	path := writeConfig(t, `github_token = "from-file"`+"\n"+`bitbucket_token = "bb-file"`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.GitHubToken != "from-env" || cfg.GitLabToken != "gl-env" || cfg.BitBucketToken != "bb-file" {
		t.Errorf("tokens = %q %q %q", cfg.GitHubToken, cfg.GitLabToken, cfg.BitBucketToken)
	}
}

func TestLoadConfigMissingDefaultFile(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	clearTokenEnv(t)
	tests := []struct {
		name string
		path string
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "nope.toml")},
		{"syntax error", writeConfig(t, `platform = `)},
		{"unknown key", writeConfig(t, `colour = "blue"`)},
		{"bad platform", writeConfig(t, `platform = "beos"`)},
		{"bad arch", writeConfig(t, `arch = "mips"`)},
		{"negative workers", writeConfig(t, `workers = -1`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.path)
			if !pkgerrors.Is(err, pkgerrors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestOverridesApply(t *testing.T) {
	var o overrides
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	o.register(cmd)
	if err := cmd.ParseFlags([]string{"--platform", "osx", "--host-version", "3000", "--workers", "3", "--no-cache"}); err != nil {
		t.Fatal(err)
	}

	cfg := defaultConfig()
	cfg.Arch = "x64"
	if err := o.apply(cmd, &cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Platform != "osx" || cfg.HostVersion != 3000 || cfg.Workers != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Arch != "x64" {
		t.Errorf("unset flag must keep config value, Arch = %q", cfg.Arch)
	}
	if !o.noCache || o.refresh {
		t.Errorf("noCache = %v, refresh = %v", o.noCache, o.refresh)
	}
}

func TestOverridesApplyInvalid(t *testing.T) {
	var o overrides
	cmd := &cobra.Command{Use: "test"}
	o.register(cmd)
	if err := cmd.ParseFlags([]string{"--platform", "amiga"}); err != nil {
		t.Fatal(err)
	}
	cfg := defaultConfig()
	if err := o.apply(cmd, &cfg); !pkgerrors.Is(err, pkgerrors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}
