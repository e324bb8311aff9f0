package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
	"github.com/matzehuels/pkgrepo/pkg/release"
)

// defaultHostVersion is the host build selected when none is configured.
const defaultHostVersion = 4169

// Config holds the settings read from config.toml. Every field has a usable
// default, so a missing file is not an error.
type Config struct {
	Platform           string        `toml:"platform"`
	Arch               string        `toml:"arch"`
	HostVersion        int           `toml:"host_version"`
	InstallPrereleases bool          `toml:"install_prereleases"`
	Timeout            time.Duration `toml:"timeout"`
	UserAgent          string        `toml:"user_agent"`
	CacheTTL           time.Duration `toml:"cache_ttl"`
	Workers            int           `toml:"workers"`
	RedisURL           string        `toml:"redis_url"`

	GitHubToken    string `toml:"github_token"`
	BitBucketToken string `toml:"bitbucket_token"`
	GitLabToken    string `toml:"gitlab_token"`
}

func defaultConfig() Config {
	return Config{
		Platform:    hostPlatform(runtime.GOOS),
		Arch:        hostArch(runtime.GOARCH),
		HostVersion: defaultHostVersion,
		Timeout:     30 * time.Second,
		CacheTTL:    24 * time.Hour,
		Workers:     8,
	}
}

func hostPlatform(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	default:
		return "linux"
	}
}

func hostArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "x32"
	case "arm64":
		return "arm64"
	default:
		return ""
	}
}

// configPath returns $XDG_CONFIG_HOME/pkgrepo/config.toml, falling back to
// ~/.config/pkgrepo/config.toml.
func configPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads path on top of the defaults and applies environment
// overrides. An empty path selects the default location, where a missing
// file is silently ignored; an explicit path must exist.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			cfg.applyEnv(os.Getenv)
			return cfg, cfg.validate()
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	cfg.applyEnv(os.Getenv)
	return cfg, cfg.validate()
}

// applyEnv lets token environment variables override the file.
func (c *Config) applyEnv(getenv func(string) string) {
	for env, dst := range map[string]*string{
		"GITHUB_TOKEN":    &c.GitHubToken,
		"GITLAB_TOKEN":    &c.GitLabToken,
		"BITBUCKET_TOKEN": &c.BitBucketToken,
	} {
		if v := getenv(env); v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Platform {
	case "windows", "osx", "linux":
	default:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "platform %q must be windows, osx or linux", c.Platform)
	}
	switch c.Arch {
	case "", "x32", "x64", "arm64":
	default:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "arch %q must be x32, x64 or arm64", c.Arch)
	}
	if c.HostVersion < 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "host_version must not be negative")
	}
	if c.Workers < 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "workers must not be negative")
	}
	if c.Timeout < 0 || c.CacheTTL < 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "timeout and cache_ttl must not be negative")
	}
	return nil
}

// Target returns the selection target described by the config.
func (c Config) Target() release.Target {
	return release.Target{Platform: c.Platform, Arch: c.Arch, HostVersion: c.HostVersion}
}

// overrides are the command-line flags that take precedence over config.toml.
type overrides struct {
	platform    string
	arch        string
	hostVersion int
	workers     int
	timeout     time.Duration
	prerelease  bool
	noCache     bool
	refresh     bool
}

func (o *overrides) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.platform, "platform", "", "target platform: windows, osx or linux (default: current OS)")
	f.StringVar(&o.arch, "arch", "", "target architecture: x32, x64 or arm64 (default: current arch)")
	f.IntVar(&o.hostVersion, "host-version", 0, "host application build number")
	f.IntVar(&o.workers, "workers", 0, "maximum concurrent fetches")
	f.DurationVar(&o.timeout, "timeout", 0, "per-request HTTP timeout")
	f.BoolVar(&o.prerelease, "prereleases", false, "allow prerelease tags")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the HTTP response cache")
	f.BoolVar(&o.refresh, "refresh", false, "ignore cached responses and fetch fresh data")
}

// apply copies every flag the user set into cfg.
func (o *overrides) apply(cmd *cobra.Command, cfg *Config) error {
	f := cmd.Flags()
	if f.Changed("platform") {
		cfg.Platform = o.platform
	}
	if f.Changed("arch") {
		cfg.Arch = o.arch
	}
	if f.Changed("host-version") {
		cfg.HostVersion = o.hostVersion
	}
	if f.Changed("workers") {
		cfg.Workers = o.workers
	}
	if f.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if f.Changed("prereleases") {
		cfg.InstallPrereleases = o.prerelease
	}
	return cfg.validate()
}
