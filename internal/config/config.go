package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// EnvHome is the environment variable to override the default addonmgr home directory
	EnvHome = "ADDONMGR_HOME"

	// EnvAPITimeout is the environment variable to configure release API request timeout
	EnvAPITimeout = "ADDONMGR_API_TIMEOUT"

	// EnvDownloadTimeout is the environment variable to configure the per-artifact download timeout
	EnvDownloadTimeout = "ADDONMGR_DOWNLOAD_TIMEOUT"

	// EnvUpdater overrides the path of the external self-update executable
	EnvUpdater = "ADDONMGR_UPDATER"

	// DefaultAPITimeout is the default timeout for release API requests (30 seconds)
	DefaultAPITimeout = 30 * time.Second

	// DefaultDownloadTimeout is the default timeout for a single artifact download (10 minutes)
	DefaultDownloadTimeout = 10 * time.Minute

	// DefaultBinFolder is the host subfolder addons are installed into when enabled
	DefaultBinFolder = "bin64"

	// UpdaterName is the base name of the external self-update executable
	UpdaterName = "addonmgr-updater"
)

// GetAPITimeout returns the configured API timeout from ADDONMGR_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout (30 seconds).
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	return durationFromEnv(EnvAPITimeout, DefaultAPITimeout, time.Second, 10*time.Minute)
}

// GetDownloadTimeout returns the configured download timeout from ADDONMGR_DOWNLOAD_TIMEOUT.
// If not set or invalid, returns DefaultDownloadTimeout (10 minutes).
func GetDownloadTimeout() time.Duration {
	return durationFromEnv(EnvDownloadTimeout, DefaultDownloadTimeout, 10*time.Second, 2*time.Hour)
}

// durationFromEnv parses a duration from the named variable and clamps it to [lo, hi].
func durationFromEnv(name string, def, lo, hi time.Duration) time.Duration {
	envValue := os.Getenv(name)
	if envValue == "" {
		return def
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			name, envValue, def)
		return def
	}

	if duration < lo {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n",
			name, duration, lo)
		return lo
	}
	if duration > hi {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n",
			name, duration, hi)
		return hi
	}

	return duration
}

// DefaultHomeOverride can be set by the binary's main package to change the
// default home directory. ADDONMGR_HOME still takes precedence.
var DefaultHomeOverride string

// Config holds addonmgr filesystem layout
type Config struct {
	HomeDir          string // $ADDONMGR_HOME
	ConfigFile       string // $ADDONMGR_HOME/addonmgr.toml
	LegacyConfigFile string // $ADDONMGR_HOME/config.yaml (imported once if present)
	DisabledDir      string // $ADDONMGR_HOME/disabled (artifacts of disabled addons)
	StagingDir       string // $ADDONMGR_HOME/staging (pending self-update package)
	CacheDir         string // $ADDONMGR_HOME/cache
	DownloadDir      string // $ADDONMGR_HOME/cache/downloads
}

// DefaultConfig returns the default configuration
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		if DefaultHomeOverride != "" {
			home = DefaultHomeOverride
		} else {
			userHome, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			home = filepath.Join(userHome, ".addonmgr")
		}
	}

	return New(home), nil
}

// New returns a Config rooted at home.
func New(home string) *Config {
	return &Config{
		HomeDir:          home,
		ConfigFile:       filepath.Join(home, "addonmgr.toml"),
		LegacyConfigFile: filepath.Join(home, "config.yaml"),
		DisabledDir:      filepath.Join(home, "disabled"),
		StagingDir:       filepath.Join(home, "staging"),
		CacheDir:         filepath.Join(home, "cache"),
		DownloadDir:      filepath.Join(home, "cache", "downloads"),
	}
}

// EnsureDirectories creates all necessary directories
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.HomeDir,
		c.DisabledDir,
		c.StagingDir,
		c.CacheDir,
		c.DownloadDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LockFile returns the path of the advisory lock guarding the config document
func (c *Config) LockFile() string {
	return c.ConfigFile + ".lock"
}

// DisabledAddonDir returns the directory holding a disabled addon's artifact
func (c *Config) DisabledAddonDir(id string) string {
	return filepath.Join(c.DisabledDir, id)
}

// AddonDownloadDir returns the download directory for an addon's artifacts
func (c *Config) AddonDownloadDir(id string) string {
	return filepath.Join(c.DownloadDir, id)
}

// UpdaterPath returns the external updater executable launched to apply a
// staged self-update. ADDONMGR_UPDATER overrides the default, which lives
// next to the running executable.
func (c *Config) UpdaterPath() string {
	if p := os.Getenv(EnvUpdater); p != "" {
		return p
	}
	name := UpdaterName
	if filepath.Separator == '\\' {
		name += ".exe"
	}
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}
