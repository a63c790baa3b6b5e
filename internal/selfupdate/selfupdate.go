// Package selfupdate stages new addonmgr releases for an external updater.
//
// Begin downloads a newer release into the staging directory and marks an
// update as pending. The flag lives only in memory for the current run;
// ApplyIfPending is consulted once at controlled shutdown and hands the
// staging directory to the updater executable.
package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"

	"github.com/addonmgr/addonmgr/internal/config"
	"github.com/addonmgr/addonmgr/internal/log"
	"github.com/addonmgr/addonmgr/internal/progress"
	"github.com/addonmgr/addonmgr/internal/release"
)

const (
	// Repo publishes addonmgr releases.
	Repo = "fmmmlee/GW2-Addon-Manager"

	// PackageName is the staged release package inside the staging directory.
	PackageName = "update.zip"

	// Subject labels self-update progress events.
	Subject = "addonmgr"
)

// NewResolver returns the resolver for addonmgr releases. Release packages
// carry the version in their name, so the first asset is taken.
func NewResolver(gh *github.Client) (*release.GitHubResolver, error) {
	return release.NewGitHubResolver(gh, Repo, "")
}

// ErrDevBuild is returned by Begin for builds without a semantic version.
var ErrDevBuild = errors.New("development builds do not self-update")

// Fetcher downloads a URL to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, subject, url, dest string, report progress.Reporter) error
}

// Launcher starts the updater executable and returns without waiting for it.
type Launcher func(path string, args ...string) error

// Check describes the result of Begin.
type Check struct {
	Current string
	Latest  string
	Staged  bool // a newer package was downloaded and is pending
}

// Controller owns the pending self-update state for one process.
type Controller struct {
	cfg      *config.Config
	resolver release.Resolver
	fetcher  Fetcher
	current  string
	launch   Launcher
	logger   log.Logger
	pending  atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLauncher replaces the process launcher.
func WithLauncher(l Launcher) Option {
	return func(c *Controller) {
		c.launch = l
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController creates a Controller for the running version current.
func NewController(cfg *config.Config, resolver release.Resolver, fetcher Fetcher, current string, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		resolver: resolver,
		fetcher:  fetcher,
		current:  current,
		launch:   startDetached,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StagedPackage returns the path the release package is staged at.
func (c *Controller) StagedPackage() string {
	return filepath.Join(c.cfg.StagingDir, PackageName)
}

// Pending reports whether a staged update awaits ApplyIfPending.
func (c *Controller) Pending() bool {
	return c.pending.Load()
}

// Begin clears the staging directory, resolves the latest release and, if it
// is newer than the running build, downloads it and marks it pending.
func (c *Controller) Begin(ctx context.Context, report progress.Reporter) (*Check, error) {
	c.pending.Store(false)
	if err := os.RemoveAll(c.cfg.StagingDir); err != nil {
		return nil, fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(c.cfg.StagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	check := &Check{Current: c.current}
	cur, err := semver.NewVersion(c.current)
	if err != nil {
		c.logger.Debug("skipping self-update", "version", c.current)
		return check, fmt.Errorf("%w: %s", ErrDevBuild, c.current)
	}

	info, err := c.resolver.Latest(ctx)
	if err != nil {
		return check, err
	}
	check.Latest = info.Version

	latest, err := semver.NewVersion(info.Version)
	if err != nil {
		return check, &release.ResolverError{
			Type:    release.ErrTypeMalformed,
			Source:  "github:" + Repo,
			Message: fmt.Sprintf("release tag %q is not a semantic version", info.Version),
			Err:     err,
		}
	}
	if !latest.GreaterThan(cur) {
		c.logger.Debug("addonmgr is up to date", "current", c.current, "latest", info.Version)
		return check, nil
	}

	c.logger.Info("staging addonmgr update", "current", c.current, "latest", info.Version)
	if err := c.fetcher.Fetch(ctx, Subject, info.DownloadURL, c.StagedPackage(), report); err != nil {
		return check, err
	}

	c.pending.Store(true)
	check.Staged = true
	return check, nil
}

// ApplyIfPending launches the updater with the staging directory when an
// update is pending. It reports whether the updater was started; the caller
// should then exit promptly so the updater can replace the executable.
func (c *Controller) ApplyIfPending() (bool, error) {
	if !c.pending.CompareAndSwap(true, false) {
		return false, nil
	}
	if _, err := os.Stat(c.StagedPackage()); err != nil {
		return false, fmt.Errorf("staged update missing: %w", err)
	}

	updater := c.cfg.UpdaterPath()
	c.logger.Info("launching updater", "updater", updater, "staging", c.cfg.StagingDir)
	if err := c.launch(updater, c.cfg.StagingDir); err != nil {
		return false, fmt.Errorf("failed to launch updater %s: %w", updater, err)
	}
	return true, nil
}

// startDetached starts path without waiting for it to finish.
func startDetached(path string, args ...string) error {
	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
