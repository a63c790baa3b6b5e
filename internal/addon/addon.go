// Package addon drives the lifecycle of managed addons: checking for and
// installing updates, enabling, disabling and deleting. The configuration
// document is only mutated after a step has fully succeeded, so an
// interrupted cycle leaves the addon's record untouched.
package addon

import (
	"context"
	"errors"
	"fmt"

	"github.com/addonmgr/addonmgr/internal/install"
	"github.com/addonmgr/addonmgr/internal/progress"
	"github.com/addonmgr/addonmgr/internal/release"
)

// Companion is a fixed-URL artifact shipped alongside an addon. Companions
// are installed when missing and are never version-checked.
type Companion struct {
	FileName string
	URL      string
}

// Addon defines one managed component.
type Addon struct {
	ID         string
	Name       string
	Resolver   release.Resolver
	Strategy   install.Strategy
	FileName   string // primary file in the bin folder
	DataDir    string // host-relative folder removed on delete, optional
	Companions []Companion
	HostLoader bool // its version is mirrored into settings.loader_version
}

// DisplayName returns Name, or ID when Name is empty.
func (a Addon) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Fetcher downloads a URL to a local path. *download.Downloader implements it.
type Fetcher interface {
	Fetch(ctx context.Context, subject, url, dest string, report progress.Reporter) error
}

// ErrNothingToEnable is returned by Enable when no disabled artifact is
// recorded. It is a no-op, not a failure.
var ErrNothingToEnable = errors.New("nothing to enable")

// ErrNothingToDisable is returned by Disable when no enabled artifact is
// recorded. It is a no-op, not a failure.
var ErrNothingToDisable = errors.New("nothing to disable")

// ErrArtifactMissing is returned when the recorded artifact is at neither
// of its locations.
var ErrArtifactMissing = errors.New("recorded artifact not found")

// Status summarizes one addon's update cycle.
type Status string

const (
	StatusUpToDate Status = "up-to-date"
	StatusUpdated  Status = "updated"
	StatusFailed   Status = "failed"
)

// Outcome is the result of one addon's update cycle.
type Outcome struct {
	Addon      string
	Status     Status
	Phase      progress.Phase // phase a failure happened in
	From       string         // installed version before the cycle
	To         string         // installed version after the cycle
	Companions []string       // companions installed by this cycle
	Err        error
}

// CycleError attributes a failure to an addon and the phase it occurred in.
type CycleError struct {
	Addon string
	Phase progress.Phase
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Addon, e.Phase, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}
