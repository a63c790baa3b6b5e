package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/addonmgr/addonmgr/internal/catalog"
	"github.com/addonmgr/addonmgr/internal/download"
	"github.com/addonmgr/addonmgr/internal/install"
	"github.com/addonmgr/addonmgr/internal/log"
	"github.com/addonmgr/addonmgr/internal/release"
	"github.com/addonmgr/addonmgr/internal/store"
)

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitUnknownAddon indicates the addon is not in the catalog
	ExitUnknownAddon = 3

	// ExitNotConfigured indicates the host installation path is not set
	ExitNotConfigured = 4

	// ExitNetwork indicates a release lookup or download failed
	ExitNetwork = 5

	// ExitInstallFailed indicates files could not be placed or removed
	ExitInstallFailed = 6

	// ExitConfigCorrupt indicates the configuration document could not be parsed
	ExitConfigCorrupt = 7
)

// exitCodeFor maps an error to the exit code scripts see.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, catalog.ErrUnknownAddon):
		return ExitUnknownAddon
	case errors.Is(err, store.ErrHostPathUnset):
		return ExitNotConfigured
	case errors.Is(err, store.ErrConfigCorrupt):
		return ExitConfigCorrupt
	case errors.Is(err, release.ErrNetwork),
		errors.Is(err, release.ErrMalformedResponse),
		errors.Is(err, download.ErrTransfer),
		errors.Is(err, download.ErrInsecureURL):
		return ExitNetwork
	case errors.Is(err, install.ErrInstallConflict),
		errors.Is(err, install.ErrArtifactMissing):
		return ExitInstallFailed
	}
	return ExitGeneral
}

// exitWithCode is the single controlled shutdown path. A self-update staged
// during this run is handed to the updater before the process exits.
func exitWithCode(code int) {
	if selfUpdater != nil {
		started, err := selfUpdater.ApplyIfPending()
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if code == ExitSuccess {
				code = ExitGeneral
			}
		case started:
			log.Default().Info("updater started; exiting")
		}
	}
	os.Exit(code)
}
