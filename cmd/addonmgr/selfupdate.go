package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/addonmgr/addonmgr/internal/buildinfo"
	"github.com/addonmgr/addonmgr/internal/log"
	"github.com/addonmgr/addonmgr/internal/progress"
	"github.com/addonmgr/addonmgr/internal/release"
	"github.com/addonmgr/addonmgr/internal/selfupdate"
)

// selfUpdater holds a self-update staged during this run; exitWithCode
// applies it.
var selfUpdater *selfupdate.Controller

var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Update addonmgr itself",
	Long: `Check for a newer addonmgr release and stage it. When addonmgr exits,
the staged package is handed to the updater (addonmgr-updater next to the
executable, or $ADDONMGR_UPDATER), which replaces the executable.

Development builds never self-update.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _ := openStore()

		httpClient := release.NewHTTPClient()
		gh, err := release.NewGitHubClient(httpClient, "")
		if err != nil {
			fail(err, "")
		}
		resolver, err := selfupdate.NewResolver(gh)
		if err != nil {
			fail(err, "")
		}

		ctrl := selfupdate.NewController(cfg, resolver, newDownloader(), buildinfo.Version(),
			selfupdate.WithLogger(log.Default()))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var check *selfupdate.Check
		withProgress(func(report progress.Reporter) {
			check, err = ctrl.Begin(ctx, report)
		})

		switch {
		case errors.Is(err, selfupdate.ErrDevBuild):
			printInfof("addonmgr %s is a development build; self-update skipped\n", buildinfo.Version())
			return
		case err != nil:
			stop()
			fail(err, "")
		case !check.Staged:
			printInfof("addonmgr %s is up to date\n", check.Current)
			return
		}

		selfUpdater = ctrl
		printInfof("Staged addonmgr %s; the updater starts when addonmgr exits\n", check.Latest)
	},
}
