package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/addonmgr/addonmgr/internal/addon"
	"github.com/addonmgr/addonmgr/internal/progress"
)

var updateCmd = &cobra.Command{
	Use:   "update [addon...]",
	Short: "Install or update addons",
	Long: `Check each addon for a newer release and install it.

Without arguments every known addon is processed, the addon loader first.
An addon that fails to update leaves its installed files untouched and
does not stop the others. Disabled addons are updated in place and stay
disabled.

Examples:
  addonmgr update
  addonmgr update arcdps`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, st := openStore()
		doc := st.LoadOrDefault()
		cat := loadCatalog(doc)

		addons, err := cat.Select(args)
		if err != nil {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			fail(err, id)
		}
		if _, err := doc.BinDir(); err != nil {
			fail(err, "")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var outcomes []addon.Outcome
		withProgress(func(report progress.Reporter) {
			outcomes = newController(cfg, st, report).Run(ctx, addons)
		})

		code := ExitSuccess
		updated := 0
		for _, o := range outcomes {
			switch o.Status {
			case addon.StatusFailed:
				printError(o.Err, o.Addon)
				if code == ExitSuccess {
					code = exitCodeFor(o.Err)
				}
			case addon.StatusUpdated:
				updated++
			}
		}
		printInfof("%d of %d addons updated\n", updated, len(outcomes))

		stop()
		if code != ExitSuccess {
			exitWithCode(code)
		}
	},
}

// withProgress drains progress events into a Bar while run executes.
func withProgress(run func(progress.Reporter)) {
	events := make(chan progress.Event, 64)
	bar := progress.NewBar(os.Stdout, progress.ShouldShowProgress())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if !quietFlag {
				bar.Report(ev)
			}
		}
	}()

	run(progress.Channel(events))
	close(events)
	<-done
}
