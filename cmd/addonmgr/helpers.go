package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/addonmgr/addonmgr/internal/addon"
	"github.com/addonmgr/addonmgr/internal/catalog"
	"github.com/addonmgr/addonmgr/internal/config"
	"github.com/addonmgr/addonmgr/internal/download"
	"github.com/addonmgr/addonmgr/internal/errmsg"
	"github.com/addonmgr/addonmgr/internal/log"
	"github.com/addonmgr/addonmgr/internal/progress"
	"github.com/addonmgr/addonmgr/internal/release"
	"github.com/addonmgr/addonmgr/internal/store"
)

// printInfo prints an informational message unless quiet mode is enabled
func printInfo(a ...interface{}) {
	if !quietFlag {
		fmt.Println(a...)
	}
}

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// printJSON marshals the given value to JSON and prints it to stdout
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		exitWithCode(ExitGeneral)
	}
}

// printError prints an error to stderr with suggestions if available.
// This uses the errmsg package to format errors with actionable suggestions.
func printError(err error, addonID string) {
	errmsg.Fprint(os.Stderr, err, &errmsg.ErrorContext{AddonID: addonID})
}

// fail prints err and exits with the matching exit code.
func fail(err error, addonID string) {
	printError(err, addonID)
	exitWithCode(exitCodeFor(err))
}

// openStore resolves the home directory and opens the configuration store.
func openStore() (*config.Config, *store.Store) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		fail(err, "")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fail(err, "")
	}
	return cfg, store.New(cfg, store.WithLogger(log.Default()))
}

// newDownloader returns the downloader shared by addon and self-update cycles.
func newDownloader() *download.Downloader {
	return download.New(download.WithLogger(log.Default()))
}

// loadCatalog builds the addon catalog from the built-ins and doc's sources.
func loadCatalog(doc *store.Document) *catalog.Catalog {
	httpClient := release.NewHTTPClient()
	gh, err := release.NewGitHubClient(httpClient, "")
	if err != nil {
		fail(err, "")
	}
	cat, err := catalog.Build(doc, gh, httpClient)
	if err != nil {
		fail(err, "")
	}
	return cat
}

// lookupAddon opens the store and returns the named addon with a controller.
func lookupAddon(id string) (*addon.Controller, addon.Addon) {
	cfg, st := openStore()
	cat := loadCatalog(st.LoadOrDefault())
	a, err := cat.Get(id)
	if err != nil {
		fail(err, id)
	}
	return newController(cfg, st, nil), a
}

func newController(cfg *config.Config, st *store.Store, report progress.Reporter) *addon.Controller {
	return addon.NewController(cfg, st, newDownloader(),
		addon.WithLogger(log.Default()),
		addon.WithReporter(report),
	)
}
