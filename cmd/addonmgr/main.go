package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/addonmgr/addonmgr/internal/buildinfo"
	"github.com/addonmgr/addonmgr/internal/log"
)

// Environment equivalents of the verbosity flags.
const (
	envQuiet   = "ADDONMGR_QUIET"
	envVerbose = "ADDONMGR_VERBOSE"
	envDebug   = "ADDONMGR_DEBUG"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "addonmgr",
	Short: "Keeps game addons installed and up to date",
	Long: `addonmgr installs, updates, enables, disables and removes addons for
a host application, and keeps itself up to date.

Addons are installed into <host_path>/<bin_folder>. Configure the host
installation once before running update:

  addonmgr config set host_path "C:\Program Files\Guild Wars 2"
  addonmgr update`,
	Version:      buildinfo.Version(),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Show only errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show operational details")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Show debug output")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(selfUpdateCmd)
	rootCmd.AddCommand(versionCmd)
}

// isTruthy reports whether an environment value means "enabled".
func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// determineLogLevel maps flags, then environment variables, to a level.
// Any flag wins over every environment variable.
func determineLogLevel() slog.Level {
	switch {
	case debugFlag:
		return slog.LevelDebug
	case verboseFlag:
		return slog.LevelInfo
	case quietFlag:
		return slog.LevelError
	}

	switch {
	case isTruthy(os.Getenv(envDebug)):
		return slog.LevelDebug
	case isTruthy(os.Getenv(envVerbose)):
		return slog.LevelInfo
	case isTruthy(os.Getenv(envQuiet)):
		return slog.LevelError
	}
	return slog.LevelWarn
}

func initLogger() {
	if !quietFlag && isTruthy(os.Getenv(envQuiet)) {
		quietFlag = true
	}
	tty := term.IsTerminal(int(os.Stderr.Fd()))
	log.SetDefault(log.New(log.NewHandler(os.Stderr, determineLogLevel(), tty)))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithCode(ExitUsage)
	}
	exitWithCode(ExitSuccess)
}
