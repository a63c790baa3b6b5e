package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/addonmgr/addonmgr/internal/store"
)

// configKeys describes the settings exposed by "config get/set".
var configKeys = map[string]string{
	"host_path":      "Host application installation folder",
	"bin_folder":     "Folder under host_path the game loads addons from (default bin64)",
	"loader_version": "Installed addon loader version (read-only)",
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage addonmgr configuration",
	Long: `Manage addonmgr configuration settings.

Configuration is stored in $ADDONMGR_HOME/addonmgr.toml (~/.addonmgr by default).

Available settings:
  host_path    Host application installation folder
  bin_folder   Folder under host_path the game loads addons from

Examples:
  addonmgr config get host_path
  addonmgr config set host_path /games/gw2`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		_, st := openStore()
		doc, err := st.Load()
		if err != nil {
			fail(err, "")
		}

		value, ok := getSetting(doc.Settings, key)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

host_path must name an existing directory; relative paths are made absolute.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		var err error
		switch key {
		case "host_path":
			value, err = normalizeHostPath(value)
		case "bin_folder":
			if filepath.IsAbs(value) || value == "" {
				err = fmt.Errorf("bin_folder must be a relative folder name")
			}
		default:
			err = fmt.Errorf("unknown or read-only config key: %s", key)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		_, st := openStore()
		err = st.Update(func(doc *store.Document) error {
			if key == "host_path" {
				doc.Settings.HostPath = value
			} else {
				doc.Settings.BinFolder = value
			}
			return nil
		})
		if err != nil {
			fail(err, "")
		}

		fmt.Printf("%s = %s\n", key, value)
	},
}

func getSetting(s store.Settings, key string) (string, bool) {
	switch key {
	case "host_path":
		return s.HostPath, true
	case "bin_folder":
		return s.BinFolder, true
	case "loader_version":
		return s.LoaderVersion, true
	}
	return "", false
}

func normalizeHostPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("host_path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("host_path: %s is not a directory", abs)
	}
	return abs, nil
}

func printAvailableKeys() {
	var sortedKeys []string
	for k := range configKeys {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	for _, k := range sortedKeys {
		fmt.Fprintf(os.Stderr, "  %s - %s\n", k, configKeys[k])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
