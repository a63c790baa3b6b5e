package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/addonmgr/addonmgr/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known addons and their state",
	Long: `List every addon addonmgr knows about, whether it is installed and
enabled, and the installed version.`,
	Run: func(cmd *cobra.Command, args []string) {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		_, st := openStore()
		doc := st.LoadOrDefault()
		cat := loadCatalog(doc)

		type addonJSON struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			State   string `json:"state"`
			Version string `json:"version,omitempty"`
			File    string `json:"file,omitempty"`
		}

		var rows []addonJSON
		for _, a := range cat.All() {
			rec := doc.Record(a.ID)
			rows = append(rows, addonJSON{
				ID:      a.ID,
				Name:    a.DisplayName(),
				State:   describeState(rec),
				Version: rec.InstalledVersion,
				File:    rec.InstalledFile,
			})
		}

		if jsonOutput {
			printJSON(struct {
				Addons []addonJSON `json:"addons"`
			}{rows})
			return
		}

		if doc.Settings.HostPath == "" {
			printInfo("Host path not configured; run 'addonmgr config set host_path <path>'")
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ADDON\tSTATE\tVERSION")
		for _, r := range rows {
			version := r.Version
			if version == "" {
				version = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.State, version)
		}
		_ = w.Flush()
	},
}

// describeState renders an addon record's lifecycle state.
func describeState(rec store.AddonRecord) string {
	switch {
	case !rec.Installed():
		return "not installed"
	case rec.Enabled():
		return "enabled"
	default:
		return "disabled"
	}
}

func init() {
	listCmd.Flags().Bool("json", false, "Output in JSON format")
}
