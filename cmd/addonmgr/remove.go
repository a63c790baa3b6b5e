package main

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <addon>",
	Aliases: []string{"delete"},
	Short:   "Remove an installed addon",
	Long: `Remove an addon's files, its companions and its data folder, and
forget its installed version. Removing an addon that is not installed only
clears its data folder.

Examples:
  addonmgr remove arcdps
  addonmgr delete arcdps`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctrl, a := lookupAddon(args[0])
		if err := ctrl.Delete(a); err != nil {
			fail(err, a.ID)
		}
		printInfof("Removed %s\n", a.DisplayName())
	},
}
