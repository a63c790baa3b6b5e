package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/addonmgr/addonmgr/internal/addon"
)

var enableCmd = &cobra.Command{
	Use:   "enable <addon>",
	Short: "Move a disabled addon back into the game",
	Long: `Move a disabled addon's file back into the host's bin folder so the
game loads it again. Enabling an addon that is not installed or already
enabled does nothing.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctrl, a := lookupAddon(args[0])
		if err := ctrl.Enable(a); err != nil {
			if errors.Is(err, addon.ErrNothingToEnable) {
				printInfof("%s is not installed or already enabled\n", a.ID)
				return
			}
			fail(err, a.ID)
		}
		printInfof("Enabled %s\n", a.DisplayName())
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <addon>",
	Short: "Stop the game from loading an addon",
	Long: `Move an addon's file out of the host's bin folder without deleting
it. Disabled addons keep receiving updates and stay disabled until
enabled again.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctrl, a := lookupAddon(args[0])
		if err := ctrl.Disable(a); err != nil {
			if errors.Is(err, addon.ErrNothingToDisable) {
				printInfof("%s is not installed or already disabled\n", a.ID)
				return
			}
			fail(err, a.ID)
		}
		printInfof("Disabled %s\n", a.DisplayName())
	},
}
