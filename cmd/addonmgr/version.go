package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/addonmgr/addonmgr/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the addonmgr version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("addonmgr %s\n", buildinfo.Version())
	},
}
