package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd prints the installed vip8 version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Retrieve the currently installed vip8 version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), currentReleaseVersion)
	},
}
