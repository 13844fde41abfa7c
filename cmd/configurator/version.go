package main

import (
	"fmt"

	"github.com/reliant/configurator"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of configurator",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "configurator version %s\n", configurator.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
