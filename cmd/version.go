package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// versionCmd prints the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gvmd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gvmd %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
