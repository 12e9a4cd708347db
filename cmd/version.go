package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   versionCmdStr,
	Short: "Print the rulehub version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rulehub version %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
