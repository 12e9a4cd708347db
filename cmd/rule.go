package cmd

import (
	"github.com/spf13/cobra"
)

var ruleCmd = &cobra.Command{
	Use:   ruleCmdStr,
	Short: "Inspect and create rule documents",
}

func init() {
	rootCmd.AddCommand(ruleCmd)
}
