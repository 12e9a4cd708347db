package cmd

import (
	"github.com/spf13/cobra"
)

var corpusCmd = &cobra.Command{
	Use:   corpusCmdStr,
	Short: "Manage git-backed rule corpora",
}

func init() {
	rootCmd.AddCommand(corpusCmd)
}
