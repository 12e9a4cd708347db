package cmd

import (
	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
)

var rulehubDirpath string

var rootCmd = &cobra.Command{
	Use:   rulehubCmdStr,
	Short: "rulehub — manage, lint, and assemble AI assistant rule documents",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dirpath, err := config.GetRulehubDirpath()
		if err != nil {
			return stacktrace.Propagate(err, "failed to get rulehub directory path")
		}
		rulehubDirpath = dirpath

		if err := config.EnsureDirStructure(rulehubDirpath); err != nil {
			return stacktrace.Propagate(err, "failed to ensure directory structure")
		}

		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for doc generation tooling.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
