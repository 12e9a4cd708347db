package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/corpus"
)

var indexCmd = &cobra.Command{
	Use:   indexCmdStr,
	Short: "Reindex the working rules directory",
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := corpus.IndexLocalRules(rulehubDirpath, db)
	if err != nil {
		return err
	}

	for _, loadErr := range result.LoadErrors {
		fmt.Printf("Skipped %s: %v\n", loadErr.Path, loadErr.Err)
	}
	fmt.Printf("Indexed %d rule(s).\n", result.RuleCount)

	return nil
}
