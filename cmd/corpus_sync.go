package cmd

import (
	"fmt"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/corpus"
	"github.com/odyssey/rulehub/internal/database"
)

var corpusSyncCmd = &cobra.Command{
	Use:   syncCmdStr + " [name]",
	Short: "Sync one corpus now, or all corpora when no name is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCorpusSync,
}

func init() {
	corpusCmd.AddCommand(corpusSyncCmd)
}

func runCorpusSync(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	var corpora []*database.Corpus
	if len(args) == 1 {
		c, err := db.GetCorpus(args[0])
		if err != nil {
			return err
		}
		if c == nil {
			return stacktrace.NewError("corpus '%s' is not registered", args[0])
		}
		corpora = append(corpora, c)
	} else {
		corpora, err = db.ListCorpora()
		if err != nil {
			return err
		}
		if len(corpora) == 0 {
			fmt.Println("No corpora registered.")
			return nil
		}
	}

	var failures int
	for _, c := range corpora {
		result, err := corpus.Sync(rulehubDirpath, c.Name, c.GitURL, db)
		if err != nil {
			fmt.Printf("Failed to sync '%s': %v\n", c.Name, err)
			failures++
			continue
		}
		for _, loadErr := range result.LoadErrors {
			fmt.Printf("Skipped %s: %v\n", loadErr.Path, loadErr.Err)
		}
		fmt.Printf("Synced '%s': %d rule(s).\n", c.Name, result.RuleCount)
	}

	if failures > 0 {
		return stacktrace.NewError("%d corpus sync(s) failed", failures)
	}
	return nil
}
