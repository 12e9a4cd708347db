package cmd

import (
	"fmt"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/corpus"
)

var corpusAddSchedule string

var corpusAddCmd = &cobra.Command{
	Use:   addCmdStr + " <name> <git-url>",
	Short: "Register a corpus and run its first sync",
	Args:  cobra.ExactArgs(2),
	RunE:  runCorpusAdd,
}

func init() {
	corpusAddCmd.Flags().StringVar(&corpusAddSchedule, "schedule", "", "Cron sync schedule (default: hourly)")
	corpusCmd.AddCommand(corpusAddCmd)
}

func runCorpusAdd(cmd *cobra.Command, args []string) error {
	name, gitURL := args[0], args[1]

	if err := config.ValidateCorpusName(name); err != nil {
		return err
	}
	if name == config.ReservedLocalCorpusName {
		return stacktrace.NewError("corpus name '%s' is reserved for the working rules directory", name)
	}
	if corpusAddSchedule != "" {
		if err := config.ValidateSyncSchedule(corpusAddSchedule); err != nil {
			return err
		}
	}

	cfg, cm, err := config.ReadRulehubConfig(rulehubDirpath)
	if err != nil {
		return err
	}
	if _, exists := cfg.GetCorpusConfig(name); exists {
		return stacktrace.NewError("corpus '%s' is already registered", name)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.CreateCorpus(name, gitURL); err != nil {
		return err
	}

	cfg.SetCorpusConfig(name, config.CorpusConfig{
		Git:          gitURL,
		SyncSchedule: corpusAddSchedule,
	})
	if err := config.WriteRulehubConfig(rulehubDirpath, cfg, cm); err != nil {
		return err
	}

	fmt.Printf("Registered corpus '%s'. Syncing...\n", name)

	result, err := corpus.Sync(rulehubDirpath, name, gitURL, db)
	if err != nil {
		return stacktrace.Propagate(err, "corpus registered but the initial sync failed; run '%s %s %s' to retry",
			rulehubCmdStr, corpusCmdStr, syncCmdStr)
	}

	for _, loadErr := range result.LoadErrors {
		fmt.Printf("Skipped %s: %v\n", loadErr.Path, loadErr.Err)
	}
	fmt.Printf("Synced %d rule(s) from '%s'.\n", result.RuleCount, gitURL)

	return nil
}
