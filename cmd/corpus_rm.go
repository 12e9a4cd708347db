package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/corpus"
)

var corpusRmCmd = &cobra.Command{
	Use:   rmCmdStr + " <name>",
	Short: "Unregister a corpus and remove its clone and indexed rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorpusRm,
}

func init() {
	corpusCmd.AddCommand(corpusRmCmd)
}

func runCorpusRm(cmd *cobra.Command, args []string) error {
	name := args[0]

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteCorpus(name); err != nil {
		return err
	}

	cfg, cm, err := config.ReadRulehubConfig(rulehubDirpath)
	if err != nil {
		return err
	}
	if cfg.RemoveCorpusConfig(name) {
		if err := config.WriteRulehubConfig(rulehubDirpath, cfg, cm); err != nil {
			return err
		}
	}

	if err := corpus.Remove(rulehubDirpath, name); err != nil {
		return err
	}

	fmt.Printf("Removed corpus '%s'.\n", name)
	return nil
}
