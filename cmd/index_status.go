package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/database"
	"github.com/odyssey/rulehub/internal/tableprinter"
)

var indexStatusCmd = &cobra.Command{
	Use:   statusCmdStr,
	Short: "Show index contents per corpus",
	RunE:  runIndexStatus,
}

func init() {
	indexCmd.AddCommand(indexStatusCmd)
}

func runIndexStatus(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	total, err := db.CountRules()
	if err != nil {
		return err
	}

	fmt.Printf("Index:  %s\n", config.GetDatabaseFilepath(rulehubDirpath))
	fmt.Printf("Rules:  %d\n", total)
	fmt.Println()

	corpora, err := db.ListCorpora()
	if err != nil {
		return err
	}

	tbl := tableprinter.NewTable("CORPUS", "RULES", "LAST SYNCED")

	localRules, err := db.ListRules(database.ListRulesParams{Corpus: config.ReservedLocalCorpusName})
	if err != nil {
		return err
	}
	tbl.AddRow(config.ReservedLocalCorpusName, fmt.Sprintf("%d", len(localRules)), "--")

	for _, c := range corpora {
		rules, err := db.ListRules(database.ListRulesParams{Corpus: c.Name})
		if err != nil {
			return err
		}
		tbl.AddRow(c.Name, fmt.Sprintf("%d", len(rules)), formatSyncTime(c.LastSyncedAt))
	}
	tbl.Print()

	return nil
}
