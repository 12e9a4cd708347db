package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/tableprinter"
)

var corpusLsCmd = &cobra.Command{
	Use:   lsCmdStr,
	Short: "List registered corpora",
	RunE:  runCorpusLs,
}

func init() {
	corpusCmd.AddCommand(corpusLsCmd)
}

func runCorpusLs(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	corpora, err := db.ListCorpora()
	if err != nil {
		return err
	}

	if len(corpora) == 0 {
		fmt.Println("No corpora registered.")
		return nil
	}

	tbl := tableprinter.NewTable("NAME", "GIT", "SCHEDULE", "ENABLED", "LAST SYNCED")
	for _, c := range corpora {
		schedule := "--"
		enabled := "--"
		if cc, ok := cfg.GetCorpusConfig(c.Name); ok {
			schedule = cc.GetSyncSchedule()
			enabled = formatCheckmark(cc.IsEnabled())
		}
		tbl.AddRow(c.Name, c.GitURL, schedule, enabled, formatSyncTime(c.LastSyncedAt))
	}
	tbl.Print()

	return nil
}

// formatCheckmark returns a checkmark or dash for boolean display.
func formatCheckmark(value bool) string {
	if value {
		return "✅"
	}
	return "--"
}
