package cmd

import (
	"fmt"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/corpus"
	"github.com/odyssey/rulehub/internal/database"
	"github.com/odyssey/rulehub/internal/rule"
	"github.com/odyssey/rulehub/internal/tableprinter"
)

const ruleLsTitleWidth = 48

var (
	ruleLsTier   string
	ruleLsCorpus string
	ruleLsQuery  string
)

var ruleLsCmd = &cobra.Command{
	Use:   lsCmdStr,
	Short: "List indexed rules",
	RunE:  runRuleLs,
}

func init() {
	ruleLsCmd.Flags().StringVar(&ruleLsTier, "tier", "", "Filter to one context tier (core, extended, reference)")
	ruleLsCmd.Flags().StringVar(&ruleLsCorpus, "corpus", "", "Filter to one corpus")
	ruleLsCmd.Flags().StringVarP(&ruleLsQuery, "query", "q", "", "Substring match on slug, title, or keywords")
	ruleCmd.AddCommand(ruleLsCmd)
}

func runRuleLs(cmd *cobra.Command, args []string) error {
	if ruleLsTier != "" && !rule.ContextTier(ruleLsTier).IsValid() {
		return stacktrace.NewError("invalid tier '%s'; must be one of core, extended, reference", ruleLsTier)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	// Refresh the working rules before listing so edits show up without a
	// daemon running
	if _, err := corpus.IndexLocalRules(rulehubDirpath, db); err != nil {
		return stacktrace.Propagate(err, "failed to refresh working rules index")
	}

	rules, err := db.ListRules(database.ListRulesParams{
		Tier:   ruleLsTier,
		Corpus: ruleLsCorpus,
		Query:  ruleLsQuery,
	})
	if err != nil {
		return err
	}

	if len(rules) == 0 {
		fmt.Println("No rules found.")
		return nil
	}

	tbl := tableprinter.NewTable("NUMBER", "SLUG", "TIER", "TOKENS", "CORPUS", "TITLE")
	for _, r := range rules {
		tbl.AddRow(
			r.Number,
			r.Slug,
			colorizeTier(r.Tier),
			formatTokens(r.TokenEstimate),
			r.Corpus,
			tableprinter.Truncate(r.Title, ruleLsTitleWidth),
		)
	}
	tbl.Print()

	return nil
}
