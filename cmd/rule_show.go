package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/corpus"
)

var ruleShowContent bool

var ruleShowCmd = &cobra.Command{
	Use:   showCmdStr + " <rule>",
	Short: "Show an indexed rule's metadata, or its full content with --content",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuleShow,
}

func init() {
	ruleShowCmd.Flags().BoolVar(&ruleShowContent, "content", false, "Print the rule's markdown content instead of its metadata")
	ruleCmd.AddCommand(ruleShowCmd)
}

func runRuleShow(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := corpus.IndexLocalRules(rulehubDirpath, db); err != nil {
		return stacktrace.Propagate(err, "failed to refresh working rules index")
	}

	r, err := db.ResolveRuleID(args[0])
	if err != nil {
		return err
	}

	if ruleShowContent {
		content, err := os.ReadFile(r.Path)
		if err != nil {
			return stacktrace.Propagate(err, "failed to read rule file '%s'", r.Path)
		}
		fmt.Print(string(content))
		return nil
	}

	fmt.Printf("Number:       %s\n", r.Number)
	fmt.Printf("Slug:         %s\n", r.Slug)
	fmt.Printf("Title:        %s\n", r.Title)
	fmt.Printf("Path:         %s\n", r.Path)
	fmt.Printf("Corpus:       %s\n", r.Corpus)
	fmt.Printf("Tier:         %s\n", colorizeTier(r.Tier))
	fmt.Printf("Version:      %s (schema %d)\n", r.RuleVersion, r.SchemaVersion)
	fmt.Printf("Last updated: %s\n", r.LastUpdated)
	fmt.Printf("Tokens:       %s", formatTokens(r.TokenEstimate))
	if r.TokenBudget > 0 {
		fmt.Printf(" (budget %s)", formatTokens(r.TokenBudget))
	}
	fmt.Println()
	if len(r.Keywords) > 0 {
		fmt.Printf("Keywords:     %s\n", strings.Join(r.Keywords, ", "))
	}
	if len(r.Depends) > 0 {
		fmt.Printf("Depends:      %s\n", strings.Join(r.Depends, ", "))
	}

	return nil
}
