package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/rule"
)

var ruleNewNumber string

var ruleNewCmd = &cobra.Command{
	Use:   newCmdStr + " <slug>",
	Short: "Scaffold a new rule document in the working rules directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuleNew,
}

func init() {
	ruleNewCmd.Flags().StringVar(&ruleNewNumber, "number", "", "Number prefix for the new rule (default: next free number)")
	ruleCmd.AddCommand(ruleNewCmd)
}

func runRuleNew(cmd *cobra.Command, args []string) error {
	slug := args[0]

	cat, err := loadRulesCatalog()
	if err != nil {
		return err
	}

	var numbers []string
	for _, doc := range cat.Docs {
		if doc.Number != "" {
			numbers = append(numbers, doc.Number)
		}
	}

	number := ruleNewNumber
	if number == "" {
		number, err = nextFreeNumber(numbers)
		if err != nil {
			return err
		}
	}

	filename := fmt.Sprintf("%s-%s.md", number, slug)
	if !rule.IsRuleFilename(filename) {
		return stacktrace.NewError(
			"'%s' does not follow the NNN[a-z]-topic-name.md convention; check the number prefix and slug",
			filename,
		)
	}
	if existing, ok := cat.Lookup(filename); ok {
		return stacktrace.NewError("rule '%s' already exists at '%s'", filename, existing.Path)
	}
	if docs := cat.ByNumber(number); len(docs) > 0 {
		return stacktrace.NewError("number '%s' is already used by '%s'", number, docs[0].Filename)
	}

	content, err := rule.NewRuleContent(slug, time.Now())
	if err != nil {
		return err
	}

	rulePath := filepath.Join(config.GetRulesDirpath(rulehubDirpath), filename)
	if err := os.WriteFile(rulePath, []byte(content), 0644); err != nil {
		return stacktrace.Propagate(err, "failed to write rule file '%s'", rulePath)
	}

	fmt.Printf("Created %s\n", rulePath)
	return nil
}

// nextFreeNumber returns the lowest three-digit multiple of ten above every
// existing rule number, matching the corpus habit of numbering in tens to
// leave room for insertions.
func nextFreeNumber(numbers []string) (string, error) {
	highest := 0
	for _, number := range numbers {
		// Letter suffixes ("011a") share their base number
		digits := number
		if len(digits) > 3 {
			digits = digits[:3]
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	next := ((highest / 10) + 1) * 10
	if next > 999 {
		return "", stacktrace.NewError("no free rule numbers left below 999; pick one explicitly with --number")
	}
	return fmt.Sprintf("%03d", next), nil
}
