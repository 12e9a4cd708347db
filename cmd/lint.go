package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/lint"
)

var (
	lintFormat         string
	lintDisabledChecks []string
)

var lintCmd = &cobra.Command{
	Use:           lintCmdStr + " [path...]",
	Short:         "Check the working rules against the corpus conventions",
	Long:          "Check the working rules against the corpus conventions. With path arguments, only findings for those files are reported (corpus-wide checks still run over the full catalog).",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runLint,
}

func init() {
	lintCmd.Flags().StringVar(&lintFormat, "format", "text", "Output format: text or json")
	lintCmd.Flags().StringArrayVar(&lintDisabledChecks, "disable", nil, "Check name to skip (repeatable)")
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	if lintFormat != "text" && lintFormat != "json" {
		return fmt.Errorf("unknown format '%s'; must be text or json", lintFormat)
	}

	cfg, err := readConfig()
	if err != nil {
		return err
	}

	opts := cfg.LintOptions()
	for _, check := range lintDisabledChecks {
		if !lint.IsKnownCheck(check) {
			return fmt.Errorf("unknown lint check '%s'", check)
		}
		opts.DisabledChecks = append(opts.DisabledChecks, check)
	}

	cat, err := loadRulesCatalog()
	if err != nil {
		return err
	}

	report := lint.LintCatalog(cat, opts)
	if len(args) > 0 {
		report = filterReportPaths(report, args)
	}

	if lintFormat == "json" {
		rendered, err := report.RenderJSON()
		if err != nil {
			return err
		}
		fmt.Print(rendered)
	} else {
		printLintReport(report)
	}

	if report.HasErrors() {
		os.Exit(1)
	}
	return nil
}

// filterReportPaths keeps only findings whose path matches one of the given
// paths, compared by full path or basename.
func filterReportPaths(report *lint.Report, paths []string) *lint.Report {
	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		wanted[p] = true
		wanted[filepath.Base(p)] = true
	}

	filtered := &lint.Report{}
	for _, f := range report.Findings {
		if wanted[f.Path] || wanted[filepath.Base(f.Path)] {
			filtered.Findings = append(filtered.Findings, f)
		}
	}
	return filtered
}

// printLintReport renders the report grouped by file with colorized
// severities.
func printLintReport(report *lint.Report) {
	grouped := report.ByFile()
	paths := make([]string, 0, len(grouped))
	for path := range grouped {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fmt.Println(path)
		for _, f := range grouped[path] {
			severity := colorizeSeverity(string(f.Severity))
			if f.Line > 0 {
				fmt.Printf("  %d: %s: %s (%s)\n", f.Line, severity, f.Message, f.Check)
			} else {
				fmt.Printf("  %s: %s (%s)\n", severity, f.Message, f.Check)
			}
		}
	}
	errors, warnings := report.Counts()
	fmt.Printf("%d error(s), %d warning(s)\n", errors, warnings)
}
