package cmd

import (
	"fmt"
	"os"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/pack"
	"github.com/odyssey/rulehub/internal/server"
)

var (
	packKeywords  []string
	packBudget    int
	packOut       string
	packQuiet     bool
	packViaServer bool
)

var packCmd = &cobra.Command{
	Use:   packCmdStr,
	Short: "Assemble a context pack from the working rules",
	Long: `Assemble a context pack: core-tier rules plus every rule matching the
given keywords, dependency-ordered and trimmed to the token budget.`,
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringSliceVarP(&packKeywords, "keywords", "k", nil, "Keywords to match against rule keywords and slugs")
	packCmd.Flags().IntVar(&packBudget, "budget", 0, "Token budget for the pack (default: configured budget)")
	packCmd.Flags().StringVarP(&packOut, "out", "o", "", "Write the assembled pack to a file instead of stdout")
	packCmd.Flags().BoolVarP(&packQuiet, "quiet", "q", false, "Suppress the summary; print only the pack content")
	packCmd.Flags().BoolVar(&packViaServer, "via-server", false, "Build the pack through a running daemon instead of in-process")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	var (
		content     string
		ruleCount   int
		totalTokens int
		budget      int
		skipped     []pack.SkippedRule
	)

	if packViaServer {
		client := server.NewClient(config.GetDaemonSocketFilepath(rulehubDirpath))
		resp, err := client.BuildPack(server.PackRequest{
			Keywords:       packKeywords,
			Budget:         packBudget,
			IncludeContent: true,
		})
		if err != nil {
			return stacktrace.Propagate(err, "failed to build pack via the daemon; is it running?")
		}
		content = resp.Content
		ruleCount = len(resp.Filenames)
		totalTokens = resp.TotalTokens
		budget = resp.Budget
		skipped = resp.Skipped
	} else {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		cat, err := loadRulesCatalog()
		if err != nil {
			return err
		}

		result, err := pack.Build(cat, pack.Request{
			Keywords: packKeywords,
			Budget:   packBudget,
		}, cfg.PackBuildConfig())
		if err != nil {
			return err
		}
		content = result.Render()
		ruleCount = len(result.Rules)
		totalTokens = result.TotalTokens
		budget = result.Budget
		skipped = result.Skipped
	}

	if packOut != "" {
		if err := os.WriteFile(packOut, []byte(content), 0644); err != nil {
			return stacktrace.Propagate(err, "failed to write pack to '%s'", packOut)
		}
	} else {
		fmt.Print(content)
	}

	if packQuiet {
		return nil
	}

	summary := os.Stdout
	if packOut == "" {
		// Content went to stdout; keep the summary out of the pack
		summary = os.Stderr
	}

	fmt.Fprintf(summary, "Packed %d rule(s), %s/%s tokens\n",
		ruleCount, formatTokens(totalTokens), formatTokens(budget))
	for _, s := range skipped {
		fmt.Fprintf(summary, "Skipped %s (%s tokens): %s\n",
			s.Filename, formatTokens(s.Tokens), s.Reason)
	}
	if packOut != "" {
		fmt.Fprintf(summary, "Wrote %s\n", packOut)
	}

	return nil
}
