package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/odyssey/rulehub/internal/catalog"
	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/database"
)

// readConfig loads config.yml, discarding the comment map.
func readConfig() (*config.RulehubConfig, error) {
	cfg, _, err := config.ReadRulehubConfig(rulehubDirpath)
	return cfg, err
}

// openDatabase opens the SQLite index for this rulehub directory.
func openDatabase() (*database.DB, error) {
	return database.Open(config.GetDatabaseFilepath(rulehubDirpath))
}

// loadRulesCatalog parses the working rules directory.
func loadRulesCatalog() (*catalog.Catalog, error) {
	return catalog.Load(config.GetRulesDirpath(rulehubDirpath))
}

// useColor reports whether output should be colorized.
func useColor() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps s in the given ANSI color when stdout is a terminal.
func colorize(color string, s string) string {
	if !useColor() {
		return s
	}
	return color + s + ansiReset
}

// colorizeTier renders a context tier with its conventional color: core
// rules are always loaded so they get the strongest color.
func colorizeTier(tier string) string {
	switch tier {
	case "core":
		return colorize(ansiGreen, tier)
	case "extended":
		return colorize(ansiYellow, tier)
	case "reference":
		return colorize(ansiDarkGray, tier)
	default:
		return tier
	}
}

// colorizeSeverity renders a lint severity with its conventional color.
func colorizeSeverity(severity string) string {
	switch severity {
	case "error":
		return colorize(ansiRed, severity)
	case "warning":
		return colorize(ansiYellow, severity)
	default:
		return severity
	}
}

// formatSyncTime renders a nullable sync timestamp for table display.
func formatSyncTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// formatTokens renders a token count with a thousands separator for readability.
func formatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%d,%03d", tokens/1000, tokens%1000)
}
