package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/odyssey/rulehub/internal/catalog"
	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/corpus"
	"github.com/odyssey/rulehub/internal/lint"
)

const (
	// reindexDebounce is the delay after the last filesystem event before
	// triggering a reindex. This batches rapid changes (e.g., an editor
	// writing a file via rename, or a bulk copy into rules/).
	reindexDebounce = 500 * time.Millisecond
)

// runRulesWatcherLoop performs an initial index of the working rules
// directory, then watches it for ongoing changes. Every settled batch of
// changes triggers a reindex plus a lint pass whose counts are logged.
func (d *Daemon) runRulesWatcherLoop(ctx context.Context) {
	rulesDirpath := config.GetRulesDirpath(d.rulehubDirpath)

	d.reindexRules(rulesDirpath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.logger.Printf("Rules watcher: failed to create watcher: %v", err)
		return
	}
	defer watcher.Close()

	d.addRulesWatches(watcher, rulesDirpath)
	d.logger.Printf("Rules watcher: watching '%s'", rulesDirpath)

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isRuleEvent(event) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reindexDebounce, func() {
				d.reindexRules(rulesDirpath)
				// Re-add watches in case subdirectories were created
				d.addRulesWatches(watcher, rulesDirpath)
			})

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.logger.Printf("Rules watcher: fsnotify error: %v", watchErr)
		}
	}
}

// addRulesWatches adds fsnotify watches for the rules directory and every
// subdirectory under it.
func (d *Daemon) addRulesWatches(watcher *fsnotify.Watcher, rulesDirpath string) {
	filepath.Walk(rulesDirpath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			// Ignore errors — path may already be watched or just removed
			watcher.Add(path)
		}
		return nil
	})
}

// isRuleEvent reports whether a filesystem event should count toward a
// reindex: markdown file changes, plus creates/renames/removes of anything
// (a new subdirectory has no extension yet its contents matter).
func isRuleEvent(event fsnotify.Event) bool {
	if strings.HasSuffix(event.Name, ".md") {
		return true
	}
	return event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// reindexRules re-parses the working rules directory into the index and logs
// a lint summary for the refreshed tree.
func (d *Daemon) reindexRules(rulesDirpath string) {
	result, err := corpus.IndexLocalRules(d.rulehubDirpath, d.db)
	if err != nil {
		d.logger.Printf("Rules watcher: reindex failed: %v", err)
		return
	}
	for _, loadErr := range result.LoadErrors {
		d.logger.Printf("Rules watcher: failed to parse '%s': %v", loadErr.Path, loadErr.Err)
	}

	cat, err := catalog.Load(rulesDirpath)
	if err != nil {
		d.logger.Printf("Rules watcher: lint pass failed: %v", err)
		return
	}

	cfg, _, err := config.ReadRulehubConfig(d.rulehubDirpath)
	if err != nil {
		d.logger.Printf("Rules watcher: failed to read config for lint pass: %v", err)
		return
	}

	report := lint.LintCatalog(cat, cfg.LintOptions())
	errorCount, warningCount := report.Counts()
	d.logger.Printf("Rules watcher: indexed %d rules (%d lint errors, %d warnings)",
		result.RuleCount, errorCount, warningCount)
}
