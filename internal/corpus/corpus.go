// Package corpus manages git-backed rule corpora: cloning them under the
// rulehub corpora directory, pulling updates, and refreshing the index from
// what's on disk.
package corpus

import (
	"os"
	"os/exec"
	"strings"

	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/rulehub/internal/catalog"
	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/database"
)

// GetDefaultBranch returns the default branch name for a repository by reading
// origin/HEAD. Returns just the branch name (e.g. "main", "master").
func GetDefaultBranch(repoDirpath string) (string, error) {
	cmd := exec.Command("git", "symbolic-ref", "refs/remotes/origin/HEAD")
	cmd.Dir = repoDirpath
	output, err := cmd.Output()
	if err != nil {
		return "", stacktrace.NewError("failed to determine default branch in '%s' (origin/HEAD not set)", repoDirpath)
	}
	ref := strings.TrimSpace(string(output))
	return strings.TrimPrefix(ref, "refs/remotes/origin/"), nil
}

// ValidateGitRepo checks that the given directory is a Git repository with an
// origin remote.
func ValidateGitRepo(repoDirpath string) error {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = repoDirpath
	if output, err := cmd.CombinedOutput(); err != nil {
		return stacktrace.NewError("'%s' is not a git repository: %s", repoDirpath, strings.TrimSpace(string(output)))
	}

	cmd = exec.Command("git", "remote", "get-url", "origin")
	cmd.Dir = repoDirpath
	if output, err := cmd.CombinedOutput(); err != nil {
		return stacktrace.NewError("repository '%s' has no origin remote: %s", repoDirpath, strings.TrimSpace(string(output)))
	}

	return nil
}

// EnsureClone clones the corpus into the corpora directory if not already
// present. Returns the clone directory path.
func EnsureClone(rulehubDirpath string, corpusName string, gitURL string) (string, error) {
	cloneDirpath := config.GetCorpusDirpath(rulehubDirpath, corpusName)

	// If already cloned, return immediately
	if _, err := os.Stat(cloneDirpath); err == nil {
		return cloneDirpath, nil
	}

	gitCmd := exec.Command("git", "clone", gitURL, cloneDirpath)
	output, err := gitCmd.CombinedOutput()
	if err != nil {
		return "", stacktrace.NewError("failed to clone '%s': %s", gitURL, strings.TrimSpace(string(output)))
	}

	return cloneDirpath, nil
}

// Pull fast-forwards the clone to the remote's default branch, discovered via
// origin/HEAD so a corpus whose default branch moved still syncs the right
// one. Local edits to a corpus clone are not supported, so a non-fast-forward
// pull fails rather than merging.
func Pull(repoDirpath string) error {
	fetchCmd := exec.Command("git", "fetch", "origin")
	fetchCmd.Dir = repoDirpath
	if output, err := fetchCmd.CombinedOutput(); err != nil {
		return stacktrace.NewError("failed to fetch '%s': %s", repoDirpath, strings.TrimSpace(string(output)))
	}

	defaultBranch, err := GetDefaultBranch(repoDirpath)
	if err != nil {
		return stacktrace.Propagate(err, "failed to resolve the default branch of '%s'", repoDirpath)
	}

	pullCmd := exec.Command("git", "pull", "--ff-only", "origin", defaultBranch)
	pullCmd.Dir = repoDirpath
	if output, err := pullCmd.CombinedOutput(); err != nil {
		return stacktrace.NewError("failed to fast-forward '%s' (local commits in a corpus clone?): %s", repoDirpath, strings.TrimSpace(string(output)))
	}

	return nil
}

// Remove deletes a corpus clone from disk. Missing clones are not an error so
// removal stays idempotent.
func Remove(rulehubDirpath string, corpusName string) error {
	cloneDirpath := config.GetCorpusDirpath(rulehubDirpath, corpusName)
	if err := os.RemoveAll(cloneDirpath); err != nil {
		return stacktrace.Propagate(err, "failed to remove corpus clone '%s'", cloneDirpath)
	}
	return nil
}

// SyncResult summarizes one corpus sync.
type SyncResult struct {
	CorpusName string
	RuleCount  int
	LoadErrors []catalog.LoadError
}

// Sync brings one corpus up to date: clone if missing, fast-forward pull,
// re-parse the clone's rules, and replace the corpus's rows in the index.
// Files that fail to parse are reported in the result and left out of the
// index rather than failing the sync.
func Sync(rulehubDirpath string, corpusName string, gitURL string, db *database.DB) (*SyncResult, error) {
	cloneDirpath, err := EnsureClone(rulehubDirpath, corpusName, gitURL)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to ensure clone of corpus '%s'", corpusName)
	}

	if err := Pull(cloneDirpath); err != nil {
		return nil, stacktrace.Propagate(err, "failed to pull corpus '%s'", corpusName)
	}

	cat, err := catalog.Load(cloneDirpath)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to load rules of corpus '%s'", corpusName)
	}

	rows := make([]database.Rule, 0, len(cat.Docs))
	for _, doc := range cat.Docs {
		rows = append(rows, database.RuleFromDocument(doc, corpusName))
	}
	if err := db.ReplaceCorpusRules(corpusName, rows); err != nil {
		return nil, stacktrace.Propagate(err, "failed to reindex corpus '%s'", corpusName)
	}

	if err := db.UpdateCorpusSyncTime(corpusName); err != nil {
		return nil, stacktrace.Propagate(err, "failed to record sync time for corpus '%s'", corpusName)
	}

	return &SyncResult{
		CorpusName: corpusName,
		RuleCount:  len(rows),
		LoadErrors: cat.LoadErrors,
	}, nil
}

// IndexLocalRules re-parses the working rules directory and replaces the
// reserved local corpus's rows in the index.
func IndexLocalRules(rulehubDirpath string, db *database.DB) (*SyncResult, error) {
	rulesDirpath := config.GetRulesDirpath(rulehubDirpath)

	cat, err := catalog.Load(rulesDirpath)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to load working rules from '%s'", rulesDirpath)
	}

	rows := make([]database.Rule, 0, len(cat.Docs))
	for _, doc := range cat.Docs {
		rows = append(rows, database.RuleFromDocument(doc, config.ReservedLocalCorpusName))
	}
	if err := db.ReplaceCorpusRules(config.ReservedLocalCorpusName, rows); err != nil {
		return nil, stacktrace.Propagate(err, "failed to reindex working rules")
	}

	return &SyncResult{
		CorpusName: config.ReservedLocalCorpusName,
		RuleCount:  len(rows),
		LoadErrors: cat.LoadErrors,
	}, nil
}
