// Package config resolves the rulehub directory layout and loads the
// user-editable config.yml.
package config

import (
	"os"
	"path/filepath"

	"github.com/kurtosis-tech/stacktrace"
)

const (
	rulehubDirpathEnvVar  = "RULEHUB_DIRPATH"
	defaultRulehubDirname = ".rulehub"

	RulesDirname   = "rules"
	CorporaDirname = "corpora"
	DaemonDirname  = "daemon"

	ConfigFilename        = "config.yml"
	DatabaseFilename      = "index.sqlite"
	DaemonPIDFilename     = "daemon.pid"
	DaemonLogFilename     = "daemon.log"
	DaemonSocketFilename  = "rulehub.sock"
	DaemonVersionFilename = "daemon.version"
)

// GetRulehubDirpath returns the rulehub home directory, reading from the
// RULEHUB_DIRPATH environment variable or defaulting to ~/.rulehub.
func GetRulehubDirpath() (string, error) {
	if envVal := os.Getenv(rulehubDirpathEnvVar); envVal != "" {
		return envVal, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", stacktrace.Propagate(err, "failed to determine home directory")
	}
	return filepath.Join(homeDir, defaultRulehubDirname), nil
}

// EnsureDirStructure creates the required rulehub directory structure if it
// doesn't already exist, and seeds a default config file.
func EnsureDirStructure(rulehubDirpath string) error {
	dirs := []string{
		filepath.Join(rulehubDirpath, RulesDirname),
		filepath.Join(rulehubDirpath, CorporaDirname),
		filepath.Join(rulehubDirpath, DaemonDirname),
	}
	for _, dirpath := range dirs {
		if err := os.MkdirAll(dirpath, 0755); err != nil {
			return stacktrace.Propagate(err, "failed to create directory '%s'", dirpath)
		}
	}

	if err := EnsureConfigFile(rulehubDirpath); err != nil {
		return stacktrace.Propagate(err, "failed to seed config file")
	}

	return nil
}

// GetRulesDirpath returns the path to the working rules directory.
func GetRulesDirpath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, RulesDirname)
}

// GetCorporaDirpath returns the path to the directory holding corpus clones.
func GetCorporaDirpath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, CorporaDirname)
}

// GetCorpusDirpath returns the path to a specific corpus clone.
func GetCorpusDirpath(rulehubDirpath string, corpusName string) string {
	return filepath.Join(rulehubDirpath, CorporaDirname, corpusName)
}

// GetDaemonDirpath returns the path to the daemon directory.
func GetDaemonDirpath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, DaemonDirname)
}

// GetDaemonPIDFilepath returns the path to the daemon PID file.
func GetDaemonPIDFilepath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, DaemonDirname, DaemonPIDFilename)
}

// GetDaemonLogFilepath returns the path to the daemon log file.
func GetDaemonLogFilepath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, DaemonDirname, DaemonLogFilename)
}

// GetDaemonSocketFilepath returns the path to the server's unix socket.
func GetDaemonSocketFilepath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, DaemonDirname, DaemonSocketFilename)
}

// GetDaemonVersionFilepath returns the path to the daemon version file.
func GetDaemonVersionFilepath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, DaemonDirname, DaemonVersionFilename)
}

// GetConfigFilepath returns the path to config.yml.
func GetConfigFilepath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, ConfigFilename)
}

// GetDatabaseFilepath returns the path to the SQLite index file.
func GetDatabaseFilepath(rulehubDirpath string) string {
	return filepath.Join(rulehubDirpath, DatabaseFilename)
}
