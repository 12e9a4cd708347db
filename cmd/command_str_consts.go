package cmd

// Centralized command name strings for all CLI commands and subcommands.
// Use these constants in Cobra Use fields and user-facing messages (error
// text, help text, remediation suggestions) so that command names are
// defined in exactly one place.

const (
	// Root command
	rulehubCmdStr = "rulehub"

	// Top-level commands
	lintCmdStr    = "lint"
	ruleCmdStr    = "rule"
	packCmdStr    = "pack"
	indexCmdStr   = "index"
	corpusCmdStr  = "corpus"
	daemonCmdStr  = "daemon"
	serveCmdStr   = "serve"
	versionCmdStr = "version"

	// Subcommands shared across multiple parent commands
	lsCmdStr     = "ls"
	rmCmdStr     = "rm"
	addCmdStr    = "add"
	statusCmdStr = "status"

	// Rule subcommands
	newCmdStr  = "new"
	showCmdStr = "show"
	depsCmdStr = "deps"

	// Corpus subcommands
	syncCmdStr = "sync"

	// Daemon subcommands
	startCmdStr = "start"
	stopCmdStr  = "stop"
)
