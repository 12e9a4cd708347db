package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/daemon"
	"github.com/odyssey/rulehub/internal/server"
	"github.com/odyssey/rulehub/internal/version"
)

var daemonStatusCmd = &cobra.Command{
	Use:   statusCmdStr,
	Short: "Show whether the daemon is running",
	RunE:  runDaemonStatus,
}

func init() {
	daemonCmd.AddCommand(daemonStatusCmd)
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	pidFilepath := config.GetDaemonPIDFilepath(rulehubDirpath)

	pid, err := daemon.ReadPID(pidFilepath)
	if err != nil {
		return err
	}
	if pid == 0 || !daemon.IsProcessRunning(pid) {
		fmt.Println("Daemon is not running.")
		return nil
	}

	fmt.Printf("Daemon is running (PID %d).\n", pid)
	fmt.Printf("Log: %s\n", config.GetDaemonLogFilepath(rulehubDirpath))

	client := server.NewClient(config.GetDaemonSocketFilepath(rulehubDirpath))
	health, err := client.Health()
	if err != nil {
		fmt.Printf("API server is not responding: %v\n", err)
		return nil
	}
	fmt.Printf("Indexed rules: %d\n", health.RuleCount)

	versionBytes, err := os.ReadFile(config.GetDaemonVersionFilepath(rulehubDirpath))
	if err == nil {
		daemonVersion := strings.TrimSpace(string(versionBytes))
		if daemonVersion != version.Version {
			warning := fmt.Sprintf(
				"Daemon was started by version %s but the CLI is %s; restart it with 'rulehub daemon stop && rulehub daemon start'.",
				daemonVersion,
				version.Version,
			)
			fmt.Println(colorize(ansiYellow, warning))
		}
	}

	return nil
}
