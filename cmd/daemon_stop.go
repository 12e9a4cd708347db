package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/daemon"
)

var daemonStopCmd = &cobra.Command{
	Use:   stopCmdStr,
	Short: "Stop the background daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	pidFilepath := config.GetDaemonPIDFilepath(rulehubDirpath)
	if err := daemon.StopDaemon(pidFilepath); err != nil {
		return err
	}
	fmt.Println("Daemon stopped.")
	return nil
}
