package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/daemon"
	"github.com/odyssey/rulehub/internal/server"
	"github.com/odyssey/rulehub/internal/version"
)

var daemonStartCmd = &cobra.Command{
	Use:   startCmdStr,
	Short: "Start the background daemon",
	RunE:  runDaemonStart,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	if daemon.IsDaemonProcess() {
		return runDaemonLoop()
	}
	return forkDaemon()
}

// runDaemonLoop is the body of the forked daemon child: the rules watcher,
// the corpus sync scheduler, and the unix-socket API server, all until
// SIGTERM/SIGINT.
func runDaemonLoop() error {
	pidFilepath := config.GetDaemonPIDFilepath(rulehubDirpath)
	if err := os.WriteFile(pidFilepath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return stacktrace.Propagate(err, "failed to write PID file")
	}

	versionFilepath := config.GetDaemonVersionFilepath(rulehubDirpath)
	if err := os.WriteFile(versionFilepath, []byte(version.Version), 0644); err != nil {
		return stacktrace.Propagate(err, "failed to write daemon version file")
	}

	logFilepath := config.GetDaemonLogFilepath(rulehubDirpath)
	logFile, err := os.OpenFile(logFilepath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return stacktrace.Propagate(err, "failed to open log file")
	}
	defer logFile.Close()

	logger := log.New(logFile, "", log.LstdFlags)

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal: %v", sig)
		cancel()
	}()

	d := daemon.NewDaemon(db, rulehubDirpath, logger)
	socketFilepath := config.GetDaemonSocketFilepath(rulehubDirpath)
	srv := server.NewServer(rulehubDirpath, socketFilepath, logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			logger.Printf("Server error: %v", err)
		}
	}()

	wg.Wait()

	os.Remove(pidFilepath)
	logger.Println("Daemon exited")

	return nil
}

func forkDaemon() error {
	pidFilepath := config.GetDaemonPIDFilepath(rulehubDirpath)
	logFilepath := config.GetDaemonLogFilepath(rulehubDirpath)

	pid, err := daemon.ReadPID(pidFilepath)
	if err != nil {
		return err
	}
	if pid > 0 && daemon.IsProcessRunning(pid) {
		fmt.Printf("Daemon is already running (PID %d).\n", pid)
		return nil
	}

	if err := daemon.ForkDaemon(logFilepath, pidFilepath); err != nil {
		return stacktrace.Propagate(err, "failed to fork daemon")
	}

	newPID, _ := daemon.ReadPID(pidFilepath)
	fmt.Printf("Daemon started (PID %d).\n", newPID)

	return nil
}
