package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/server"
)

var serveSocketFilepath string

var serveCmd = &cobra.Command{
	Use:   serveCmdStr,
	Short: "Run the API server in the foreground (without the daemon loops)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(
		&serveSocketFilepath,
		"socket",
		"",
		"Unix socket path to listen on (defaults to the daemon socket)",
	)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	socketFilepath := serveSocketFilepath
	if socketFilepath == "" {
		socketFilepath = config.GetDaemonSocketFilepath(rulehubDirpath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		cancel()
	}()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	srv := server.NewServer(rulehubDirpath, socketFilepath, logger)
	return srv.Run(ctx)
}
