package cli

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nstehr/dominion/dominion-core/ipc"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer decision requests from a game server over a unix socket",
		Run:   runServe,
	}

	cmd.Flags().StringP("socket", "s", "", "Socket path (default: $DOMINION_SOCKET or /tmp/dominion.sock)")

	RootCmd.AddCommand(cmd)
}

func socketPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("DOMINION_SOCKET"); env != "" {
		return env
	}
	return "/tmp/dominion.sock"
}

func runServe(cmd *cobra.Command, args []string) {
	flag, _ := cmd.Flags().GetString("socket")
	path := socketPath(flag)

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	lib, err := cfg.Library()
	if err != nil {
		exitErr("compile archetypes", err)
	}

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(path); err != nil {
		exitErr("clean up socket", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		exitErr("listen", err)
	}
	defer os.Remove(path)

	slog.Info("listening on domain socket", "path", path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ipc.Serve(ctx, listener, lib); err != nil {
		exitErr("serve", err)
	}
	slog.Info("shutting down")
}
