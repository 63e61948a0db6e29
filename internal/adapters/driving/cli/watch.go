package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sefs/internal/adapters/driving/web"
	"github.com/custodia-labs/sefs/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and keep it organised",
	Long: `Scan the root, then watch it for changes. After each quiet period
the files are re-clustered and moved into <domain>/<cluster> folders.

The live view is served over HTTP unless --addr is empty:
  GET  /api/tree        current hierarchy
  GET  /api/stream      server-sent events (snapshot, then notifications)
  GET  /api/runs        recent reorganisation runs
  POST /api/reorganise  run now

Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("addr", "", "live server address (default from settings, empty string disables)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := open(ctx, true)
	if err != nil {
		return err
	}
	defer closeSession(cmd, session)

	addr := session.Settings.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr, _ = cmd.Flags().GetString("addr") //nolint:errcheck // flag is registered above
	}

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	cmd.Printf("Watching %s\n", session.Settings.Root)
	if addr != "" {
		cmd.Printf("Live view on http://%s\n", addr)
	}

	var servers []func(context.Context) error
	if addr != "" {
		servers = append(servers, func(ctx context.Context) error {
			return web.New(session.Organiser).Run(ctx, addr)
		})
	}
	return serveOrganiser(ctx, session, servers...)
}

// serveOrganiser runs the organiser alongside servers. Everything stops when
// ctx is cancelled or any of them returns.
func serveOrganiser(ctx context.Context, session *Session, servers ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return session.Organiser.Run(gctx)
	})
	for _, serve := range servers {
		g.Go(func() error {
			defer cancel()
			return serve(gctx)
		})
	}
	return g.Wait()
}
