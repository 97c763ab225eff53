package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/linesearch-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/linesearch-go/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/linesearch-go/internal/infrastructure/http"
)

var (
	serveAddr     string
	serveWatchDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and JSON API",
	Long: `Starts the HTTP server with the browser UI and its JSON API. With a
watch directory configured, files dropped into it are loaded as well.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveWatchDir, "watch", "", "drop folder to load files from (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := *appConfig
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveWatchDir != "" {
		cfg.Watch.Dir = serveWatchDir
	}

	a, err := newApp(&cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var watcher *filewatcher.FSNotifyWatcher
	if cfg.Watch.Dir != "" {
		watcher, err = filewatcher.NewFSNotifyWatcher(cfg.Watch.Extensions)
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	g, ctx := errgroup.WithContext(ctx)

	server := httpserver.NewServer(a.session, httpserver.Options{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.ReadTimeout(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	g.Go(func() error { return server.Start(ctx) })

	if watcher != nil {
		g.Go(func() error {
			return a.session.Watch(ctx, watcher, cfg.Watch.Dir, usecases.DefaultSettleDelay)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("linesearch stopped")
	return nil
}
