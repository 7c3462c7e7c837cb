package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pcchou102/cwa-weather/internal/api"
	"github.com/pcchou102/cwa-weather/internal/config"
	"github.com/pcchou102/cwa-weather/internal/service"
)

var (
	listenAddr    string
	storageDriver string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cwa-weather daemon (default command)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&storageDriver, "storage-driver", "", "storage driver (overrides config)")
	rootCmd.AddCommand(serveCmd)

	// Make serve the default command.
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Apply flag overrides.
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if storageDriver != "" {
		cfg.Storage.Driver = storageDriver
	}

	slog.Info("starting cwa-weather",
		"listen_addr", cfg.ListenAddr,
		"storage_enabled", cfg.Storage.Enabled,
		"storage_driver", cfg.Storage.Driver,
		"cache_ttl", cfg.Cache.TTL,
		"refresh_interval", cfg.Cache.RefreshInterval,
	)

	svc, st, err := newService(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
		slog.Info("database ready", "driver", cfg.Storage.Driver)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := api.NewServer(svc, slog.Default())
	srv.SetVersion(Version)
	if cfg.Storage.Enabled {
		srv.SetStorageDriver(cfg.Storage.Driver)
	}

	slog.Info("cwa-weather ready", "addr", cfg.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.ListenAddr) })
	if cfg.Storage.Enabled && cfg.Cache.RefreshInterval > 0 {
		g.Go(func() error {
			runRefreshLoop(gctx, svc, cfg.Cache.RefreshInterval)
			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		slog.Error("cwa-weather exited with error", "error", waitErr)
	}

	// Always run graceful cleanup, even on error.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	slog.Info("cwa-weather shutdown complete")
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	return nil
}

// runRefreshLoop crawls the full location set on startup and then on
// every interval tick, keeping the cache warm for the dashboard.
func runRefreshLoop(ctx context.Context, svc *service.Service, interval time.Duration) {
	crawl := func() {
		result := svc.CrawlAll(ctx)
		slog.Info("background refresh complete",
			"succeeded", result.Succeeded,
			"failed", result.Failed,
		)
	}

	crawl()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			crawl()
		}
	}
}
