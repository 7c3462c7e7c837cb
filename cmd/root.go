package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/pcchou102/cwa-weather/internal/config"
	"github.com/pcchou102/cwa-weather/internal/cwa"
	"github.com/pcchou102/cwa-weather/internal/service"
	"github.com/pcchou102/cwa-weather/internal/store"
)

// Version is the release version, overridden at build time via -ldflags.
var Version = "dev"

var (
	cfgFile   string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cwa-weather",
	Short: "Forecast cache daemon for CWA agricultural weather data",
	Long: `cwa-weather pulls the Central Weather Administration's agricultural
weather forecast dataset, normalizes per-location temperature and condition
fields, caches them in SQLite or PostgreSQL with freshness tracking, and
exposes them over a REST API for dashboard frontends.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text, or pretty)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	switch logFormat {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "pretty":
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStore opens the configured store, or returns (nil, nil) when
// persistence is disabled.
func openStore(cfg *config.Config) (store.Store, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	switch cfg.Storage.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.DSN())
	case "postgres":
		return store.NewPostgresStore(cfg.DSN())
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// newService wires the CWA client, store, and orchestrator from config.
// The caller owns the returned store and must Close it; it is nil when
// persistence is disabled.
func newService(cfg *config.Config) (*service.Service, store.Store, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []cwa.ClientOption{
		cwa.WithBaseURL(cfg.API.BaseURL),
		cwa.WithTimeout(cfg.API.Timeout),
	}
	if cfg.API.InsecureSkipVerify {
		opts = append(opts, cwa.WithInsecureSkipVerify())
	}
	client := cwa.NewClient(cfg.API.Key, opts...)

	svc := service.NewService(client, st, slog.Default(),
		service.WithDefaultTTL(cfg.Cache.TTL))
	return svc, st, nil
}
