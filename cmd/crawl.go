package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pcchou102/cwa-weather/internal/config"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch and store weather data for every location",
	RunE:  runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	svc, st, err := newService(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting crawl")
	result := svc.CrawlAll(ctx)

	fmt.Printf("Crawl complete: %d succeeded, %d failed, %d total\n",
		result.Succeeded, result.Failed, result.Succeeded+result.Failed)

	if stats := svc.Statistics(ctx); stats != nil {
		fmt.Printf("Store: %d records, %d locations, %s\n",
			stats.TotalRecords, stats.UniqueLocations, formatBytes(stats.SizeBytes))
	}

	if result.Succeeded == 0 && result.Failed == 0 {
		return fmt.Errorf("no locations resolved; upstream fetch failed")
	}
	return nil
}
