package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pcchou102/cwa-weather/internal/config"
	"github.com/pcchou102/cwa-weather/internal/service"
)

var (
	weatherTTL     time.Duration
	weatherNoCache bool
)

var weatherCmd = &cobra.Command{
	Use:   "weather <location>",
	Short: "Show the current forecast for one location",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeather,
}

func init() {
	weatherCmd.Flags().DurationVar(&weatherTTL, "ttl", 0, "staleness tolerance for cached data (default from config)")
	weatherCmd.Flags().BoolVar(&weatherNoCache, "no-cache", false, "always fetch from the network")
	rootCmd.AddCommand(weatherCmd)
}

func runWeather(cmd *cobra.Command, args []string) error {
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

	ttl := service.DefaultTTL
	if cmd.Flags().Changed("ttl") {
		ttl = weatherTTL
	}
	if weatherNoCache {
		ttl = service.NoCache
	}

	location := args[0]
	rec := svc.TemperatureInfo(context.Background(), location, ttl)
	if rec == nil {
		return fmt.Errorf("no data for location %q", location)
	}

	fmt.Printf("Location: %s\n", rec.Location)
	fmt.Printf("Date:     %s\n", rec.Date)
	fmt.Printf("High:     %s\n", formatTemp(rec.MaxTemp))
	fmt.Printf("Low:      %s\n", formatTemp(rec.MinTemp))
	fmt.Printf("Weather:  %s\n", rec.Weather)
	if !rec.UpdatedAt.IsZero() {
		fmt.Printf("Updated:  %s\n", rec.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func formatTemp(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f°C", *v)
}
