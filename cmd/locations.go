package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcchou102/cwa-weather/internal/config"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List every location in the forecast dataset",
	RunE:  runLocations,
}

func init() {
	rootCmd.AddCommand(locationsCmd)
}

func runLocations(cmd *cobra.Command, args []string) error {
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

	names := svc.Locations(context.Background())
	if len(names) == 0 {
		return fmt.Errorf("no locations available; upstream fetch failed or schema changed")
	}

	for _, name := range names {
		fmt.Println(name)
	}
	fmt.Printf("\n%d locations\n", len(names))
	return nil
}
