package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratd/market/data"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download bar archives for the configured instruments",
	Long: `Fetch downloads <INSTRUMENT>.csv from the given endpoint for every
configured instrument, validates the rows parse, and stores them
xz-compressed in the data directory where backtest reads them.

Example:
  stratd fetch -c stratd.yaml --base https://data.example.com/candles`,
	RunE: runFetch,
}

var (
	fetchBase    string
	fetchWorkers int
	fetchForce   bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchBase, "base", "", "base URL serving <INSTRUMENT>.csv (required)")
	fetchCmd.Flags().IntVar(&fetchWorkers, "workers", 4, "parallel downloads")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-download existing archives")

	fetchCmd.MarkFlagRequired("base")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	f, err := data.NewFetcher(data.FetchConfig{
		BaseURL: fetchBase,
		Dir:     cfg.Data.Dir,
		Workers: fetchWorkers,
		Sleep:   50 * time.Millisecond,
		Force:   fetchForce,
	}, log)
	if err != nil {
		return err
	}

	st, err := f.Fetch(context.Background(), cfg.Strategy.Instruments)
	if err != nil {
		return err
	}

	fmt.Printf("Done. ok=%d skipped=%d failed=%d\n", st.OK, st.Skipped, st.Failed)
	if st.Failed > 0 {
		return fmt.Errorf("%d downloads failed", st.Failed)
	}
	return nil
}
