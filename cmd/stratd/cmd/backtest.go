package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratd/backtest"
	"github.com/rustyeddy/stratd/market"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay archived bar data through the strategy pipeline",
	Long: `Backtest replays historical bars for the configured instruments and
reports the resulting equity curve and trade counts.

Bar files are read from the data directory, one per instrument, named
<INSTRUMENT>.csv or <INSTRUMENT>.csv.xz with a time,open,high,low,close,volume
layout.

Example:
  stratd backtest -c stratd.yaml --data ./data`,
	RunE: runBacktest,
}

var btDataDir string

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&btDataDir, "data", "", "bar archive directory (overrides config)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if btDataDir != "" {
		cfg.Data.Dir = btDataDir
	}

	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	strat, err := buildStrategy(cfg)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	j, err := buildJournal(cfg)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer j.Close()

	series := make([]*market.Series, 0, len(cfg.Strategy.Instruments))
	for _, instr := range cfg.Strategy.Instruments {
		path := filepath.Join(cfg.Data.Dir, instr+".csv")
		s, err := market.LoadCSV(path, instr)
		if err != nil {
			s, err = market.LoadCSV(path+".xz", instr)
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", instr, err)
		}
		series = append(series, s)
	}

	ledger, err := buildLedger(cfg, log, j, series[0].Bars[0].Time)
	if err != nil {
		return err
	}

	driver, err := backtest.NewDriver(backtest.Config{
		Span:            cfg.Backtest.Span,
		WaitTime:        cfg.Backtest.WaitTime,
		IndicatorLength: cfg.Strategy.IndicatorLength,
		VolWindow:       cfg.Strategy.VolWindow,
	}, strat, ledger, series, log)
	if err != nil {
		return err
	}

	fmt.Printf("Running backtest with strategy: %s\n", strat.Name())
	fmt.Printf("  Instruments: %v\n", cfg.Strategy.Instruments)
	fmt.Printf("  Data: %s\n\n", cfg.Data.Dir)

	res, err := driver.Run(context.Background())
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	fmt.Printf("Backtest Complete!\n")
	fmt.Printf("  Range: %s -> %s\n", res.Start.Format("2006-01-02 15:04"), res.End.Format("2006-01-02 15:04"))
	fmt.Printf("  Ticks: %d\n", res.Ticks)
	fmt.Printf("  Buys: %d  Sells: %d\n", res.Buys, res.Sells)
	fmt.Printf("  Final Value: $%.2f (started $%.2f)\n", res.FinalValue, cfg.Account.BuyPower)
	return nil
}
