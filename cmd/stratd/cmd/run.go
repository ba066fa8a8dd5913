package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratd/broker"
	"github.com/rustyeddy/stratd/confirm"
	"github.com/rustyeddy/stratd/daemon"
	"github.com/rustyeddy/stratd/market"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the strategy loop live against a polling data source",
	Long: `Run polls the data source every poll interval, evaluates the configured
strategy, and executes accepted orders against the paper broker. With
confirmation enabled each order waits for operator approval before it
executes.

The loop is strictly serialized; stop it with SIGINT or SIGTERM.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
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

	ledger, err := buildLedger(cfg, log, j, time.Now().UTC())
	if err != nil {
		return err
	}

	barInterval, err := cfg.Data.ParseInterval()
	if err != nil {
		return err
	}
	pollInterval, err := cfg.Daemon.ParsePollInterval()
	if err != nil {
		return err
	}
	confirmTimeout, err := cfg.Daemon.ParseConfirmTimeout()
	if err != nil {
		return err
	}

	polls := cfg.Daemon.ConfirmPolls
	if polls <= 0 {
		polls = 10
	}

	var conf confirm.Confirmer = confirm.Auto{}
	if cfg.Daemon.Confirm {
		conf = confirm.NewManual()
	}

	d, err := daemon.New(daemon.Config{
		Instruments:     cfg.Strategy.Instruments,
		Span:            cfg.Backtest.Span,
		IndicatorLength: cfg.Strategy.IndicatorLength,
		VolWindow:       cfg.Strategy.VolWindow,
		BarInterval:     barInterval,
		PollInterval:    pollInterval,
		Confirm:         cfg.Daemon.Confirm,
		ConfirmInterval: confirmTimeout / time.Duration(polls),
		ConfirmPolls:    polls,
	}, strat, ledger, market.CSVSource{Dir: cfg.Data.Dir}, broker.Paper{}, conf, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	snap := ledger.Last()
	fmt.Printf("Stopped. Value: $%.2f  Buy power: $%.2f\n", snap.Value, snap.BuyPower)
	return nil
}
