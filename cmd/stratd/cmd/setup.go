package cmd

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stratd/config"
	"github.com/rustyeddy/stratd/journal"
	"github.com/rustyeddy/stratd/logger"
	"github.com/rustyeddy/stratd/portfolio"
	"github.com/rustyeddy/stratd/strategy"
)

// loadConfig returns the configured or default engine configuration.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgPath)
}

func buildLogger() (*zap.Logger, error) {
	return logger.New(verbose)
}

// buildStrategy wires the configured strategy variant with its risk rule.
// A zero risk factor disables risk-tier entries entirely.
func buildStrategy(cfg *config.Config) (strategy.Strategy, error) {
	scfg := strategy.Config{
		PercentDiffThreshold:    cfg.Strategy.PercentDiffThreshold,
		PercentDiffThresholdRSI: cfg.Strategy.PercentDiffThresholdRSI,
		VolWindow:               cfg.Strategy.VolWindow,
		IndicatorLength:         cfg.Strategy.IndicatorLength,
		RSIBuyThreshold:         cfg.Strategy.RSIBuyThreshold,
		RSISellThreshold:        cfg.Strategy.RSISellThreshold,
		MaxAmountPerOrder:       cfg.Strategy.MaxAmountPerOrder,
		SuperTrend:              cfg.Strategy.SuperTrend,
	}

	var rule strategy.RiskRule = strategy.NeverRisk{}
	if cfg.Strategy.RiskFactor > 0 {
		seed := cfg.Strategy.RiskSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rule = strategy.NewSeededRule(seed, cfg.Strategy.RiskFactor)
	}

	return strategy.ByName(cfg.Strategy.Name, scfg, rule)
}

// buildJournal opens the configured journal backend. Callers own Close.
func buildJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.OrdersFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "none", "":
		return journal.Nop{}, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
}

func buildLedger(cfg *config.Config, log *zap.Logger, j journal.Journal, start time.Time) (*portfolio.Ledger, error) {
	return portfolio.NewLedger(portfolio.Config{
		BuyPower:                cfg.Account.BuyPower,
		TransactionFee:          cfg.Account.TransactionFee,
		MaxHoldingPerInstrument: cfg.Account.MaxHoldingPerInstrument,
		TrailingStopLoss:        cfg.Risk.TrailingStopLoss,
		TrailingTakeProfit:      cfg.Risk.TrailingTakeProfit,
	}, log, j, start)
}
