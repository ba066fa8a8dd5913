package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Daemon   DaemonConfig   `json:"daemon" yaml:"daemon"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains portfolio initialization parameters.
type AccountConfig struct {
	BuyPower                float64 `json:"buy_power" yaml:"buy_power"`
	TransactionFee          float64 `json:"transaction_fee" yaml:"transaction_fee"`
	MaxHoldingPerInstrument float64 `json:"max_holding_per_instrument" yaml:"max_holding_per_instrument"`
}

// StrategyConfig contains signal evaluation parameters.
type StrategyConfig struct {
	Name                    string   `json:"name" yaml:"name"` // "naive", "fib-vol" or "fib-vol-rsi"
	Instruments             []string `json:"instruments" yaml:"instruments"`
	PercentDiffThreshold    float64  `json:"percent_diff_threshold" yaml:"percent_diff_threshold"`
	PercentDiffThresholdRSI float64  `json:"percent_diff_threshold_rsi" yaml:"percent_diff_threshold_rsi"`
	VolWindow               int      `json:"vol_window" yaml:"vol_window"`
	IndicatorLength         int      `json:"indicator_length" yaml:"indicator_length"`
	RSIBuyThreshold         float64  `json:"rsi_buy_threshold" yaml:"rsi_buy_threshold"`
	RSISellThreshold        float64  `json:"rsi_sell_threshold" yaml:"rsi_sell_threshold"`
	MaxAmountPerOrder       float64  `json:"max_amount_per_order" yaml:"max_amount_per_order"`
	SuperTrend              bool     `json:"super_trend,omitempty" yaml:"super_trend,omitempty"`
	RiskFactor              float64  `json:"risk_factor" yaml:"risk_factor"`
	RiskSeed                int64    `json:"risk_seed,omitempty" yaml:"risk_seed,omitempty"`
}

// RiskConfig contains forced-exit parameters. Fractions of one, a value
// of zero disables the corresponding trigger.
type RiskConfig struct {
	TrailingStopLoss   float64 `json:"trailing_stop_loss" yaml:"trailing_stop_loss"`
	TrailingTakeProfit float64 `json:"trailing_take_profit" yaml:"trailing_take_profit"`
}

// DataConfig locates historical bar archives.
type DataConfig struct {
	Dir      string `json:"dir" yaml:"dir"`
	Interval string `json:"interval" yaml:"interval"` // e.g. "1m", "5m", "1h"
}

// ParseInterval converts the bar interval string to time.Duration.
func (dc DataConfig) ParseInterval() (time.Duration, error) {
	if dc.Interval == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(dc.Interval)
}

// BacktestConfig contains replay windowing parameters.
type BacktestConfig struct {
	Span     int `json:"span" yaml:"span"`
	WaitTime int `json:"wait_time" yaml:"wait_time"`
}

// DaemonConfig contains live-loop parameters.
type DaemonConfig struct {
	PollInterval   string `json:"poll_interval" yaml:"poll_interval"`
	Confirm        bool   `json:"confirm" yaml:"confirm"`
	ConfirmTimeout string `json:"confirm_timeout,omitempty" yaml:"confirm_timeout,omitempty"`
	ConfirmPolls   int    `json:"confirm_polls,omitempty" yaml:"confirm_polls,omitempty"`
}

// ParsePollInterval converts the poll interval string to time.Duration.
func (dc DaemonConfig) ParsePollInterval() (time.Duration, error) {
	if dc.PollInterval == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(dc.PollInterval)
}

// ParseConfirmTimeout converts the confirmation timeout to time.Duration.
func (dc DaemonConfig) ParseConfirmTimeout() (time.Duration, error) {
	if dc.ConfirmTimeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(dc.ConfirmTimeout)
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.BuyPower <= 0 {
		return fmt.Errorf("account.buy_power must be positive")
	}
	if c.Account.TransactionFee < 0 || c.Account.TransactionFee >= 1 {
		return fmt.Errorf("account.transaction_fee must be in [0, 1)")
	}
	if c.Account.MaxHoldingPerInstrument <= 0 {
		return fmt.Errorf("account.max_holding_per_instrument must be positive")
	}
	switch c.Strategy.Name {
	case "naive", "fib-vol", "fib-vol-rsi":
	default:
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
	if len(c.Strategy.Instruments) == 0 {
		return fmt.Errorf("strategy.instruments is required")
	}
	if c.Strategy.PercentDiffThreshold <= 0 {
		return fmt.Errorf("strategy.percent_diff_threshold must be positive")
	}
	if c.Strategy.VolWindow <= 0 {
		return fmt.Errorf("strategy.vol_window must be positive")
	}
	if c.Strategy.IndicatorLength <= 0 {
		return fmt.Errorf("strategy.indicator_length must be positive")
	}
	if c.Strategy.MaxAmountPerOrder <= 0 {
		return fmt.Errorf("strategy.max_amount_per_order must be positive")
	}
	if c.Strategy.RiskFactor < 0 || c.Strategy.RiskFactor > 1 {
		return fmt.Errorf("strategy.risk_factor must be between 0 and 1")
	}
	if c.Risk.TrailingStopLoss < 0 || c.Risk.TrailingStopLoss >= 1 {
		return fmt.Errorf("risk.trailing_stop_loss must be in [0, 1)")
	}
	if c.Risk.TrailingTakeProfit < 0 {
		return fmt.Errorf("risk.trailing_take_profit must be non-negative")
	}
	if c.Backtest.Span <= 0 {
		return fmt.Errorf("backtest.span must be positive")
	}
	if c.Backtest.WaitTime <= 0 {
		return fmt.Errorf("backtest.wait_time must be positive")
	}
	if c.Backtest.Span-(c.Strategy.IndicatorLength-1) <= c.Strategy.VolWindow {
		return fmt.Errorf("backtest.span too small: span minus indicator warmup must exceed strategy.vol_window")
	}
	if _, err := c.Data.ParseInterval(); err != nil {
		return fmt.Errorf("data.interval: %w", err)
	}
	if _, err := c.Daemon.ParsePollInterval(); err != nil {
		return fmt.Errorf("daemon.poll_interval: %w", err)
	}
	if _, err := c.Daemon.ParseConfirmTimeout(); err != nil {
		return fmt.Errorf("daemon.confirm_timeout: %w", err)
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.OrdersFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal orders_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			BuyPower:                3000,
			TransactionFee:          0.01,
			MaxHoldingPerInstrument: 1000,
		},
		Strategy: StrategyConfig{
			Name:                    "fib-vol-rsi",
			Instruments:             []string{"BTC"},
			PercentDiffThreshold:    0.002,
			PercentDiffThresholdRSI: 0.2,
			VolWindow:               15,
			IndicatorLength:         20,
			RSIBuyThreshold:         30,
			RSISellThreshold:        70,
			MaxAmountPerOrder:       100,
			RiskFactor:              0.6,
		},
		Risk: RiskConfig{
			TrailingStopLoss:   0.1,
			TrailingTakeProfit: 0.002,
		},
		Data: DataConfig{
			Dir:      "./data",
			Interval: "1m",
		},
		Backtest: BacktestConfig{
			Span:     60,
			WaitTime: 5,
		},
		Daemon: DaemonConfig{
			PollInterval: "1m",
			Confirm:      false,
		},
		Journal: JournalConfig{
			Type:       "csv",
			OrdersFile: "./orders.csv",
			EquityFile: "./equity.csv",
		},
	}
}
