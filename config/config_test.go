package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"zero buy power":        func(c *Config) { c.Account.BuyPower = 0 },
		"fee of one":            func(c *Config) { c.Account.TransactionFee = 1 },
		"unknown strategy":      func(c *Config) { c.Strategy.Name = "momentum" },
		"no instruments":        func(c *Config) { c.Strategy.Instruments = nil },
		"zero vol window":       func(c *Config) { c.Strategy.VolWindow = 0 },
		"risk factor above one": func(c *Config) { c.Strategy.RiskFactor = 1.5 },
		"stop loss of one":      func(c *Config) { c.Risk.TrailingStopLoss = 1 },
		"zero span":             func(c *Config) { c.Backtest.Span = 0 },
		"span below warmup":     func(c *Config) { c.Backtest.Span = 20; c.Strategy.IndicatorLength = 15; c.Strategy.VolWindow = 10 },
		"bad interval":          func(c *Config) { c.Data.Interval = "soon" },
		"bad journal type":      func(c *Config) { c.Journal.Type = "kafka" },
		"csv without files":     func(c *Config) { c.Journal.Type = "csv"; c.Journal.OrdersFile = "" },
		"sqlite without path":   func(c *Config) { c.Journal.Type = "sqlite"; c.Journal.DBPath = "" },
	}

	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	raw := `
account:
  buy_power: 5000
  transaction_fee: 0.005
  max_holding_per_instrument: 2000
strategy:
  name: fib-vol
  instruments: [BTC, ETH]
  percent_diff_threshold: 0.003
  vol_window: 10
  indicator_length: 14
  max_amount_per_order: 250
  risk_factor: 0.4
backtest:
  span: 60
  wait_time: 5
journal:
  type: none
`
	path := filepath.Join(t.TempDir(), "stratd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.InDelta(t, 5000, cfg.Account.BuyPower, 1e-9)
	assert.Equal(t, "fib-vol", cfg.Strategy.Name)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Strategy.Instruments)
	assert.Equal(t, 10, cfg.Strategy.VolWindow)
	assert.Equal(t, "none", cfg.Journal.Type)

	// Unset sections keep their defaults.
	assert.Equal(t, Default().Risk.TrailingStopLoss, cfg.Risk.TrailingStopLoss)
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  buy_power: -1\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Account.BuyPower = 7777
	cfg.Strategy.Instruments = []string{"SOL"}

	path := filepath.Join(t.TempDir(), "roundtrip.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 7777, got.Account.BuyPower, 1e-9)
	assert.Equal(t, []string{"SOL"}, got.Strategy.Instruments)
}

func TestParseDurations(t *testing.T) {
	t.Parallel()

	d, err := DataConfig{Interval: "5m"}.ParseInterval()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", d.String())

	// Empty values fall back to sane defaults.
	d, err = DataConfig{}.ParseInterval()
	require.NoError(t, err)
	assert.Equal(t, "1m0s", d.String())

	d, err = DaemonConfig{}.ParseConfirmTimeout()
	require.NoError(t, err)
	assert.Equal(t, "30s", d.String())
}
