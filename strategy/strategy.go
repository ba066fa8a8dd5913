// Package strategy evaluates buy/sell eligibility from indicator series.
//
// Each strategy variant implements the same two-sided interface: one method
// per order side, selected by an explicit call, plus a desirability score
// used only for ranking competing candidates.
package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/stratd/indicators"
	"github.com/rustyeddy/stratd/market"
	"github.com/rustyeddy/stratd/order"
)

// Signal is the outcome of evaluating one side of one order.
// Confident is the primary, higher-trust trigger; Risk is the weaker,
// secondary trigger the operator may still act on. The two are reported
// independently so the arbiter can rank confident setups above risky ones.
type Signal struct {
	Confident bool
	Risk      bool
}

// Strategy turns indicator series into trade signals.
type Strategy interface {
	Name() string

	// Transform builds the indicator series this strategy evaluates,
	// from a raw bar window.
	Transform(instrument string, bars []market.Bar) (*indicators.Series, error)

	EvaluateBuy(s *indicators.Series, o order.LimitOrder) Signal
	EvaluateSell(s *indicators.Series, o order.LimitOrder) Signal

	// Score ranks an order against others competing for capital in the same
	// tick. Always within [0, 1]; undefined indicator input maps to a
	// neutral 0.5 and never below a small positive epsilon so strict
	// ordering is preserved.
	Score(s *indicators.Series, o order.LimitOrder) float64

	// AutoOrders derives this tick's candidate orders for one instrument.
	// At most one buy and one sell.
	AutoOrders(s *indicators.Series) []order.LimitOrder
}

// Config carries every strategy threshold. Supplied at construction; no
// strategy reads global state.
type Config struct {
	PercentDiffThreshold    float64 // closeness to a fib level, on close price
	PercentDiffThresholdRSI float64 // closeness to the RSI target, on RSI points
	VolWindow               int     // rolling window for "is volatility rising"
	IndicatorLength         int     // RSI / Bollinger lookback
	RSIBuyThreshold         float64
	RSISellThreshold        float64
	MaxAmountPerOrder       float64 // cash notional per auto-generated order
	SuperTrend              bool    // compute the SuperTrend column
}

func (c Config) indicatorConfig() indicators.Config {
	return indicators.Config{
		Length:     c.IndicatorLength,
		SuperTrend: c.SuperTrend,
	}
}

// ByName constructs a registered strategy variant.
func ByName(name string, cfg Config, rule RiskRule) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "naive":
		return NewNaive(cfg), nil
	case "fib-vol", "fibvol":
		return NewFibVol(cfg, rule), nil
	case "fib-vol-rsi", "fibvolrsi":
		return NewFibVolRSI(cfg, rule), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: naive, fib-vol, fib-vol-rsi)", name)
	}
}

// scoreEpsilon is the floor for non-positive scores: small enough to lose
// every comparison, never zero so ordering stays strict.
const scoreEpsilon = 1e-9

// clampScore maps a raw desirability value into [epsilon, 1], with NaN
// resolving to a neutral 0.5.
func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0.5
	case v <= 0:
		return scoreEpsilon
	case v > 1:
		return 1
	}
	return v
}

// percentDiff returns the relative difference of a against b, 0 when b is 0.
func percentDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b
}

// withinPercent reports |percentDiff(value, target)| <= threshold.
func withinPercent(value, target, threshold float64) bool {
	return math.Abs(percentDiff(value, target)) <= threshold
}
