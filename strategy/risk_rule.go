package strategy

import (
	"math"
	"math/rand"

	"github.com/rustyeddy/stratd/indicators"
)

// RiskRule decides whether a weaker, secondary trigger should be acted on.
// Rules are injected so backtests stay reproducible: nothing here reads a
// global random source.
type RiskRule interface {
	TakeRisk(s *indicators.Series) bool
}

// SeededRule draws against a risk tolerance from an explicitly seeded
// generator. A Factor of 0.1 takes roughly one risky setup in ten.
type SeededRule struct {
	rng    *rand.Rand
	Factor float64
}

func NewSeededRule(seed int64, factor float64) *SeededRule {
	return &SeededRule{rng: rand.New(rand.NewSource(seed)), Factor: factor}
}

func (r *SeededRule) TakeRisk(*indicators.Series) bool {
	return r.rng.Float64() <= r.Factor
}

// RSITrendRule takes the risk when RSI momentum confirms it: the relative
// RSI change over the trailing Span rows must reach IncrThreshold.
// Fully deterministic, the default for backtesting.
type RSITrendRule struct {
	Span          int
	IncrThreshold float64
}

func (r RSITrendRule) TakeRisk(s *indicators.Series) bool {
	n := len(s.RSI)
	if r.Span <= 0 || n <= r.Span {
		return false
	}
	prev := s.RSI[n-1-r.Span]
	if prev == 0 || math.IsNaN(prev) || math.IsNaN(s.RSI[n-1]) {
		return false
	}
	return (s.RSI[n-1]-prev)/prev >= r.IncrThreshold
}

// NeverRisk declines every risky setup. Used when the operator wants
// confident signals only.
type NeverRisk struct{}

func (NeverRisk) TakeRisk(*indicators.Series) bool { return false }
