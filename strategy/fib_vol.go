package strategy

import (
	"math"
	"sort"

	"github.com/rustyeddy/stratd/indicators"
	"github.com/rustyeddy/stratd/market"
	"github.com/rustyeddy/stratd/order"
)

// FibVol trades Fibonacci retracement levels filtered by Bollinger-spread
// volatility. The reasoning per side:
//
//   - buy near a support level while volatility is flat or falling
//     (the level is holding);
//   - sell near a resistance level while volatility is rising (price is
//     trying to break through).
//
// A rising-volatility buy is the risky case: it could be resistance or a
// breakthrough, so it only fires when the injected risk rule takes it.
type FibVol struct {
	cfg  Config
	rule RiskRule
}

func NewFibVol(cfg Config, rule RiskRule) *FibVol {
	if rule == nil {
		rule = NeverRisk{}
	}
	return &FibVol{cfg: cfg, rule: rule}
}

func (f *FibVol) Name() string { return "fib-vol" }

func (f *FibVol) Transform(instrument string, bars []market.Bar) (*indicators.Series, error) {
	return indicators.Transform(instrument, bars, f.cfg.indicatorConfig())
}

func (f *FibVol) EvaluateBuy(s *indicators.Series, o order.LimitOrder) Signal {
	within := withinPercent(s.Last().Close, o.LimitPrice, f.cfg.PercentDiffThreshold)
	volUp := indicators.MeanIncreasing(s.BollDiff, f.cfg.VolWindow)

	return Signal{
		Confident: within && !volUp,
		Risk:      within && volUp && f.rule.TakeRisk(s),
	}
}

func (f *FibVol) EvaluateSell(s *indicators.Series, o order.LimitOrder) Signal {
	within := withinPercent(s.Last().Close, o.LimitPrice, f.cfg.PercentDiffThreshold)
	volUp := indicators.MeanIncreasing(s.BollDiff, f.cfg.VolWindow)

	// Rising volatility at resistance is the safe exit, but it can also be
	// the start of a breakout; the risk rule decides whether to hold
	// instead of selling.
	return Signal{
		Confident: within && volUp && !f.rule.TakeRisk(s),
	}
}

func (f *FibVol) Score(s *indicators.Series, o order.LimitOrder) float64 {
	return clampScore(1 - math.Abs(percentDiff(s.Last().Close, o.LimitPrice)))
}

// AutoOrders proposes one sell at the next retracement level above the
// current close (resistance) and one buy at the next level below (support).
func (f *FibVol) AutoOrders(s *indicators.Series) []order.LimitOrder {
	lvls := make([]float64, len(s.FibLevels))
	copy(lvls, s.FibLevels[:])
	sort.Float64s(lvls)

	close := s.Last().Close
	n := len(lvls)

	closest := 0
	for i, lvl := range lvls {
		if math.Abs(lvl-close) < math.Abs(lvls[closest]-close) {
			closest = i
		}
	}

	return []order.LimitOrder{
		{
			Side:       order.Sell,
			Instrument: s.Instrument,
			LimitPrice: lvls[min(closest+1, n-1)],
			Amount:     f.cfg.MaxAmountPerOrder,
		},
		{
			Side:       order.Buy,
			Instrument: s.Instrument,
			LimitPrice: lvls[max(closest-1, 0)],
			Amount:     f.cfg.MaxAmountPerOrder,
		},
	}
}
