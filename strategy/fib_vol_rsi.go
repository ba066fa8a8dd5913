package strategy

import (
	"math"

	"github.com/rustyeddy/stratd/indicators"
	"github.com/rustyeddy/stratd/order"
)

// FibVolRSI extends FibVol with RSI confirmation on both legs, and uses
// RSI-target closeness in its ranking score. This is the most complete
// variant and the default for backtesting.
type FibVolRSI struct {
	*FibVol
}

func NewFibVolRSI(cfg Config, rule RiskRule) *FibVolRSI {
	return &FibVolRSI{FibVol: NewFibVol(cfg, rule)}
}

func (f *FibVolRSI) Name() string { return "fib-vol-rsi" }

func (f *FibVolRSI) EvaluateBuy(s *indicators.Series, o order.LimitOrder) Signal {
	cfg := f.cfg
	withinFib := withinPercent(s.Last().Close, o.LimitPrice, cfg.PercentDiffThreshold)
	volUp := indicators.MeanIncreasing(s.BollDiff, cfg.VolWindow)

	// stabilizing at support
	confident := withinFib && !volUp

	// Rising volatility near support is only worth the risk when RSI sits
	// near the buy threshold and keeps climbing.
	withinRSI := withinPercent(lastRSI(s), cfg.RSIBuyThreshold, cfg.PercentDiffThresholdRSI)
	rsiUp := indicators.MeanIncreasing(s.RSI, cfg.VolWindow)

	return Signal{
		Confident: confident,
		Risk:      withinFib && volUp && withinRSI && rsiUp,
	}
}

func (f *FibVolRSI) EvaluateSell(s *indicators.Series, o order.LimitOrder) Signal {
	cfg := f.cfg
	withinFib := withinPercent(s.Last().Close, o.LimitPrice, cfg.PercentDiffThreshold)
	volUp := indicators.MeanIncreasing(s.BollDiff, cfg.VolWindow)

	// trying to break resistance
	confident := withinFib && volUp

	// RSI hovering at the sell threshold without momentum says the rally is
	// exhausted; with RSI still climbing, hold instead.
	withinRSI := withinPercent(lastRSI(s), cfg.RSISellThreshold, cfg.PercentDiffThresholdRSI)
	rsiUp := indicators.MeanIncreasing(s.RSI, cfg.VolWindow)

	return Signal{
		Confident: confident && withinRSI && !rsiUp,
	}
}

// Score averages closeness to the limit price and closeness of RSI to the
// side's threshold, both normalized to [0, 1].
func (f *FibVolRSI) Score(s *indicators.Series, o order.LimitOrder) float64 {
	target := f.cfg.RSIBuyThreshold
	if o.Side == order.Sell {
		target = f.cfg.RSISellThreshold
	}

	priceCloseness := 1 - math.Abs(percentDiff(s.Last().Close, o.LimitPrice))
	rsiCloseness := 1 - math.Abs(lastRSI(s)-target)/100

	return clampScore((priceCloseness + rsiCloseness) / 2)
}

func lastRSI(s *indicators.Series) float64 {
	if len(s.RSI) == 0 {
		return math.NaN()
	}
	return s.RSI[len(s.RSI)-1]
}
