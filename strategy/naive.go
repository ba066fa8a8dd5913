package strategy

import (
	"math"

	"github.com/rustyeddy/stratd/indicators"
	"github.com/rustyeddy/stratd/market"
	"github.com/rustyeddy/stratd/order"
)

// Naive buys below the limit price and sells above it, nothing else.
// Useful as a smoke-test variant and as the simplest possible example of
// the Strategy interface.
type Naive struct {
	cfg Config
}

func NewNaive(cfg Config) *Naive { return &Naive{cfg: cfg} }

func (n *Naive) Name() string { return "naive" }

func (n *Naive) Transform(instrument string, bars []market.Bar) (*indicators.Series, error) {
	return indicators.Transform(instrument, bars, n.cfg.indicatorConfig())
}

func (n *Naive) EvaluateBuy(s *indicators.Series, o order.LimitOrder) Signal {
	return Signal{Confident: s.Last().Close < o.LimitPrice}
}

func (n *Naive) EvaluateSell(s *indicators.Series, o order.LimitOrder) Signal {
	return Signal{Confident: s.Last().Close > o.LimitPrice}
}

func (n *Naive) Score(s *indicators.Series, o order.LimitOrder) float64 {
	return clampScore(1 - math.Abs(percentDiff(s.Last().Close, o.LimitPrice)))
}

// AutoOrders is a no-op: naive trades only operator-supplied limit orders.
func (n *Naive) AutoOrders(*indicators.Series) []order.LimitOrder { return nil }
