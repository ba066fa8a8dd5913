// Package arbiter resolves the candidate orders of one tick into at most one
// actionable order per instrument per side, ranked by score.
package arbiter

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/stratd/indicators"
	"github.com/rustyeddy/stratd/order"
	"github.com/rustyeddy/stratd/strategy"
)

// Candidate is an accepted order together with the signal tier that
// accepted it and the score it was ranked by.
type Candidate struct {
	Order     order.Order
	Confident bool
	Risk      bool
	Score     float64
}

// ConflictError reports a strategy-definition bug: both sides of one
// instrument signaling the same tier in the same tick. It aborts the run.
type ConflictError struct {
	Instrument string
	Tick       time.Time
	Tier       string // "confident" or "risk"
	Buy, Sell  strategy.Signal
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"arbiter: %s at %s: both buy and sell report %s (buy=%+v sell=%+v); strategy bug",
		e.Instrument, e.Tick.Format(time.RFC3339), e.Tier, e.Buy, e.Sell)
}

// Arbitrate groups this tick's orders per instrument, evaluates both sides,
// rejects contract violations, and returns the surviving candidates sorted
// by descending score so capital-constrained ticks fill the strongest
// setups first.
//
// Orders for instruments missing from series are dropped: their indicator
// window did not materialize this tick.
func Arbitrate(
	tick time.Time,
	orders []order.LimitOrder,
	series map[string]*indicators.Series,
	strat strategy.Strategy,
) ([]Candidate, error) {

	grouped := make(map[string][]order.LimitOrder)
	var instruments []string
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return nil, err
		}
		if _, seen := grouped[o.Instrument]; !seen {
			instruments = append(instruments, o.Instrument)
		}
		grouped[o.Instrument] = append(grouped[o.Instrument], o)
	}
	sort.Strings(instruments) // deterministic evaluation order

	var out []Candidate
	for _, instr := range instruments {
		group := grouped[instr]
		s, ok := series[instr]
		if !ok {
			continue
		}

		if len(group) > 2 {
			return nil, fmt.Errorf(
				"arbiter: %s at %s: %d orders in one tick, expected at most one buy and one sell",
				instr, tick.Format(time.RFC3339), len(group))
		}

		var cands []Candidate
		var err error
		if len(group) == 2 {
			cands, err = resolvePair(tick, group, s, strat)
		} else {
			cands = resolveSingle(group[0], s, strat)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cands...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// resolvePair arbitrates a buy/sell pair for the same instrument: confident
// beats risk, the same tier on both sides is fatal, and silence on both
// sides drops the pair.
func resolvePair(tick time.Time, group []order.LimitOrder, s *indicators.Series, strat strategy.Strategy) ([]Candidate, error) {
	buy, sell := group[0], group[1]
	if buy.Side == sell.Side {
		return nil, fmt.Errorf(
			"arbiter: %s at %s: two %s orders in one tick",
			buy.Instrument, tick.Format(time.RFC3339), buy.Side)
	}
	if buy.Side == order.Sell {
		buy, sell = sell, buy
	}

	buySig := strat.EvaluateBuy(s, buy)
	sellSig := strat.EvaluateSell(s, sell)

	if buySig.Confident && sellSig.Confident {
		return nil, &ConflictError{
			Instrument: buy.Instrument, Tick: tick, Tier: "confident",
			Buy: buySig, Sell: sellSig,
		}
	}
	if buySig.Risk && sellSig.Risk {
		return nil, &ConflictError{
			Instrument: buy.Instrument, Tick: tick, Tier: "risk",
			Buy: buySig, Sell: sellSig,
		}
	}

	pick := func(o order.LimitOrder, sig strategy.Signal) []Candidate {
		return []Candidate{{
			Order:     o.Resolve(s.Last()),
			Confident: sig.Confident,
			Risk:      sig.Risk,
			Score:     strat.Score(s, o),
		}}
	}

	switch {
	case buySig.Confident:
		return pick(buy, buySig), nil
	case sellSig.Confident:
		return pick(sell, sellSig), nil
	case buySig.Risk:
		return pick(buy, buySig), nil
	case sellSig.Risk:
		return pick(sell, sellSig), nil
	}
	return nil, nil // neither side signals; drop both
}

func resolveSingle(o order.LimitOrder, s *indicators.Series, strat strategy.Strategy) []Candidate {
	var sig strategy.Signal
	switch o.Side {
	case order.Buy:
		sig = strat.EvaluateBuy(s, o)
	case order.Sell:
		sig = strat.EvaluateSell(s, o)
	}
	if !sig.Confident && !sig.Risk {
		return nil
	}
	return []Candidate{{
		Order:     o.Resolve(s.Last()),
		Confident: sig.Confident,
		Risk:      sig.Risk,
		Score:     strat.Score(s, o),
	}}
}
