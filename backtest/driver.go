// Package backtest replays aligned historical bars through the full
// pipeline: indicator transform, signal evaluation, arbitration, and the
// portfolio ledger.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stratd/arbiter"
	"github.com/rustyeddy/stratd/indicators"
	"github.com/rustyeddy/stratd/market"
	"github.com/rustyeddy/stratd/order"
	"github.com/rustyeddy/stratd/portfolio"
	"github.com/rustyeddy/stratd/strategy"
)

// ErrBadWindowing means the configured span cannot produce a usable
// indicator series: after the indicator warmup is trimmed, fewer rows
// remain than the strategy's volatility window needs.
var ErrBadWindowing = errors.New("backtest: span too small for indicator warmup plus vol window")

// Config controls the replay loop.
type Config struct {
	Span            int // bars per evaluation window
	WaitTime        int // bars to advance between evaluations
	IndicatorLength int
	VolWindow       int
}

func (c Config) Validate() error {
	if c.Span <= 0 {
		return fmt.Errorf("backtest: span must be positive, got %d", c.Span)
	}
	if c.WaitTime <= 0 {
		return fmt.Errorf("backtest: wait time must be positive, got %d", c.WaitTime)
	}
	if c.Span-(c.IndicatorLength-1) <= c.VolWindow {
		return fmt.Errorf("%w: span=%d indicator_length=%d vol_window=%d",
			ErrBadWindowing, c.Span, c.IndicatorLength, c.VolWindow)
	}
	return nil
}

// Result summarizes one completed replay.
type Result struct {
	Start, End time.Time
	Ticks      int
	Buys       int
	Sells      int
	FinalValue float64
	History    []portfolio.Snapshot
}

// Driver wires a strategy and a ledger to a set of historical series.
type Driver struct {
	cfg    Config
	strat  strategy.Strategy
	ledger *portfolio.Ledger
	log    *zap.Logger

	series []*market.Series

	// Orders are carried into every tick alongside the strategy's
	// auto-generated ones, re-evaluated against each window.
	Orders []order.LimitOrder
}

// NewDriver validates the windowing, aligns the series in place, and
// returns a driver ready to Run. The series must each be ascending by
// timestamp; alignment drops bars not shared by every instrument.
func NewDriver(cfg Config, strat strategy.Strategy, ledger *portfolio.Ledger, series []*market.Series, log *zap.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, fmt.Errorf("backtest: strategy is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("backtest: ledger is required")
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("backtest: at least one series is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	if err := market.Align(series); err != nil {
		return nil, err
	}
	n := len(series[0].Bars)
	if n < cfg.Span {
		return nil, fmt.Errorf("%w: %d aligned bars, need at least %d",
			market.ErrDataUnavailable, n, cfg.Span)
	}

	return &Driver{
		cfg:    cfg,
		strat:  strat,
		ledger: ledger,
		log:    log,
		series: series,
	}, nil
}

// Run replays the data from the first full window to the end. The first
// evaluation happens once span bars are available, then every WaitTime
// bars. An explicit final valuation closes the history at the data's last
// timestamp even when it falls between evaluation points.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	n := len(d.series[0].Bars)
	res := Result{
		Start: d.series[0].Bars[0].Time,
		End:   d.series[0].Bars[n-1].Time,
	}

	for i := d.cfg.Span; i < n; i += d.cfg.WaitTime {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := d.step(i); err != nil {
			return res, err
		}
		res.Ticks++
	}

	// Final snapshot at the last bar, pure valuation.
	last := make(map[string]float64, len(d.series))
	for _, s := range d.series {
		last[s.Instrument] = s.Bars[n-1].Close
	}
	d.ledger.Valuate(res.End, last)

	res.Buys, res.Sells = d.ledger.Counters()
	res.History = d.ledger.History()
	res.FinalValue = res.History[len(res.History)-1].Value
	return res, nil
}

// step evaluates one tick ending at bar index i.
func (d *Driver) step(i int) error {
	windows := make(map[string][]market.Bar, len(d.series))
	for _, s := range d.series {
		w, err := s.Window(i, d.cfg.Span)
		if err != nil {
			return err
		}
		windows[s.Instrument] = w
	}
	if err := market.CheckAligned(windows, d.cfg.Span); err != nil {
		return err
	}

	tickTime := d.series[0].Bars[i].Time

	transformed := make(map[string]*indicators.Series, len(d.series))
	prices := make(map[string]float64, len(d.series))
	var candidates []order.LimitOrder

	for _, s := range d.series {
		ind, err := d.strat.Transform(s.Instrument, windows[s.Instrument])
		if err != nil {
			return fmt.Errorf("backtest: transform %s at %s: %w",
				s.Instrument, tickTime.Format(time.RFC3339), err)
		}
		transformed[s.Instrument] = ind
		prices[s.Instrument] = ind.Last().Close

		candidates = append(candidates, d.strat.AutoOrders(ind)...)
	}
	for _, o := range d.Orders {
		if _, ok := transformed[o.Instrument]; ok {
			candidates = append(candidates, o)
		}
	}

	accepted, err := arbiter.Arbitrate(tickTime, candidates, transformed, d.strat)
	if err != nil {
		return err
	}

	d.ledger.ProcessTick(portfolio.Tick{
		Time:   tickTime,
		Prices: prices,
		Orders: accepted,
	})
	return nil
}
