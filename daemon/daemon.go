// Package daemon runs the strategy pipeline against a live data source on
// a fixed poll interval. The loop is strictly serialized: one tick runs to
// completion before the next is considered, and a tick that outlasts its
// interval simply delays the next one.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stratd/arbiter"
	"github.com/rustyeddy/stratd/broker"
	"github.com/rustyeddy/stratd/confirm"
	"github.com/rustyeddy/stratd/indicators"
	"github.com/rustyeddy/stratd/market"
	"github.com/rustyeddy/stratd/order"
	"github.com/rustyeddy/stratd/portfolio"
	"github.com/rustyeddy/stratd/strategy"
)

// Config controls the live loop.
type Config struct {
	Instruments     []string
	Span            int
	IndicatorLength int
	VolWindow       int
	BarInterval     time.Duration
	PollInterval    time.Duration

	Confirm         bool
	ConfirmInterval time.Duration // spacing between confirmation polls
	ConfirmPolls    int
}

func (c Config) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("daemon: at least one instrument is required")
	}
	if c.Span <= 0 {
		return fmt.Errorf("daemon: span must be positive, got %d", c.Span)
	}
	if c.Span-(c.IndicatorLength-1) <= c.VolWindow {
		return fmt.Errorf("daemon: span=%d too small for indicator_length=%d and vol_window=%d",
			c.Span, c.IndicatorLength, c.VolWindow)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("daemon: poll interval must be positive")
	}
	if c.Confirm && (c.ConfirmInterval <= 0 || c.ConfirmPolls <= 0) {
		return fmt.Errorf("daemon: confirm interval and polls must be positive when confirmation is on")
	}
	return nil
}

// Daemon owns the live pipeline. Not safe for concurrent use.
type Daemon struct {
	cfg    Config
	strat  strategy.Strategy
	ledger *portfolio.Ledger
	src    market.HistoricalSource
	sink   broker.ExecutionSink
	conf   confirm.Confirmer
	log    *zap.Logger

	// Orders are operator-supplied limit orders re-evaluated every tick.
	Orders []order.LimitOrder
}

func New(cfg Config, strat strategy.Strategy, ledger *portfolio.Ledger, src market.HistoricalSource, sink broker.ExecutionSink, conf confirm.Confirmer, log *zap.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strat == nil || ledger == nil || src == nil || sink == nil {
		return nil, fmt.Errorf("daemon: strategy, ledger, source and sink are required")
	}
	if conf == nil {
		conf = confirm.Auto{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Daemon{
		cfg:    cfg,
		strat:  strat,
		ledger: ledger,
		src:    src,
		sink:   sink,
		conf:   conf,
		log:    log,
	}, nil
}

// Run polls until the context is cancelled. Data-source failures are
// logged and the tick skipped; pipeline contract violations abort the run.
func (d *Daemon) Run(ctx context.Context) error {
	d.log.Info("daemon starting",
		zap.Strings("instruments", d.cfg.Instruments),
		zap.Duration("poll_interval", d.cfg.PollInterval),
		zap.Bool("confirm", d.cfg.Confirm))

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("daemon stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
		}

		if err := d.tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if recoverable(err) {
				d.log.Warn("tick skipped", zap.Error(err))
				continue
			}
			d.log.Error("fatal pipeline error", zap.Error(err))
			return err
		}
	}
}

// tick fetches the freshest window for every instrument and runs one full
// pipeline pass.
func (d *Daemon) tick(ctx context.Context) error {
	transformed := make(map[string]*indicators.Series, len(d.cfg.Instruments))
	prices := make(map[string]float64, len(d.cfg.Instruments))
	var tickTime time.Time
	var candidates []order.LimitOrder

	for _, instr := range d.cfg.Instruments {
		bars, err := d.src.GetBars(ctx, instr, d.cfg.BarInterval, d.cfg.Span)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", market.ErrDataUnavailable, instr, err)
		}
		if len(bars) < d.cfg.Span {
			return fmt.Errorf("%w: %s returned %d bars, want %d",
				market.ErrDataUnavailable, instr, len(bars), d.cfg.Span)
		}

		ind, err := d.strat.Transform(instr, bars)
		if err != nil {
			return fmt.Errorf("daemon: transform %s: %w", instr, err)
		}
		transformed[instr] = ind
		last := ind.Last()
		prices[instr] = last.Close
		if last.Time.After(tickTime) {
			tickTime = last.Time
		}

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

	confirmed, err := d.confirmAll(ctx, accepted)
	if err != nil {
		return err
	}

	// A sink failure is the venue's problem, not the pipeline's. Skip the
	// failed order, keep the fills that did land, and ledger only those so
	// the book matches what actually executed.
	executed := make([]arbiter.Candidate, 0, len(confirmed))
	for _, cand := range confirmed {
		if _, err := d.sink.ExecuteMarket(ctx, cand.Order); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.Warn("order execution failed",
				zap.String("side", string(cand.Order.Side)),
				zap.String("instrument", cand.Order.Instrument),
				zap.Error(err))
			continue
		}
		executed = append(executed, cand)
	}

	snap := d.ledger.ProcessTick(portfolio.Tick{
		Time:   tickTime,
		Prices: prices,
		Orders: executed,
	})
	d.log.Info("tick processed",
		zap.Time("tick", tickTime),
		zap.Int("orders", len(executed)),
		zap.Float64("value", snap.Value),
		zap.Float64("buy_power", snap.BuyPower))
	return nil
}

// confirmAll gates each accepted order through the confirmer. Unapproved
// orders are dropped, not retried.
func (d *Daemon) confirmAll(ctx context.Context, accepted []arbiter.Candidate) ([]arbiter.Candidate, error) {
	if !d.cfg.Confirm {
		return accepted, nil
	}

	var out []arbiter.Candidate
	for _, cand := range accepted {
		req, err := d.conf.Submit(ctx, cand.Order)
		if err != nil {
			return nil, fmt.Errorf("daemon: submit confirmation: %w", err)
		}
		ok, err := confirm.Wait(ctx, d.conf, req, d.cfg.ConfirmInterval, d.cfg.ConfirmPolls)
		if err != nil {
			return nil, err
		}
		if !ok {
			d.log.Warn("order not confirmed",
				zap.String("id", req.ID),
				zap.String("instrument", cand.Order.Instrument),
				zap.String("side", string(cand.Order.Side)))
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

// recoverable reports whether an error should skip the tick rather than
// abort the daemon. Only missing or short data qualifies; alignment and
// arbitration failures are contract violations.
func recoverable(err error) bool {
	return errors.Is(err, market.ErrDataUnavailable)
}
