// Package portfolio owns cash and lot-based holdings, executes accepted
// orders with fee accounting, and enforces the risk limits.
package portfolio

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stratd/arbiter"
	"github.com/rustyeddy/stratd/journal"
	"github.com/rustyeddy/stratd/metrics"
	"github.com/rustyeddy/stratd/order"
	"github.com/rustyeddy/stratd/pkg/id"
)

// Config carries the ledger's risk parameters. Supplied at construction.
type Config struct {
	BuyPower                float64
	TransactionFee          float64 // fraction lost on every executed leg, e.g. 0.01
	MaxHoldingPerInstrument float64 // cash cap per instrument, 0 = unlimited
	TrailingStopLoss        float64 // fraction below the running high, 0 disables
	TrailingTakeProfit      float64 // fraction above entry, 0 disables
}

func (c Config) Validate() error {
	if c.BuyPower <= 0 {
		return fmt.Errorf("portfolio: buy power must be positive, got %v", c.BuyPower)
	}
	if c.TransactionFee < 0 || c.TransactionFee >= 1 {
		return fmt.Errorf("portfolio: transaction fee %v out of [0,1)", c.TransactionFee)
	}
	if c.TrailingStopLoss < 0 || c.TrailingStopLoss >= 1 {
		return fmt.Errorf("portfolio: trailing stop loss %v out of [0,1)", c.TrailingStopLoss)
	}
	if c.TrailingTakeProfit < 0 {
		return fmt.Errorf("portfolio: trailing take profit %v negative", c.TrailingTakeProfit)
	}
	if c.MaxHoldingPerInstrument < 0 {
		return fmt.Errorf("portfolio: max holding %v negative", c.MaxHoldingPerInstrument)
	}
	return nil
}

// Tick is everything the ledger needs to advance one step: the bar
// timestamp, the latest close per instrument, and the arbitrated orders in
// ranked sequence.
type Tick struct {
	Time   time.Time
	Prices map[string]float64
	Orders []arbiter.Candidate
}

// Ledger is the single owner of the portfolio history. Not safe for
// concurrent use; the pipeline is strictly serialized by design.
type Ledger struct {
	cfg  Config
	log  *zap.Logger
	jrnl journal.Journal

	hist  []Snapshot
	buys  int
	sells int
}

// NewLedger seeds the history with an all-cash snapshot at start.
func NewLedger(cfg Config, log *zap.Logger, j journal.Journal, start time.Time) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if j == nil {
		j = journal.Nop{}
	}
	return &Ledger{
		cfg:  cfg,
		log:  log,
		jrnl: j,
		hist: []Snapshot{{
			Time:     start,
			Value:    cfg.BuyPower,
			BuyPower: cfg.BuyPower,
		}},
	}, nil
}

// History returns the append-only snapshot sequence, one entry per
// processed tick plus the initial state.
func (l *Ledger) History() []Snapshot { return l.hist }

// Last returns the most recent snapshot.
func (l *Ledger) Last() Snapshot { return l.hist[len(l.hist)-1] }

// Counters returns the executed buy and sell counts.
func (l *Ledger) Counters() (buys, sells int) { return l.buys, l.sells }

// ProcessTick advances the portfolio one step: reprice lots, run the
// trailing-stop and take-profit checks, apply the arbitrated orders in
// sequence, and append exactly one new snapshot.
func (l *Ledger) ProcessTick(t Tick) Snapshot {
	prev := l.Last()

	cur := Snapshot{
		Time:     t.Time,
		BuyPower: prev.BuyPower,
		Holdings: cloneHoldings(prev.Holdings),
	}

	l.reprice(&cur, t.Prices)

	// Risk limits first: stop-loss liquidation is independent of and takes
	// priority over anything the arbiter produced this tick.
	l.applyRiskExits(&cur, t)

	for _, cand := range t.Orders {
		switch cand.Order.Side {
		case order.Buy:
			l.buy(&cur, cand.Order)
		case order.Sell:
			l.sell(&cur, cand.Order, t.Prices)
		}
	}

	cur.Value = l.valuate(&cur, t.Prices)
	l.hist = append(l.hist, cur)

	metrics.PortfolioValue.Set(cur.Value)
	l.recordSnapshot(cur)
	return cur
}

// Valuate appends a pure valuation snapshot: no orders, no risk checks.
// The backtest driver uses it so the history always ends at the data's
// final timestamp.
func (l *Ledger) Valuate(ts time.Time, prices map[string]float64) Snapshot {
	prev := l.Last()
	cur := Snapshot{
		Time:     ts,
		BuyPower: prev.BuyPower,
		Holdings: cloneHoldings(prev.Holdings),
	}
	l.reprice(&cur, prices)
	cur.Value = l.valuate(&cur, prices)
	l.hist = append(l.hist, cur)
	metrics.PortfolioValue.Set(cur.Value)
	l.recordSnapshot(cur)
	return cur
}

// reprice recomputes every lot's notional from the live price and advances
// its running high.
func (l *Ledger) reprice(s *Snapshot, prices map[string]float64) {
	for i := range s.Holdings {
		h := &s.Holdings[i]
		px, ok := prices[h.Instrument]
		if !ok {
			continue // keep the stale notional; nothing better available
		}
		h.Amount = h.Quantity * px
		if px > h.HighWater {
			h.HighWater = px
		}
	}
}

func (l *Ledger) valuate(s *Snapshot, prices map[string]float64) float64 {
	v := s.BuyPower
	for _, h := range s.Holdings {
		if px, ok := prices[h.Instrument]; ok {
			v += h.Quantity * px
		} else {
			v += h.Amount
		}
	}
	return v
}

// buy clamps the requested notional to the available buy power and the
// per-instrument cap, deducts the fee, and appends a new lot. A blocked
// buy is skipped and logged, never fatal.
func (l *Ledger) buy(s *Snapshot, o order.Order) {
	amount := min(o.Amount, s.BuyPower)
	if NearZero(amount) || amount < 0 {
		l.skip(o, "insufficient buy power")
		return
	}

	if l.cfg.MaxHoldingPerInstrument > 0 {
		room := l.cfg.MaxHoldingPerInstrument - instrumentAmount(s.Holdings, o.Instrument)
		if amount > room {
			amount = room
		}
		if NearZero(amount) || amount < 0 {
			l.skip(o, "holding cap reached")
			return
		}
	}

	// The fee is a pure loss: the full amount leaves the buy power, only
	// the net buys quantity.
	net := amount * (1 - l.cfg.TransactionFee)
	qty := net / o.AssetPrice

	s.BuyPower -= amount
	s.Holdings = append(s.Holdings, Holding{
		Instrument: o.Instrument,
		Amount:     net,
		Quantity:   qty,
		EntryPrice: o.AssetPrice,
		Time:       o.Time,
		HighWater:  o.AssetPrice,
	})

	l.buys++
	metrics.OrdersExecuted.WithLabelValues(string(order.Buy)).Inc()
	l.recordOrder(o.Time, o.Instrument, order.Buy, amount, qty, o.AssetPrice, "signal")

	l.log.Info("buy executed",
		zap.String("instrument", o.Instrument),
		zap.Float64("amount", amount),
		zap.Float64("quantity", qty),
		zap.Float64("price", o.AssetPrice),
		zap.Float64("buy_power", s.BuyPower),
	)
}

// sell clamps the requested notional to the open total and consumes lots
// oldest-first, crediting the net proceeds.
func (l *Ledger) sell(s *Snapshot, o order.Order, prices map[string]float64) {
	px, ok := prices[o.Instrument]
	if !ok {
		px = o.AssetPrice
	}

	remaining := min(o.Amount, instrumentAmount(s.Holdings, o.Instrument))
	if NearZero(remaining) || remaining < 0 {
		l.skip(o, "no open holdings")
		return
	}

	sold := 0.0
	for i := range s.Holdings {
		h := &s.Holdings[i]
		if h.Instrument != o.Instrument {
			continue
		}

		amt := min(h.Amount, remaining)
		h.Amount -= amt
		h.Quantity -= amt / px
		s.BuyPower += amt * (1 - l.cfg.TransactionFee)
		remaining -= amt
		sold += amt

		if NearZero(remaining) {
			break
		}
	}
	s.Holdings = sweepClosed(s.Holdings)

	l.sells++
	metrics.OrdersExecuted.WithLabelValues(string(order.Sell)).Inc()
	l.recordOrder(o.Time, o.Instrument, order.Sell, sold, sold/px, px, "signal")

	l.log.Info("sell executed",
		zap.String("instrument", o.Instrument),
		zap.Float64("amount", sold),
		zap.Float64("price", px),
		zap.Float64("buy_power", s.BuyPower),
	)
}

// sweepClosed drops lots whose notional fell within the zero tolerance.
func sweepClosed(holdings []Holding) []Holding {
	kept := holdings[:0]
	for _, h := range holdings {
		if !NearZero(h.Amount) {
			kept = append(kept, h)
		}
	}
	return kept
}

func (l *Ledger) skip(o order.Order, reason string) {
	metrics.OrdersSkipped.WithLabelValues(reason).Inc()
	l.log.Warn("order skipped",
		zap.String("instrument", o.Instrument),
		zap.String("side", string(o.Side)),
		zap.Float64("amount", o.Amount),
		zap.String("reason", reason),
	)
}

func (l *Ledger) recordOrder(ts time.Time, instrument string, side order.Side, amount, qty, px float64, reason string) {
	err := l.jrnl.RecordOrder(journal.OrderRecord{
		ID:         id.New(),
		Time:       ts,
		Instrument: instrument,
		Side:       string(side),
		Amount:     amount,
		Quantity:   qty,
		AssetPrice: px,
		Reason:     reason,
	})
	if err != nil {
		l.log.Error("journal order record failed", zap.Error(err))
	}
}

func (l *Ledger) recordSnapshot(s Snapshot) {
	err := l.jrnl.RecordSnapshot(journal.SnapshotRecord{
		Time:        s.Time,
		Value:       s.Value,
		BuyPower:    s.BuyPower,
		NumHoldings: len(s.Holdings),
	})
	if err != nil {
		l.log.Error("journal snapshot record failed", zap.Error(err))
	}
}
