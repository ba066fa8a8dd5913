// Package journal is the append-only record of executed orders and per-tick
// portfolio snapshots. The core writes it after each fill and never reads
// it back.
package journal

import "time"

// OrderRecord is one executed fill.
type OrderRecord struct {
	ID         string
	Time       time.Time
	Instrument string
	Side       string
	Amount     float64 // cash notional actually executed
	Quantity   float64
	AssetPrice float64
	Reason     string // "signal", "stop_loss", "take_profit"
}

// SnapshotRecord is the portfolio state after one tick.
type SnapshotRecord struct {
	Time        time.Time
	Value       float64
	BuyPower    float64
	NumHoldings int
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordSnapshot(SnapshotRecord) error
	Close() error
}

// Nop discards everything. Handy default for tests and paper runs.
type Nop struct{}

func (Nop) RecordOrder(OrderRecord) error       { return nil }
func (Nop) RecordSnapshot(SnapshotRecord) error { return nil }
func (Nop) Close() error                        { return nil }
