package portfolio

import "time"

// Tolerance below which a cash amount counts as fully closed. Avoids
// floating dust positions lingering in the lot list.
const Tolerance = 1.0

// NearZero reports whether a cash amount is close enough to zero to treat
// as closed.
func NearZero(amount float64) bool {
	return amount < Tolerance && amount > -Tolerance
}

// Holding is one open lot, created by a single buy fill. Lots are never
// merged; sells consume them oldest-first.
type Holding struct {
	Instrument string
	Amount     float64 // cash notional, recomputed from Quantity×price each tick
	Quantity   float64
	EntryPrice float64
	Time       time.Time

	// HighWater is the running maximum close since entry, the reference for
	// the trailing stop.
	HighWater float64
}

// Snapshot is the portfolio state after one tick. Immutable once appended
// to the history.
type Snapshot struct {
	Time     time.Time
	Value    float64
	BuyPower float64
	Holdings []Holding
}

// cloneHoldings deep-copies the lot list so a tick never mutates a prior
// snapshot.
func cloneHoldings(in []Holding) []Holding {
	out := make([]Holding, len(in))
	copy(out, in)
	return out
}

// instrumentAmount sums the open notional for one instrument.
func instrumentAmount(holdings []Holding, instrument string) float64 {
	total := 0.0
	for _, h := range holdings {
		if h.Instrument == instrument {
			total += h.Amount
		}
	}
	return total
}
