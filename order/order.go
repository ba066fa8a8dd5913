// Package order defines trade intents and their executable resolutions.
package order

import (
	"fmt"
	"time"

	"github.com/rustyeddy/stratd/market"
)

// Side of an order. Exactly two variants; strategies select behavior with an
// explicit switch, never by name lookup.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

// LimitOrder is an intent: trade Amount (a cash notional, not a quantity) of
// Instrument when price conditions around LimitPrice hold. Created by the
// operator or auto-generated by a strategy.
type LimitOrder struct {
	Side       Side
	Instrument string
	LimitPrice float64
	Amount     float64
}

func (o LimitOrder) Validate() error {
	if !o.Side.Valid() {
		return fmt.Errorf("order: invalid side %q", o.Side)
	}
	if o.Instrument == "" {
		return fmt.Errorf("order: instrument required")
	}
	if o.Amount <= 0 {
		return fmt.Errorf("order: amount must be positive, got %v", o.Amount)
	}
	return nil
}

// Order is a LimitOrder resolved against the latest bar and ready for the
// ledger: it carries the observed asset price, the derived quantity and the
// bar timestamp.
type Order struct {
	Side       Side
	Instrument string
	LimitPrice float64
	Amount     float64
	AssetPrice float64
	Quantity   float64
	Time       time.Time
}

// Resolve fixes the intent against the most recent bar.
func (o LimitOrder) Resolve(last market.Bar) Order {
	return Order{
		Side:       o.Side,
		Instrument: o.Instrument,
		LimitPrice: o.LimitPrice,
		Amount:     o.Amount,
		AssetPrice: last.Close,
		Quantity:   o.Amount / last.Close,
		Time:       last.Time,
	}
}
