// Package broker abstracts where executed orders are sent. The backtest
// and paper daemon fill internally; a live venue would implement the same
// interface.
package broker

import (
	"context"
	"time"

	"github.com/rustyeddy/stratd/order"
	"github.com/rustyeddy/stratd/pkg/id"
)

// Fill is the venue's acknowledgement of one executed order.
type Fill struct {
	ID        string
	Order     order.Order
	FillPrice float64
	FilledAt  time.Time
}

// ExecutionSink receives arbitrated orders for execution.
type ExecutionSink interface {
	ExecuteMarket(ctx context.Context, o order.Order) (Fill, error)
}

// Paper fills every order immediately at its asset price. No slippage, no
// partial fills.
type Paper struct{}

func (Paper) ExecuteMarket(ctx context.Context, o order.Order) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}
	return Fill{
		ID:        id.New(),
		Order:     o,
		FillPrice: o.AssetPrice,
		FilledAt:  o.Time,
	}, nil
}
