package portfolio

import (
	"go.uber.org/zap"

	"github.com/rustyeddy/stratd/metrics"
	"github.com/rustyeddy/stratd/order"
)

// applyRiskExits runs the per-lot trailing-stop and take-profit checks.
// It executes before any arbitrated order and regardless of strategy
// signals: a triggered lot is sold in full at the current close, fee
// applied as on any sell.
//
// The stop fires when the close drops below the lot's running high by the
// trailing fraction. The take-profit fires when the close reaches entry
// times (1 + fraction). The stop is checked first.
func (l *Ledger) applyRiskExits(s *Snapshot, t Tick) {
	if l.cfg.TrailingStopLoss == 0 && l.cfg.TrailingTakeProfit == 0 {
		return
	}

	for i := range s.Holdings {
		h := &s.Holdings[i]
		px, ok := t.Prices[h.Instrument]
		if !ok {
			continue
		}

		trigger := ""
		switch {
		case l.cfg.TrailingStopLoss > 0 && px < h.HighWater*(1-l.cfg.TrailingStopLoss):
			trigger = "stop_loss"
		case l.cfg.TrailingTakeProfit > 0 && px >= h.EntryPrice*(1+l.cfg.TrailingTakeProfit):
			trigger = "take_profit"
		}
		if trigger == "" {
			continue
		}

		l.forceClose(s, h, px, t, trigger)
	}
	s.Holdings = sweepClosed(s.Holdings)
}

// forceClose sells one lot in full at px.
func (l *Ledger) forceClose(s *Snapshot, h *Holding, px float64, t Tick, trigger string) {
	amount := h.Quantity * px
	qty := h.Quantity

	s.BuyPower += amount * (1 - l.cfg.TransactionFee)
	h.Amount = 0
	h.Quantity = 0

	l.sells++
	metrics.ForcedExits.WithLabelValues(trigger).Inc()
	l.recordOrder(t.Time, h.Instrument, order.Sell, amount, qty, px, trigger)

	l.log.Info("forced exit",
		zap.String("instrument", h.Instrument),
		zap.String("trigger", trigger),
		zap.Float64("amount", amount),
		zap.Float64("price", px),
		zap.Float64("entry_price", h.EntryPrice),
		zap.Float64("high_water", h.HighWater),
	)
}
