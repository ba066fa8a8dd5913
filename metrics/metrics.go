// Package metrics exposes prometheus instrumentation for the trading core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratd_orders_executed_total",
			Help: "Executed orders by side.",
		},
		[]string{"side"},
	)

	OrdersSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratd_orders_skipped_total",
			Help: "Orders skipped by the ledger, by reason.",
		},
		[]string{"reason"},
	)

	ForcedExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratd_forced_exits_total",
			Help: "Lots force-closed by risk limits, by trigger.",
		},
		[]string{"trigger"},
	)

	PortfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stratd_portfolio_value",
			Help: "Portfolio value after the most recent tick.",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersExecuted, OrdersSkipped, ForcedExits, PortfolioValue)
}
