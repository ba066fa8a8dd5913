package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stratd/indicators"
	"github.com/rustyeddy/stratd/market"
	"github.com/rustyeddy/stratd/order"
)

// alwaysRisk takes every risky setup, the opposite of NeverRisk.
type alwaysRisk struct{}

func (alwaysRisk) TakeRisk(*indicators.Series) bool { return true }

var testCfg = Config{
	PercentDiffThreshold:    0.01,
	PercentDiffThresholdRSI: 0.1,
	VolWindow:               3,
	IndicatorLength:         5,
	RSIBuyThreshold:         30,
	RSISellThreshold:        70,
	MaxAmountPerOrder:       100,
}

// series builds an indicator fixture directly, bypassing Transform, so each
// test controls every column.
func series(close float64, bollDiff, rsi []float64, fib [6]float64) *indicators.Series {
	return &indicators.Series{
		Instrument: "BTC",
		Bars: []market.Bar{{
			Time:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Close: close,
		}},
		RSI:       rsi,
		BollDiff:  bollDiff,
		FibLevels: fib,
	}
}

var (
	flatVol   = []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	risingVol = []float64{0.1, 0.1, 0.1, 0.2, 0.4, 0.6, 0.8}
)

func TestFibVolBuyConfidentAtQuietSupport(t *testing.T) {
	t.Parallel()

	f := NewFibVol(testCfg, nil)
	s := series(100, flatVol, nil, [6]float64{})
	o := order.LimitOrder{Side: order.Buy, Instrument: "BTC", LimitPrice: 100.5, Amount: 100}

	sig := f.EvaluateBuy(s, o)
	assert.True(t, sig.Confident)
	assert.False(t, sig.Risk)
}

func TestFibVolBuyFarFromLevelIsSilent(t *testing.T) {
	t.Parallel()

	f := NewFibVol(testCfg, nil)
	s := series(100, flatVol, nil, [6]float64{})
	o := order.LimitOrder{Side: order.Buy, Instrument: "BTC", LimitPrice: 150, Amount: 100}

	sig := f.EvaluateBuy(s, o)
	assert.False(t, sig.Confident)
	assert.False(t, sig.Risk)
}

func TestFibVolBuyRisingVolNeedsRiskRule(t *testing.T) {
	t.Parallel()

	o := order.LimitOrder{Side: order.Buy, Instrument: "BTC", LimitPrice: 100.5, Amount: 100}
	s := series(100, risingVol, nil, [6]float64{})

	cautious := NewFibVol(testCfg, NeverRisk{})
	sig := cautious.EvaluateBuy(s, o)
	assert.False(t, sig.Confident)
	assert.False(t, sig.Risk)

	bold := NewFibVol(testCfg, alwaysRisk{})
	sig = bold.EvaluateBuy(s, o)
	assert.False(t, sig.Confident)
	assert.True(t, sig.Risk)
}

func TestFibVolSellNeedsRisingVol(t *testing.T) {
	t.Parallel()

	f := NewFibVol(testCfg, nil)
	o := order.LimitOrder{Side: order.Sell, Instrument: "BTC", LimitPrice: 100.5, Amount: 100}

	sig := f.EvaluateSell(series(100, flatVol, nil, [6]float64{}), o)
	assert.False(t, sig.Confident)

	sig = f.EvaluateSell(series(100, risingVol, nil, [6]float64{}), o)
	assert.True(t, sig.Confident)
}

func TestFibVolSellHeldBackByRiskRule(t *testing.T) {
	t.Parallel()

	// The rule judging the breakout worth riding suppresses the exit.
	f := NewFibVol(testCfg, alwaysRisk{})
	o := order.LimitOrder{Side: order.Sell, Instrument: "BTC", LimitPrice: 100.5, Amount: 100}

	sig := f.EvaluateSell(series(100, risingVol, nil, [6]float64{}), o)
	assert.False(t, sig.Confident)
	assert.False(t, sig.Risk)
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	f := NewFibVol(testCfg, nil)

	// Exactly at the limit price scores a perfect 1.
	s := series(100, flatVol, nil, [6]float64{})
	at := f.Score(s, order.LimitOrder{Side: order.Buy, Instrument: "BTC", LimitPrice: 100, Amount: 1})
	assert.InDelta(t, 1, at, 1e-9)

	// A wildly distant limit cannot push the score to or below zero.
	far := f.Score(s, order.LimitOrder{Side: order.Buy, Instrument: "BTC", LimitPrice: 1, Amount: 1})
	assert.Greater(t, far, 0.0)
	assert.LessOrEqual(t, far, 1.0)
}

func TestFibVolRSIScoreNeutralOnUndefinedRSI(t *testing.T) {
	t.Parallel()

	f := NewFibVolRSI(testCfg, nil)
	s := series(100, flatVol, nil, [6]float64{}) // no RSI column

	got := f.Score(s, order.LimitOrder{Side: order.Buy, Instrument: "BTC", LimitPrice: 100, Amount: 1})
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestFibVolRSIBuyRiskNeedsRSIConfirmation(t *testing.T) {
	t.Parallel()

	o := order.LimitOrder{Side: order.Buy, Instrument: "BTC", LimitPrice: 100.5, Amount: 100}
	f := NewFibVolRSI(testCfg, alwaysRisk{})

	// RSI near the buy threshold and climbing: risk taken.
	climbing := []float64{20, 22, 24, 26, 28, 30}
	sig := f.EvaluateBuy(series(100, risingVol, climbing, [6]float64{}), o)
	assert.True(t, sig.Risk)

	// RSI far above the buy threshold: no risk entry.
	high := []float64{60, 62, 64, 66, 68, 70}
	sig = f.EvaluateBuy(series(100, risingVol, high, [6]float64{}), o)
	assert.False(t, sig.Risk)
}

func TestFibVolRSISellNeedsExhaustedRSI(t *testing.T) {
	t.Parallel()

	o := order.LimitOrder{Side: order.Sell, Instrument: "BTC", LimitPrice: 100.5, Amount: 100}
	f := NewFibVolRSI(testCfg, nil)

	// RSI at the sell threshold but stalled: exit confirmed.
	stalled := []float64{70, 70, 70, 70, 70, 70}
	sig := f.EvaluateSell(series(100, risingVol, stalled, [6]float64{}), o)
	assert.True(t, sig.Confident)

	// RSI still climbing: hold.
	climbing := []float64{60, 62, 64, 66, 68, 70}
	sig = f.EvaluateSell(series(100, risingVol, climbing, [6]float64{}), o)
	assert.False(t, sig.Confident)
}

func TestAutoOrdersBracketTheClose(t *testing.T) {
	t.Parallel()

	f := NewFibVol(testCfg, nil)
	s := series(32, flatVol, nil, [6]float64{60, 50, 40, 30, 20, 10})

	orders := f.AutoOrders(s)
	require.Len(t, orders, 2)

	assert.Equal(t, order.Sell, orders[0].Side)
	assert.InDelta(t, 40, orders[0].LimitPrice, 1e-9)
	assert.Equal(t, order.Buy, orders[1].Side)
	assert.InDelta(t, 20, orders[1].LimitPrice, 1e-9)

	for _, o := range orders {
		assert.Equal(t, "BTC", o.Instrument)
		assert.InDelta(t, testCfg.MaxAmountPerOrder, o.Amount, 1e-9)
		assert.NoError(t, o.Validate())
	}
}

func TestAutoOrdersClampAtTheEdges(t *testing.T) {
	t.Parallel()

	f := NewFibVol(testCfg, nil)
	fib := [6]float64{60, 50, 40, 30, 20, 10}

	// Close above every level: sell clamps to the top level.
	top := f.AutoOrders(series(99, flatVol, nil, fib))
	assert.InDelta(t, 60, top[0].LimitPrice, 1e-9)
	assert.InDelta(t, 50, top[1].LimitPrice, 1e-9)

	// Close below every level: buy clamps to the bottom level.
	bottom := f.AutoOrders(series(1, flatVol, nil, fib))
	assert.InDelta(t, 20, bottom[0].LimitPrice, 1e-9)
	assert.InDelta(t, 10, bottom[1].LimitPrice, 1e-9)
}

func TestSeededRuleDeterministic(t *testing.T) {
	t.Parallel()

	a := NewSeededRule(42, 0.5)
	b := NewSeededRule(42, 0.5)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.TakeRisk(nil), b.TakeRisk(nil), "draw %d", i)
	}
}

func TestSeededRuleExtremes(t *testing.T) {
	t.Parallel()

	never := NewSeededRule(1, 0)
	for i := 0; i < 20; i++ {
		assert.False(t, never.TakeRisk(nil))
	}

	always := NewSeededRule(1, 1)
	for i := 0; i < 20; i++ {
		assert.True(t, always.TakeRisk(nil))
	}
}

func TestRSITrendRule(t *testing.T) {
	t.Parallel()

	rule := RSITrendRule{Span: 3, IncrThreshold: 0.1}

	up := series(100, nil, []float64{40, 42, 44, 46, 48, 50}, [6]float64{})
	assert.True(t, rule.TakeRisk(up))

	flat := series(100, nil, []float64{50, 50, 50, 50, 50, 50}, [6]float64{})
	assert.False(t, rule.TakeRisk(flat))
}

func TestByName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{
		"naive":       "naive",
		"fib-vol":     "fib-vol",
		"FibVolRSI":   "fib-vol-rsi",
		"fib-vol-rsi": "fib-vol-rsi",
	} {
		s, err := ByName(name, testCfg, nil)
		require.NoError(t, err, name)
		assert.Equal(t, want, s.Name())
	}

	_, err := ByName("momentum", testCfg, nil)
	assert.Error(t, err)
}

func TestNaiveSignals(t *testing.T) {
	t.Parallel()

	n := NewNaive(testCfg)
	s := series(100, nil, nil, [6]float64{})

	assert.True(t, n.EvaluateBuy(s, order.LimitOrder{Side: order.Buy, LimitPrice: 110}).Confident)
	assert.False(t, n.EvaluateBuy(s, order.LimitOrder{Side: order.Buy, LimitPrice: 90}).Confident)
	assert.True(t, n.EvaluateSell(s, order.LimitOrder{Side: order.Sell, LimitPrice: 90}).Confident)
	assert.Nil(t, n.AutoOrders(s))
}
