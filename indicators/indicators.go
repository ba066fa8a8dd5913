// Package indicators turns a raw bar window into an indicator-augmented
// series. Transform is pure: the same window always produces the same
// output and no state survives between calls.
package indicators

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/stratd/market"
)

// ErrInsufficientData is returned when a window holds fewer bars than the
// configured indicator length.
var ErrInsufficientData = errors.New("indicators: insufficient data")

// FibRatios are the retracement ratios applied to the window's price range,
// ordered from the widest extension down.
var FibRatios = [6]float64{2.168, 2, 1.618, 1.382, 1, 0.618}

// Config selects which columns Transform computes and over what lookback.
type Config struct {
	// Length is the rolling lookback shared by RSI and the Bollinger bands.
	Length int

	// SuperTrend enables the SuperTrend column.
	SuperTrend bool

	// SuperTrendMult is the ATR band multiplier. Zero means 3.
	SuperTrendMult float64
}

// Series is one instrument's bar window plus derived columns, index-aligned
// with Bars. Leading rows where RSI or the Bollinger spread are undefined
// have been trimmed, so every remaining row is fully populated.
type Series struct {
	Instrument string
	Bars       []market.Bar

	RSI      []float64 // Wilder RSI over Config.Length
	BollDiff []float64 // band spread, min-max normalized to [0,1]

	// TrendUpward is the fast/slow moving-average crossover verdict for the
	// window: mean of the most recent half-window closes at or above the
	// mean of the full window.
	TrendUpward bool

	// FibLevels are retracement price levels projected from the window's
	// close min/max in the trend direction.
	FibLevels [6]float64

	SuperTrend []float64 // empty unless Config.SuperTrend
}

// Last returns the most recent bar of the window.
func (s *Series) Last() market.Bar { return s.Bars[len(s.Bars)-1] }

// Len returns the number of rows remaining after trimming.
func (s *Series) Len() int { return len(s.Bars) }

// MeanIncreasing reports whether the rolling mean of col over window rose
// between the previous row and the last row. It needs window+1 defined
// rows; with fewer it reports false.
func MeanIncreasing(col []float64, window int) bool {
	n := len(col)
	if window <= 0 || n < window+1 {
		return false
	}
	cur := mean(col[n-window : n])
	prev := mean(col[n-window-1 : n-1])
	return cur > prev
}

// Transform computes every configured column for one bar window.
func Transform(instrument string, bars []market.Bar, cfg Config) (*Series, error) {
	if cfg.Length <= 0 {
		return nil, fmt.Errorf("indicators: length must be positive, got %d", cfg.Length)
	}
	if len(bars) < cfg.Length {
		return nil, fmt.Errorf("%w: %s has %d bars, need %d",
			ErrInsufficientData, instrument, len(bars), cfg.Length)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	boll := bollingerSpread(closes, cfg.Length)
	rsi := RSI(closes, cfg.Length)

	trendUp := trendsUpward(closes)
	fib := fibLevels(closes, trendUp)

	var st []float64
	if cfg.SuperTrend {
		mult := cfg.SuperTrendMult
		if mult == 0 {
			mult = 3
		}
		st = SuperTrend(bars, cfg.Length, mult)
	}

	// Drop leading rows until both rolling columns are defined. RSI is the
	// later of the two (first value at index Length).
	cut := 0
	for cut < len(bars) && (math.IsNaN(rsi[cut]) || math.IsNaN(boll[cut])) {
		cut++
	}
	// RSI's first defined value sits at index Length, so a window of
	// exactly Length bars trims to nothing.
	if cut == len(bars) {
		return nil, fmt.Errorf("%w: %s has %d bars, all trimmed at length %d",
			ErrInsufficientData, instrument, len(bars), cfg.Length)
	}

	s := &Series{
		Instrument:  instrument,
		Bars:        bars[cut:],
		RSI:         rsi[cut:],
		BollDiff:    normalize(boll[cut:], 0, 1),
		TrendUpward: trendUp,
		FibLevels:   fib,
	}
	if st != nil {
		s.SuperTrend = st[cut:]
	}
	return s, nil
}

// trendsUpward compares the half-window close average against the
// full-window average.
func trendsUpward(closes []float64) bool {
	n := len(closes)
	fast := mean(closes[n-n/2:])
	slow := mean(closes)
	return fast >= slow
}

// fibLevels projects retracement levels from the window's close range:
// above the high when trending up, below the low otherwise.
func fibLevels(closes []float64, trendUp bool) [6]float64 {
	lo, hi := closes[0], closes[0]
	for _, c := range closes[1:] {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	diff := hi - lo

	var out [6]float64
	for i, ratio := range FibRatios {
		if trendUp {
			out[i] = hi + diff*ratio
		} else {
			out[i] = lo - diff*ratio
		}
	}
	return out
}

// normalize rescales vals min-max into [lo, hi]. A flat column maps to lo.
func normalize(vals []float64, lo, hi float64) []float64 {
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	span := maxV - minV
	if span == 0 {
		span = 1e-6
	}

	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = (hi-lo)*(v-minV)/span + lo
	}
	return out
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
