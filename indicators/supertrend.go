package indicators

import (
	"math"

	"github.com/rustyeddy/stratd/market"
)

// SuperTrend computes the ATR band-flip line: a lower band trails price
// while the trend is up, flipping to an upper band when price closes through
// it. Leading entries that precede the first defined ATR are back-filled
// with the first computed value so the column has no NaN holes.
func SuperTrend(bars []market.Bar, period int, mult float64) []float64 {
	out := make([]float64, len(bars))
	atr := wilderATR(bars, period)

	var (
		finalUpper, finalLower float64
		up                     bool
		started                bool
	)

	for i := range bars {
		if math.IsNaN(atr[i]) {
			out[i] = math.NaN()
			continue
		}

		mid := (bars[i].High + bars[i].Low) / 2
		basicUpper := mid + mult*atr[i]
		basicLower := mid - mult*atr[i]

		if !started {
			finalUpper = basicUpper
			finalLower = basicLower
			up = bars[i].Close >= mid
			started = true
		} else {
			prevClose := bars[i-1].Close
			if basicUpper < finalUpper || prevClose > finalUpper {
				finalUpper = basicUpper
			}
			if basicLower > finalLower || prevClose < finalLower {
				finalLower = basicLower
			}

			switch {
			case bars[i].Close > finalUpper:
				up = true
			case bars[i].Close < finalLower:
				up = false
			}
		}

		if up {
			out[i] = finalLower
		} else {
			out[i] = finalUpper
		}
	}

	// Back-fill the warmup rows.
	first := math.NaN()
	for _, v := range out {
		if !math.IsNaN(v) {
			first = v
			break
		}
	}
	for i := range out {
		if math.IsNaN(out[i]) {
			out[i] = first
		} else {
			break
		}
	}
	return out
}

// wilderATR returns the smoothed average true range, NaN before index period.
func wilderATR(bars []market.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(bars) <= period {
		return out
	}

	tr := func(i int) float64 {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		return math.Max(hl, math.Max(hc, lc))
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr(i)
	}
	atr := sum / float64(period)
	out[period] = atr

	for i := period + 1; i < len(bars); i++ {
		atr = (atr*float64(period-1) + tr(i)) / float64(period)
		out[i] = atr
	}
	return out
}
