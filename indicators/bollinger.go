package indicators

import "math"

// bollingerSpread returns the width of the rolling Bollinger bands
// (upper − lower, i.e. 4 standard deviations) over the given period.
// Entries before index period−1 are NaN. Normalization happens in
// Transform, after trimming.
func bollingerSpread(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}

	for i := period - 1; i < len(closes); i++ {
		window := closes[i-period+1 : i+1]
		m := mean(window)

		var ss float64
		for _, v := range window {
			d := v - m
			ss += d * d
		}
		// sample standard deviation, matching the usual bbands definition
		sd := math.Sqrt(ss / float64(period-1))

		out[i] = 4 * sd
	}
	return out
}
