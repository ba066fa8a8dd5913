// Package market defines historical price data and how it is loaded.
package market

import (
	"errors"
	"fmt"
	"time"
)

// Bar is one OHLCV sampling point for a single instrument. Bars are read-only
// inputs; nothing downstream mutates them.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// ErrDataUnavailable is returned by a HistoricalSource that cannot supply
// enough bars for the requested window.
var ErrDataUnavailable = errors.New("market: historical data unavailable")

// ErrMisaligned indicates bar series that should share timestamps do not.
// This is a data-integrity bug, not a recoverable condition.
var ErrMisaligned = errors.New("market: bar series misaligned")

// Series is the full historical bar sequence for one instrument, ordered
// ascending by timestamp.
type Series struct {
	Instrument string
	Bars       []Bar
}

// Window returns the n most-recent bars ending at index end (inclusive).
// The returned slice aliases the series; callers treat it as read-only.
func (s Series) Window(end, n int) ([]Bar, error) {
	if n <= 0 || end >= len(s.Bars) || end-n+1 < 0 {
		return nil, fmt.Errorf("market: window [%d-%d] out of range for %s (%d bars)",
			end-n+1, end, s.Instrument, len(s.Bars))
	}
	return s.Bars[end-n+1 : end+1], nil
}

// Align intersects the timestamps of all series and drops bars whose
// timestamp is not present in every one, so that afterwards all series have
// identical length and bar-for-bar alignment. Series are modified in place.
//
// An empty intersection is reported as ErrDataUnavailable.
func Align(series []*Series) error {
	if len(series) == 0 {
		return nil
	}

	common := make(map[int64]int, len(series[0].Bars))
	for _, b := range series[0].Bars {
		common[b.Time.Unix()] = 1
	}
	for _, s := range series[1:] {
		for _, b := range s.Bars {
			if n, ok := common[b.Time.Unix()]; ok && n == 1 {
				common[b.Time.Unix()] = 2
			}
		}
		for ts, n := range common {
			if n != 2 {
				delete(common, ts)
			} else {
				common[ts] = 1
			}
		}
	}

	if len(common) == 0 {
		return fmt.Errorf("%w: no common timestamps across %d series",
			ErrDataUnavailable, len(series))
	}

	for _, s := range series {
		kept := s.Bars[:0]
		for _, b := range s.Bars {
			if _, ok := common[b.Time.Unix()]; ok {
				kept = append(kept, b)
			}
		}
		s.Bars = kept
	}

	n := len(series[0].Bars)
	for _, s := range series[1:] {
		if len(s.Bars) != n {
			return fmt.Errorf("%w: %s has %d bars, %s has %d",
				ErrMisaligned, series[0].Instrument, n, s.Instrument, len(s.Bars))
		}
	}
	return nil
}

// CheckAligned verifies every window has exactly want bars. Used by the
// backtest driver as a per-tick assertion; a failure means the alignment
// logic upstream is broken.
func CheckAligned(windows map[string][]Bar, want int) error {
	for instr, bars := range windows {
		if len(bars) != want {
			return fmt.Errorf("%w: %s window has %d bars, want %d",
				ErrMisaligned, instr, len(bars), want)
		}
	}
	return nil
}
