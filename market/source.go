package market

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// HistoricalSource supplies bars for one instrument, ordered ascending by
// timestamp. A source that cannot produce at least n bars reports
// ErrDataUnavailable.
type HistoricalSource interface {
	GetBars(ctx context.Context, instrument string, interval time.Duration, n int) ([]Bar, error)
}

// CSVSource reads bar files from a directory, one file per instrument named
// <INSTRUMENT>.csv or <INSTRUMENT>.csv.xz. The expected header is
//
//	time,open,high,low,close,volume
//
// with RFC3339 or unix-seconds timestamps.
type CSVSource struct {
	Dir string
}

func (s CSVSource) GetBars(ctx context.Context, instrument string, _ time.Duration, n int) ([]Bar, error) {
	path := filepath.Join(s.Dir, instrument+".csv")
	if _, err := os.Stat(path); err != nil {
		path += ".xz"
	}

	series, err := LoadCSV(path, instrument)
	if err != nil {
		return nil, err
	}
	if len(series.Bars) < n {
		return nil, fmt.Errorf("%w: %s has %d bars, need %d",
			ErrDataUnavailable, instrument, len(series.Bars), n)
	}
	return series.Bars[len(series.Bars)-n:], nil
}

// LoadCSV reads a full bar series from path. Files ending in .xz are
// decompressed on the fly.
func LoadCSV(path, instrument string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(bufio.NewReader(f))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		r = xr
	}

	return ReadCSV(r, instrument)
}

// ReadCSV parses bar rows from r. Header lines and blank lines are skipped;
// a malformed row is an error, not a warning, since a silently dropped bar
// would break series alignment downstream.
func ReadCSV(r io.Reader, instrument string) (*Series, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	s := &Series{Instrument: instrument}
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(strings.ToLower(line), "time,") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 6 {
			return nil, fmt.Errorf("%s line %d: want 6 fields, got %d", instrument, lineNo, len(parts))
		}

		ts, err := parseTime(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", instrument, lineNo, err)
		}

		var vals [5]float64
		for i := 1; i < 6; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d field %d: %w", instrument, lineNo, i, err)
			}
			vals[i-1] = v
		}
		// A zero close would later divide into order notionals and produce
		// Inf quantities, so a degenerate price is a hard parse error.
		if vals[3] <= 0 {
			return nil, fmt.Errorf("%s line %d: non-positive close %v", instrument, lineNo, vals[3])
		}

		s.Bars = append(s.Bars, Bar{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(s.Bars) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrDataUnavailable, instrument)
	}

	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Time.After(s.Bars[i-1].Time) {
			return nil, fmt.Errorf("%s: bars out of order at line %d", instrument, i+1)
		}
	}
	return s, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", s)
	}
	return t.UTC(), nil
}
