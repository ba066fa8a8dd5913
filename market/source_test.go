package market

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const sampleCSV = `time,open,high,low,close,volume
2026-03-01T00:00:00Z,100,101,99,100.5,1000
2026-03-01T00:01:00Z,100.5,102,100,101.5,1100
2026-03-01T00:02:00Z,101.5,103,101,102.5,900
`

func TestReadCSV(t *testing.T) {
	t.Parallel()

	s, err := ReadCSV(strings.NewReader(sampleCSV), "BTC")
	require.NoError(t, err)

	assert.Equal(t, "BTC", s.Instrument)
	require.Len(t, s.Bars, 3)
	assert.InDelta(t, 100.5, s.Bars[0].Close, 1e-9)
	assert.InDelta(t, 1100, s.Bars[1].Volume, 1e-9)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 2, 0, 0, time.UTC), s.Bars[2].Time)
}

func TestReadCSVUnixTimestamps(t *testing.T) {
	t.Parallel()

	csv := "1767225600,1,2,0.5,1.5,10\n1767225660,1.5,2.5,1,2,20\n"
	s, err := ReadCSV(strings.NewReader(csv), "ETH")
	require.NoError(t, err)
	require.Len(t, s.Bars, 2)
	assert.Equal(t, int64(1767225600), s.Bars[0].Time.Unix())
}

func TestReadCSVMalformedRowIsError(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("2026-03-01T00:00:00Z,1,2\n"), "BTC")
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("2026-03-01T00:00:00Z,1,2,0.5,abc,10\n"), "BTC")
	assert.Error(t, err)
}

func TestReadCSVOutOfOrderIsError(t *testing.T) {
	t.Parallel()

	csv := "2026-03-01T00:01:00Z,1,2,0.5,1.5,10\n2026-03-01T00:00:00Z,1,2,0.5,1.5,10\n"
	_, err := ReadCSV(strings.NewReader(csv), "BTC")
	assert.Error(t, err)
}

func TestReadCSVNonPositiveCloseIsError(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("2026-03-01T00:00:00Z,1,2,0.5,0,10\n"), "BTC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-positive close")

	_, err = ReadCSV(strings.NewReader("2026-03-01T00:00:00Z,1,2,0.5,-1.5,10\n"), "BTC")
	assert.Error(t, err)
}

func TestReadCSVEmptyIsError(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("time,open,high,low,close,volume\n"), "BTC")
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoadCSVPlainAndXZ(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	plain := filepath.Join(dir, "BTC.csv")
	require.NoError(t, os.WriteFile(plain, []byte(sampleCSV), 0o644))

	s, err := LoadCSV(plain, "BTC")
	require.NoError(t, err)
	assert.Len(t, s.Bars, 3)

	// Same content, xz-compressed.
	packed := filepath.Join(dir, "ETH.csv.xz")
	f, err := os.Create(packed)
	require.NoError(t, err)
	xw, err := xz.NewWriter(f)
	require.NoError(t, err)
	_, err = xw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	require.NoError(t, f.Close())

	s, err = LoadCSV(packed, "ETH")
	require.NoError(t, err)
	assert.Len(t, s.Bars, 3)
}

func TestCSVSourceGetBars(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BTC.csv"), []byte(sampleCSV), 0o644))

	src := CSVSource{Dir: dir}

	bars, err := src.GetBars(context.Background(), "BTC", time.Minute, 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.InDelta(t, 101.5, bars[0].Close, 1e-9) // most recent two

	_, err = src.GetBars(context.Background(), "BTC", time.Minute, 10)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = src.GetBars(context.Background(), "DOGE", time.Minute, 1)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
