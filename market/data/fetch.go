// Package data downloads historical bar archives into the local data
// directory that market.CSVSource reads from.
package data

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ulikunitz/xz"
	"go.uber.org/zap"

	"github.com/rustyeddy/stratd/market"
)

// FetchConfig controls the downloader.
type FetchConfig struct {
	BaseURL string        // endpoint serving <INSTRUMENT>.csv
	Dir     string        // output directory for .csv.xz archives
	Workers int           // parallel downloads, default 4
	Timeout time.Duration // per-request HTTP timeout
	Sleep   time.Duration // polite delay before each request
	Force   bool          // re-download even when the archive exists
}

// Stats summarizes one fetch run.
type Stats struct {
	OK      int
	Skipped int
	Failed  int
}

// Fetcher downloads bar CSVs over HTTP with a worker pool and stores them
// xz-compressed, validating each file parses before it is kept.
type Fetcher struct {
	cfg    FetchConfig
	client *http.Client
	log    *zap.Logger
}

func NewFetcher(cfg FetchConfig, log *zap.Logger) (*Fetcher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("data: base URL is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("data: output directory is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}, nil
}

// Fetch downloads every instrument's CSV and writes
// <dir>/<INSTRUMENT>.csv.xz. Existing archives are skipped unless Force is
// set. Individual failures are counted, not fatal.
func (f *Fetcher) Fetch(ctx context.Context, instruments []string) (Stats, error) {
	if err := os.MkdirAll(f.cfg.Dir, 0o755); err != nil {
		return Stats{}, err
	}

	jobCh := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var st Stats

	for i := 0; i < f.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for instr := range jobCh {
				if f.cfg.Sleep > 0 {
					time.Sleep(f.cfg.Sleep)
				}

				outcome, err := f.fetchOne(ctx, instr)
				mu.Lock()
				switch {
				case err != nil:
					st.Failed++
				case outcome == "skipped":
					st.Skipped++
				default:
					st.OK++
				}
				mu.Unlock()

				if err != nil {
					f.log.Warn("fetch failed", zap.String("instrument", instr), zap.Error(err))
				} else {
					f.log.Info("fetch "+outcome, zap.String("instrument", instr))
				}
			}
		}()
	}

	for _, instr := range instruments {
		select {
		case <-ctx.Done():
			close(jobCh)
			wg.Wait()
			return st, ctx.Err()
		case jobCh <- strings.ToUpper(strings.TrimSpace(instr)):
		}
	}
	close(jobCh)
	wg.Wait()
	return st, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, instrument string) (string, error) {
	dst := filepath.Join(f.cfg.Dir, instrument+".csv.xz")
	if !f.cfg.Force {
		if st, err := os.Stat(dst); err == nil && st.Size() > 0 {
			return "skipped", nil
		}
	}

	url := strings.TrimRight(f.cfg.BaseURL, "/") + "/" + instrument + ".csv"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Parse before persisting: a malformed archive on disk would poison
	// every later backtest.
	if _, err := market.ReadCSV(bytes.NewReader(body), instrument); err != nil {
		return "", fmt.Errorf("validate %s: %w", instrument, err)
	}

	return "fetched", writeArchive(dst, body)
}

// writeArchive xz-compresses data to dst through a temp file so a partial
// write never shadows a good archive.
func writeArchive(dst string, data []byte) error {
	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	xw, err := xz.NewWriter(out)
	if err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}

	_, copyErr := xw.Write(data)
	if err := xw.Close(); copyErr == nil {
		copyErr = err
	}
	if err := out.Close(); copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		os.Remove(tmp)
		return copyErr
	}
	return os.Rename(tmp, dst)
}
