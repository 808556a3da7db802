package data

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

var _ BarCache = (*ParquetCache)(nil)

// ParquetCache keeps daily candles on disk, one file per symbol and year:
//
//	<dir>/daily/<SYMBOL>/<YYYY>.parquet
type ParquetCache struct {
	dir string
}

// NewParquetCache creates a cache rooted at dir.
func NewParquetCache(dir string) *ParquetCache {
	return &ParquetCache{dir: dir}
}

// barRecord is the on-disk schema.
type barRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// Load implements BarCache. Missing years are skipped.
func (c *ParquetCache) Load(symbol string, start, end time.Time) ([]types.OHLCV, error) {
	symbol = strings.ToUpper(symbol)
	var out []types.OHLCV
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := parquet.ReadFile[barRecord](c.path(symbol, year))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading cache %s/%d: %w", symbol, year, err)
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if ts.Before(start) || ts.After(end) {
				continue
			}
			out = append(out, types.OHLCV{
				Timestamp: ts, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Store implements BarCache.
func (c *ParquetCache) Store(symbol string, candles []types.OHLCV) error {
	symbol = strings.ToUpper(symbol)
	groups := make(map[int][]barRecord)
	for _, b := range candles {
		ts := TruncateDay(b.Timestamp)
		groups[ts.Year()] = append(groups[ts.Year()], barRecord{
			Symbol:    symbol,
			Timestamp: ts.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	for year, records := range groups {
		path := c.path(symbol, year)
		existing, err := parquet.ReadFile[barRecord](path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading cache %s/%d: %w", symbol, year, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := parquet.WriteFile(path, mergeBarRecords(existing, records)); err != nil {
			return fmt.Errorf("writing cache %s/%d: %w", symbol, year, err)
		}
	}
	return nil
}

// Symbols lists the symbols that have cached data.
func (c *ParquetCache) Symbols() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.dir, "daily"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (c *ParquetCache) path(symbol string, year int) string {
	return filepath.Join(c.dir, "daily", symbol, strconv.Itoa(year)+".parquet")
}

// mergeBarRecords deduplicates by timestamp, preferring incoming records.
func mergeBarRecords(existing, incoming []barRecord) []barRecord {
	seen := make(map[int64]barRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}
	merged := make([]barRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}
