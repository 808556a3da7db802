package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// DefaultDataFilter implements DataFilter for daily candles.
type DefaultDataFilter struct{}

// NewDefaultDataFilter creates a new default data filter
func NewDefaultDataFilter() *DefaultDataFilter {
	return &DefaultDataFilter{}
}

// FilterByPeriod keeps the candles within period of the latest candle.
func (f *DefaultDataFilter) FilterByPeriod(data []types.OHLCV, period time.Duration) []types.OHLCV {
	if period <= 0 || len(data) == 0 {
		return data
	}

	cutoff := data[len(data)-1].Timestamp.Add(-period)
	idx := sort.Search(len(data), func(i int) bool {
		return !data[i].Timestamp.Before(cutoff)
	})
	return data[idx:]
}

// FilterByDateRange keeps the candles in [start, end].
func (f *DefaultDataFilter) FilterByDateRange(data []types.OHLCV, start, end time.Time) []types.OHLCV {
	var filtered []types.OHLCV
	for _, candle := range data {
		if candle.Timestamp.Before(start) || candle.Timestamp.After(end) {
			continue
		}
		filtered = append(filtered, candle)
	}
	return filtered
}

// ValidateTimeSequence ensures timestamps are strictly increasing.
func (f *DefaultDataFilter) ValidateTimeSequence(data []types.OHLCV) error {
	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, data[i].Timestamp.Format(time.DateOnly), data[i-1].Timestamp.Format(time.DateOnly))
		}
		if data[i].Timestamp.Equal(data[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s", i, data[i].Timestamp.Format(time.DateOnly))
		}
	}
	return nil
}

// SortByTimestamp returns a copy of data ordered oldest first.
func (f *DefaultDataFilter) SortByTimestamp(data []types.OHLCV) []types.OHLCV {
	sorted := make([]types.OHLCV, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// RemoveDuplicates keeps the last candle of each timestamp. Input must be
// sorted.
func (f *DefaultDataFilter) RemoveDuplicates(data []types.OHLCV) ([]types.OHLCV, int) {
	if len(data) <= 1 {
		return data, 0
	}
	out := make([]types.OHLCV, 0, len(data))
	for _, candle := range data {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(candle.Timestamp) {
			out[n-1] = candle
			continue
		}
		out = append(out, candle)
	}
	return out, len(data) - len(out)
}

// DropInvalid removes candles without a positive close.
func (f *DefaultDataFilter) DropInvalid(data []types.OHLCV) ([]types.OHLCV, int) {
	out := data[:0:0]
	for _, candle := range data {
		if candle.Close > 0 {
			out = append(out, candle)
		}
	}
	return out, len(data) - len(out)
}

// NormalizeDaily truncates every timestamp to its UTC calendar day.
func NormalizeDaily(data []types.OHLCV) []types.OHLCV {
	for i := range data {
		data[i].Timestamp = TruncateDay(data[i].Timestamp)
	}
	return data
}

// TruncateDay returns midnight UTC of t's calendar day in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Clean sorts, de-duplicates and drops unusable candles, returning a
// description of anything it removed.
func Clean(symbol string, data []types.OHLCV) ([]types.OHLCV, []types.DataQualityIssue) {
	f := NewDefaultDataFilter()
	var issues []types.DataQualityIssue

	out := f.SortByTimestamp(NormalizeDaily(data))
	out, dups := f.RemoveDuplicates(out)
	if dups > 0 {
		issues = append(issues, types.DataQualityIssue{
			Symbol: symbol, Field: "Date",
			Detail: fmt.Sprintf("%d duplicate day(s) collapsed", dups),
		})
	}
	out, bad := f.DropInvalid(out)
	if bad > 0 {
		issues = append(issues, types.DataQualityIssue{
			Symbol: symbol, Field: "Close",
			Detail: fmt.Sprintf("%d row(s) without a positive close dropped", bad),
		})
	}
	return out, issues
}
