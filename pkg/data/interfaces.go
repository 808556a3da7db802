package data

import (
	"context"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// BarSource loads daily candles for one symbol in [start, end].
type BarSource interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]types.OHLCV, error)
	Name() string
}

// QualitySource is implemented by sources that can report problems found in
// the raw data alongside the candles.
type QualitySource interface {
	BarSource
	FetchDailyWithIssues(ctx context.Context, symbol string, start, end time.Time) ([]types.OHLCV, []types.DataQualityIssue, error)
}

// BarCache stores daily candles per symbol.
type BarCache interface {
	// Load returns the cached candles within [start, end], oldest first.
	Load(symbol string, start, end time.Time) ([]types.OHLCV, error)
	// Store merges candles into the cache, replacing candles of the same day.
	Store(symbol string, candles []types.OHLCV) error
}

// DataFilter cleans and slices candle data.
type DataFilter interface {
	FilterByPeriod(data []types.OHLCV, period time.Duration) []types.OHLCV
	FilterByDateRange(data []types.OHLCV, start, end time.Time) []types.OHLCV
	ValidateTimeSequence(data []types.OHLCV) error
}
