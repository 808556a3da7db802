// Package store persists signals and run summaries across batches.
package store

import (
	"context"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// SignalStore keeps the history of emitted signals.
type SignalStore interface {
	SaveSignals(ctx context.Context, signals []types.Signal) error
	// ListSignals returns signals on or after since, oldest first. An empty
	// symbol matches every symbol.
	ListSignals(ctx context.Context, symbol string, since time.Time) ([]types.Signal, error)
}

// RunRecord is the stored summary of one instrument in one batch.
type RunRecord struct {
	BatchID       string
	Symbol        string
	RanAt         time.Time
	Trades        int
	FinalCapital  float64
	PositionValue float64
	ReturnPct     float64
	Status        string
	MaxDrawdown   float64
}

// RunStore keeps per-batch run summaries.
type RunStore interface {
	SaveRuns(ctx context.Context, runs []RunRecord) error
	ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error)
}
