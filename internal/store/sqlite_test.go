package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "db", "signals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteStore_Signals(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveSignals(ctx, []types.Signal{
		{Date: date(1), Symbol: "AAPL", Action: types.SideBuy, Price: 170, Reason: "first"},
		{Date: date(4), Symbol: "MSFT", Action: types.SideSell, Price: 410, Reason: "exit"},
	}))
	// Same key updates in place.
	require.NoError(t, s.SaveSignals(ctx, []types.Signal{
		{Date: date(1), Symbol: "AAPL", Action: types.SideBuy, Price: 171, Reason: "revised"},
	}))
	require.NoError(t, s.SaveSignals(ctx, nil))

	all, err := s.ListSignals(ctx, "", date(1))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, types.Signal{Date: date(1), Symbol: "AAPL", Action: types.SideBuy, Price: 171, Reason: "revised"}, all[0])

	recent, err := s.ListSignals(ctx, "", date(2))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "MSFT", recent[0].Symbol)

	aapl, err := s.ListSignals(ctx, "AAPL", time.Time{})
	require.NoError(t, err)
	assert.Len(t, aapl, 1)
}

func TestSQLiteStore_Runs(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRuns(ctx, []RunRecord{
		{BatchID: "b1", Symbol: "SPY", RanAt: first, Trades: 3, FinalCapital: 1100, ReturnPct: 10, Status: "liquid"},
		{BatchID: "b2", Symbol: "SPY", RanAt: first.Add(24 * time.Hour), Trades: 4, FinalCapital: 1150, PositionValue: 500, ReturnPct: 15, Status: "in position", MaxDrawdown: 0.12},
		{BatchID: "b2", Symbol: "QQQ", RanAt: first.Add(24 * time.Hour), Status: "liquid", FinalCapital: 1000},
	}))

	runs, err := s.ListRuns(ctx, "SPY", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b2", runs[0].BatchID)
	assert.Equal(t, 0.12, runs[0].MaxDrawdown)
	assert.True(t, first.Equal(runs[1].RanAt))

	one, err := s.ListRuns(ctx, "SPY", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
