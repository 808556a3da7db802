package backtest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

func TestWorkerPool_RunAllIsolatesFailures(t *testing.T) {
	engine, err := NewEngine(defaultConfig())
	require.NoError(t, err)

	good := buildSeries("", []barSpec{bull(120, 40), bull(120, 34)})
	loadErr := errors.New("feed unavailable")

	jobs := []Job{
		{Symbol: "AAA", Series: good},
		{Symbol: "BAD", Load: func(context.Context) (types.Series, error) { return types.Series{}, loadErr }},
		{Symbol: "PNC", Load: func(context.Context) (types.Series, error) { panic("boom") }},
		{Symbol: "NOI", Series: types.Series{Bars: good.Bars}},
		{Symbol: "BBB", Load: func(context.Context) (types.Series, error) { return good, nil }},
	}

	pool := NewWorkerPool(engine, 3, len(jobs))
	results := pool.RunAll(context.Background(), jobs)

	require.Len(t, results, len(jobs))
	for i, job := range jobs {
		assert.Equal(t, job.Symbol, results[i].Symbol)
	}

	require.NoError(t, results[0].Error)
	assert.Equal(t, "AAA", results[0].Result.Symbol)
	assert.Len(t, results[0].Result.History, 1)

	assert.ErrorIs(t, results[1].Error, loadErr)
	assert.Nil(t, results[1].Result)

	require.Error(t, results[2].Error)
	assert.Contains(t, results[2].Error.Error(), "panicked")

	assert.ErrorIs(t, results[3].Error, ErrMissingIndicatorData)

	require.NoError(t, results[4].Error)
	assert.Equal(t, "BBB", results[4].Result.Symbol)

	done, total, pct, _ := pool.Progress().GetProgress()
	assert.Equal(t, len(jobs), done)
	assert.Equal(t, len(jobs), total)
	assert.Equal(t, 100.0, pct)
}

func TestWorkerPool_ManyInstruments(t *testing.T) {
	engine, err := NewEngine(defaultConfig())
	require.NoError(t, err)

	jobs := make([]Job, 40)
	for i := range jobs {
		symbol := fmt.Sprintf("T%02d", i)
		jobs[i] = Job{Symbol: symbol, Series: buildSeries(symbol, []barSpec{bull(120, 40), bull(120, 34), bull(162, 74)})}
	}

	results := NewWorkerPool(engine, 0, 4).RunAll(context.Background(), jobs)
	for i, res := range results {
		require.NoError(t, res.Error)
		assert.Equal(t, jobs[i].Symbol, res.Result.Symbol)
		assert.Equal(t, 1, res.Result.TradesExecuted)
		assert.InDelta(t, 1175.0, res.Result.FinalCapital, 1e-9)
	}
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	engine, err := NewEngine(defaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{{Symbol: "AAA", Series: buildSeries("AAA", []barSpec{bull(1, 1)})}}
	results := NewWorkerPool(engine, 1, 0).RunAll(ctx, jobs)

	require.Len(t, results, 1)
	// The job may or may not have been picked up before cancellation was seen.
	if results[0].Error != nil {
		assert.ErrorIs(t, results[0].Error, context.Canceled)
	}
}
