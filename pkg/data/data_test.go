package data

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/indicators"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dailyCandles(start time.Time, n int) []types.OHLCV {
	out := make([]types.OHLCV, n)
	for i := range out {
		price := 100 + float64(i%11)
		out[i] = types.OHLCV{Timestamp: start.AddDate(0, 0, i), Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 10}
	}
	return out
}

type fakeSource struct {
	candles []types.OHLCV
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchDaily(_ context.Context, _ string, start, end time.Time) ([]types.OHLCV, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return NewDefaultDataFilter().FilterByDateRange(f.candles, start, end), nil
}

func TestParseTrailingPeriod(t *testing.T) {
	end := day(2025, 3, 31)
	tests := []struct {
		in    string
		start time.Time
	}{
		{"3y", day(2022, 3, 31)},
		{"6m", day(2024, 10, 1)},
		{"6mo", day(2024, 10, 1)},
		{"2w", day(2025, 3, 17)},
		{"90d", day(2024, 12, 31)},
		{"10days", day(2025, 3, 21)},
		{"48h", day(2025, 3, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParseTrailingPeriod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.start, p.Start(end))
		})
	}

	for _, bad := range []string{"", "0d", "-3y", "abc", "y"} {
		_, err := ParseTrailingPeriod(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadCSV_DuplicateColumnsAndBadRows(t *testing.T) {
	src := NewCSVSource("testdata")
	candles, issues, err := src.FetchDailyWithIssues(context.Background(), "dup", time.Time{}, time.Time{})
	require.NoError(t, err)

	require.Len(t, candles, 3)
	assert.Equal(t, 10.5, candles[0].Close, "first Close column wins")
	assert.Equal(t, 11.0, candles[2].Close)

	require.Len(t, issues, 2)
	assert.Equal(t, "Close", issues[0].Field)
	assert.Contains(t, issues[0].Detail, "duplicate column")
	assert.Contains(t, issues[1].Detail, "2 malformed row(s)")
}

func TestReadCSV_Errors(t *testing.T) {
	_, _, err := ReadCSV("X", strings.NewReader(""))
	assert.Error(t, err)

	_, _, err = ReadCSV("X", strings.NewReader("Date,Open\n2024-01-02,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed header")

	_, err = NewCSVSource(t.TempDir()).FetchDaily(context.Background(), "NOPE", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestReadCSV_FillsMissingOHLC(t *testing.T) {
	candles, issues, err := ReadCSV("X", strings.NewReader("date,close\n2024-01-02,5\n"))
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, candles, 1)
	assert.Equal(t, types.OHLCV{Timestamp: day(2024, 1, 2), Open: 5, High: 5, Low: 5, Close: 5}, candles[0])
}

func TestClean(t *testing.T) {
	in := []types.OHLCV{
		{Timestamp: day(2024, 1, 3).Add(5 * time.Hour), Close: 3},
		{Timestamp: day(2024, 1, 2), Close: 2},
		{Timestamp: day(2024, 1, 3), Close: 4},
		{Timestamp: day(2024, 1, 4), Close: 0},
	}
	out, issues := Clean("X", in)

	require.Len(t, out, 2)
	assert.Equal(t, day(2024, 1, 2), out[0].Timestamp)
	assert.Equal(t, day(2024, 1, 3), out[1].Timestamp)
	assert.Equal(t, 4.0, out[1].Close, "later duplicate wins")
	assert.Len(t, issues, 2)
	assert.NoError(t, NewDefaultDataFilter().ValidateTimeSequence(out))
}

func TestFilters(t *testing.T) {
	f := NewDefaultDataFilter()
	data := dailyCandles(day(2024, 1, 1), 10)

	assert.Len(t, f.FilterByPeriod(data, 72*time.Hour), 4)
	assert.Len(t, f.FilterByPeriod(data, 0), 10)
	assert.Len(t, f.FilterByDateRange(data, day(2024, 1, 3), day(2024, 1, 5)), 3)

	swapped := []types.OHLCV{data[1], data[0]}
	assert.Error(t, f.ValidateTimeSequence(swapped))
	assert.Error(t, f.ValidateTimeSequence([]types.OHLCV{data[0], data[0]}))
}

func TestParquetCache_StoreMergeLoad(t *testing.T) {
	cache := NewParquetCache(t.TempDir())
	first := dailyCandles(day(2023, 12, 28), 6)
	require.NoError(t, cache.Store("spy", first))

	updated := first[5]
	updated.Close = 999
	require.NoError(t, cache.Store("SPY", []types.OHLCV{updated}))

	got, err := cache.Load("SPY", day(2023, 1, 1), day(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, first[0].Timestamp, got[0].Timestamp)
	assert.Equal(t, 999.0, got[5].Close)

	symbols, err := cache.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY"}, symbols)

	none, err := cache.Load("QQQ", day(2023, 1, 1), day(2024, 12, 31))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCachedSource(t *testing.T) {
	end := day(2024, 6, 30)
	start := day(2024, 1, 1)
	remote := &fakeSource{candles: dailyCandles(start, 182)}
	src := NewCachedSource(remote, NewMemoryCache(), 48*time.Hour, nil)

	got, err := src.FetchDaily(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.Len(t, got, 182)
	assert.EqualValues(t, 1, remote.calls.Load())

	_, err = src.FetchDaily(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.EqualValues(t, 1, remote.calls.Load(), "fresh cache is served")

	remote.err = errors.New("connection reset")
	stale, err := src.FetchDaily(context.Background(), "AAPL", start, end.AddDate(0, 0, 10))
	require.NoError(t, err, "stale cache is served when the remote fails")
	assert.Len(t, stale, 182)
	assert.EqualValues(t, 2, remote.calls.Load())

	_, err = src.FetchDaily(context.Background(), "MSFT", start, end)
	assert.Error(t, err)
}

func TestLoader(t *testing.T) {
	now := day(2025, 1, 1)
	ind := indicators.Config{RSIPeriod: 14, RSIMAPeriod: 14, SMAShort: 10, SMAMedium: 50, SMALong: 200}
	period, err := ParseTrailingPeriod("1y")
	require.NoError(t, err)

	loader := NewLoader(&fakeSource{candles: dailyCandles(day(2024, 1, 1), 366)}, ind, period)
	loader.now = func() time.Time { return now }

	series, issues, err := loader.Load(context.Background(), " spy ")
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, "SPY", series.Symbol)
	assert.Len(t, series.Bars, 366)
	assert.True(t, series.Fields.Has(types.AllFields))

	short := NewLoader(&fakeSource{candles: dailyCandles(day(2024, 12, 1), 31)}, ind, period)
	short.now = func() time.Time { return now }
	_, issues, err = short.Load(context.Background(), "NEW")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "SMALong", issues[0].Field)

	empty := NewLoader(&fakeSource{}, ind, period)
	empty.now = func() time.Time { return now }
	_, _, err = empty.Load(context.Background(), "NONE")
	assert.Error(t, err)
}

func TestParseBybitKlines(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"list": [][]string{
				{"1704240000000", "2", "3", "1", "2.5", "100", "250"},
				{"1704153600000", "1", "2", "0.5", "1.5", "80", "120"},
				{"bad"},
			},
		},
	}
	candles, err := parseBybitKlines(resp)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, day(2024, 1, 2), candles[0].Timestamp)
	assert.Equal(t, 1.5, candles[0].Close)
	assert.Equal(t, 2.5, candles[1].Close)

	_, err = parseBybitKlines(&bybit_api.ServerResponse{RetCode: 10001, RetMsg: "params error"})
	assert.Error(t, err)
}

func TestAlpacaSymbol(t *testing.T) {
	assert.Equal(t, "BRK.B", alpacaSymbol("brk-b"))
	assert.Equal(t, "SPY", alpacaSymbol("SPY"))
}
