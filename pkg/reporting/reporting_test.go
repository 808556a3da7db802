package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/backtest"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func sampleResults() []*backtest.Result {
	return []*backtest.Result{
		{
			Symbol: "AAPL", TradesExecuted: 2, FinalCapital: 1100, PositionValue: 0, ReturnPct: 10,
			Status: backtest.StatusLiquid, InitialCapital: 1000, StartDate: day(1), EndDate: day(10),
			History: []types.TradeEvent{
				{Date: day(2), Action: types.SideBuy, Amount: 500, Price: 100, Reason: "buy"},
				{Date: day(8), Action: types.SideSell, Amount: 600, Price: 120, Reason: "sell"},
			},
		},
		{
			Symbol: "MSFT", TradesExecuted: 0, FinalCapital: 950, PositionValue: 450, ReturnPct: -5,
			Status: backtest.StatusInPosition, InitialCapital: 1000, StartDate: day(1), EndDate: day(10),
			History: []types.TradeEvent{
				{Date: day(10), Action: types.SideBuy, Amount: 500, Price: 50, Reason: "dip"},
			},
		},
		{
			Symbol: "KO", FinalCapital: 1000, ReturnPct: 0, Status: backtest.StatusLiquid,
			InitialCapital: 1000, StartDate: day(1), EndDate: day(10),
		},
	}
}

func TestAggregate(t *testing.T) {
	p := Aggregate(sampleResults(), 1000)

	assert.Equal(t, 3, p.Instruments)
	assert.Equal(t, 3000.0, p.TotalInvested)
	assert.Equal(t, 3050.0, p.FinalValue)
	assert.Equal(t, 450.0, p.HeldValue)
	assert.InDelta(t, 50.0/3000*100, p.ReturnPct, 1e-9)
	assert.Equal(t, 1, p.Winners)
	assert.Equal(t, 1, p.Losers)
	assert.InDelta(t, 100.0/3, p.WinRate, 1e-9)
	assert.Equal(t, 2, p.Trades)

	empty := Aggregate(nil, 1000)
	assert.Zero(t, empty.ReturnPct)
	assert.Zero(t, empty.WinRate)
}

func TestLatestSignals(t *testing.T) {
	date, signals, ok := LatestSignals(sampleResults())
	require.True(t, ok)
	assert.Equal(t, day(10), date)
	require.Len(t, signals, 1)
	assert.Equal(t, types.Signal{Date: day(10), Symbol: "MSFT", Action: types.SideBuy, Price: 50, Reason: "dip"}, signals[0])

	_, _, ok = LatestSignals([]*backtest.Result{{Symbol: "KO"}})
	assert.False(t, ok)
}

func TestAppendSignalLog_Dedupes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "signals.json")
	first := []types.Signal{
		{Date: day(10), Symbol: "MSFT", Action: types.SideBuy, Price: 50},
		{Date: day(10), Symbol: "AAPL", Action: types.SideSell, Price: 120},
	}

	added, err := AppendSignalLog(path, first)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = AppendSignalLog(path, append(first, types.Signal{Date: day(11), Symbol: "MSFT", Action: types.SideBuy, Price: 48}))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	log, err := ReadSignalLog(path)
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, day(11), log[2].Date)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = AppendSignalLog(path, first)
	assert.Error(t, err)
}

func TestWriteMarkdownReport(t *testing.T) {
	results := sampleResults()
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, WriteMarkdownReport(path, Aggregate(results, 1000), results, day(11)))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(body)
	assert.Contains(t, s, "| **Total Invested** | $3,000.00 |")
	assert.Contains(t, s, "| **AAPL** | 2 | $1,100.00 | 🟢 +10.00% |")
	assert.Contains(t, s, "🔴 -5.00%")
	assert.Contains(t, s, "### 🔍 MSFT")
	assert.NotContains(t, s, "### 🔍 KO", "instruments without history have no detail table")
	assert.Contains(t, s, "| 2024-05-08 | **Sell** | $600.00 | $120.00 | sell |")
}

func TestWriteSignalsReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.md")
	require.NoError(t, WriteSignalsReport(path, day(10), []types.Signal{{Date: day(10), Symbol: "MSFT", Action: types.SideBuy, Price: 1234.5, Reason: "dip"}}))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# 🎯 Signals - 2024-05-10")
	assert.Contains(t, string(body), "| **MSFT** | 🚀 **Buy** | $1,234.50 | dip |")

	empty := filepath.Join(dir, "none.md")
	require.NoError(t, WriteSignalsReport(empty, day(10), nil))
	body, err = os.ReadFile(empty)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No buy or sell signals")
}

func TestWriteExcel(t *testing.T) {
	results := sampleResults()
	path := filepath.Join(t.TempDir(), "out", "backtest.xlsx")
	require.NoError(t, WriteExcel(path, Aggregate(results, 1000), results))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.Equal(t, []string{summarySheet, tradesSheet}, fx.GetSheetList())

	rows, err := fx.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, "Ticker", rows[0][0])
	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "KO", rows[3][0])

	trades, err := fx.GetRows(tradesSheet)
	require.NoError(t, err)
	require.Len(t, trades, 4)
	assert.Equal(t, []string{"MSFT", "2024-05-10", "Buy"}, trades[3][:3])
}

func TestPrintConsoleSummary(t *testing.T) {
	results := sampleResults()
	var buf bytes.Buffer
	PrintConsoleSummary(&buf, Aggregate(results, 1000), results)

	out := buf.String()
	assert.Contains(t, out, "BACKTEST RESULTS")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "2024-05-10 Buy")

	buf.Reset()
	PrintSignals(&buf, day(10), nil)
	assert.Equal(t, "No signals on 2024-05-10\n", buf.String())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$0.00", Money(0))
	assert.Equal(t, "$999.99", Money(999.99))
	assert.Equal(t, "$1,234,567.89", Money(1234567.891))
	assert.Equal(t, "-$1,000.00", Money(-1000))
	assert.Equal(t, "+0.00%", SignedPct(0))
	assert.Equal(t, "-2.50%", SignedPct(-2.5))

	assert.Equal(t, filepath.Join("data", "report_2024-05-10.md"), DatedPath(filepath.Join("data", "report.md"), day(10)))
	assert.Equal(t, "log_2024-05-10", DatedPath("log", day(10)))
}
