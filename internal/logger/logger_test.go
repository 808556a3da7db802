package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

func TestLogger_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	l, err := New(Options{Dir: dir, Session: "unit", Level: "debug", Console: &console})
	require.NoError(t, err)

	l.Named("orchestrator").With("symbol", "AAPL").Info("loaded %d bars", 750)
	l.Warning("skipping %s", "BRK-B")
	l.Trade("bought %s", "AAPL")
	l.LogTradeExecution("AAPL", types.TradeEvent{
		Date:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Action: types.SideBuy,
		Amount: 500,
		Price:  170.5,
		Reason: "Compra Tendencia Alcista: RSI 34.00 <= 35 (Nivel 1)",
	})
	require.NoError(t, l.Close())

	out := console.String()
	assert.Contains(t, out, "session started")
	assert.Contains(t, out, "loaded 750 bars")
	assert.Contains(t, out, "orchestrator")
	assert.Contains(t, out, "skipping BRK-B")
	assert.Contains(t, out, "session ended")

	require.True(t, strings.HasPrefix(l.Path(), dir))
	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.GreaterOrEqual(t, len(lines), 6)

	var trade map[string]interface{}
	for _, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "unit", entry["session"])
		if entry["msg"] == "trade executed" {
			trade = entry
		}
	}
	require.NotNil(t, trade)
	assert.Equal(t, "AAPL", trade["symbol"])
	assert.Equal(t, "Buy", trade["action"])
	assert.Equal(t, "2024-05-01", trade["date"])
	assert.Equal(t, 500.0, trade["amount"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Options{Level: "warn", Console: &console})
	require.NoError(t, err)

	l.Info("hidden")
	l.Error("visible")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "visible")
	assert.Empty(t, l.Path())
	assert.NoError(t, l.Close())
}

func TestLogger_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("nothing")
	l.Named("x").With("k", "v").Status("still nothing")
	assert.NoError(t, l.Close())
}
