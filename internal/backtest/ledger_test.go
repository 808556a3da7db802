package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/strategy"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

func priceBar(price float64) types.Bar {
	return types.Bar{Date: day0, Close: price}
}

func TestRunState_BuyAndSell(t *testing.T) {
	state := NewRunState(defaultConfig())
	require.NoError(t, state.Invariants())
	assert.Equal(t, strategy.ActionHold, state.LastAction)

	require.True(t, state.Buy(priceBar(100), "first"))
	assert.Equal(t, 500.0, state.Cash)
	assert.Equal(t, 5.0, state.Shares)
	assert.Equal(t, 500.0, state.CostBasis)
	assert.Equal(t, strategy.ActionBuy, state.LastAction)

	require.True(t, state.Buy(priceBar(50), "second"))
	assert.Equal(t, 0.0, state.Cash)
	assert.Equal(t, 15.0, state.Shares)
	assert.Equal(t, 1000.0, state.CostBasis)

	assert.False(t, state.Buy(priceBar(50), "no cash"))
	assert.Len(t, state.History, 2)

	state.SetLastBuyRSI(28)
	require.NoError(t, state.Invariants())

	require.True(t, state.Sell(priceBar(80), "exit"))
	assert.Equal(t, 1200.0, state.Cash)
	assert.Equal(t, 0.0, state.Shares)
	assert.Equal(t, 0.0, state.CostBasis)
	assert.Nil(t, state.LastBuyRSI)
	assert.Equal(t, 1, state.Trades)
	assert.Equal(t, strategy.ActionSell, state.LastAction)
	require.NoError(t, state.Invariants())

	assert.False(t, state.Sell(priceBar(80), "flat"))
	assert.Equal(t, 1, state.Trades)

	require.Len(t, state.History, 3)
	assert.Equal(t, types.TradeEvent{Date: day0, Action: types.SideSell, Amount: 1200, Price: 80, Reason: "exit"}, state.History[2])
}

func TestRunState_BuyCapsAtCash(t *testing.T) {
	cfg := defaultConfig()
	cfg.PositionSizePct = 0.75
	state := NewRunState(cfg)

	require.True(t, state.Buy(priceBar(10), "a"))
	require.True(t, state.Buy(priceBar(10), "b"))
	assert.Equal(t, 750.0, state.History[0].Amount)
	assert.Equal(t, 250.0, state.History[1].Amount)
	assert.Equal(t, 0.0, state.Cash)
	assert.Equal(t, 100.0, state.Shares)
}

func TestRunState_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		state  RunState
		substr string
	}{
		{"negative cash", RunState{Cash: -1}, "negative cash"},
		{"negative shares", RunState{Shares: -1, CostBasis: 1}, "negative shares"},
		{"orphan cost basis", RunState{Cash: 10, CostBasis: 5}, "disagree"},
		{"orphan anchor", RunState{Cash: 10, LastBuyRSI: new(float64)}, "ladder anchored"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Invariants()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Run("in position", func(t *testing.T) {
		s := Summarize(&RunState{Cash: 500, Shares: 4}, 150, 1000)
		assert.Equal(t, 600.0, s.PositionValue)
		assert.Equal(t, 1100.0, s.FinalCapital)
		assert.InDelta(t, 10.0, s.ReturnPct, 1e-9)
		assert.Equal(t, StatusInPosition, s.Status)
	})

	t.Run("liquid at a loss", func(t *testing.T) {
		s := Summarize(&RunState{Cash: 900}, 150, 1000)
		assert.Equal(t, 0.0, s.PositionValue)
		assert.Equal(t, 900.0, s.FinalCapital)
		assert.InDelta(t, -10.0, s.ReturnPct, 1e-9)
		assert.Equal(t, StatusLiquid, s.Status)
	})
}
