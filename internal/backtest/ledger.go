package backtest

import (
	"fmt"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/strategy"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// RunState is the cash and position ledger of a single run. It is owned by
// exactly one goroutine for the lifetime of the run.
type RunState struct {
	Cash       float64
	Shares     float64
	CostBasis  float64
	LastAction strategy.TradeAction
	LastBuyRSI *float64
	Trades     int
	History    []types.TradeEvent

	buyAmount float64
}

// NewRunState opens a flat ledger funded with the configured capital.
func NewRunState(cfg strategy.Config) *RunState {
	return &RunState{
		Cash:       cfg.InitialCapital,
		LastAction: strategy.ActionHold,
		History:    make([]types.TradeEvent, 0),
		buyAmount:  cfg.BuyAmount(),
	}
}

// Position returns the view of the ledger the strategy decides on.
func (s *RunState) Position() strategy.Position {
	return strategy.Position{
		Shares:     s.Shares,
		CostBasis:  s.CostBasis,
		LastAction: s.LastAction,
		LastBuyRSI: s.LastBuyRSI,
	}
}

// Equity is cash plus the position marked at price.
func (s *RunState) Equity(price float64) float64 {
	return s.Cash + s.Shares*price
}

// Buy invests the configured amount, capped at the available cash. It
// reports whether an execution happened.
func (s *RunState) Buy(bar types.Bar, reason string) bool {
	if s.Cash <= 0 || bar.Close <= 0 {
		return false
	}

	amount := s.buyAmount
	if amount > s.Cash {
		amount = s.Cash
	}

	s.Shares += amount / bar.Close
	s.Cash -= amount
	s.CostBasis += amount
	s.LastAction = strategy.ActionBuy
	s.History = append(s.History, types.TradeEvent{
		Date:   bar.Date,
		Action: types.SideBuy,
		Amount: amount,
		Price:  bar.Close,
		Reason: reason,
	})
	return true
}

// Sell liquidates the whole position. It reports whether an execution happened.
func (s *RunState) Sell(bar types.Bar, reason string) bool {
	if s.Shares <= 0 {
		return false
	}

	amount := s.Shares * bar.Close
	s.Cash += amount
	s.Shares = 0
	s.CostBasis = 0
	s.LastAction = strategy.ActionSell
	s.LastBuyRSI = nil
	s.Trades++
	s.History = append(s.History, types.TradeEvent{
		Date:   bar.Date,
		Action: types.SideSell,
		Amount: amount,
		Price:  bar.Close,
		Reason: reason,
	})
	return true
}

// SetLastBuyRSI anchors the staged-entry ladder.
func (s *RunState) SetLastBuyRSI(rsi float64) {
	s.LastBuyRSI = &rsi
}

// Invariants returns the first ledger invariant that does not hold.
func (s *RunState) Invariants() error {
	switch {
	case s.Cash < 0:
		return fmt.Errorf("negative cash %.6f", s.Cash)
	case s.Shares < 0:
		return fmt.Errorf("negative shares %.6f", s.Shares)
	case (s.Shares == 0) != (s.CostBasis == 0):
		return fmt.Errorf("shares %.6f and cost basis %.6f disagree on an open position", s.Shares, s.CostBasis)
	case s.LastBuyRSI != nil && s.Shares == 0:
		return fmt.Errorf("ladder anchored at %.2f with no open position", *s.LastBuyRSI)
	}
	return nil
}
