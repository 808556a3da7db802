package strategy

import "github.com/ducminhle1904/trend-rsi-backtest/pkg/types"

// Strategy decides what to do on a single bar given the open position.
type Strategy interface {
	// Decide evaluates the current bar. prev is the bar immediately before it.
	Decide(bar, prev types.Bar, pos Position) TradeDecision

	// GetName returns the name of the strategy
	GetName() string
}

// TradeAction represents the type of trading action
type TradeAction int

const (
	ActionHold TradeAction = iota
	ActionBuy
	ActionSell
)

func (ta TradeAction) String() string {
	switch ta {
	case ActionHold:
		return "HOLD"
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Trend is the regime a bar was classified into.
type Trend int

const (
	TrendBearish Trend = iota
	TrendBullish
)

func (t Trend) String() string {
	if t == TrendBullish {
		return "bullish"
	}
	return "bearish"
}

// Rule names the branch of the decision table that produced a decision.
type Rule string

const (
	RuleNone        Rule = ""
	RuleBullishSell Rule = "bullish_sell"
	RuleLevel1      Rule = "bullish_level_1"
	RuleLevel2      Rule = "bullish_level_2"
	RuleLevel3      Rule = "bullish_level_3"
	RulePullback    Rule = "bullish_pullback"
	RuleBearishSell Rule = "bearish_sell"
	RuleBearishBuy  Rule = "bearish_cross"
)

// Position is the read-only view of the ledger a strategy needs.
type Position struct {
	Shares     float64
	CostBasis  float64
	LastAction TradeAction
	LastBuyRSI *float64
}

// UnrealizedProfitPct is the mark-to-market gain of the open position as a
// fraction of its cost basis, or 0 when flat.
func (p Position) UnrealizedProfitPct(price float64) float64 {
	if p.Shares > 0 && p.CostBasis > 0 {
		return (p.Shares*price - p.CostBasis) / p.CostBasis
	}
	return 0
}

// TradeDecision represents a trading decision made by a strategy
type TradeDecision struct {
	Action TradeAction
	Rule   Rule
	Trend  Trend
	Reason string
	// SeedsLadder is set when the decision moves the staged-entry anchor to
	// the current RSI.
	SeedsLadder bool
	// Skipped is set when the bar lacked a required indicator value.
	Skipped bool
}
