package strategy

import (
	"fmt"
	"strconv"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// TrendRSI trades RSI extremes with thresholds that depend on whether the
// medium SMA sits above the long SMA.
//
// In a bullish regime it scales in on a ladder of falling RSI levels, takes
// profit on overbought readings and re-enters on pullbacks after a sale. In a
// bearish regime it opens at most one position on an upward RSI cross while
// flat, and exits on overbought readings.
type TrendRSI struct {
	cfg Config
}

// NewTrendRSI creates the strategy. cfg is expected to be validated.
func NewTrendRSI(cfg Config) *TrendRSI {
	return &TrendRSI{cfg: cfg}
}

func (s *TrendRSI) GetName() string {
	return "Trend RSI"
}

// Decide evaluates bar. SELL rules are checked before BUY rules and the first
// matching rule wins, so a decision is never both.
func (s *TrendRSI) Decide(bar, prev types.Bar, pos Position) TradeDecision {
	if !bar.RSI.Valid || !bar.SMAMedium.Valid || !bar.SMALong.Valid {
		return TradeDecision{Action: ActionHold, Skipped: true}
	}

	if bar.SMAMedium.Value > bar.SMALong.Value {
		return s.decideBullish(bar, pos)
	}
	return s.decideBearish(bar, prev, pos)
}

func (s *TrendRSI) decideBullish(bar types.Bar, pos Position) TradeDecision {
	cfg := s.cfg
	rsi := bar.RSI.Value
	price := bar.Close
	smaLong := bar.SMALong.Value
	hold := TradeDecision{Action: ActionHold, Trend: TrendBullish}

	switch {
	case rsi >= cfg.BullishSellLevel && pos.Shares > 0:
		profit := pos.UnrealizedProfitPct(price)
		if profit < cfg.MinProfitPctToSell {
			// Overbought but below the profit gate: no exit and no entry.
			return hold
		}
		return TradeDecision{
			Action: ActionSell,
			Rule:   RuleBullishSell,
			Trend:  TrendBullish,
			Reason: fmt.Sprintf("Venta Tendencia Alcista: RSI %.2f >= %s con utilidad %.2f%%",
				rsi, level(cfg.BullishSellLevel), profit*100),
		}

	case rsi <= cfg.BullishBuyLevel1:
		last := pos.LastBuyRSI
		switch {
		case last == nil:
			return s.ladderBuy(RuleLevel1, fmt.Sprintf("Compra Tendencia Alcista: RSI %.2f <= %s (Nivel 1)",
				rsi, level(cfg.BullishBuyLevel1)))

		case *last >= cfg.BullishBuyLevel1 && rsi <= cfg.BullishBuyLevel2:
			if price <= smaLong {
				return hold
			}
			return s.ladderBuy(RuleLevel2, fmt.Sprintf("Compra Tendencia Alcista: RSI %.2f <= %s (Nivel 2)",
				rsi, level(cfg.BullishBuyLevel2)))

		case *last <= cfg.BullishBuyLevel2:
			if rsi > *last-cfg.BuyStepDelta || price <= smaLong {
				return hold
			}
			return s.ladderBuy(RuleLevel3, fmt.Sprintf("Compra Tendencia Alcista: RSI %.2f bajó %s puntos desde %.2f",
				rsi, level(cfg.BuyStepDelta), *last))
		}
		return hold

	case rsi < cfg.BullishPullbackLevel && pos.LastAction == ActionSell:
		return s.ladderBuy(RulePullback, fmt.Sprintf("Pullback Tendencia Alcista: RSI %.2f < %s tras venta",
			rsi, level(cfg.BullishPullbackLevel)))
	}

	return hold
}

func (s *TrendRSI) ladderBuy(rule Rule, reason string) TradeDecision {
	return TradeDecision{
		Action:      ActionBuy,
		Rule:        rule,
		Trend:       TrendBullish,
		Reason:      reason,
		SeedsLadder: true,
	}
}

func (s *TrendRSI) decideBearish(bar, prev types.Bar, pos Position) TradeDecision {
	cfg := s.cfg
	rsi := bar.RSI.Value
	hold := TradeDecision{Action: ActionHold, Trend: TrendBearish}

	if rsi >= cfg.BearishSellLevel && pos.Shares > 0 {
		profit := pos.UnrealizedProfitPct(bar.Close)
		if profit < cfg.MinProfitPctToSell {
			return hold
		}
		return TradeDecision{
			Action: ActionSell,
			Rule:   RuleBearishSell,
			Trend:  TrendBearish,
			Reason: fmt.Sprintf("Venta Tendencia Bajista: RSI %.2f >= %s con utilidad %.2f%%",
				rsi, level(cfg.BearishSellLevel), profit*100),
		}
	}

	cross := cfg.BearishBuyCrossLevel
	if pos.Shares == 0 && prev.RSI.Valid && prev.RSI.Value <= cross && rsi > cross {
		return TradeDecision{
			Action: ActionBuy,
			Rule:   RuleBearishBuy,
			Trend:  TrendBearish,
			Reason: fmt.Sprintf("Compra Tendencia Bajista: Cruce RSI %.2f > %s", rsi, level(cross)),
		}
	}

	return hold
}

// level prints a threshold in its shortest form, so 73 renders as "73".
func level(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
