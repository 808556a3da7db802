package backtest

import (
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// EquityPoint is the marked value of a run at a bar's close.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// RoundTrip is a closed position: every buy since the previous sale plus the
// sale that liquidated it.
type RoundTrip struct {
	Opened time.Time
	Closed time.Time
	Buys   int
	Cost   float64
	Value  float64
	PnL    float64
}

// ReturnPct is the round trip's gain relative to its cost.
func (rt RoundTrip) ReturnPct() float64 {
	if rt.Cost == 0 {
		return 0
	}
	return rt.PnL / rt.Cost * 100
}

// Stats are secondary metrics derived from the ledger history and equity curve.
type Stats struct {
	RoundTrips    []RoundTrip
	WinningTrips  int
	LosingTrips   int
	WinRate       float64 // percent of closed round trips with positive PnL
	ProfitFactor  float64 // 0 when no round trip lost money
	MaxDrawdown   float64 // fraction of the running equity peak
	Exposure      float64 // fraction of evaluated bars spent in a position
	BuyCount      int
	SellCount     int
	TotalInvested float64
	EquityCurve   []EquityPoint
}

func computeStats(history []types.TradeEvent, curve []EquityPoint, exposed, processed int) Stats {
	stats := Stats{EquityCurve: curve}

	stats.RoundTrips = pairRoundTrips(history)
	for _, e := range history {
		switch e.Action {
		case types.SideBuy:
			stats.BuyCount++
			stats.TotalInvested += e.Amount
		case types.SideSell:
			stats.SellCount++
		}
	}

	grossProfit, grossLoss := 0.0, 0.0
	for _, rt := range stats.RoundTrips {
		if rt.PnL > 0 {
			stats.WinningTrips++
			grossProfit += rt.PnL
		} else {
			stats.LosingTrips++
			grossLoss += -rt.PnL
		}
	}
	if n := len(stats.RoundTrips); n > 0 {
		stats.WinRate = float64(stats.WinningTrips) / float64(n) * 100
	}
	if grossLoss > 0 {
		stats.ProfitFactor = grossProfit / grossLoss
	}

	stats.MaxDrawdown = maxDrawdown(curve)
	if processed > 0 {
		stats.Exposure = float64(exposed) / float64(processed)
	}
	return stats
}

func pairRoundTrips(history []types.TradeEvent) []RoundTrip {
	var trips []RoundTrip
	var open *RoundTrip

	for _, e := range history {
		switch e.Action {
		case types.SideBuy:
			if open == nil {
				open = &RoundTrip{Opened: e.Date}
			}
			open.Buys++
			open.Cost += e.Amount
		case types.SideSell:
			if open == nil {
				continue
			}
			open.Closed = e.Date
			open.Value = e.Amount
			open.PnL = e.Amount - open.Cost
			trips = append(trips, *open)
			open = nil
		}
	}
	return trips
}

func maxDrawdown(curve []EquityPoint) float64 {
	peak, worst := 0.0, 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
