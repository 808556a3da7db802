package reporting

import (
	"github.com/ducminhle1904/trend-rsi-backtest/internal/backtest"
)

// Portfolio aggregates a batch of per-instrument results, each started with
// the same initial capital.
type Portfolio struct {
	Instruments   int
	TotalInvested float64
	FinalValue    float64
	HeldValue     float64
	ReturnPct     float64
	Winners       int
	Losers        int
	WinRate       float64
	Trades        int
}

// Aggregate sums results into a portfolio view.
func Aggregate(results []*backtest.Result, initialCapital float64) Portfolio {
	p := Portfolio{Instruments: len(results)}
	p.TotalInvested = float64(len(results)) * initialCapital

	for _, r := range results {
		p.FinalValue += r.FinalCapital
		p.HeldValue += r.PositionValue
		p.Trades += r.TradesExecuted
		switch {
		case r.ReturnPct > 0:
			p.Winners++
		case r.ReturnPct < 0:
			p.Losers++
		}
	}
	if p.TotalInvested > 0 {
		p.ReturnPct = (p.FinalValue - p.TotalInvested) / p.TotalInvested * 100
	}
	if p.Instruments > 0 {
		p.WinRate = float64(p.Winners) / float64(p.Instruments) * 100
	}
	return p
}
