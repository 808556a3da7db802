package indicators

import (
	"fmt"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// RSI calculates the Relative Strength Index with Wilder smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI instance with the given period
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// GetRequiredPeriods is the number of prices needed for the first value.
func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}

// Calculate returns the RSI at the last price.
func (r *RSI) Calculate(prices []float64) (float64, error) {
	if len(prices) < r.GetRequiredPeriods() {
		return 0, fmt.Errorf("insufficient data for RSI calculation: need %d prices, got %d",
			r.GetRequiredPeriods(), len(prices))
	}
	last := r.Series(prices)[len(prices)-1]
	if !last.Valid {
		return 0, fmt.Errorf("RSI undefined: no price change over the last %d periods", r.period)
	}
	return last.Value, nil
}

// Series returns one value per price. The first period values are undefined,
// as is any value whose smoothed window holds no gain and no loss.
func (r *RSI) Series(prices []float64) []types.Optional {
	out := make([]types.Optional, len(prices))
	n := r.period
	if n <= 0 || len(prices) <= n {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= n; i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)
	out[n] = rsiValue(avgGain, avgLoss)

	for i := n + 1; i < len(prices); i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain = (avgGain*float64(n-1) + gain) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) types.Optional {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return types.None()
	case avgLoss == 0:
		return types.Some(100)
	}
	rs := avgGain / avgLoss
	return types.Some(100 - 100/(1+rs))
}
