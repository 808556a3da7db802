package indicators

import (
	"fmt"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// Config selects the indicator windows attached to each bar.
type Config struct {
	RSIPeriod   int
	RSIMAPeriod int
	SMAShort    int
	SMAMedium   int
	SMALong     int
}

// Validate checks that every window is positive.
func (c Config) Validate() error {
	windows := map[string]int{
		"rsi period":    c.RSIPeriod,
		"rsi ma period": c.RSIMAPeriod,
		"sma short":     c.SMAShort,
		"sma medium":    c.SMAMedium,
		"sma long":      c.SMALong,
	}
	for name, w := range windows {
		if w <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, w)
		}
	}
	if c.SMAMedium >= c.SMALong {
		return fmt.Errorf("sma medium (%d) must be shorter than sma long (%d)", c.SMAMedium, c.SMALong)
	}
	return nil
}

// WarmupBars is the number of leading bars that cannot be traded because the
// long SMA or the RSI is still undefined.
func (c Config) WarmupBars() int {
	if c.SMALong > c.RSIPeriod {
		return c.SMALong - 1
	}
	return c.RSIPeriod
}

// Enrich computes every indicator column over candles and returns a series
// ready for backtesting. Candles must already be sorted by time.
func Enrich(symbol string, candles []types.OHLCV, cfg Config) types.Series {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	rsi := NewRSI(cfg.RSIPeriod).Series(closes)
	rsiMA := NewSMA(cfg.RSIMAPeriod).SeriesOptional(rsi)
	short := NewSMA(cfg.SMAShort).Series(closes)
	medium := NewSMA(cfg.SMAMedium).Series(closes)
	long := NewSMA(cfg.SMALong).Series(closes)

	bars := make([]types.Bar, len(candles))
	for i, c := range candles {
		bars[i] = types.Bar{
			Date:      c.Timestamp,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
			RSI:       rsi[i],
			RSIMA:     rsiMA[i],
			SMAShort:  short[i],
			SMAMedium: medium[i],
			SMALong:   long[i],
		}
	}

	return types.Series{Symbol: symbol, Bars: bars, Fields: types.AllFields}
}
