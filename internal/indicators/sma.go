package indicators

import (
	"errors"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// SMA calculates a Simple Moving Average over a fixed window.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// GetRequiredPeriods returns the window length.
func (s *SMA) GetRequiredPeriods() int {
	return s.period
}

// Calculate returns the average of the last period values.
func (s *SMA) Calculate(values []float64) (float64, error) {
	if s.period <= 0 || len(values) < s.period {
		return 0, errors.New("insufficient data for SMA calculation")
	}
	sum := 0.0
	for _, v := range values[len(values)-s.period:] {
		sum += v
	}
	return sum / float64(s.period), nil
}

// Series returns a rolling average per value, undefined until the window fills.
func (s *SMA) Series(values []float64) []types.Optional {
	out := make([]types.Optional, len(values))
	if s.period <= 0 {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= s.period {
			sum -= values[i-s.period]
		}
		if i >= s.period-1 {
			out[i] = types.Some(sum / float64(s.period))
		}
	}
	return out
}

// SeriesOptional averages an input that may have gaps. A value is defined
// only when the whole window is defined.
func (s *SMA) SeriesOptional(values []types.Optional) []types.Optional {
	out := make([]types.Optional, len(values))
	if s.period <= 0 {
		return out
	}

	sum := 0.0
	run := 0
	for i, v := range values {
		if !v.Valid {
			sum, run = 0, 0
			continue
		}
		sum += v.Value
		run++
		if run > s.period {
			sum -= values[i-s.period].Value
			run = s.period
		}
		if run == s.period {
			out[i] = types.Some(sum / float64(s.period))
		}
	}
	return out
}
