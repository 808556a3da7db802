package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func falling(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 - float64(i)
	}
	return out
}

func TestRSI_SeriesWarmup(t *testing.T) {
	series := NewRSI(14).Series(rising(20))

	require.Len(t, series, 20)
	for i := 0; i < 14; i++ {
		assert.False(t, series[i].Valid, "index %d", i)
	}
	for i := 14; i < 20; i++ {
		assert.True(t, series[i].Valid, "index %d", i)
	}
}

func TestRSI_Extremes(t *testing.T) {
	up := NewRSI(14).Series(rising(30))
	assert.Equal(t, 100.0, up[29].Value)

	down := NewRSI(14).Series(falling(30))
	assert.Equal(t, 0.0, down[29].Value)

	flat := NewRSI(5).Series([]float64{10, 10, 10, 10, 10, 10, 10})
	assert.False(t, flat[5].Valid, "a window without movement has no RSI")
	assert.False(t, flat[6].Valid)

	_, err := NewRSI(5).Calculate([]float64{10, 10, 10, 10, 10, 10, 10})
	assert.Error(t, err)
}

func TestRSI_DefinedAgainAfterFlatStretch(t *testing.T) {
	series := NewRSI(3).Series([]float64{10, 10, 10, 10, 11, 10})
	assert.False(t, series[3].Valid)
	require.True(t, series[4].Valid)
	assert.Equal(t, 100.0, series[4].Value)
	require.True(t, series[5].Valid)
	// avgGain (1/3*2)/3 = 2/9, avgLoss 1/3 -> RS 2/3 -> 40.
	assert.InDelta(t, 40.0, series[5].Value, 1e-9)
}

func TestRSI_WilderSmoothing(t *testing.T) {
	// Period 2 keeps the arithmetic checkable by hand.
	prices := []float64{10, 11, 10, 12}
	series := NewRSI(2).Series(prices)

	// Seed: gains (1, 0), losses (0, 1) -> avg 0.5 / 0.5 -> 50.
	require.True(t, series[2].Valid)
	assert.InDelta(t, 50.0, series[2].Value, 1e-9)

	// Next: gain 2 -> avgGain (0.5+2)/2 = 1.25, avgLoss 0.5/2 = 0.25, RS 5.
	assert.InDelta(t, 100-100/6.0, series[3].Value, 1e-9)
}

func TestRSI_CalculateMatchesSeries(t *testing.T) {
	prices := []float64{44, 44.3, 44.1, 44.5, 43.9, 44.6, 45.1, 45.4, 45.8, 46.1, 45.9, 46.3, 46.2, 46.0, 46.4, 46.8}
	r := NewRSI(14)

	value, err := r.Calculate(prices)
	require.NoError(t, err)
	series := r.Series(prices)
	assert.Equal(t, series[len(series)-1].Value, value)
	assert.Greater(t, value, 50.0)
	assert.Less(t, value, 100.0)

	_, err = r.Calculate(prices[:10])
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient data")
}

func TestRSI_ShortInput(t *testing.T) {
	series := NewRSI(14).Series(rising(14))
	for _, v := range series {
		assert.False(t, v.Valid)
	}
	assert.Equal(t, 15, NewRSI(14).GetRequiredPeriods())
}

func BenchmarkRSI_Series(b *testing.B) {
	prices := rising(750)
	r := NewRSI(14)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Series(prices)
	}
}
