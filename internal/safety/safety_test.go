package safety

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	runerrors "github.com/ducminhle1904/trend-rsi-backtest/internal/errors"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter("alpaca", 2, 2)
	rl.now = clock.now
	rl.lastRefill = clock.t

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	clock.advance(500 * time.Millisecond)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	clock.advance(10 * time.Second)
	assert.Equal(t, 2.0, rl.GetStats().Tokens, "refill is capped at the burst size")
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter("bybit", 0.001, 1)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}

func TestRateLimiter_ZeroRateNeverBlocks(t *testing.T) {
	rl := NewRateLimiter("csv", 0, 1)
	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Wait(context.Background()))
	}
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("alpaca", CircuitBreakerConfig{FailureThreshold: 2, Timeout: time.Minute})
	cb.now = clock.now

	var transitions []string
	cb.SetStateChangeCallback(func(from, to CircuitBreakerState) {
		transitions = append(transitions, from.String()+">"+to.String())
	})

	boom := errors.New("503 service unavailable")
	fail := func() error { return boom }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Call(fail), boom)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Call(fail), boom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	clock.advance(time.Minute)
	require.NoError(t, cb.Call(ok))
	assert.Equal(t, StateClosed, cb.GetState())

	assert.Equal(t, []string{"CLOSED>OPEN", "OPEN>HALF_OPEN", "HALF_OPEN>CLOSED"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("bybit", CircuitBreakerConfig{FailureThreshold: 1, Timeout: time.Second})
	cb.now = clock.now

	boom := errors.New("timeout")
	_ = cb.Call(func() error { return boom })
	clock.advance(2 * time.Second)
	_ = cb.Call(func() error { return boom })

	stats := cb.GetStats()
	assert.Equal(t, StateOpen, stats.State)
	assert.Equal(t, clock.t.Add(time.Second), stats.NextAttempt)

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenAdmitsOneTrial(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("alpaca", CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Second})
	cb.now = clock.now

	_ = cb.Call(func() error { return errors.New("503") })
	require.Equal(t, StateOpen, cb.GetState())
	clock.advance(time.Second)

	entered := make(chan struct{})
	release := make(chan struct{})
	trial := make(chan error, 1)
	go func() {
		trial <- cb.Call(func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen, "a second caller waits for the trial")
	assert.False(t, called)

	close(release)
	require.NoError(t, <-trial)
	assert.Equal(t, StateHalfOpen, cb.GetState())

	require.NoError(t, cb.Call(func() error { return nil }), "the next trial runs once the first one finished")
	assert.Equal(t, StateClosed, cb.GetState())
}

type flakySource struct {
	calls int
	err   error
}

func (f *flakySource) Name() string { return "flaky" }

func (f *flakySource) FetchDaily(context.Context, string, time.Time, time.Time) ([]types.OHLCV, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []types.OHLCV{{Close: 1}}, nil
}

func TestGuardedSource_StopsCallingAFailingSource(t *testing.T) {
	src := &flakySource{err: errors.New("connection refused")}
	g := NewGuardedSource(src, GuardConfig{FailureThreshold: 2, Cooldown: time.Hour}, nil)
	ctx := context.Background()
	start, end := time.Now().AddDate(-1, 0, 0), time.Now()

	for i := 0; i < 2; i++ {
		_, err := g.FetchDaily(ctx, "AAPL", start, end)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := g.FetchDaily(ctx, "AAPL", start, end)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, src.calls)

	var runErr *runerrors.RunError
	require.ErrorAs(t, err, &runErr)
	assert.False(t, runErr.IsRetryable())
	assert.Equal(t, "AAPL", runErr.Context["symbol"])
}

func TestGuardedSource_PassesThrough(t *testing.T) {
	src := &flakySource{}
	g := NewGuardedSource(src, GuardConfig{RequestsPerSecond: 100, FailureThreshold: 3}, nil)

	candles, err := g.FetchDaily(context.Background(), "SPY", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, "flaky", g.Name())
	assert.Equal(t, StateClosed, g.Breaker().GetState())
}
