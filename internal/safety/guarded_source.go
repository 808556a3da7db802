package safety

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	runerrors "github.com/ducminhle1904/trend-rsi-backtest/internal/errors"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/data"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

var _ data.BarSource = (*GuardedSource)(nil)

// GuardedSource throttles a remote bar source and stops calling it while it
// keeps failing.
type GuardedSource struct {
	source  data.BarSource
	limiter *RateLimiter
	breaker *CircuitBreaker
}

// GuardConfig configures NewGuardedSource. Zero values disable the matching
// protection.
type GuardConfig struct {
	RequestsPerSecond float64
	FailureThreshold  int
	Cooldown          time.Duration
}

// NewGuardedSource wraps source. Breaker state changes are logged to logger.
func NewGuardedSource(source data.BarSource, cfg GuardConfig, logger *zap.Logger) *GuardedSource {
	g := &GuardedSource{source: source}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		g.limiter = NewRateLimiter(source.Name(), cfg.RequestsPerSecond, burst)
	}
	if cfg.FailureThreshold > 0 {
		g.breaker = NewCircuitBreaker(source.Name(), CircuitBreakerConfig{
			FailureThreshold: uint32(cfg.FailureThreshold),
			Timeout:          cfg.Cooldown,
		})
		if logger != nil {
			name := source.Name()
			g.breaker.SetStateChangeCallback(func(from, to CircuitBreakerState) {
				logger.Warn("source circuit breaker changed state",
					zap.String("source", name), zap.Stringer("from", from), zap.Stringer("to", to))
			})
		}
	}
	return g
}

func (g *GuardedSource) Name() string { return g.source.Name() }

// Breaker exposes the circuit breaker, nil when disabled.
func (g *GuardedSource) Breaker() *CircuitBreaker { return g.breaker }

func (g *GuardedSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]types.OHLCV, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if g.breaker == nil {
		return g.source.FetchDaily(ctx, symbol, start, end)
	}

	var candles []types.OHLCV
	err := g.breaker.Call(func() error {
		var err error
		candles, err = g.source.FetchDaily(ctx, symbol, start, end)
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil, runerrors.WrapError(err, runerrors.ErrorCategoryNetwork, g.source.Name(), "fetch daily").
			WithRetryable(false).
			WithContext("symbol", symbol)
	}
	return candles, err
}
