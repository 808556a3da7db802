package orchestrator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/safety"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/config"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/data"
)

// NewSource builds the bar source selected in cfg. Remote sources are rate
// limited behind a circuit breaker, then wrapped in the Parquet cache when it
// is enabled and in a process-local cache otherwise, so scheduled re-runs do
// not refetch fresh data.
func NewSource(cfg *config.AppConfig, zl *zap.Logger) (data.BarSource, error) {
	if zl == nil {
		zl = zap.NewNop()
	}
	var remote data.BarSource
	switch cfg.Data.Source {
	case config.SourceCSV:
		return data.NewCSVSource(cfg.Data.CSVDir), nil
	case config.SourceAlpaca:
		a := cfg.Data.Alpaca
		remote = data.NewAlpacaSource(data.AlpacaConfig{APIKey: a.APIKey, APISecret: a.APISecret, BaseURL: a.BaseURL, Feed: a.Feed})
	case config.SourceBybit:
		b := cfg.Data.Bybit
		remote = data.NewBybitSource(data.BybitConfig{APIKey: b.APIKey, APISecret: b.APISecret, Category: b.Category, Testnet: b.Testnet})
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}

	remote = safety.NewGuardedSource(remote, safety.GuardConfig{
		RequestsPerSecond: cfg.Data.RateLimit,
		FailureThreshold:  cfg.Data.BreakerThreshold,
		Cooldown:          cfg.Data.BreakerCooldown,
	}, zl.Named("guard"))

	var cache data.BarCache = data.NewMemoryCache()
	if cfg.Data.CacheEnabled {
		cache = data.NewParquetCache(cfg.Data.CacheDir)
	}
	return data.NewCachedSource(remote, cache, cfg.Data.StaleAfter, zl.Named("cache")), nil
}

// NewLoader builds the series loader for cfg on top of source.
func NewLoader(cfg *config.AppConfig, source data.BarSource) (*data.Loader, error) {
	period, err := data.ParseTrailingPeriod(cfg.Data.Period)
	if err != nil {
		return nil, err
	}
	return data.NewLoader(source, cfg.IndicatorConfig(), period), nil
}
