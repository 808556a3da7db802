package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/data"
)

// Validate checks the whole configuration and reports every problem found.
func (c *AppConfig) Validate() error {
	var errs []error

	if len(c.Tickers) == 0 {
		errs = append(errs, errors.New("tickers list is empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}

	switch c.Data.Source {
	case SourceCSV:
		if strings.TrimSpace(c.Data.CSVDir) == "" {
			errs = append(errs, errors.New("data.csv_dir is required for the csv source"))
		}
	case SourceAlpaca:
		if c.Data.Alpaca.APIKey == "" || c.Data.Alpaca.APISecret == "" {
			errs = append(errs, errors.New("alpaca source requires APCA_API_KEY_ID and APCA_API_SECRET_KEY"))
		}
	case SourceBybit:
		switch c.Data.Bybit.Category {
		case "spot", "linear", "inverse":
		default:
			errs = append(errs, fmt.Errorf("data.bybit.category %q must be spot, linear or inverse", c.Data.Bybit.Category))
		}
	default:
		errs = append(errs, fmt.Errorf("data.source %q must be one of csv, alpaca, bybit", c.Data.Source))
	}

	if c.Data.CacheEnabled && strings.TrimSpace(c.Data.CacheDir) == "" {
		errs = append(errs, errors.New("data.cache_dir is required when the cache is enabled"))
	}
	if _, err := data.ParseTrailingPeriod(c.Data.Period); err != nil {
		errs = append(errs, fmt.Errorf("data.period: %w", err))
	}
	if c.Data.Retries < 0 {
		errs = append(errs, fmt.Errorf("data.retries must be >= 0, got %d", c.Data.Retries))
	}

	if c.Data.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("data.rate_limit must be >= 0, got %g", c.Data.RateLimit))
	}
	if c.Data.BreakerThreshold < 0 {
		errs = append(errs, fmt.Errorf("data.breaker_threshold must be >= 0, got %d", c.Data.BreakerThreshold))
	}

	if err := c.IndicatorConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("indicators: %w", err))
	}
	if err := c.StrategyConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("strategy: %w", err))
	}

	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		errs = append(errs, errors.New("telegram is enabled but token or chat id is missing"))
	}
	if c.Schedule.Every < 0 {
		errs = append(errs, fmt.Errorf("schedule.every must not be negative, got %s", c.Schedule.Every))
	}

	return errors.Join(errs...)
}
