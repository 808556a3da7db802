// Command fetch-bars downloads daily bars for the configured tickers into the
// Parquet cache so later backtests can run offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/cmd/common"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/config"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/data"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

const AppName = "fetch-bars"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet(AppName, flag.ExitOnError)
	flags := common.RegisterCommonFlags(fs)
	tickers := fs.String("tickers", "", "Comma separated tickers, overrides the configured list")
	period := fs.String("period", "", "Trailing window to fetch, e.g. 3y")
	_ = fs.Parse(os.Args[1:])

	if *flags.Version {
		common.PrintVersion(os.Stdout, AppName)
		return nil
	}

	cfg, err := common.LoadConfig(flags)
	if err != nil {
		return err
	}
	if *tickers != "" {
		cfg.Tickers = config.NormalizeTickers([]string{*tickers})
	}
	if *period != "" {
		cfg.Data.Period = *period
	}
	p, err := data.ParseTrailingPeriod(cfg.Data.Period)
	if err != nil {
		return err
	}

	log, err := common.NewLogger(cfg, AppName)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := data.NewParquetCache(cfg.Data.CacheDir)
	end := data.TruncateDay(time.Now())
	start := p.Start(end)

	fetched, err := fetchAll(ctx, cfg, start, end)
	if err != nil {
		return err
	}

	stored := 0
	for _, symbol := range cfg.Tickers {
		candles, issues := data.Clean(symbol, fetched[symbol])
		for _, issue := range issues {
			log.Warning("data quality: %s", issue)
		}
		if len(candles) == 0 {
			log.Warning("%s: no bars between %s and %s", symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))
			continue
		}
		if err := cache.Store(symbol, candles); err != nil {
			log.Error("%s: %v", symbol, err)
			continue
		}
		stored++
		log.Info("%s: cached %d bars", symbol, len(candles))
	}
	log.Status("cached %d of %d tickers in %s", stored, len(cfg.Tickers), cfg.Data.CacheDir)
	return nil
}

// fetchAll uses the multi-symbol endpoint when the source has one.
func fetchAll(ctx context.Context, cfg *config.AppConfig, start, end time.Time) (map[string][]types.OHLCV, error) {
	switch cfg.Data.Source {
	case config.SourceAlpaca:
		a := cfg.Data.Alpaca
		src := data.NewAlpacaSource(data.AlpacaConfig{APIKey: a.APIKey, APISecret: a.APISecret, BaseURL: a.BaseURL, Feed: a.Feed})
		return src.FetchMany(ctx, cfg.Tickers, start, end)
	case config.SourceBybit:
		b := cfg.Data.Bybit
		src := data.NewBybitSource(data.BybitConfig{APIKey: b.APIKey, APISecret: b.APISecret, Category: b.Category, Testnet: b.Testnet})
		out := make(map[string][]types.OHLCV, len(cfg.Tickers))
		for _, symbol := range cfg.Tickers {
			candles, err := src.FetchDaily(ctx, symbol, start, end)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", symbol, err)
			}
			out[symbol] = candles
		}
		return out, nil
	}
	return nil, fmt.Errorf("source %q has nothing to cache", cfg.Data.Source)
}
