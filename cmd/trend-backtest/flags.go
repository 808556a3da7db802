package main

import (
	"flag"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/cmd/common"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/config"
)

// BacktestFlags holds the command line overrides of the batch command.
type BacktestFlags struct {
	*common.CommonFlags

	Tickers     *string
	Source      *string
	Period      *string
	Workers     *int
	ExcelPath   *string
	NoFiles     *bool
	Every       *time.Duration
	MetricsAddr *string
	SQLitePath  *string
	PrintConfig *bool
}

func NewBacktestFlags(fs *flag.FlagSet) *BacktestFlags {
	return &BacktestFlags{
		CommonFlags: common.RegisterCommonFlags(fs),

		Tickers:     fs.String("tickers", "", "Comma separated tickers, overrides the configured list"),
		Source:      fs.String("source", "", "Bar source: csv, alpaca or bybit"),
		Period:      fs.String("period", "", "Trailing window, e.g. 3y, 18mo, 250d"),
		Workers:     fs.Int("workers", 0, "Parallel instruments (0 = configured value or one per CPU)"),
		ExcelPath:   fs.String("xlsx", "", "Also write an Excel workbook to this path"),
		NoFiles:     fs.Bool("no-files", false, "Console output only"),
		Every:       fs.Duration("every", 0, "Re-run the batch on this interval until interrupted"),
		MetricsAddr: fs.String("metrics-addr", "", "Serve /metrics and /health on this address"),
		SQLitePath:  fs.String("db", "", "Record signals and runs in this SQLite database"),
		PrintConfig: fs.Bool("print-config", false, "Print the effective config as YAML and exit"),
	}
}

// Validate checks the flag values that do not depend on the config.
func (f *BacktestFlags) Validate() error {
	return common.NewFlagValidator().
		ValidateInt("workers", *f.Workers, 0, 256).
		ValidateChoice("source", *f.Source, []string{config.SourceCSV, config.SourceAlpaca, config.SourceBybit}).
		ValidateNonNegativeDuration("every", *f.Every).
		GetError()
}

// Apply copies the set flags onto cfg and re-validates it.
func (f *BacktestFlags) Apply(cfg *config.AppConfig) error {
	if *f.Tickers != "" {
		cfg.Tickers = config.NormalizeTickers([]string{*f.Tickers})
	}
	if *f.Source != "" {
		cfg.Data.Source = *f.Source
	}
	if *f.Period != "" {
		cfg.Data.Period = *f.Period
	}
	if *f.Workers > 0 {
		cfg.Workers = *f.Workers
	}
	if *f.ExcelPath != "" {
		cfg.Report.ExcelPath = *f.ExcelPath
	}
	if *f.NoFiles {
		cfg.Report.Enabled = false
		cfg.Report.Console = true
	}
	if *f.Every > 0 {
		cfg.Schedule.Every = *f.Every
	}
	if *f.MetricsAddr != "" {
		cfg.Metrics.Addr = *f.MetricsAddr
	}
	if *f.SQLitePath != "" {
		cfg.Store.SQLitePath = *f.SQLitePath
	}
	return cfg.Validate()
}
