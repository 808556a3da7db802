package config

import (
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/indicators"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/strategy"
)

// Data source names accepted in DataConfig.Source.
const (
	SourceCSV    = "csv"
	SourceAlpaca = "alpaca"
	SourceBybit  = "bybit"
)

// AppConfig is the full configuration of a backtest process.
type AppConfig struct {
	Tickers  []string `mapstructure:"tickers" yaml:"tickers"`
	Workers  int      `mapstructure:"workers" yaml:"workers"`
	LogDir   string   `mapstructure:"log_dir" yaml:"log_dir"`
	LogLevel string   `mapstructure:"log_level" yaml:"log_level"`

	Data       DataConfig      `mapstructure:"data" yaml:"data"`
	Indicators IndicatorConfig `mapstructure:"indicators" yaml:"indicators"`
	Strategy   StrategyParams  `mapstructure:"strategy" yaml:"strategy"`
	Report     ReportConfig    `mapstructure:"report" yaml:"report"`
	Store      StoreConfig     `mapstructure:"store" yaml:"store"`
	Telegram   TelegramConfig  `mapstructure:"telegram" yaml:"telegram"`
	Metrics    MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Schedule   ScheduleConfig  `mapstructure:"schedule" yaml:"schedule"`
}

// DataConfig selects where daily bars come from and how they are cached.
type DataConfig struct {
	Source       string        `mapstructure:"source" yaml:"source"`
	CSVDir       string        `mapstructure:"csv_dir" yaml:"csv_dir"`
	CacheDir     string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	CacheEnabled bool          `mapstructure:"cache_enabled" yaml:"cache_enabled"`
	StaleAfter   time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
	Period       string        `mapstructure:"period" yaml:"period"`
	Retries      int           `mapstructure:"retries" yaml:"retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`

	// RateLimit caps remote requests per second, 0 disables it.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	// After BreakerThreshold consecutive remote failures no request is sent
	// for BreakerCooldown. 0 disables the breaker.
	BreakerThreshold int           `mapstructure:"breaker_threshold" yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown" yaml:"breaker_cooldown"`

	Alpaca AlpacaConfig `mapstructure:"alpaca" yaml:"alpaca"`
	Bybit  BybitConfig  `mapstructure:"bybit" yaml:"bybit"`
}

type AlpacaConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret,omitempty"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	Feed      string `mapstructure:"feed" yaml:"feed"`
}

type BybitConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret,omitempty"`
	Category  string `mapstructure:"category" yaml:"category"`
	Testnet   bool   `mapstructure:"testnet" yaml:"testnet"`
}

// IndicatorConfig holds the indicator windows.
type IndicatorConfig struct {
	RSIPeriod   int `mapstructure:"rsi_period" yaml:"rsi_period"`
	RSIMAPeriod int `mapstructure:"rsi_ma_period" yaml:"rsi_ma_period"`
	SMAShort    int `mapstructure:"sma_short" yaml:"sma_short"`
	SMAMedium   int `mapstructure:"sma_medium" yaml:"sma_medium"`
	SMALong     int `mapstructure:"sma_long" yaml:"sma_long"`
}

// StrategyParams mirrors strategy.Config in file form.
type StrategyParams struct {
	InitialCapital       float64 `mapstructure:"initial_capital" yaml:"initial_capital"`
	PositionSizePct      float64 `mapstructure:"position_size_pct" yaml:"position_size_pct"`
	BullishSellLevel     float64 `mapstructure:"bullish_sell_level" yaml:"bullish_sell_level"`
	BullishBuyLevel1     float64 `mapstructure:"bullish_buy_level_1" yaml:"bullish_buy_level_1"`
	BullishBuyLevel2     float64 `mapstructure:"bullish_buy_level_2" yaml:"bullish_buy_level_2"`
	BuyStepDelta         float64 `mapstructure:"buy_step_delta" yaml:"buy_step_delta"`
	BullishPullbackLevel float64 `mapstructure:"bullish_pullback_level" yaml:"bullish_pullback_level"`
	BearishSellLevel     float64 `mapstructure:"bearish_sell_level" yaml:"bearish_sell_level"`
	BearishBuyCrossLevel float64 `mapstructure:"bearish_buy_cross_level" yaml:"bearish_buy_cross_level"`
	MinProfitPctToSell   float64 `mapstructure:"min_profit_pct_to_sell" yaml:"min_profit_pct_to_sell"`
}

// ReportConfig controls the files written after a batch. Empty paths are
// skipped.
type ReportConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Console        bool   `mapstructure:"console" yaml:"console"`
	Dated          bool   `mapstructure:"dated" yaml:"dated"`
	Path           string `mapstructure:"path" yaml:"path"`
	SignalPath     string `mapstructure:"signal_path" yaml:"signal_path"`
	SignalsJSONLog string `mapstructure:"signals_json_log" yaml:"signals_json_log"`
	ExcelPath      string `mapstructure:"excel_path" yaml:"excel_path"`
}

// StoreConfig enables the SQLite run history when SQLitePath is set.
type StoreConfig struct {
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Token   string `mapstructure:"token" yaml:"token,omitempty"`
	ChatID  int64  `mapstructure:"chat_id" yaml:"chat_id"`
}

// MetricsConfig serves Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// ScheduleConfig re-runs the batch every Every when positive.
type ScheduleConfig struct {
	Every time.Duration `mapstructure:"every" yaml:"every"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Tickers:  append([]string(nil), DefaultTickers...),
		LogDir:   "logs",
		LogLevel: "info",
		Data: DataConfig{
			Source:           SourceAlpaca,
			CSVDir:           "./data/csv",
			CacheDir:         "./data/cache",
			CacheEnabled:     true,
			StaleAfter:       20 * time.Hour,
			Period:           "3y",
			Retries:          3,
			RetryDelay:       2 * time.Second,
			RateLimit:        3,
			BreakerThreshold: 5,
			BreakerCooldown:  time.Minute,
			Alpaca:           AlpacaConfig{Feed: "iex"},
			Bybit:            BybitConfig{Category: "spot"},
		},
		Indicators: IndicatorConfig{
			RSIPeriod:   14,
			RSIMAPeriod: 14,
			SMAShort:    10,
			SMAMedium:   50,
			SMALong:     200,
		},
		Strategy: StrategyParams{
			InitialCapital:       1000,
			PositionSizePct:      0.5,
			BullishSellLevel:     73,
			BullishBuyLevel1:     35,
			BullishBuyLevel2:     30,
			BuyStepDelta:         3,
			BullishPullbackLevel: 50,
			BearishSellLevel:     70,
			BearishBuyCrossLevel: 35,
			MinProfitPctToSell:   0.30,
		},
		Report: ReportConfig{
			Enabled:        true,
			Console:        true,
			Dated:          true,
			Path:           "./data/backtest_report.md",
			SignalPath:     "./data/signals_today.md",
			SignalsJSONLog: "./data/signals_log.json",
		},
	}
}

// StrategyConfig converts the file form into the engine's config.
func (c *AppConfig) StrategyConfig() strategy.Config {
	s := c.Strategy
	return strategy.Config{
		InitialCapital:       s.InitialCapital,
		PositionSizePct:      s.PositionSizePct,
		BullishSellLevel:     s.BullishSellLevel,
		BullishBuyLevel1:     s.BullishBuyLevel1,
		BullishBuyLevel2:     s.BullishBuyLevel2,
		BuyStepDelta:         s.BuyStepDelta,
		BullishPullbackLevel: s.BullishPullbackLevel,
		BearishSellLevel:     s.BearishSellLevel,
		BearishBuyCrossLevel: s.BearishBuyCrossLevel,
		MinProfitPctToSell:   s.MinProfitPctToSell,
	}
}

// IndicatorConfig converts the file form into the indicator windows.
func (c *AppConfig) IndicatorConfig() indicators.Config {
	i := c.Indicators
	return indicators.Config{
		RSIPeriod:   i.RSIPeriod,
		RSIMAPeriod: i.RSIMAPeriod,
		SMAShort:    i.SMAShort,
		SMAMedium:   i.SMAMedium,
		SMALong:     i.SMALong,
	}
}
