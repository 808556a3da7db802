package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g.
// BACKTEST_DATA_SOURCE=csv or BACKTEST_STRATEGY_BUY_STEP_DELTA=2.
const EnvPrefix = "BACKTEST"

// credentialEnv binds keys to the variable names the brokers document.
var credentialEnv = map[string][]string{
	"data.alpaca.api_key":    {"APCA_API_KEY_ID"},
	"data.alpaca.api_secret": {"APCA_API_SECRET_KEY"},
	"data.alpaca.base_url":   {"APCA_API_DATA_URL"},
	"data.bybit.api_key":     {"BYBIT_API_KEY"},
	"data.bybit.api_secret":  {"BYBIT_API_SECRET"},
	"telegram.token":         {"TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN"},
	"telegram.chat_id":       {"TELEGRAM_CHAT_ID"},
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, an optional file (YAML, JSON
// or TOML, by extension) and the environment, then validates it.
func Load(configFile string) (*AppConfig, error) {
	v := newViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Tickers = NormalizeTickers(cfg.Tickers)
	cfg.Data.Source = strings.ToLower(strings.TrimSpace(cfg.Data.Source))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range credentialEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}
	return v
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("tickers", d.Tickers)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("data.source", d.Data.Source)
	v.SetDefault("data.csv_dir", d.Data.CSVDir)
	v.SetDefault("data.cache_dir", d.Data.CacheDir)
	v.SetDefault("data.cache_enabled", d.Data.CacheEnabled)
	v.SetDefault("data.stale_after", d.Data.StaleAfter)
	v.SetDefault("data.period", d.Data.Period)
	v.SetDefault("data.retries", d.Data.Retries)
	v.SetDefault("data.retry_delay", d.Data.RetryDelay)
	v.SetDefault("data.rate_limit", d.Data.RateLimit)
	v.SetDefault("data.breaker_threshold", d.Data.BreakerThreshold)
	v.SetDefault("data.breaker_cooldown", d.Data.BreakerCooldown)
	v.SetDefault("data.alpaca.api_key", d.Data.Alpaca.APIKey)
	v.SetDefault("data.alpaca.api_secret", d.Data.Alpaca.APISecret)
	v.SetDefault("data.alpaca.base_url", d.Data.Alpaca.BaseURL)
	v.SetDefault("data.alpaca.feed", d.Data.Alpaca.Feed)
	v.SetDefault("data.bybit.api_key", d.Data.Bybit.APIKey)
	v.SetDefault("data.bybit.api_secret", d.Data.Bybit.APISecret)
	v.SetDefault("data.bybit.category", d.Data.Bybit.Category)
	v.SetDefault("data.bybit.testnet", d.Data.Bybit.Testnet)

	v.SetDefault("indicators.rsi_period", d.Indicators.RSIPeriod)
	v.SetDefault("indicators.rsi_ma_period", d.Indicators.RSIMAPeriod)
	v.SetDefault("indicators.sma_short", d.Indicators.SMAShort)
	v.SetDefault("indicators.sma_medium", d.Indicators.SMAMedium)
	v.SetDefault("indicators.sma_long", d.Indicators.SMALong)

	v.SetDefault("strategy.initial_capital", d.Strategy.InitialCapital)
	v.SetDefault("strategy.position_size_pct", d.Strategy.PositionSizePct)
	v.SetDefault("strategy.bullish_sell_level", d.Strategy.BullishSellLevel)
	v.SetDefault("strategy.bullish_buy_level_1", d.Strategy.BullishBuyLevel1)
	v.SetDefault("strategy.bullish_buy_level_2", d.Strategy.BullishBuyLevel2)
	v.SetDefault("strategy.buy_step_delta", d.Strategy.BuyStepDelta)
	v.SetDefault("strategy.bullish_pullback_level", d.Strategy.BullishPullbackLevel)
	v.SetDefault("strategy.bearish_sell_level", d.Strategy.BearishSellLevel)
	v.SetDefault("strategy.bearish_buy_cross_level", d.Strategy.BearishBuyCrossLevel)
	v.SetDefault("strategy.min_profit_pct_to_sell", d.Strategy.MinProfitPctToSell)

	v.SetDefault("report.enabled", d.Report.Enabled)
	v.SetDefault("report.console", d.Report.Console)
	v.SetDefault("report.dated", d.Report.Dated)
	v.SetDefault("report.path", d.Report.Path)
	v.SetDefault("report.signal_path", d.Report.SignalPath)
	v.SetDefault("report.signals_json_log", d.Report.SignalsJSONLog)
	v.SetDefault("report.excel_path", d.Report.ExcelPath)

	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("telegram.enabled", d.Telegram.Enabled)
	v.SetDefault("telegram.token", d.Telegram.Token)
	v.SetDefault("telegram.chat_id", d.Telegram.ChatID)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("schedule.every", d.Schedule.Every)
}

func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';' || r == '\n' || r == '\t'
	})
	for i, f := range fields {
		fields[i] = strings.ToUpper(strings.TrimSpace(f))
	}
	return fields
}
