package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// AlpacaConfig configures the Alpaca market-data client.
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Feed      string
}

// AlpacaSource loads split and dividend adjusted daily bars for US equities.
type AlpacaSource struct {
	client *marketdata.Client
	feed   string
}

// NewAlpacaSource creates a source backed by the Alpaca market-data API.
func NewAlpacaSource(cfg AlpacaConfig) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.BaseURL != "" {
		opts.BaseURL = cfg.BaseURL
	}
	feed := cfg.Feed
	if feed == "" {
		feed = "iex"
	}
	return &AlpacaSource{client: marketdata.NewClient(opts), feed: feed}
}

func (s *AlpacaSource) Name() string { return "alpaca" }

// FetchDaily implements BarSource.
func (s *AlpacaSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]types.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := s.client.GetBars(alpacaSymbol(symbol), s.request(start, end))
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}
	return fromAlpacaBars(bars), nil
}

// FetchMany loads several symbols in one call. Symbols without data are
// absent from the result.
func (s *AlpacaSource) FetchMany(ctx context.Context, symbols []string, start, end time.Time) (map[string][]types.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := make([]string, len(symbols))
	back := make(map[string]string, len(symbols))
	for i, sym := range symbols {
		query[i] = alpacaSymbol(sym)
		back[query[i]] = sym
	}

	multi, err := s.client.GetMultiBars(query, s.request(start, end))
	if err != nil {
		return nil, fmt.Errorf("alpaca multi bars: %w", err)
	}
	out := make(map[string][]types.OHLCV, len(multi))
	for sym, bars := range multi {
		name, ok := back[strings.ToUpper(sym)]
		if !ok {
			name = sym
		}
		out[name] = fromAlpacaBars(bars)
	}
	return out, nil
}

func (s *AlpacaSource) request(start, end time.Time) marketdata.GetBarsRequest {
	return marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end,
		Feed:       marketdata.Feed(s.feed),
	}
}

func fromAlpacaBars(bars []marketdata.Bar) []types.OHLCV {
	out := make([]types.OHLCV, 0, len(bars))
	for _, b := range bars {
		out = append(out, types.OHLCV{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
		})
	}
	return out
}

// alpacaSymbol converts class-share tickers such as BRK-B to Alpaca's BRK.B.
func alpacaSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), "-", ".")
}
