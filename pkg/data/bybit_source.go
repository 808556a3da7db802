package data

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/bytedance/sonic"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

const bybitKlineLimit = 1000

// BybitConfig configures the Bybit kline client. Public market data needs no
// credentials.
type BybitConfig struct {
	APIKey    string
	APISecret string
	Category  string
	Testnet   bool
}

// BybitSource loads daily klines for crypto pairs such as BTCUSDT.
type BybitSource struct {
	client   *bybit_api.Client
	category string
}

// NewBybitSource creates a source backed by the Bybit v5 market API.
func NewBybitSource(cfg BybitConfig) *BybitSource {
	baseURL := bybit_api.MAINNET
	if cfg.Testnet {
		baseURL = bybit_api.TESTNET
	}
	category := cfg.Category
	if category == "" {
		category = "spot"
	}
	return &BybitSource{
		client:   bybit_api.NewBybitHttpClient(cfg.APIKey, cfg.APISecret, bybit_api.WithBaseURL(baseURL)),
		category: category,
	}
}

func (s *BybitSource) Name() string { return "bybit" }

// FetchDaily pages backwards from end until start is covered.
func (s *BybitSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]types.OHLCV, error) {
	var all []types.OHLCV
	cursor := end
	for cursor.After(start) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		params := map[string]interface{}{
			"category": s.category,
			"symbol":   strings.ToUpper(symbol),
			"interval": "D",
			"start":    start.UnixMilli(),
			"end":      cursor.UnixMilli(),
			"limit":    bybitKlineLimit,
		}
		resp, err := s.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
		if err != nil {
			return nil, fmt.Errorf("bybit klines %s: %w", symbol, err)
		}
		page, err := parseBybitKlines(resp)
		if err != nil {
			return nil, fmt.Errorf("bybit klines %s: %w", symbol, err)
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)

		oldest := page[0].Timestamp
		if len(page) < bybitKlineLimit || !oldest.Before(cursor) {
			break
		}
		cursor = oldest.Add(-time.Millisecond)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
	return all, nil
}

// parseBybitKlines decodes a kline response. Bybit returns the list newest
// first as [startMs, open, high, low, close, volume, turnover]; the result is
// oldest first.
func parseBybitKlines(resp *bybit_api.ServerResponse) ([]types.OHLCV, error) {
	if resp == nil {
		return nil, fmt.Errorf("empty response")
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", resp.RetMsg, resp.RetCode)
	}

	raw, err := sonic.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	var result struct {
		List [][]string `json:"list"`
	}
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	out := make([]types.OHLCV, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		item := result.List[i]
		if len(item) < 6 {
			continue
		}
		ms, err := strconv.ParseInt(item[0], 10, 64)
		if err != nil {
			continue
		}
		vals := make([]float64, 5)
		ok := true
		for j := range vals {
			if vals[j], err = strconv.ParseFloat(item[j+1], 64); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		out = append(out, types.OHLCV{
			Timestamp: time.UnixMilli(ms).UTC(),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return out, nil
}
