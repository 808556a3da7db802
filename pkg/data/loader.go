package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/indicators"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// Loader turns raw candles from a source into an indicator-enriched series.
type Loader struct {
	source     BarSource
	indicators indicators.Config
	period     Period
	now        func() time.Time
}

// NewLoader creates a loader over source for the trailing period.
func NewLoader(source BarSource, ind indicators.Config, period Period) *Loader {
	return &Loader{source: source, indicators: ind, period: period, now: time.Now}
}

// Source returns the underlying bar source.
func (l *Loader) Source() BarSource { return l.source }

// Window returns the [start, end] range requested for a load at now. The
// indicator warm-up is taken from inside the window, so the first bars of a
// run are skipped until the long SMA is defined.
func (l *Loader) Window(now time.Time) (time.Time, time.Time) {
	end := now.UTC()
	return l.period.Start(end), end
}

// Load fetches and enriches symbol. Problems with the raw data are returned
// as issues; only a failure to obtain any data is an error.
func (l *Loader) Load(ctx context.Context, symbol string) (types.Series, []types.DataQualityIssue, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	start, end := l.Window(l.now())

	var (
		candles []types.OHLCV
		issues  []types.DataQualityIssue
		err     error
	)
	if qs, ok := l.source.(QualitySource); ok {
		candles, issues, err = qs.FetchDailyWithIssues(ctx, symbol, start, end)
	} else {
		candles, err = l.source.FetchDaily(ctx, symbol, start, end)
	}
	if err != nil {
		return types.Series{Symbol: symbol}, issues, err
	}

	candles, cleaned := Clean(symbol, candles)
	issues = append(issues, cleaned...)
	if len(candles) == 0 {
		return types.Series{Symbol: symbol}, issues, fmt.Errorf("no data for %s between %s and %s",
			symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	if warm := l.indicators.WarmupBars(); len(candles) <= warm {
		issues = append(issues, types.DataQualityIssue{
			Symbol: symbol, Field: "SMALong",
			Detail: fmt.Sprintf("only %d bars, need more than %d for the long average", len(candles), warm),
		})
	}

	return indicators.Enrich(symbol, candles, l.indicators), issues, nil
}
