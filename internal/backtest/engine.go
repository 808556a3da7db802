package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/strategy"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// ErrMissingIndicatorData is returned when a series does not carry the
// columns a run needs. It is distinct from a run that simply made no trades.
var ErrMissingIndicatorData = errors.New("series is missing required indicator data")

// RequiredFields are the columns a run cannot do without.
const RequiredFields = types.FieldClose | types.FieldRSI | types.FieldSMAMedium | types.FieldSMALong

// Result is the outcome of one instrument's run.
type Result struct {
	Symbol         string
	TradesExecuted int
	FinalCapital   float64
	PositionValue  float64
	ReturnPct      float64
	Status         Status
	History        []types.TradeEvent
	Stats          Stats
	Warnings       []types.DataQualityIssue

	InitialCapital float64
	BarsProcessed  int
	BarsSkipped    int
	StartDate      time.Time
	EndDate        time.Time
}

// LastEvent returns the most recent trade event, if any.
func (r *Result) LastEvent() (types.TradeEvent, bool) {
	if r == nil || len(r.History) == 0 {
		return types.TradeEvent{}, false
	}
	return r.History[len(r.History)-1], true
}

// Step describes one evaluated bar. It is handed to an Observer after the
// bar's decision has been applied.
type Step struct {
	Index        int
	Bar          types.Bar
	Decision     strategy.TradeDecision
	Executed     bool
	EquityBefore float64
	EquityAfter  float64
	Cash         float64
	Shares       float64
	CostBasis    float64
	LastBuyRSI   *float64
	Trades       int
}

// Observer receives every evaluated bar of a run.
type Observer func(Step)

// Engine runs the trend RSI strategy over a bar series.
type Engine struct {
	cfg      strategy.Config
	strategy strategy.Strategy
	observer Observer
}

// Option customizes an Engine.
type Option func(*Engine)

// WithStrategy replaces the default trend RSI decision logic.
func WithStrategy(s strategy.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithObserver registers a per-bar callback.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine validates cfg and builds an engine.
func NewEngine(cfg strategy.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}
	e := &Engine{
		cfg:      cfg,
		strategy: strategy.NewTrendRSI(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run is shorthand for building an engine and running it once.
func Run(series types.Series, cfg strategy.Config) (*Result, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return e.Run(series)
}

// Run walks the series in date order starting at the second bar, since the
// bearish entry looks at the previous bar's RSI.
func (e *Engine) Run(series types.Series) (*Result, error) {
	if len(series.Bars) == 0 || !series.Fields.Has(RequiredFields) {
		return nil, fmt.Errorf("%s: %w (have %s)", series.Symbol, ErrMissingIndicatorData, series.Fields)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("invalid series: %w", err)
	}

	bars := series.Bars
	state := NewRunState(e.cfg)
	curve := make([]EquityPoint, 0, len(bars))
	processed, skipped, exposed := 0, 0, 0

	for i := 1; i < len(bars); i++ {
		bar, prev := bars[i], bars[i-1]

		decision := e.strategy.Decide(bar, prev, state.Position())
		if decision.Skipped {
			skipped++
			curve = append(curve, EquityPoint{Date: bar.Date, Equity: state.Equity(bar.Close)})
			continue
		}
		processed++

		before := state.Equity(bar.Close)
		executed := false
		switch decision.Action {
		case strategy.ActionBuy:
			executed = state.Buy(bar, decision.Reason)
			// The ladder anchor also moves when the buy found no cash left.
			if decision.SeedsLadder && (executed || state.Cash <= 0) {
				state.SetLastBuyRSI(bar.RSI.Value)
			}
		case strategy.ActionSell:
			executed = state.Sell(bar, decision.Reason)
		}

		if state.Shares > 0 {
			exposed++
		}
		after := state.Equity(bar.Close)
		curve = append(curve, EquityPoint{Date: bar.Date, Equity: after})

		if e.observer != nil {
			e.observer(Step{
				Index:        i,
				Bar:          bar,
				Decision:     decision,
				Executed:     executed,
				EquityBefore: before,
				EquityAfter:  after,
				Cash:         state.Cash,
				Shares:       state.Shares,
				CostBasis:    state.CostBasis,
				LastBuyRSI:   state.LastBuyRSI,
				Trades:       state.Trades,
			})
		}
	}

	summary := Summarize(state, series.LastClose(), e.cfg.InitialCapital)
	result := &Result{
		Symbol:         series.Symbol,
		TradesExecuted: state.Trades,
		FinalCapital:   summary.FinalCapital,
		PositionValue:  summary.PositionValue,
		ReturnPct:      summary.ReturnPct,
		Status:         summary.Status,
		History:        state.History,
		InitialCapital: e.cfg.InitialCapital,
		BarsProcessed:  processed,
		BarsSkipped:    skipped,
		StartDate:      bars[0].Date,
		EndDate:        bars[len(bars)-1].Date,
	}
	result.Stats = computeStats(state.History, curve, exposed, processed)

	return result, nil
}
