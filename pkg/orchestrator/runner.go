package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/backtest"
	runerrors "github.com/ducminhle1904/trend-rsi-backtest/internal/errors"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/logger"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/monitoring"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/notifications"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/store"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/config"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/reporting"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// SeriesLoader produces an enriched series for one symbol.
type SeriesLoader interface {
	Load(ctx context.Context, symbol string) (types.Series, []types.DataQualityIssue, error)
}

// Store is the persistence a Runner publishes to.
type Store interface {
	store.SignalStore
	store.RunStore
}

// Failure is an instrument that produced no result.
type Failure struct {
	Symbol string
	Err    *runerrors.RunError
}

// BatchResult is the outcome of one pass over the ticker list.
type BatchResult struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []*backtest.Result
	Failures   []Failure
	Warnings   []types.DataQualityIssue
	Portfolio  reporting.Portfolio

	SignalDate time.Time
	Signals    []types.Signal
}

// Runner loads, backtests and publishes batches of instruments.
type Runner struct {
	cfg      *config.AppConfig
	loader   SeriesLoader
	engine   *backtest.Engine
	log      *logger.Logger
	metrics  *monitoring.Metrics
	health   *monitoring.HealthChecker
	store    Store
	notifier notifications.Notifier
	errStats *runerrors.ErrorStats
	console  io.Writer
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

// Option customizes a Runner.
type Option func(*Runner)

func WithMetrics(m *monitoring.Metrics) Option { return func(r *Runner) { r.metrics = m } }
func WithHealth(h *monitoring.HealthChecker) Option { return func(r *Runner) { r.health = h } }
func WithStore(s Store) Option { return func(r *Runner) { r.store = s } }
func WithNotifier(n notifications.Notifier) Option { return func(r *Runner) { r.notifier = n } }
func WithConsole(w io.Writer) Option { return func(r *Runner) { r.console = w } }
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// NewRunner creates a runner. The strategy config is validated here so a bad
// config fails before any data is fetched.
func NewRunner(cfg *config.AppConfig, loader SeriesLoader, log *logger.Logger, opts ...Option) (*Runner, error) {
	engine, err := backtest.NewEngine(cfg.StrategyConfig())
	if err != nil {
		return nil, runerrors.WrapError(err, runerrors.ErrorCategoryConfiguration, "orchestrator", "new runner").WithRetryable(false)
	}
	if log == nil {
		log = logger.Nop()
	}
	r := &Runner{
		cfg:      cfg,
		loader:   loader,
		engine:   engine,
		log:      log.Named("runner"),
		notifier: notifications.NopNotifier{},
		errStats: runerrors.NewErrorStats(50),
		console:  os.Stdout,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ErrorStats exposes the failures recorded across batches.
func (r *Runner) ErrorStats() *runerrors.ErrorStats {
	return r.errStats
}

// RunBatch backtests every ticker. Instrument failures are collected in the
// result; only an empty ticker list or a cancelled context is an error.
func (r *Runner) RunBatch(ctx context.Context, tickers []string) (*BatchResult, error) {
	if len(tickers) == 0 {
		return nil, runerrors.NewValidationError("orchestrator", "run batch", "no tickers to run")
	}

	started := r.now()
	batch := &BatchResult{ID: started.UTC().Format("20060102T150405Z"), StartedAt: started}
	r.log.Status("batch %s started: %d instruments, %d workers", batch.ID, len(tickers), r.cfg.Workers)

	var (
		issuesMu sync.Mutex
		issues   = make(map[string][]types.DataQualityIssue)
	)
	jobs := make([]backtest.Job, len(tickers))
	for i, symbol := range tickers {
		symbol := symbol
		jobs[i] = backtest.Job{
			Symbol: symbol,
			Load: func(ctx context.Context) (types.Series, error) {
				series, found, err := r.loadWithRetry(ctx, symbol)
				issuesMu.Lock()
				issues[symbol] = found
				issuesMu.Unlock()
				return series, err
			},
		}
	}

	pool := backtest.NewWorkerPool(r.engine, r.cfg.Workers, len(jobs))
	outcomes := pool.RunAll(ctx, jobs)

	var healthErrs []string
	for _, out := range outcomes {
		found := issues[out.Symbol]
		for _, issue := range found {
			r.log.Warning("data quality: %s", issue)
		}
		batch.Warnings = append(batch.Warnings, found...)

		if out.Error != nil {
			runErr := classify(out.Symbol, out.Error)
			r.errStats.RecordError(runErr)
			if r.metrics != nil {
				r.metrics.RecordFailure(string(runErr.Category))
			}
			r.log.Error("%s skipped: %v", out.Symbol, runErr)
			batch.Failures = append(batch.Failures, Failure{Symbol: out.Symbol, Err: runErr})
			healthErrs = append(healthErrs, out.Symbol+": "+runErr.Error())
			continue
		}

		res := out.Result
		res.Warnings = found
		batch.Results = append(batch.Results, res)
		r.recordResult(res, out.Duration)
	}

	if err := ctx.Err(); err != nil && len(batch.Results) == 0 {
		return batch, err
	}

	batch.Portfolio = reporting.Aggregate(batch.Results, r.cfg.Strategy.InitialCapital)
	if date, signals, ok := reporting.LatestSignals(batch.Results); ok {
		batch.SignalDate, batch.Signals = date, signals
	}
	batch.FinishedAt = r.now()

	if r.metrics != nil {
		r.metrics.RecordBatch(batch.FinishedAt)
	}
	if r.health != nil {
		r.health.RecordBatch(batch.FinishedAt, len(batch.Results), len(batch.Failures), healthErrs)
	}
	r.log.Status("batch %s finished in %s: %d ok, %d failed, portfolio return %s",
		batch.ID, batch.FinishedAt.Sub(started).Round(time.Millisecond), len(batch.Results), len(batch.Failures),
		reporting.SignedPct(batch.Portfolio.ReturnPct))
	return batch, nil
}

func (r *Runner) recordResult(res *backtest.Result, took time.Duration) {
	for _, ev := range res.History {
		r.log.LogTradeExecution(res.Symbol, ev)
		if r.metrics != nil {
			r.metrics.RecordTrade(string(ev.Action), ev.Amount)
		}
	}
	if r.metrics != nil {
		r.metrics.RecordInstrument(res.Symbol, res.ReturnPct, took)
	}
	r.log.Info("%s: %d trades, final %s (%s), %s",
		res.Symbol, res.TradesExecuted, reporting.Money(res.FinalCapital), reporting.SignedPct(res.ReturnPct), res.Status)
}

// loadWithRetry retries retryable load failures with a linear backoff.
func (r *Runner) loadWithRetry(ctx context.Context, symbol string) (types.Series, []types.DataQualityIssue, error) {
	attempts := r.cfg.Data.Retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		series, issues, err := r.loader.Load(ctx, symbol)
		if err == nil {
			return series, issues, nil
		}
		runErr := runerrors.CategorizeError(err, "loader", "fetch").WithContext("symbol", symbol)
		lastErr = runErr
		if !runErr.IsRetryable() || attempt == attempts {
			break
		}
		delay := r.cfg.Data.RetryDelay * time.Duration(attempt)
		r.log.Warning("%s: load attempt %d/%d failed, retrying in %s: %v", symbol, attempt, attempts, delay, err)
		if err := r.sleep(ctx, delay); err != nil {
			return types.Series{}, nil, err
		}
	}
	return types.Series{}, nil, lastErr
}

// classify maps a job error onto the run error taxonomy.
func classify(symbol string, err error) *runerrors.RunError {
	if errors.Is(err, backtest.ErrMissingIndicatorData) {
		return runerrors.NewIndicatorError("backtest", "run", err).WithContext("symbol", symbol)
	}
	return runerrors.CategorizeError(err, "orchestrator", "run").WithContext("symbol", symbol)
}

// Publish writes every configured output for batch. Each output is
// attempted; the failures are joined.
func (r *Runner) Publish(ctx context.Context, batch *BatchResult) error {
	if batch == nil {
		return nil
	}
	var errs []error
	rep := r.cfg.Report
	today := r.now()

	path := func(p string) string {
		if rep.Dated {
			return reporting.DatedPath(p, today)
		}
		return p
	}
	fail := func(op string, err error) {
		runErr := runerrors.NewReportError("publisher", op, err)
		r.errStats.RecordError(runErr)
		r.log.Error("%v", runErr)
		errs = append(errs, runErr)
	}

	if rep.Console && r.console != nil {
		reporting.PrintConsoleSummary(r.console, batch.Portfolio, batch.Results)
		reporting.PrintSignals(r.console, batch.SignalDate, batch.Signals)
	}

	if rep.Enabled && len(batch.Results) > 0 {
		if rep.Path != "" {
			p := path(rep.Path)
			if err := reporting.WriteMarkdownReport(p, batch.Portfolio, batch.Results, today); err != nil {
				fail("markdown report", err)
			} else {
				r.log.Info("report written to %s", p)
			}
		}
		if rep.SignalPath != "" && !batch.SignalDate.IsZero() {
			p := path(rep.SignalPath)
			if err := reporting.WriteSignalsReport(p, batch.SignalDate, batch.Signals); err != nil {
				fail("signals report", err)
			} else {
				r.log.Info("signals written to %s", p)
			}
		}
		if rep.SignalsJSONLog != "" {
			if added, err := reporting.AppendSignalLog(rep.SignalsJSONLog, batch.Signals); err != nil {
				fail("signal log", err)
			} else {
				r.log.Info("signal log %s: %d new", rep.SignalsJSONLog, added)
			}
		}
		if rep.ExcelPath != "" {
			p := path(rep.ExcelPath)
			if err := reporting.WriteExcel(p, batch.Portfolio, batch.Results); err != nil {
				fail("excel report", err)
			} else {
				r.log.Info("workbook written to %s", p)
			}
		}
	}

	if r.store != nil {
		if err := r.store.SaveSignals(ctx, batch.Signals); err != nil {
			errs = append(errs, r.storageFailure("save signals", err))
		}
		if err := r.store.SaveRuns(ctx, runRecords(batch)); err != nil {
			errs = append(errs, r.storageFailure("save runs", err))
		}
	}

	if len(batch.Signals) > 0 {
		if err := r.notifier.Send(ctx, notificationsDigest(batch)); err != nil {
			runErr := runerrors.CategorizeError(err, "notifier", "send")
			r.errStats.RecordError(runErr)
			r.log.Warning("signal digest not delivered: %v", runErr)
			errs = append(errs, runErr)
		}
	}

	return errors.Join(errs...)
}

func (r *Runner) storageFailure(op string, err error) error {
	runErr := runerrors.NewStorageError("store", op, err)
	r.errStats.RecordError(runErr)
	r.log.Error("%v", runErr)
	return runErr
}

func notificationsDigest(batch *BatchResult) string {
	return notifications.FormatSignalDigest(batch.SignalDate, batch.Signals)
}

func runRecords(batch *BatchResult) []store.RunRecord {
	out := make([]store.RunRecord, 0, len(batch.Results))
	for _, res := range batch.Results {
		out = append(out, store.RunRecord{
			BatchID:       batch.ID,
			Symbol:        res.Symbol,
			RanAt:         batch.FinishedAt,
			Trades:        res.TradesExecuted,
			FinalCapital:  res.FinalCapital,
			PositionValue: res.PositionValue,
			ReturnPct:     res.ReturnPct,
			Status:        string(res.Status),
			MaxDrawdown:   res.Stats.MaxDrawdown,
		})
	}
	return out
}

// RunOnce runs and publishes a single batch.
func (r *Runner) RunOnce(ctx context.Context, tickers []string) (*BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch, err := r.RunBatch(ctx, tickers)
	if err != nil {
		return batch, err
	}
	if err := r.Publish(ctx, batch); err != nil {
		r.log.Warning("batch %s published with errors", batch.ID)
	}
	return batch, nil
}

// Schedule runs a batch immediately and then every interval until ctx ends.
// A failed batch is logged and the schedule continues.
func (r *Runner) Schedule(ctx context.Context, tickers []string, every time.Duration) error {
	if every <= 0 {
		return fmt.Errorf("schedule interval must be positive, got %s", every)
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx, tickers); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Error("scheduled batch failed: %v", err)
		}
		r.log.Status("next batch at %s", r.now().Add(every).Format(time.DateTime))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
