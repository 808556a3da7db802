package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus collectors of a backtest process.
type Metrics struct {
	registry *prometheus.Registry

	batchesTotal     prometheus.Counter
	instrumentsTotal *prometheus.CounterVec
	tradeEvents      *prometheus.CounterVec
	tradeAmount      *prometheus.HistogramVec
	failuresTotal    *prometheus.CounterVec
	returnPct        *prometheus.GaugeVec
	runDuration      prometheus.Histogram
	lastBatch        prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trend_backtest_batches_total",
			Help: "Total number of batch runs",
		}),
		instrumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trend_backtest_instruments_total",
			Help: "Instruments processed, by outcome",
		}, []string{"outcome"}),
		tradeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trend_backtest_trade_events_total",
			Help: "Simulated trade events, by action",
		}, []string{"action"}),
		tradeAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trend_backtest_trade_amount",
			Help:    "Distribution of simulated trade amounts",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}, []string{"action"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trend_backtest_failures_total",
			Help: "Instrument failures, by error category",
		}, []string{"category"}),
		returnPct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trend_backtest_return_pct",
			Help: "Return of the latest run per instrument",
		}, []string{"symbol"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trend_backtest_instrument_duration_seconds",
			Help:    "Time to load and backtest one instrument",
			Buckets: prometheus.DefBuckets,
		}),
		lastBatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trend_backtest_last_batch_timestamp_seconds",
			Help: "Unix time of the last completed batch",
		}),
	}

	m.registry.MustRegister(
		m.batchesTotal,
		m.instrumentsTotal,
		m.tradeEvents,
		m.tradeAmount,
		m.failuresTotal,
		m.returnPct,
		m.runDuration,
		m.lastBatch,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordInstrument records a successful instrument run.
func (m *Metrics) RecordInstrument(symbol string, returnPct float64, took time.Duration) {
	m.instrumentsTotal.WithLabelValues("ok").Inc()
	m.returnPct.WithLabelValues(symbol).Set(returnPct)
	m.runDuration.Observe(took.Seconds())
}

// RecordTrade records a simulated trade event.
func (m *Metrics) RecordTrade(action string, amount float64) {
	m.tradeEvents.WithLabelValues(action).Inc()
	m.tradeAmount.WithLabelValues(action).Observe(amount)
}

// RecordFailure records an instrument that could not be backtested.
func (m *Metrics) RecordFailure(category string) {
	m.instrumentsTotal.WithLabelValues("failed").Inc()
	m.failuresTotal.WithLabelValues(category).Inc()
}

// RecordBatch marks the end of a batch.
func (m *Metrics) RecordBatch(at time.Time) {
	m.batchesTotal.Inc()
	m.lastBatch.Set(float64(at.Unix()))
}
