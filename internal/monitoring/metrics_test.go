package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordInstrument("AAPL", 12.5, 30*time.Millisecond)
	m.RecordInstrument("MSFT", -3, 20*time.Millisecond)
	m.RecordTrade("Buy", 500)
	m.RecordTrade("Buy", 250)
	m.RecordTrade("Sell", 900)
	m.RecordFailure("DATA")
	m.RecordBatch(time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.instrumentsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.instrumentsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tradeEvents.WithLabelValues("Buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failuresTotal.WithLabelValues("DATA")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.returnPct.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchesTotal))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastBatch))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordTrade("Sell", 100)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `trend_backtest_trade_events_total{action="Sell"} 1`))
}

func TestHealthChecker(t *testing.T) {
	h := NewHealthChecker(time.Hour)
	now := time.Now()

	assert.Equal(t, "starting", h.Status(now).Status)

	h.RecordBatch(now, 10, 1, []string{"XYZ: no data"})
	st := h.Status(now.Add(time.Minute))
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, 10, st.Succeeded)
	assert.Equal(t, []string{"XYZ: no data"}, st.Errors)

	assert.Equal(t, "degraded", h.Status(now.Add(2*time.Hour)).Status)

	h.RecordBatch(now, 0, 3, nil)
	assert.Equal(t, "unhealthy", h.Status(now).Status)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
}
