package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker reports whether scheduled batches are completing.
type HealthChecker struct {
	mu        sync.RWMutex
	started   time.Time
	lastBatch time.Time
	lastOK    int
	lastFail  int
	maxAge    time.Duration
	errors    []string
}

// HealthStatus is the JSON body served by HealthChecker.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LastBatch time.Time `json:"last_batch"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Uptime    string    `json:"uptime"`
	Errors    []string  `json:"errors,omitempty"`
}

// NewHealthChecker reports degraded once no batch finished within maxAge.
func NewHealthChecker(maxAge time.Duration) *HealthChecker {
	return &HealthChecker{
		started: time.Now(),
		maxAge:  maxAge,
		errors:  make([]string, 0),
	}
}

// RecordBatch stores the outcome of a finished batch.
func (h *HealthChecker) RecordBatch(at time.Time, succeeded, failed int, errs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastBatch = at
	h.lastOK = succeeded
	h.lastFail = failed
	h.errors = append(h.errors[:0], errs...)
}

// Status computes the current health.
func (h *HealthChecker) Status(now time.Time) HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	switch {
	case h.lastBatch.IsZero():
		status = "starting"
	case h.maxAge > 0 && now.Sub(h.lastBatch) > h.maxAge:
		status = "degraded"
	case h.lastOK == 0 && h.lastFail > 0:
		status = "unhealthy"
	}

	return HealthStatus{
		Status:    status,
		Timestamp: now,
		LastBatch: h.lastBatch,
		Succeeded: h.lastOK,
		Failed:    h.lastFail,
		Uptime:    now.Sub(h.started).Round(time.Second).String(),
		Errors:    append([]string(nil), h.errors...),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	health := h.Status(time.Now())

	w.Header().Set("Content-Type", "application/json")
	switch health.Status {
	case "degraded":
		w.WriteHeader(http.StatusServiceUnavailable)
	case "unhealthy":
		w.WriteHeader(http.StatusInternalServerError)
	}
	_ = json.NewEncoder(w).Encode(health)
}
