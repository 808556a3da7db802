package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		retryable bool
		action    RecoveryAction
	}{
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), ErrorCategoryTimeout, true, RecoveryActionRetry},
		{"cancelled", context.Canceled, ErrorCategoryTemporary, false, RecoveryActionSkip},
		{"net op error", &net.OpError{Op: "dial", Err: stderrors.New("refused")}, ErrorCategoryNetwork, true, RecoveryActionRetry},
		{"rate limit text", stderrors.New("429 Too Many Requests"), ErrorCategoryRateLimit, true, RecoveryActionRetry},
		{"credentials", stderrors.New("request unauthorized"), ErrorCategoryCredentials, false, RecoveryActionStop},
		{"missing file", stderrors.New("open data/X.csv: no such file or directory"), ErrorCategoryData, false, RecoveryActionSkip},
		{"malformed", stderrors.New("malformed header"), ErrorCategoryValidation, false, RecoveryActionSkip},
		{"unknown", stderrors.New("something odd"), ErrorCategoryTemporary, true, RecoveryActionRetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runErr := CategorizeError(tt.err, "loader", "fetch")
			require.NotNil(t, runErr)
			assert.Equal(t, tt.category, runErr.Category)
			assert.Equal(t, tt.retryable, runErr.IsRetryable())
			assert.Equal(t, tt.action, runErr.GetRecoveryAction())
			assert.ErrorIs(t, runErr, tt.err)
		})
	}
}

func TestCategorizeError_KeepsExistingRunError(t *testing.T) {
	original := NewIndicatorError("backtest", "run", stderrors.New("no rsi"))
	wrapped := fmt.Errorf("AAPL: %w", original)

	got := CategorizeError(wrapped, "orchestrator", "batch")
	assert.Same(t, original, got)
	assert.Nil(t, CategorizeError(nil, "x", "y"))
	assert.Nil(t, WrapError(nil, ErrorCategoryData, "x", "y"))
}

func TestRunError_Formatting(t *testing.T) {
	err := NewConfigurationError("config", "validate", "tickers list is empty").WithContext("path", "config.yaml")
	assert.Equal(t, "[CONFIG:config] validate: tickers list is empty", err.Error())
	assert.True(t, err.IsFatal())
	assert.Equal(t, "config.yaml", err.Context["path"])

	wrapped := NewStorageError("sqlite", "save", stderrors.New("disk full"))
	assert.Equal(t, "[STORAGE:sqlite] save: operation failed: disk full", wrapped.Error())
}

func TestErrorStats(t *testing.T) {
	stats := NewErrorStats(2)
	stats.RecordError(NewDataError("loader", "fetch", stderrors.New("a")))
	stats.RecordError(NewDataError("loader", "fetch", stderrors.New("b")))
	stats.RecordError(NewIndicatorError("backtest", "run", stderrors.New("c")))
	stats.RecordError(nil)

	assert.Equal(t, 3, stats.TotalErrors)
	assert.Equal(t, 2, stats.ErrorsByCategory[ErrorCategoryData])
	assert.Len(t, stats.RecentErrors, 2)
	assert.InDelta(t, 2.0/3.0, stats.GetErrorRate(ErrorCategoryData), 1e-9)
	assert.Equal(t, 0.0, NewErrorStats(1).GetErrorRate(ErrorCategoryData))
}
