package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Errors that should stop the whole batch
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryCredentials   ErrorCategory = "CREDENTIALS"

	// Errors confined to one instrument
	ErrorCategoryData        ErrorCategory = "DATA"
	ErrorCategoryDataQuality ErrorCategory = "DATA_QUALITY"
	ErrorCategoryIndicator   ErrorCategory = "INDICATOR"
	ErrorCategoryValidation  ErrorCategory = "VALIDATION"
	ErrorCategoryStorage     ErrorCategory = "STORAGE"
	ErrorCategoryReport      ErrorCategory = "REPORT"

	// Temporary errors
	ErrorCategoryNetwork   ErrorCategory = "NETWORK"
	ErrorCategoryTimeout   ErrorCategory = "TIMEOUT"
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
	ErrorCategoryTemporary ErrorCategory = "TEMPORARY"
)

// RunError is a categorized error with the component and operation it came from.
type RunError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

func (e *RunError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *RunError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether this error can be retried
func (e *RunError) IsRetryable() bool {
	return e.Retryable
}

// IsFatal returns whether this error should stop the batch.
func (e *RunError) IsFatal() bool {
	return e.Category == ErrorCategoryConfiguration || e.Category == ErrorCategoryCredentials
}

// NewRunError creates a new categorized error
func NewRunError(category ErrorCategory, component, operation, message string) *RunError {
	return &RunError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Retryable: isRetryableCategory(category),
	}
}

// WrapError wraps err with category and origin. It returns nil for a nil err.
func WrapError(err error, category ErrorCategory, component, operation string) *RunError {
	if err == nil {
		return nil
	}
	return &RunError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
		Retryable:  isRetryableCategory(category),
	}
}

// WithContext adds context information to the error
func (e *RunError) WithContext(key string, value interface{}) *RunError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRetryable sets the retryable flag
func (e *RunError) WithRetryable(retryable bool) *RunError {
	e.Retryable = retryable
	return e
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryTemporary, ErrorCategoryRateLimit:
		return true
	default:
		return false
	}
}

// CategorizeError attempts to categorize a generic error
func CategorizeError(err error, component, operation string) *RunError {
	if err == nil {
		return nil
	}

	var runErr *RunError
	if stderrors.As(err, &runErr) {
		return runErr
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, ErrorCategoryTimeout, component, operation)
	}
	if stderrors.Is(err, context.Canceled) {
		return WrapError(err, ErrorCategoryTemporary, component, operation).WithRetryable(false)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		if netErr.Timeout() {
			return WrapError(err, ErrorCategoryTimeout, component, operation)
		}
		return WrapError(err, ErrorCategoryNetwork, component, operation)
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "timeout"):
		return WrapError(err, ErrorCategoryTimeout, component, operation)
	case strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "dns") || strings.Contains(errMsg, "dial"):
		return WrapError(err, ErrorCategoryNetwork, component, operation)
	case strings.Contains(errMsg, "api key") || strings.Contains(errMsg, "forbidden") ||
		strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "authentication"):
		return WrapError(err, ErrorCategoryCredentials, component, operation)
	case strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests"):
		return WrapError(err, ErrorCategoryRateLimit, component, operation)
	case strings.Contains(errMsg, "no data") || strings.Contains(errMsg, "no such file") ||
		strings.Contains(errMsg, "not found"):
		return WrapError(err, ErrorCategoryData, component, operation)
	case strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "malformed"):
		return WrapError(err, ErrorCategoryValidation, component, operation)
	}

	return WrapError(err, ErrorCategoryTemporary, component, operation)
}

// Common error constructors
func NewDataError(component, operation string, err error) *RunError {
	return WrapError(err, ErrorCategoryData, component, operation)
}

func NewIndicatorError(component, operation string, err error) *RunError {
	return WrapError(err, ErrorCategoryIndicator, component, operation)
}

func NewStorageError(component, operation string, err error) *RunError {
	return WrapError(err, ErrorCategoryStorage, component, operation)
}

func NewReportError(component, operation string, err error) *RunError {
	return WrapError(err, ErrorCategoryReport, component, operation)
}

func NewValidationError(component, operation, message string) *RunError {
	return NewRunError(ErrorCategoryValidation, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *RunError {
	return NewRunError(ErrorCategoryConfiguration, component, operation, message)
}

// RecoveryAction is what a batch should do about an error.
type RecoveryAction string

const (
	RecoveryActionRetry RecoveryAction = "RETRY"
	RecoveryActionSkip  RecoveryAction = "SKIP"
	RecoveryActionStop  RecoveryAction = "STOP"
)

// GetRecoveryAction suggests a recovery action based on error category
func (e *RunError) GetRecoveryAction() RecoveryAction {
	switch {
	case e.IsFatal():
		return RecoveryActionStop
	case e.Retryable:
		return RecoveryActionRetry
	default:
		return RecoveryActionSkip
	}
}

// ErrorStats tracks error statistics
type ErrorStats struct {
	TotalErrors      int
	ErrorsByCategory map[ErrorCategory]int
	RecentErrors     []*RunError
	MaxRecentErrors  int
}

// NewErrorStats creates a new error statistics tracker
func NewErrorStats(maxRecentErrors int) *ErrorStats {
	return &ErrorStats{
		ErrorsByCategory: make(map[ErrorCategory]int),
		RecentErrors:     make([]*RunError, 0, maxRecentErrors),
		MaxRecentErrors:  maxRecentErrors,
	}
}

// RecordError records an error in the statistics
func (es *ErrorStats) RecordError(err *RunError) {
	if err == nil {
		return
	}
	es.TotalErrors++
	es.ErrorsByCategory[err.Category]++

	es.RecentErrors = append(es.RecentErrors, err)
	if len(es.RecentErrors) > es.MaxRecentErrors {
		es.RecentErrors = es.RecentErrors[1:]
	}
}

// GetErrorRate returns the error rate for a specific category
func (es *ErrorStats) GetErrorRate(category ErrorCategory) float64 {
	if es.TotalErrors == 0 {
		return 0.0
	}
	return float64(es.ErrorsByCategory[category]) / float64(es.TotalErrors)
}
