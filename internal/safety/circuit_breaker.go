package safety

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned instead of calling a provider that keeps failing.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold uint32        // consecutive failures before opening
	SuccessThreshold uint32        // half-open successes before closing
	Timeout          time.Duration // time spent open before a trial call
}

// CircuitBreaker stops calling a provider after repeated failures and lets a
// single trial call through once the timeout has passed.
type CircuitBreaker struct {
	config        CircuitBreakerConfig
	state         CircuitBreakerState
	failures      uint32
	successes     uint32
	lastFailure   time.Time
	nextAttempt   time.Time
	trialInFlight bool
	mutex         sync.Mutex
	name          string
	now           func() time.Time
	onStateChange func(from, to CircuitBreakerState)
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		name:   name,
		now:    time.Now,
	}
}

// SetStateChangeCallback registers fn, called synchronously on every change.
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to CircuitBreakerState)) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.onStateChange = fn
}

// Call runs fn unless the breaker is open.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.canExecute() {
		return fmt.Errorf("%s: %w", cb.name, ErrCircuitOpen)
	}

	if err := fn(); err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) canExecute() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.nextAttempt) {
			return false
		}
		cb.changeState(StateHalfOpen)
		cb.successes = 0
		cb.trialInFlight = true
		return true
	case StateHalfOpen:
		if cb.trialInFlight {
			return false
		}
		cb.trialInFlight = true
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	cb.trialInFlight = false
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.changeState(StateClosed)
			cb.successes = 0
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()
	cb.trialInFlight = false

	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.changeState(StateOpen)
		cb.nextAttempt = cb.now().Add(cb.config.Timeout)
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) changeState(to CircuitBreakerState) {
	from := cb.state
	cb.state = to
	if cb.onStateChange != nil && from != to {
		cb.onStateChange(from, to)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// CircuitBreakerStats holds statistics about a circuit breaker
type CircuitBreakerStats struct {
	Name        string
	State       CircuitBreakerState
	Failures    uint32
	LastFailure time.Time
	NextAttempt time.Time
}

func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return CircuitBreakerStats{
		Name:        cb.name,
		State:       cb.state,
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
		NextAttempt: cb.nextAttempt,
	}
}

// Reset closes the breaker.
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.changeState(StateClosed)
	cb.failures = 0
	cb.successes = 0
	cb.trialInFlight = false
}
