package clients

import (
	"sync"
	"time"
)

// CircuitState is the current position of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets every request through.
	CircuitClosed CircuitState = iota

	// CircuitOpen blocks requests until the cool-down elapses.
	CircuitOpen

	// CircuitHalfOpen lets a limited number of probes through.
	CircuitHalfOpen
)

// String returns a human-readable name for the state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures int

	// Timeout is the cool-down spent open before probing again.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes allowed while
	// half-open and the number of successes needed to close.
	HalfOpenLimit int
}

// CircuitStats is a point-in-time view of a breaker, used for status output.
type CircuitStats struct {
	State       CircuitState
	Failures    int
	LastFailure time.Time
}

// CircuitBreaker guards the remote quote endpoint so a dead remote is not
// hammered on every sync tick.
//
// State transitions:
//   - Closed → Open: After MaxFailures consecutive failures
//   - Open → HalfOpen: After Timeout has passed since the last failure
//   - HalfOpen → Closed: After HalfOpenLimit consecutive successes
//   - HalfOpen → Open: On any failure
type CircuitBreaker struct {
	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	inFlight    int
	lastFailure time.Time
	cfg         CircuitBreakerConfig

	onStateChange func(from, to CircuitState)
	now           func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker. Non-positive limits
// fall back to one.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 1
	}

	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = 1
	}

	return &CircuitBreaker{
		state: CircuitClosed,
		cfg:   cfg,
		now:   time.Now,
	}
}

// OnStateChange registers a callback invoked after every transition.
// The callback runs on the caller's goroutine once the breaker lock is
// released, so it may safely call back into the breaker.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to CircuitState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onStateChange = fn
}

// Allow reports whether a request may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		allowed    bool
		transition func()
	)

	switch cb.state {
	case CircuitClosed:
		allowed = true

	case CircuitOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.cfg.Timeout {
			transition = cb.transitionTo(CircuitHalfOpen)
			cb.inFlight = 1
			allowed = true
		}

	case CircuitHalfOpen:
		if cb.inFlight < cb.cfg.HalfOpenLimit {
			cb.inFlight++
			allowed = true
		}
	}

	cb.mu.Unlock()
	runTransition(transition)

	return allowed
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var transition func()

	switch cb.state {
	case CircuitClosed:
		cb.failures = 0

	case CircuitHalfOpen:
		cb.inFlight--
		cb.successes++
		if cb.successes >= cb.cfg.HalfOpenLimit {
			transition = cb.transitionTo(CircuitClosed)
		}
	}

	cb.mu.Unlock()
	runTransition(transition)
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var transition func()

	cb.lastFailure = cb.now()

	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			transition = cb.transitionTo(CircuitOpen)
		}

	case CircuitHalfOpen:
		cb.inFlight--
		transition = cb.transitionTo(CircuitOpen)
	}

	cb.mu.Unlock()
	runTransition(transition)
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Stats returns a snapshot of the breaker.
func (cb *CircuitBreaker) Stats() CircuitStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitStats{
		State:       cb.state,
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
	}
}

// transitionTo changes state and returns the pending callback, if any.
// Must be called with the lock held.
func (cb *CircuitBreaker) transitionTo(next CircuitState) func() {
	if cb.state == next {
		return nil
	}

	prev := cb.state
	cb.state = next
	cb.failures = 0
	cb.successes = 0

	if cb.onStateChange == nil {
		return nil
	}

	fn := cb.onStateChange

	return func() { fn(prev, next) }
}

func runTransition(fn func()) {
	if fn != nil {
		fn()
	}
}
