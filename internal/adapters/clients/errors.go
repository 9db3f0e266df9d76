// Package clients provides the instrumented HTTP client used to reach the
// quote remote.
package clients

import "errors"

// Client errors are transport-level failures. The acl package translates
// them to domain errors.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open and the
	// request was not attempted.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is spent.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
