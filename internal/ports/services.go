// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-sync/internal/domain"
)

// QuoteRemote is the remote source of truth the sync engine reconciles against.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Map transport failures to domain.ErrUnavailable
//   - Map undecodable payloads to domain.ErrParse
type QuoteRemote interface {
	// FetchQuotes retrieves at most limit remote items translated into
	// quotes. The caller stamps Category and UpdatedAt on receipt.
	FetchQuotes(ctx context.Context, limit int) ([]domain.Quote, error)

	// PushQuotes sends a batch of quotes as a single write.
	PushQuotes(ctx context.Context, quotes []domain.Quote) error
}

// KeyValueStore is a synchronous string-keyed slot store with no transactions.
// The quote store keeps its list, the selected filter, and the last viewed
// quote in implementations of this port.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Notifier receives transient status messages meant for the user.
// Implementations must not block the caller for long; the sync engine
// notifies from inside a cycle.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n domain.Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n domain.Notification) {
	f(ctx, n)
}
