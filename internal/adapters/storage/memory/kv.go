// Package memory provides a process-scoped key-value store. Values live only
// as long as the process, which makes it the session slot for the last
// viewed quote.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/jsamuelsen/quote-sync/internal/domain"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

// KV implements ports.KeyValueStore with a guarded map.
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ ports.KeyValueStore = (*KV)(nil)

// New returns an empty store.
func New() *KV {
	return &KV{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key, or domain.ErrNotFound.
func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, domain.NewNotFoundError("session key", key)
	}

	return slices.Clone(v), nil
}

// Set stores a copy of value under key.
func (s *KV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = slices.Clone(value)

	return nil
}

// Remove deletes key.
func (s *KV) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}
