package app

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-sync/internal/domain"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeKV is an in-memory ports.KeyValueStore with an injectable write error.
type fakeKV struct {
	mu       sync.Mutex
	values   map[string][]byte
	setErr   error
	setCalls int
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string][]byte)}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[key]
	if !ok {
		return nil, domain.NewNotFoundError("key", key)
	}

	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}

	f.values[key] = append([]byte(nil), value...)

	return nil
}

func (f *fakeKV) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.values, key)

	return nil
}

func (f *fakeKV) raw(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return string(f.values[key])
}

// gatedKV blocks the first quotes write after being armed until release
// is closed.
type gatedKV struct {
	*fakeKV
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedKV) Set(ctx context.Context, key string, value []byte) error {
	if key == KeyQuotes && g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}

	return g.fakeKV.Set(ctx, key, value)
}

// testClock is a settable time source.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(ms int64) *testClock {
	return &testClock{t: time.UnixMilli(ms)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *testClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = time.UnixMilli(ms)
}

// sequentialIDs returns an id generator yielding local-1, local-2, ...
func sequentialIDs() func() string {
	var n int

	return func() string {
		n++
		return "local-" + strconv.Itoa(n)
	}
}

// newLoadedStore builds a store over durable with the given contents
// already persisted and loaded.
func newLoadedStore(t *testing.T, durable *fakeKV, clock *testClock, quotes ...domain.Quote) *QuoteStore {
	t.Helper()

	if quotes != nil {
		store := NewQuoteStore(QuoteStoreConfig{Durable: durable})
		require.NoError(t, store.persist(context.Background(), quotes))
	}

	store := NewQuoteStore(QuoteStoreConfig{
		Durable:     durable,
		Session:     newFakeKV(),
		Clock:       clock.Now,
		IDGenerator: sequentialIDs(),
		Rand:        rand.New(rand.NewPCG(1, 2)),
		Logger:      discardLogger(),
	})
	require.NoError(t, store.Load(context.Background()))

	return store
}
