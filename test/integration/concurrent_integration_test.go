//go:build integration

package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-sync/internal/app"
	"github.com/jsamuelsen/quote-sync/internal/domain"
)

func startTestService(t *testing.T, push bool) (*service, *fakeRemote) {
	t.Helper()

	remote := newFakeRemote()
	t.Cleanup(remote.Close)

	svc, err := startService(t.TempDir(), remote, push)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return svc, remote
}

// TestConcurrent_AddsOverHTTP verifies that concurrent writers never lose
// a quote.
func TestConcurrent_AddsOverHTTP(t *testing.T) {
	svc, _ := startTestService(t, false)

	const numGoroutines = 25

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)

	for i := range numGoroutines {
		wg.Go(func() {
			body := fmt.Sprintf(`{"text":"Concurrent quote %d","category":"Load"}`, i)

			resp, err := http.Post(svc.URL()+"/api/v1/quotes", "application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusCreated {
				created.Add(1)
			}
		})
	}

	wg.Wait()

	assert.Equal(t, int32(numGoroutines), created.Load())
	assert.Equal(t, len(domain.DefaultQuotes())+numGoroutines, svc.components.Store.Len())
}

// TestConcurrent_OverlappingCycles verifies that at most one cycle runs at a
// time and dropped requests are reported as conflicts.
func TestConcurrent_OverlappingCycles(t *testing.T) {
	svc, remote := startTestService(t, false)
	remote.setItems([]map[string]any{{"id": 1, "title": "Only once"}})

	const numGoroutines = 10

	var (
		wg        sync.WaitGroup
		completed atomic.Int32
		conflicts atomic.Int32
	)

	for range numGoroutines {
		wg.Go(func() {
			_, err := svc.components.Engine.RunCycle(context.Background())

			switch {
			case err == nil:
				completed.Add(1)
			case errors.Is(err, app.ErrCycleInProgress):
				conflicts.Add(1)
			}
		})
	}

	wg.Wait()

	assert.GreaterOrEqual(t, completed.Load(), int32(1))
	assert.Equal(t, int32(numGoroutines), completed.Load()+conflicts.Load())
	assert.Equal(t, len(domain.DefaultQuotes())+1, svc.components.Store.Len(), "remote quote merged once")
}

// TestConcurrent_AddsDuringSync verifies that local edits made while cycles
// run are kept.
func TestConcurrent_AddsDuringSync(t *testing.T) {
	svc, remote := startTestService(t, true)
	remote.setItems([]map[string]any{
		{"id": 1, "title": "Remote one"},
		{"id": 2, "title": "Remote two"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const numAdds = 20

	var wg sync.WaitGroup

	wg.Go(func() {
		for range 5 {
			_, _ = svc.components.Engine.RunCycle(ctx)
		}
	})

	for i := range numAdds {
		wg.Go(func() {
			_, err := svc.components.Store.Add(ctx, fmt.Sprintf("Local %d", i), "Mine")
			assert.NoError(t, err)
		})
	}

	wg.Wait()

	assert.Equal(t, len(domain.DefaultQuotes())+numAdds+2, svc.components.Store.Len())
	assert.Len(t, svc.components.Store.LocalOnly(), len(domain.DefaultQuotes())+numAdds)
	assert.NotEmpty(t, remote.pushes())
}

// TestConcurrent_ContextCancellation verifies that a cancelled cycle records
// a fetch failure instead of hanging.
func TestConcurrent_ContextCancellation(t *testing.T) {
	svc, _ := startTestService(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.components.Engine.RunCycle(ctx)

	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Equal(t, app.StateFetchFailed, report.FinalState)
	assert.Equal(t, len(domain.DefaultQuotes()), svc.components.Store.Len())
}
