package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-sync/internal/domain"
)

// stubChecker implements HealthChecker for testing.
type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(context.Context) error { return s.err }

// slowChecker blocks until its context ends or the delay passes.
type slowChecker struct {
	name  string
	delay time.Duration
}

func (c *slowChecker) Name() string { return c.name }

func (c *slowChecker) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.delay):
		return nil
	}
}

func TestNewHealthRegistry_DefaultTimeout(t *testing.T) {
	registry := NewHealthRegistry(0)

	require.NotNil(t, registry)
	assert.Empty(t, registry.checkers)
	assert.Equal(t, DefaultCheckTimeout, registry.checkTimeout)
}

func TestRegister_DuplicateName(t *testing.T) {
	registry := NewHealthRegistry(time.Second)

	require.NoError(t, registry.Register(&stubChecker{name: "sqlite"}))

	err := registry.Register(&stubChecker{name: "sqlite"})

	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "sqlite")
	assert.Len(t, registry.checkers, 1)
}

func TestCheckAll(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus HealthStatus
		wantFailed map[string]string
	}{
		{
			name:       "no checkers is healthy",
			wantStatus: HealthStatusHealthy,
		},
		{
			name: "all healthy",
			checkers: []HealthChecker{
				&stubChecker{name: "sqlite"},
				&stubChecker{name: "quote-remote"},
			},
			wantStatus: HealthStatusHealthy,
		},
		{
			name: "one unhealthy",
			checkers: []HealthChecker{
				&stubChecker{name: "sqlite"},
				&stubChecker{name: "quote-remote", err: errors.New("connection refused")},
			},
			wantStatus: HealthStatusUnhealthy,
			wantFailed: map[string]string{"quote-remote": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry(time.Second)
			for _, c := range tt.checkers {
				require.NoError(t, registry.Register(c))
			}

			result := registry.CheckAll(context.Background())

			require.NotNil(t, result)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Len(t, result.Checks, len(tt.checkers))
			assert.False(t, result.Timestamp.IsZero())

			for name, check := range result.Checks {
				if msg, failed := tt.wantFailed[name]; failed {
					assert.Equal(t, HealthStatusUnhealthy, check.Status)
					assert.Equal(t, msg, check.Message)
				} else {
					assert.Equal(t, HealthStatusHealthy, check.Status)
					assert.Empty(t, check.Message)
				}
			}
		})
	}
}

func TestCheckAll_PerCheckTimeout(t *testing.T) {
	registry := NewHealthRegistry(20 * time.Millisecond)
	require.NoError(t, registry.Register(&slowChecker{name: "slow", delay: time.Second}))

	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow"].Message, "deadline exceeded")
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry(time.Second)
	require.NoError(t, registry.Register(&slowChecker{name: "slow", delay: 100 * time.Millisecond}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow"].Message, "context canceled")
}

func TestNotifierFunc(t *testing.T) {
	var got domain.Notification

	var n Notifier = NotifierFunc(func(_ context.Context, note domain.Notification) {
		got = note
	})

	n.Notify(context.Background(), domain.Notification{Message: "hello", Severity: domain.SeverityInfo})

	assert.Equal(t, "hello", got.Message)
	assert.Equal(t, domain.SeverityInfo, got.Severity)
}
