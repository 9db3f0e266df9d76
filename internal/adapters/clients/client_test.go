package clients

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-sync/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-sync/internal/platform/config"
)

func defaultConfig() *Config {
	return &Config{
		ServiceName: "quote-remote",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     time.Second,
		},
	}
}

// newTestClient starts a server for handler and returns a client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc, tweak func(*Config)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := defaultConfig()
	cfg.BaseURL = server.URL
	if tweak != nil {
		tweak(cfg)
	}

	client, err := New(cfg)
	require.NoError(t, err)

	return client
}

// closeBody is a test helper that closes the response body and fails the test on error.
func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{"nil config", nil, "config is required"},
		{"missing service name", &Config{BaseURL: "http://localhost"}, "service name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	client, err := New(&Config{ServiceName: "quote-remote", BaseURL: "https://example.com/"})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com", client.baseURL)
	assert.Equal(t, defaultTimeout, client.http.Timeout)
	assert.Equal(t, 1, client.cfg.Retry.MaxAttempts)
	assert.Equal(t, "quote-remote", client.Name())
}

func TestClient_HeaderPropagation(t *testing.T) {
	var requestID, correlationID atomic.Value

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestID.Store(r.Header.Get(middleware.HeaderRequestID))
		correlationID.Store(r.Header.Get(middleware.HeaderCorrelationID))
		w.WriteHeader(http.StatusOK)
	}, nil)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	resp, err := client.Get(ctx, "/posts")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "req-123", requestID.Load())
	assert.Equal(t, "corr-456", correlationID.Load())
}

func TestClient_RetryOnServerError(t *testing.T) {
	var attempts atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}, nil)

	resp, err := client.Get(context.Background(), "/posts")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, nil)

	resp, err := client.Get(context.Background(), "/posts")
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
	assert.Equal(t, CircuitClosed, client.CircuitState())
}

func TestClient_MaxRetriesExceeded(t *testing.T) {
	var attempts atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := client.Get(context.Background(), "/posts")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_PostReplaysBodyOnRetry(t *testing.T) {
	var (
		attempts atomic.Int32
		lastBody atomic.Value
	)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastBody.Store(string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}, nil)

	resp, err := client.Post(context.Background(), "/posts", []byte(`[{"id":"a"}]`))
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, `[{"id":"a"}]`, lastBody.Load())
}

func TestClient_CircuitBreakerShortCircuitsWhenOpen(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(cfg *Config) {
		cfg.Retry.MaxAttempts = 1
		cfg.Circuit.MaxFailures = 2
	})

	_, err := client.Get(context.Background(), "/posts")
	require.Error(t, err)
	assert.Equal(t, CircuitClosed, client.CircuitState())
	require.NoError(t, client.Check(context.Background()))

	_, err = client.Get(context.Background(), "/posts")
	require.Error(t, err)
	assert.Equal(t, CircuitOpen, client.CircuitState())
	assert.Equal(t, CircuitOpen, client.CircuitStats().State)

	callsBefore := calls.Load()

	_, err = client.Get(context.Background(), "/posts")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, callsBefore, calls.Load(), "request should be short-circuited when circuit is open")
	assert.ErrorIs(t, client.Check(context.Background()), ErrCircuitOpen)
}

func TestClient_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}, func(cfg *Config) {
		cfg.Timeout = 20 * time.Millisecond
		cfg.Retry.MaxAttempts = 1
	})

	_, err := client.Get(context.Background(), "/posts")

	require.Error(t, err)
}

func TestClient_ContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/posts")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestClient_BuildURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"https://example.com", "/posts", "https://example.com/posts"},
		{"https://example.com", "posts", "https://example.com/posts"},
		{"https://example.com/", "/posts", "https://example.com/posts"},
	}

	for _, tt := range tests {
		t.Run(tt.base+tt.path, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.BaseURL = tt.base

			client, err := New(cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.want, client.buildURL(tt.path))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := defaultConfig()
	cfg.Retry.InitialInterval = 100 * time.Millisecond
	cfg.Retry.MaxInterval = time.Second

	client, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, client.calculateBackoff(0))
	assert.Equal(t, 200*time.Millisecond, client.calculateBackoff(1))
	assert.Equal(t, 400*time.Millisecond, client.calculateBackoff(2))
	assert.Equal(t, time.Second, client.calculateBackoff(10), "capped at max interval")
}

func TestCalculateBackoff_Jitter(t *testing.T) {
	cfg := defaultConfig()
	cfg.Retry.InitialInterval = 100 * time.Millisecond
	cfg.Retry.MaxInterval = time.Second
	cfg.Retry.JitterFactor = 0.25

	client, err := New(cfg)
	require.NoError(t, err)

	for range 20 {
		backoff := client.calculateBackoff(1)
		assert.GreaterOrEqual(t, backoff, 150*time.Millisecond)
		assert.LessOrEqual(t, backoff, 250*time.Millisecond)
	}
}

// testNetError is a mock net.Error for testing.
type testNetError struct {
	timeout bool
}

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"net error with timeout", testNetError{timeout: true}, true},
		{"net error without timeout", testNetError{timeout: false}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}
