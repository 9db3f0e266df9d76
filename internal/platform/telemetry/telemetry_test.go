package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	provider, err := New(context.Background(), &Config{Enabled: false})

	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNew_NilConfig(t *testing.T) {
	provider, err := New(context.Background(), nil)

	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestMiddleware_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(TracingMiddleware("quote-sync"), Middleware())
	router.GET("/api/v1/quotes", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSyncCollector(t *testing.T) {
	tests := []struct {
		name  string
		stats SyncStats
		want  string
	}{
		{
			name:  "before first cycle",
			stats: SyncStats{Quotes: 5, LocalOnly: 5, State: "idle"},
			want: `
# HELP quote_sync_engine_state Current sync engine state; the series for the active state is 1.
# TYPE quote_sync_engine_state gauge
quote_sync_engine_state{state="idle"} 1
# HELP quote_sync_store_local_only_quotes Number of quotes not carrying the server category.
# TYPE quote_sync_store_local_only_quotes gauge
quote_sync_store_local_only_quotes 5
# HELP quote_sync_store_quotes Number of quotes in the local store.
# TYPE quote_sync_store_quotes gauge
quote_sync_store_quotes 5
`,
		},
		{
			name: "after failed cycle",
			stats: SyncStats{
				Quotes:          10,
				LocalOnly:       5,
				State:           "fetch_failed",
				LastCycleAt:     time.Unix(1700000000, 0),
				LastCycleFailed: true,
			},
			want: `
# HELP quote_sync_engine_state Current sync engine state; the series for the active state is 1.
# TYPE quote_sync_engine_state gauge
quote_sync_engine_state{state="fetch_failed"} 1
# HELP quote_sync_last_cycle_success 1 if the most recent sync cycle completed without error.
# TYPE quote_sync_last_cycle_success gauge
quote_sync_last_cycle_success 0
# HELP quote_sync_last_cycle_timestamp_seconds Start time of the most recent sync cycle.
# TYPE quote_sync_last_cycle_timestamp_seconds gauge
quote_sync_last_cycle_timestamp_seconds 1.7e+09
# HELP quote_sync_store_local_only_quotes Number of quotes not carrying the server category.
# TYPE quote_sync_store_local_only_quotes gauge
quote_sync_store_local_only_quotes 5
# HELP quote_sync_store_quotes Number of quotes in the local store.
# TYPE quote_sync_store_quotes gauge
quote_sync_store_quotes 10
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := NewSyncCollector(func() SyncStats { return tt.stats })

			reg := prometheus.NewPedanticRegistry()
			require.NoError(t, reg.Register(collector))

			assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(tt.want)))
		})
	}
}
