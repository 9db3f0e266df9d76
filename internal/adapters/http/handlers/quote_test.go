package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-sync/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-sync/internal/app"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore returns a loaded store holding the default quotes.
func newTestStore(t *testing.T) *app.QuoteStore {
	t.Helper()

	store := app.NewQuoteStore(app.QuoteStoreConfig{
		Durable: memory.New(),
		Session: memory.New(),
		Clock:   func() time.Time { return time.UnixMilli(1700000000000) },
		Logger:  discardLogger(),
	})
	require.NoError(t, store.Load(context.Background()))

	return store
}

func setupQuoteRouter(t *testing.T) (*gin.Engine, *app.QuoteStore) {
	t.Helper()

	store := newTestStore(t)
	handler := NewQuoteHandler(store)
	handler.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	router := gin.New()
	handler.RegisterQuoteRoutes(router.Group("/api/v1"))

	return router, store
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func TestQuoteHandler_ListQuotes_Pages(t *testing.T) {
	router, _ := setupQuoteRouter(t)

	w := do(router, http.MethodGet, "/api/v1/quotes?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	first := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, w)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "default-1", first.Items[0].ID)
	assert.True(t, first.HasMore)

	var ids []string
	cursor := first.NextCursor
	for cursor != "" {
		w = do(router, http.MethodGet, "/api/v1/quotes?limit=2&cursor="+cursor, "")
		require.Equal(t, http.StatusOK, w.Code)

		page := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, w)
		for _, q := range page.Items {
			ids = append(ids, q.ID)
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, []string{"default-3", "default-4", "default-5"}, ids)
}

func TestQuoteHandler_ListQuotes_BadRequests(t *testing.T) {
	router, _ := setupQuoteRouter(t)

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"limit too large", "/api/v1/quotes?limit=1000", dto.ErrorCodeValidation},
		{"garbage cursor", "/api/v1/quotes?cursor=%25%25", dto.ErrorCodeBadRequest},
		{"stale cursor", "/api/v1/quotes?cursor=" + dto.EncodeCursor(&dto.CursorData{ID: "gone"}), dto.ErrorCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.target, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode[dto.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestQuoteHandler_GetQuote(t *testing.T) {
	router, _ := setupQuoteRouter(t)

	w := do(router, http.MethodGet, "/api/v1/quotes/default-5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Programming", decode[dto.QuoteResponse](t, w).Category)

	w = do(router, http.MethodGet, "/api/v1/quotes/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteHandler_RandomQuote(t *testing.T) {
	router, store := setupQuoteRouter(t)

	w := do(router, http.MethodGet, "/api/v1/quotes/random?category=Life", "")
	require.Equal(t, http.StatusOK, w.Code)

	picked := decode[dto.QuoteResponse](t, w)
	assert.Equal(t, "default-2", picked.ID)

	selected, err := store.SelectedCategory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Life", selected)

	t.Run("saved filter applies without a query", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/v1/quotes/random", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Life", decode[dto.QuoteResponse](t, w).Category)
	})

	t.Run("last viewed", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/v1/quotes/last", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "default-2", decode[dto.QuoteResponse](t, w).ID)
	})

	t.Run("empty category", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/v1/quotes/random?category=Server", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestQuoteHandler_LastViewed_None(t *testing.T) {
	router, _ := setupQuoteRouter(t)

	w := do(router, http.MethodGet, "/api/v1/quotes/last", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteHandler_Categories(t *testing.T) {
	router, _ := setupQuoteRouter(t)

	w := do(router, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.CategoriesResponse](t, w)
	assert.Equal(t, []string{"Motivation", "Life", "Productivity", "Perseverance", "Programming"}, resp.Categories)
	assert.Equal(t, "all", resp.Selected)
}

func TestQuoteHandler_CreateQuote(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"created", `{"text":"  Ship it.  ","category":"Work"}`, http.StatusCreated},
		{"missing category", `{"text":"Ship it."}`, http.StatusBadRequest},
		{"blank text", `{"text":"  ","category":"Work"}`, http.StatusBadRequest},
		{"malformed", `{"text":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store := setupQuoteRouter(t)

			w := do(router, http.MethodPost, "/api/v1/quotes", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus != http.StatusCreated {
				assert.Equal(t, 5, store.Len())
				return
			}

			created := decode[dto.QuoteResponse](t, w)
			assert.Equal(t, "Ship it.", created.Text)
			assert.Equal(t, "Work", created.Category)
			assert.Equal(t, int64(1700000000000), created.UpdatedAt)
			assert.Equal(t, 6, store.Len())
		})
	}
}

func TestQuoteHandler_ImportQuotes(t *testing.T) {
	router, store := setupQuoteRouter(t)

	body := `[
		{"id":"x1","text":"New one","category":"Fresh","updatedAt":1},
		{"text":"Talk is cheap. Show me the code.","category":"Programming"},
		{"text":"no category"}
	]`

	w := do(router, http.MethodPost, "/api/v1/quotes/import", body)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, app.ImportResult{Imported: 1, Skipped: 1, Invalid: 1}, decode[app.ImportResult](t, w))
	assert.Equal(t, 6, store.Len())

	w = do(router, http.MethodPost, "/api/v1/quotes/import", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteHandler_ExportQuotes(t *testing.T) {
	router, _ := setupQuoteRouter(t)

	w := do(router, http.MethodGet, "/api/v1/quotes/export", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, `attachment; filename="quotes-20260304-050607.json"`, w.Header().Get("Content-Disposition"))

	exported := decode[[]map[string]any](t, w)
	assert.Len(t, exported, 5)
	assert.Equal(t, "default-1", exported[0]["id"])
}

func TestQuoteHandler_ResetQuotes(t *testing.T) {
	router, store := setupQuoteRouter(t)

	_, err := store.Add(context.Background(), "temp", "Temp")
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/api/v1/quotes/reset", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, decode[[]dto.QuoteResponse](t, w), 5)
	assert.Equal(t, 5, store.Len())
}
