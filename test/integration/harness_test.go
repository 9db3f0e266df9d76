//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"time"

	apphttp "github.com/jsamuelsen/quote-sync/internal/adapters/http"
	"github.com/jsamuelsen/quote-sync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-sync/internal/bootstrap"
	"github.com/jsamuelsen/quote-sync/internal/platform/config"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

// fakeRemote stands in for the remote quote collection.
type fakeRemote struct {
	server *httptest.Server

	mu     sync.Mutex
	status int
	items  []map[string]any
	pushed [][]map[string]any
}

func newFakeRemote() *fakeRemote {
	r := &fakeRemote{status: http.StatusOK, items: []map[string]any{}}
	r.server = httptest.NewServer(http.HandlerFunc(r.serve))

	return r
}

func (r *fakeRemote) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if r.status != http.StatusOK {
		w.WriteHeader(r.status)
		_, _ = io.WriteString(w, `{"message":"remote unavailable"}`)
		return
	}

	switch req.Method {
	case http.MethodPost:
		var batch []map[string]any
		if err := json.NewDecoder(req.Body).Decode(&batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		r.pushed = append(r.pushed, batch)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{}`)
	default:
		_ = json.NewEncoder(w).Encode(r.items)
	}
}

func (r *fakeRemote) setItems(items []map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = items
}

func (r *fakeRemote) setStatus(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = status
}

func (r *fakeRemote) pushes() [][]map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([][]map[string]any(nil), r.pushed...)
}

func (r *fakeRemote) Close() {
	r.server.Close()
}

// service is the full HTTP stack running in-process over a file database.
type service struct {
	server     *httptest.Server
	components *bootstrap.Components
}

// testServiceConfig loads defaults and points them at dataDir and remote.
func testServiceConfig(dataDir string, remote *fakeRemote, push bool) (*config.Config, error) {
	cfg, err := config.LoadFrom(dataDir, "")
	if err != nil {
		return nil, err
	}

	cfg.App.Environment = "test"
	cfg.Storage.Path = filepath.Join(dataDir, "quotes.db")
	cfg.Services.Quote.BaseURL = remote.server.URL
	cfg.Client.Retry.MaxAttempts = 1
	cfg.Client.Timeout = 2 * time.Second
	cfg.Sync.PushEnabled = push

	return cfg, cfg.Validate()
}

func startService(dataDir string, remote *fakeRemote, push bool) (*service, error) {
	cfg, err := testServiceConfig(dataDir, remote, push)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	components, err := bootstrap.New(context.Background(), cfg, logger, nil)
	if err != nil {
		return nil, err
	}

	registry := ports.NewHealthRegistry(time.Second)
	for _, checker := range components.HealthCheckers() {
		if err := registry.Register(checker); err != nil {
			_ = components.Close()
			return nil, err
		}
	}

	server := apphttp.New(&cfg.Server, logger)
	apphttp.SetupRouter(server.Engine(), apphttp.RouterConfig{
		Logger:        logger,
		ServiceName:   cfg.App.Name,
		HealthHandler: handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "none", "now"), nil),
		QuoteHandler:  handlers.NewQuoteHandler(components.Store),
		SyncHandler:   handlers.NewSyncHandler(components.Engine, components.Store, components.Feed),
		Timeout:       apphttp.DefaultRequestTimeout,
	})

	return &service{
		server:     httptest.NewServer(server.Engine()),
		components: components,
	}, nil
}

func (s *service) URL() string {
	return s.server.URL
}

func (s *service) Close() error {
	s.server.Close()

	return s.components.Close()
}

func mustTempDir() string {
	dir, err := os.MkdirTemp("", "quote-sync-it-*")
	if err != nil {
		panic(err)
	}

	return dir
}
