// Package sqlite provides the durable key-value slot store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jsamuelsen/quote-sync/internal/domain"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

// MemoryPath opens a private in-memory database, useful for tests.
const MemoryPath = ":memory:"

// KV implements ports.KeyValueStore on a single SQLite table.
type KV struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// Ensure KV implements the ports it is wired into.
var (
	_ ports.KeyValueStore = (*KV)(nil)
	_ ports.HealthChecker = (*KV)(nil)
)

// Open creates (if needed) and opens the database at path.
// The parent directory is created when missing.
func Open(ctx context.Context, path string, logger *slog.Logger) (*KV, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and
	// serialises writers on file databases.
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("opened key-value store", slog.String("path", path))

	return &KV{
		db:     db,
		path:   path,
		logger: logger.With(slog.String("component", "sqlite.KV")),
		now:    time.Now,
	}, nil
}

// Get returns the value stored under key, or domain.ErrNotFound.
func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("storage key", key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %q: %w", key, err)
	}

	return value, nil
}

// Set stores value under key.
func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	return nil
}

// Remove deletes key. Missing keys are ignored.
func (s *KV) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing key %q: %w", key, err)
	}

	return nil
}

// Close releases the database handle.
func (s *KV) Close() error {
	return s.db.Close()
}

// Name implements ports.HealthChecker.
func (s *KV) Name() string {
	return "sqlite"
}

// Check implements ports.HealthChecker.
func (s *KV) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
