// Package bootstrap assembles the quote store, the remote adapter and the
// sync engine from configuration. The service and the CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-sync/internal/adapters/clients"
	"github.com/jsamuelsen/quote-sync/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-sync/internal/adapters/notify"
	"github.com/jsamuelsen/quote-sync/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-sync/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quote-sync/internal/app"
	"github.com/jsamuelsen/quote-sync/internal/domain"
	"github.com/jsamuelsen/quote-sync/internal/platform/config"
	"github.com/jsamuelsen/quote-sync/internal/platform/logging"
	"github.com/jsamuelsen/quote-sync/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

// Components are the wired application parts. Close releases them.
type Components struct {
	Durable *sqlite.KV
	Client  *clients.Client
	Remote  *acl.QuoteRemote
	Store   *app.QuoteStore
	Feed    *notify.Feed
	Engine  *app.SyncEngine
}

// New opens storage, loads the quote list and builds the sync engine.
// Notifier, when non-nil, receives every notification besides the feed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, notifier ports.Notifier) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	durable, err := sqlite.Open(ctx, cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	c := &Components{Durable: durable}

	c.Client, err = clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating remote client: %w", err), durable.Close())
	}

	c.Remote = acl.NewQuoteRemote(acl.QuoteRemoteConfig{
		Client:      c.Client,
		ServiceName: cfg.Services.Quote.Name,
		Path:        cfg.Services.Quote.Path,
		Logger:      logger,
	})

	c.Store = app.NewQuoteStore(app.QuoteStoreConfig{
		Durable: durable,
		Session: memory.New(),
		Logger:  logger,
	})

	if err := c.Store.Load(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("loading quotes: %w", err), durable.Close())
	}

	c.Feed = notify.NewFeed(logger)

	var sink ports.Notifier = c.Feed
	if notifier != nil {
		sink = ports.NotifierFunc(func(ctx context.Context, n domain.Notification) {
			c.Feed.Notify(ctx, n)
			notifier.Notify(ctx, n)
		})
	}

	c.Engine, err = app.NewSyncEngine(app.SyncEngineConfig{
		Store:       c.Store,
		Remote:      c.Remote,
		Notifier:    sink,
		BatchSize:   cfg.Sync.BatchSize,
		PushEnabled: cfg.Sync.PushEnabled,
		Durations: &app.NotificationDurations{
			Synced:   cfg.Sync.Notifications.Synced,
			UpToDate: cfg.Sync.Notifications.UpToDate,
			Failed:   cfg.Sync.Notifications.Failed,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating sync engine: %w", err), durable.Close())
	}

	return c, nil
}

// HealthCheckers returns the dependencies readiness should probe.
func (c *Components) HealthCheckers() []ports.HealthChecker {
	return []ports.HealthChecker{c.Durable, c.Client}
}

// SyncStats snapshots store and engine state for the metrics collector.
func (c *Components) SyncStats() telemetry.SyncStats {
	stats := telemetry.SyncStats{
		Quotes:    c.Store.Len(),
		LocalOnly: len(c.Store.LocalOnly()),
		State:     string(c.Engine.State()),
	}

	if report, ok := c.Engine.LastReport(); ok {
		stats.LastCycleAt = report.StartedAt
		stats.LastCycleFailed = report.Failed()
	}

	return stats
}

// Close releases storage.
func (c *Components) Close() error {
	return c.Durable.Close()
}

// LoggingConfig converts the log section of cfg.
func LoggingConfig(cfg *config.Config) *logging.Config {
	return &logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}
}

// TelemetryConfig converts the telemetry section of cfg.
func TelemetryConfig(cfg *config.Config) *telemetry.Config {
	return &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	}
}
