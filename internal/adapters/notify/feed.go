// Package notify provides the in-process notification feed that the sync
// engine posts status messages into and the HTTP layer reads from.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-sync/internal/domain"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

// DefaultCapacity bounds how many notifications the feed retains.
const DefaultCapacity = 32

// Feed is a bounded ring of notifications. Each notification is also logged
// so headless deployments still surface sync outcomes.
type Feed struct {
	mu       sync.Mutex
	items    []domain.Notification
	next     int
	full     bool
	logger   *slog.Logger
	now      func() time.Time
	capacity int
}

var _ ports.Notifier = (*Feed)(nil)

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(n int) FeedOption {
	return func(f *Feed) {
		if n > 0 {
			f.capacity = n
		}
	}
}

// WithClock overrides the time source used for CreatedAt and expiry.
func WithClock(now func() time.Time) FeedOption {
	return func(f *Feed) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFeed creates an empty feed.
func NewFeed(logger *slog.Logger, opts ...FeedOption) *Feed {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Feed{
		logger:   logger.With(slog.String("component", "notify.Feed")),
		now:      time.Now,
		capacity: DefaultCapacity,
	}

	for _, opt := range opts {
		opt(f)
	}

	f.items = make([]domain.Notification, f.capacity)

	return f
}

// Notify implements ports.Notifier.
func (f *Feed) Notify(ctx context.Context, n domain.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = f.now()
	}

	level := slog.LevelInfo
	if n.Severity == domain.SeverityWarning {
		level = slog.LevelWarn
	}

	f.logger.Log(ctx, level, n.Message,
		slog.String("severity", string(n.Severity)),
		slog.Duration("duration", n.Duration),
	)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[f.next] = n
	f.next = (f.next + 1) % f.capacity
	if f.next == 0 {
		f.full = true
	}
}

// Active returns the notifications still visible now, oldest first.
func (f *Feed) Active() []domain.Notification {
	now := f.now()

	var active []domain.Notification
	for _, n := range f.All() {
		if n.Active(now) {
			active = append(active, n)
		}
	}

	return active
}

// All returns every retained notification, oldest first.
func (f *Feed) All() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.full {
		out := make([]domain.Notification, f.next)
		copy(out, f.items[:f.next])
		return out
	}

	out := make([]domain.Notification, 0, f.capacity)
	out = append(out, f.items[f.next:]...)
	out = append(out, f.items[:f.next]...)

	return out
}

// Latest returns the most recent notification, if any.
func (f *Feed) Latest() (domain.Notification, bool) {
	all := f.All()
	if len(all) == 0 {
		return domain.Notification{}, false
	}

	return all[len(all)-1], true
}
