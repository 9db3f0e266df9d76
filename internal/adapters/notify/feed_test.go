package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-sync/internal/domain"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestFeed(t *testing.T, opts ...FeedOption) (*Feed, *fakeClock, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	feed := NewFeed(logger, append([]FeedOption{WithClock(clock.Now)}, opts...)...)

	return feed, clock, &buf
}

func TestFeed_NotifyStampsAndLogs(t *testing.T) {
	feed, clock, buf := newTestFeed(t)

	feed.Notify(context.Background(), domain.Notification{
		Message:  "Failed to sync with server",
		Severity: domain.SeverityWarning,
		Duration: 4 * time.Second,
	})

	latest, ok := feed.Latest()
	require.True(t, ok)
	assert.Equal(t, clock.Now(), latest.CreatedAt)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "Failed to sync with server")
	assert.Contains(t, buf.String(), "severity=warning")
}

func TestFeed_ActiveDropsExpired(t *testing.T) {
	feed, clock, _ := newTestFeed(t)
	ctx := context.Background()

	feed.Notify(ctx, domain.Notification{Message: "short", Severity: domain.SeveritySuccess, Duration: 2500 * time.Millisecond})
	feed.Notify(ctx, domain.Notification{Message: "long", Severity: domain.SeverityWarning, Duration: 4 * time.Second})

	assert.Len(t, feed.Active(), 2)

	clock.Advance(3 * time.Second)

	active := feed.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "long", active[0].Message)

	clock.Advance(time.Second)
	assert.Empty(t, feed.Active())
	assert.Len(t, feed.All(), 2, "expired notifications stay in history")
}

func TestFeed_RingOverwritesOldest(t *testing.T) {
	feed, _, _ := newTestFeed(t, WithCapacity(3))
	ctx := context.Background()

	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		feed.Notify(ctx, domain.Notification{Message: msg, Severity: domain.SeverityInfo, Duration: time.Minute})
	}

	all := feed.All()
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Message)
	assert.Equal(t, "d", all[1].Message)
	assert.Equal(t, "e", all[2].Message)
}

func TestFeed_LatestEmpty(t *testing.T) {
	feed, _, _ := newTestFeed(t)

	_, ok := feed.Latest()
	assert.False(t, ok)
}
