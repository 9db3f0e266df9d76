package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/quote-sync/internal/domain"
	"github.com/jsamuelsen/quote-sync/internal/platform/logging"
	"github.com/jsamuelsen/quote-sync/internal/ports"
)

const (
	// instrumentationName is used for the OpenTelemetry meter.
	instrumentationName = "github.com/jsamuelsen/quote-sync/internal/app"

	// DefaultBatchSize caps how many remote items one cycle takes.
	DefaultBatchSize = 5
)

// Notification texts emitted by the sync engine.
const (
	MessageSynced       = "🔄 Data synced with server (server took precedence)"
	MessageUpToDate     = "✅ Local data is up-to-date with server"
	MessageSyncFailed   = "⚠️ Failed to sync with server"
	MessagePushed       = "📤 Local quotes uploaded to server"
	MessagePushFailed   = "⚠️ Failed to upload local quotes"
	MessageSynchronized = "🔁 Quotes synchronized with server"
)

// ErrCycleInProgress is returned when a sync operation is requested while
// another one is running on the same engine. The request is dropped.
var ErrCycleInProgress = domain.NewConflictError("sync cycle", "a sync cycle is already in progress")

// CycleState is the position of the engine within a sync cycle.
type CycleState string

const (
	StateIdle        CycleState = "idle"
	StateFetching    CycleState = "fetching"
	StateFetchFailed CycleState = "fetch_failed"
	StateMerging     CycleState = "merging"
	StatePushing     CycleState = "pushing"
)

// CycleReport summarises one completed cycle.
type CycleReport struct {
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	Fetched    int           `json:"fetched"`
	Merge      MergeResult   `json:"merge"`
	Pushed     int           `json:"pushed"`
	FetchError string        `json:"fetchError,omitempty"`
	MergeError string        `json:"mergeError,omitempty"`
	PushError  string        `json:"pushError,omitempty"`
	FinalState CycleState    `json:"finalState"`
}

// Failed reports whether the cycle could not reconcile with the remote.
func (r CycleReport) Failed() bool {
	return r.FetchError != "" || r.MergeError != ""
}

// NotificationDurations controls how long each kind of notification stays visible.
type NotificationDurations struct {
	Synced   time.Duration
	UpToDate time.Duration
	Failed   time.Duration
}

// DefaultNotificationDurations returns the standard display times.
func DefaultNotificationDurations() NotificationDurations {
	return NotificationDurations{
		Synced:   3500 * time.Millisecond,
		UpToDate: 2500 * time.Millisecond,
		Failed:   4 * time.Second,
	}
}

// SyncEngine reconciles the quote store against the remote using
// last-write-wins keyed by quote id. At most one operation that mutates the
// store or the remote runs at a time.
type SyncEngine struct {
	store       *QuoteStore
	remote      ports.QuoteRemote
	notifier    ports.Notifier
	batchSize   int
	pushEnabled bool
	durations   NotificationDurations
	now         func() time.Time
	logger      *slog.Logger

	running atomic.Bool

	mu         sync.RWMutex
	state      CycleState
	lastReport *CycleReport

	cyclesTotal   metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// SyncEngineConfig contains the dependencies and options of the sync engine.
type SyncEngineConfig struct {
	Store    *QuoteStore
	Remote   ports.QuoteRemote
	Notifier ports.Notifier

	// BatchSize defaults to DefaultBatchSize.
	BatchSize int

	// PushEnabled makes RunCycle upload local-only quotes after merging.
	PushEnabled bool

	// Durations defaults to DefaultNotificationDurations.
	Durations *NotificationDurations

	Clock  func() time.Time
	Logger *slog.Logger
}

// NewSyncEngine creates a sync engine in the Idle state.
func NewSyncEngine(cfg SyncEngineConfig) (*SyncEngine, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}

	if cfg.Remote == nil {
		return nil, errors.New("remote is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = ports.NotifierFunc(func(context.Context, domain.Notification) {})
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	durations := DefaultNotificationDurations()
	if cfg.Durations != nil {
		durations = *cfg.Durations
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	meter := otel.Meter(instrumentationName)

	cyclesTotal, err := meter.Int64Counter(
		"quote_sync.cycles.total",
		metric.WithDescription("Total number of sync cycles by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cycle counter: %w", err)
	}

	cycleDuration, err := meter.Float64Histogram(
		"quote_sync.cycle.duration",
		metric.WithDescription("Duration of sync cycles"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cycle duration metric: %w", err)
	}

	return &SyncEngine{
		store:         cfg.Store,
		remote:        cfg.Remote,
		notifier:      notifier,
		batchSize:     batchSize,
		pushEnabled:   cfg.PushEnabled,
		durations:     durations,
		now:           now,
		logger:        logger.With(slog.String("component", "app.SyncEngine")),
		state:         StateIdle,
		cyclesTotal:   cyclesTotal,
		cycleDuration: cycleDuration,
	}, nil
}

// State returns the engine's current cycle state.
func (e *SyncEngine) State() CycleState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.state
}

// LastReport returns the report of the most recent cycle, if any.
func (e *SyncEngine) LastReport() (CycleReport, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.lastReport == nil {
		return CycleReport{}, false
	}

	return *e.lastReport, true
}

// PushEnabled reports whether RunCycle uploads local quotes.
func (e *SyncEngine) PushEnabled() bool {
	return e.pushEnabled
}

func (e *SyncEngine) setState(s CycleState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// acquire claims the engine for one operation. The returned function
// releases it.
func (e *SyncEngine) acquire() (func(), error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}

	return func() { e.running.Store(false) }, nil
}

func (e *SyncEngine) notify(ctx context.Context, msg string, sev domain.Severity, d time.Duration) {
	e.notifier.Notify(ctx, domain.Notification{
		Message:   msg,
		Severity:  sev,
		Duration:  d,
		CreatedAt: e.now(),
	})
}

// FetchRemote retrieves up to the batch size of remote quotes. Candidates
// carry the server category and the time of receipt. It does not touch the
// store and is not guarded.
func (e *SyncEngine) FetchRemote(ctx context.Context) ([]domain.Quote, error) {
	candidates, err := e.remote.FetchQuotes(ctx, e.batchSize)
	if err != nil {
		return nil, fmt.Errorf("fetching remote quotes: %w", err)
	}

	if len(candidates) > e.batchSize {
		candidates = candidates[:e.batchSize]
	}

	receivedAt := e.now().UnixMilli()
	for i := range candidates {
		candidates[i].Category = domain.CategoryServer
		candidates[i].UpdatedAt = receivedAt
	}

	return candidates, nil
}

// Merge applies candidates to the store and reports the outcome through the
// notifier. Returns ErrCycleInProgress when a cycle is running.
func (e *SyncEngine) Merge(ctx context.Context, candidates []domain.Quote) (MergeResult, error) {
	release, err := e.acquire()
	if err != nil {
		return MergeResult{}, err
	}
	defer release()

	result, err := e.merge(ctx, candidates)
	e.setState(StateIdle)

	return result, err
}

func (e *SyncEngine) merge(ctx context.Context, candidates []domain.Quote) (MergeResult, error) {
	e.setState(StateMerging)

	result, err := e.store.Merge(ctx, candidates)
	if err != nil {
		e.notify(ctx, MessageSyncFailed, domain.SeverityWarning, e.durations.Failed)
		return result, fmt.Errorf("merging remote quotes: %w", err)
	}

	if result.Changed {
		e.notify(ctx, MessageSynced, domain.SeverityInfo, e.durations.Synced)
	} else {
		e.notify(ctx, MessageUpToDate, domain.SeveritySuccess, e.durations.UpToDate)
	}

	return result, nil
}

// PushLocal uploads every given quote not tagged with the server category
// as one batch. Local state is never altered. Returns the number of quotes
// sent.
func (e *SyncEngine) PushLocal(ctx context.Context, quotes []domain.Quote) (int, error) {
	release, err := e.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	n, err := e.push(ctx, quotes)
	e.setState(StateIdle)

	return n, err
}

func (e *SyncEngine) push(ctx context.Context, quotes []domain.Quote) (int, error) {
	e.setState(StatePushing)

	var local []domain.Quote
	for _, q := range quotes {
		if !q.FromServer() {
			local = append(local, q)
		}
	}

	if err := e.remote.PushQuotes(ctx, local); err != nil {
		e.notify(ctx, MessagePushFailed, domain.SeverityWarning, e.durations.Failed)
		return 0, fmt.Errorf("pushing local quotes: %w", err)
	}

	e.notify(ctx, MessagePushed, domain.SeverityInfo, e.durations.Synced)

	return len(local), nil
}

// RunCycle fetches, merges and, when push is enabled, uploads local quotes.
// Fetch, merge and push failures are recorded in the report and surfaced as
// notifications; the only error returned is ErrCycleInProgress.
func (e *SyncEngine) RunCycle(ctx context.Context) (CycleReport, error) {
	return e.runCycle(ctx, e.pushEnabled)
}

// RunCycleWithPush runs one cycle that uploads local quotes after merging
// whether or not push is enabled.
func (e *SyncEngine) RunCycleWithPush(ctx context.Context) (CycleReport, error) {
	return e.runCycle(ctx, true)
}

func (e *SyncEngine) runCycle(ctx context.Context, push bool) (report CycleReport, err error) {
	release, err := e.acquire()
	if err != nil {
		return CycleReport{}, err
	}
	defer release()

	logger := logging.FromContextOr(ctx, e.logger)
	report.StartedAt = e.now()

	defer func() {
		report.Duration = e.now().Sub(report.StartedAt)
		e.finish(ctx, &report)
	}()

	e.setState(StateFetching)

	candidates, err := e.FetchRemote(ctx)
	if err != nil {
		report.FetchError = err.Error()
		report.FinalState = StateFetchFailed
		e.setState(StateFetchFailed)
		e.notify(ctx, MessageSyncFailed, domain.SeverityWarning, e.durations.Failed)

		logger.WarnContext(ctx, "sync fetch failed", slog.Any("error", err))

		return report, nil
	}

	report.Fetched = len(candidates)

	report.Merge, err = e.merge(ctx, candidates)
	if err != nil {
		report.MergeError = err.Error()
		report.FinalState = StateIdle
		e.setState(StateIdle)

		logger.ErrorContext(ctx, "sync merge failed", slog.Any("error", err))

		return report, nil
	}

	if push {
		report.Pushed, err = e.push(ctx, e.store.LocalOnly())
		if err != nil {
			report.PushError = err.Error()
			logger.WarnContext(ctx, "sync push failed", slog.Any("error", err))
		}

		e.notify(ctx, MessageSynchronized, domain.SeveritySuccess, e.durations.UpToDate)
	}

	report.FinalState = StateIdle
	e.setState(StateIdle)

	logger.InfoContext(ctx, "sync cycle completed",
		slog.Int("fetched", report.Fetched),
		slog.Int("added", report.Merge.Added),
		slog.Int("updated", report.Merge.Updated),
		slog.Int("pushed", report.Pushed),
	)

	return report, nil
}

func (e *SyncEngine) finish(ctx context.Context, report *CycleReport) {
	outcome := "ok"
	switch {
	case report.FetchError != "":
		outcome = "fetch_failed"
	case report.MergeError != "":
		outcome = "merge_failed"
	case report.PushError != "":
		outcome = "push_failed"
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	e.cyclesTotal.Add(ctx, 1, attrs)
	e.cycleDuration.Record(ctx, report.Duration.Seconds(), attrs)

	snapshot := *report

	e.mu.Lock()
	e.lastReport = &snapshot
	e.mu.Unlock()
}
