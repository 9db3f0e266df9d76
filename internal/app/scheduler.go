package app

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultSyncInterval is the period between scheduled sync cycles.
const DefaultSyncInterval = 15 * time.Second

// Cycler runs one sync cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}

// Scheduler drives periodic sync cycles.
type Scheduler struct {
	cycler     Cycler
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Interval defaults to DefaultSyncInterval.
	Interval time.Duration

	// RunOnStart triggers a cycle before the first tick.
	RunOnStart bool

	Logger *slog.Logger
}

// NewScheduler creates a scheduler for cycler.
func NewScheduler(cycler Cycler, cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	return &Scheduler{
		cycler:     cycler,
		interval:   interval,
		runOnStart: cfg.RunOnStart,
		logger:     logger.With(slog.String("component", "app.Scheduler")),
	}
}

// Run blocks, triggering a cycle on every tick until ctx is done.
// It always returns nil; cycle failures are reported by the engine itself.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sync scheduler started", slog.Duration("interval", s.interval))

	if s.runOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	_, err := s.cycler.RunCycle(ctx)
	if errors.Is(err, ErrCycleInProgress) {
		s.logger.DebugContext(ctx, "skipping tick, cycle already running")
		return
	}

	if err != nil {
		s.logger.WarnContext(ctx, "scheduled sync failed", slog.Any("error", err))
	}
}
