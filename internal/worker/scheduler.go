package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"wattbudget/internal/core"
)

// SchedulerConfig holds configuration for the recurring scheduler.
type SchedulerConfig struct {
	// Interval between runs. Monthly data changes slowly; daily is plenty.
	Interval time.Duration

	// RunOnStart triggers an immediate run when the scheduler starts
	// instead of waiting a full interval.
	RunOnStart bool
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:   24 * time.Hour,
		RunOnStart: true,
	}
}

// Scheduler repeats Runner.RunOnce on an interval. A failed run is logged
// and does not stop the loop: the provider may simply not have published
// last month yet, and the next tick will find it.
type Scheduler struct {
	runner *Runner
	config SchedulerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(runner *Runner, config SchedulerConfig) *Scheduler {
	return &Scheduler{runner: runner, config: config}
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Scheduler started",
		"interval", s.config.Interval,
		"run_on_start", s.config.RunOnStart)

	return nil
}

// Stop gracefully stops the scheduler and waits for completion.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.runAndLog(ctx)
	}

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

func (s *Scheduler) runAndLog(ctx context.Context) {
	outcome := s.runner.RunOnce(ctx)
	switch outcome.Reason {
	case core.ReasonNoChange, core.ReasonUpdated:
		slog.InfoContext(ctx, "Scheduled run complete",
			"reason", outcome.Reason,
			"amount_cents", outcome.New.Cents,
			"next_run", time.Now().Add(s.config.Interval).Format(time.RFC3339))
	default:
		slog.ErrorContext(ctx, "Scheduled run did not publish",
			"reason", outcome.Reason,
			"error", outcome.Err)
	}
}
