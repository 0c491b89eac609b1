// Package worker orchestrates pipeline runs: the Runner wraps one invocation
// with its observability side effects, and the Scheduler repeats it on an
// interval for long-running deployments.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"wattbudget/internal/amqp"
	"wattbudget/internal/core"
	"wattbudget/internal/notify"
	"wattbudget/internal/services"
	"wattbudget/internal/storage"
)

// Runner executes one pipeline run with retry at the invocation boundary and
// fans the outcome out to the optional observers. History, pinger, and
// events may each be nil; observer failures never change the outcome.
type Runner struct {
	sync    *services.TargetSync
	policy  services.RetryPolicy
	history *storage.RunHistoryRepository
	pinger  *notify.Pinger
	events  *amqp.Client
	now     func() time.Time
}

func NewRunner(
	sync *services.TargetSync,
	policy services.RetryPolicy,
	history *storage.RunHistoryRepository,
	pinger *notify.Pinger,
	events *amqp.Client,
) *Runner {
	return &Runner{
		sync:    sync,
		policy:  policy,
		history: history,
		pinger:  pinger,
		events:  events,
		now:     time.Now,
	}
}

// RunOnce performs a single run and reports it.
func (r *Runner) RunOnce(ctx context.Context) core.PublishOutcome {
	ranAt := r.now()
	r.pinger.Start(ctx)

	outcome := services.RunWithRetry(ctx, r.sync, r.policy, r.now)

	// History and events are independent of each other; report them
	// concurrently. A failing observer is logged and never changes the
	// run outcome.
	var g errgroup.Group
	if r.history != nil {
		g.Go(func() error {
			if err := r.history.RecordRun(ctx, storage.NewRunRecord(outcome, ranAt)); err != nil {
				return fmt.Errorf("record run history: %w", err)
			}
			return nil
		})
	}
	if r.events != nil {
		g.Go(func() error {
			if err := r.events.PublishOutcome(ctx, amqp.NewOutcomeMessage(outcome, ranAt)); err != nil {
				return fmt.Errorf("publish outcome event: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "Run observer failed", "error", err)
	}

	if outcome.Success() {
		r.pinger.Success(ctx)
	} else {
		r.pinger.Fail(ctx)
	}
	return outcome
}
