package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"wattbudget/internal/budget"
	"wattbudget/internal/core"
	"wattbudget/internal/meter"
)

// publisherRetryDelay spaces the single transient retry the publisher is
// allowed before surfacing a failure. Variable so tests can shrink it.
var publisherRetryDelay = 2 * time.Second

// Config is the immutable per-run configuration for the sync pipeline.
type Config struct {
	// Rate is the configured $/kWh unit price.
	Rate decimal.Decimal
	// CategoryID is the budgeting category whose target is asserted.
	CategoryID string
	// CompletePeriodLag gates when the most recent month becomes eligible
	// (zero means core.DefaultCompletePeriodLag).
	CompletePeriodLag time.Duration
}

// TargetSync runs the Reader → Engine → Publisher pipeline: fetch usage
// history, compute the trailing-12-month average and its dollar target, and
// assert that target into the budgeting backend idempotently.
type TargetSync struct {
	reader  meter.UsageHistoryReader
	backend budget.Backend
	cfg     Config
}

func NewTargetSync(reader meter.UsageHistoryReader, backend budget.Backend, cfg Config) *TargetSync {
	return &TargetSync{reader: reader, backend: backend, cfg: cfg}
}

// Run executes one pipeline invocation. It never panics and never returns a
// partial result: every run resolves to exactly one PublishOutcome, with any
// classified error attached. Errors before the publish step mean no external
// write was attempted.
func (s *TargetSync) Run(ctx context.Context, now time.Time) core.PublishOutcome {
	series, err := s.reader.FetchUsageHistory(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Usage history fetch failed", "error", err)
		return core.PublishOutcome{Reason: core.ReasonFailed, Err: err}
	}

	avg, err := core.TrailingAverage(series, now, s.cfg.CompletePeriodLag)
	if err != nil {
		slog.ErrorContext(ctx, "Trailing average unavailable",
			"error", err,
			"months_fetched", len(series))
		return core.PublishOutcome{Reason: core.ReasonFailed, Err: err}
	}

	target := avg.Target(s.cfg.Rate, s.cfg.CategoryID)
	slog.InfoContext(ctx, "Computed trailing average",
		"kwh_per_month", avg.KWhPerMonth.StringFixed(2),
		"window_start", avg.WindowStart.String(),
		"window_end", avg.WindowEnd.String(),
		"amount_cents", target.Amount.Cents)

	if err := target.Amount.Validate(); err != nil {
		slog.WarnContext(ctx, "Computed target invalid, skipping publish",
			"amount_cents", target.Amount.Cents)
		return core.PublishOutcome{
			New:     target.Amount,
			Reason:  core.ReasonSkippedInvalid,
			Err:     fmt.Errorf("computed target %s: %w", target.Amount, err),
			Average: avg,
		}
	}

	return s.publish(ctx, avg, target, now)
}

// publish implements the compare-then-write protocol. The current-value read
// followed by a conditional write is what makes overlapping runs safe: a
// retried schedule re-reads the value the first run wrote and lands on
// no-change.
func (s *TargetSync) publish(ctx context.Context, avg core.UsageAverage, target core.BudgetTarget, now time.Time) core.PublishOutcome {
	var (
		current core.Money
		known   bool
	)
	err := retryTransient(ctx, func() error {
		var err error
		current, known, err = s.backend.CurrentTarget(ctx, target.CategoryID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "Current target fetch failed",
			"category_id", target.CategoryID,
			"error", err)
		return core.PublishOutcome{Attempted: true, New: target.Amount, Reason: core.ReasonFailed, Err: err, Average: avg}
	}

	outcome := core.PublishOutcome{
		Attempted:     true,
		PreviousKnown: known,
		Previous:      current,
		New:           target.Amount,
		Average:       avg,
	}

	if known && current == target.Amount {
		slog.InfoContext(ctx, "Target already current, no write issued",
			"category_id", target.CategoryID,
			"amount_cents", target.Amount.Cents)
		outcome.Reason = core.ReasonNoChange
		return outcome
	}

	note := fmt.Sprintf("Updated on %s to %s based on %s kWh average usage (%s..%s).",
		now.Format("2006-01-02"), target.Amount,
		avg.KWhPerMonth.StringFixed(2), avg.WindowStart, avg.WindowEnd)

	err = retryTransient(ctx, func() error {
		return s.backend.SetTarget(ctx, target.CategoryID, target.Amount, note)
	})
	if err != nil {
		slog.ErrorContext(ctx, "Target update failed",
			"category_id", target.CategoryID,
			"amount_cents", target.Amount.Cents,
			"error", err)
		outcome.Reason = core.ReasonFailed
		outcome.Err = err
		return outcome
	}

	slog.InfoContext(ctx, "Target updated",
		"category_id", target.CategoryID,
		"previous_known", known,
		"previous_cents", current.Cents,
		"amount_cents", target.Amount.Cents)
	outcome.Applied = true
	outcome.Reason = core.ReasonUpdated
	return outcome
}

// retryTransient runs op, retrying exactly once when the backend failure is
// transient. Anything beyond one retry belongs to the run boundary, not here,
// so failures stay observable.
func retryTransient(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !budget.IsRetryable(err) {
		return err
	}
	slog.WarnContext(ctx, "Transient budget backend failure, retrying once", "error", err)
	select {
	case <-ctx.Done():
		return err
	case <-time.After(publisherRetryDelay):
	}
	return op()
}
