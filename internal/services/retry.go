package services

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"wattbudget/internal/core"
	"wattbudget/internal/meter"
)

// RetryPolicy bounds the run-level retry loop. It applies only to provider
// errors classified rate-limited or transient-network; authentication and
// unexpected-response failures, and all engine failures, surface immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of pipeline invocations, including
	// the first.
	MaxAttempts int
	// BaseDelay is the backoff before the first retry; it doubles per
	// attempt with jitter, capped at MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Second,
		MaxDelay:    2 * time.Minute,
	}
}

// backoff returns the jittered delay before retry n (n starts at 1).
func (p RetryPolicy) backoff(n int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if d <= 0 {
		return 0
	}
	// Jitter in [d/2, d) so retried schedulers do not stampede the provider.
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// RunWithRetry invokes the pipeline up to policy.MaxAttempts times, backing
// off between attempts, and returns the last outcome. The clock is re-read
// per attempt so a retry that crosses a month boundary still anchors its
// window correctly.
func RunWithRetry(ctx context.Context, sync *TargetSync, policy RetryPolicy, now func() time.Time) core.PublishOutcome {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if now == nil {
		now = time.Now
	}

	var outcome core.PublishOutcome
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		outcome = sync.Run(ctx, now())
		if outcome.Err == nil || !meter.IsRetryable(outcome.Err) {
			return outcome
		}
		if attempt == policy.MaxAttempts {
			break
		}
		delay := policy.backoff(attempt)
		slog.WarnContext(ctx, "Run failed with retryable provider error, backing off",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"delay", delay,
			"error", outcome.Err)
		select {
		case <-ctx.Done():
			return outcome
		case <-time.After(delay):
		}
	}
	return outcome
}
