package core

// PublishReason classifies how a run resolved.
type PublishReason string

const (
	// ReasonNoChange means the external target already matched; no write issued.
	ReasonNoChange PublishReason = "no-change"
	// ReasonUpdated means a single update call set the new target.
	ReasonUpdated PublishReason = "updated"
	// ReasonSkippedInvalid means the computed amount was invalid and the
	// external system was never called.
	ReasonSkippedInvalid PublishReason = "skipped-invalid"
	// ReasonFailed means a classified error stopped the run.
	ReasonFailed PublishReason = "failed"
)

// PublishOutcome is the per-run result, produced exactly once and used only
// for reporting. It is not retained by the pipeline itself.
type PublishOutcome struct {
	Attempted     bool
	Applied       bool
	PreviousKnown bool
	Previous      Money
	New           Money
	Reason        PublishReason
	Err           error
	// Average carries the computed window for reporting; zero-valued when
	// the run failed before the engine produced one.
	Average UsageAverage
}

// Success reports whether the run should exit zero: only no-change and
// updated count, per the scheduler contract.
func (o PublishOutcome) Success() bool {
	return o.Reason == ReasonNoChange || o.Reason == ReasonUpdated
}
