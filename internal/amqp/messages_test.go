package amqp

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wattbudget/internal/core"
)

func TestOutcomeMessageRoundTrip(t *testing.T) {
	ranAt := time.Date(2024, 7, 15, 6, 0, 0, 0, time.UTC)
	outcome := core.PublishOutcome{
		Attempted:     true,
		Applied:       true,
		PreviousKnown: true,
		Previous:      core.Money{Cents: 16000},
		New:           core.Money{Cents: 17754},
		Reason:        core.ReasonUpdated,
		Average: core.UsageAverage{
			KWhPerMonth: decimal.NewFromInt(1000),
			WindowStart: core.Period{Year: 2023, Month: time.July},
			WindowEnd:   core.Period{Year: 2024, Month: time.June},
			SampleCount: 12,
		},
	}

	msg := NewOutcomeMessage(outcome, ranAt)
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := OutcomeMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Reason != "updated" || got.NewCents != 17754 || got.PreviousCents != 16000 {
		t.Errorf("unexpected message: %+v", got)
	}
	if got.AvgKWh != "1000" || got.WindowStart != "2023-07" || got.WindowEnd != "2024-06" {
		t.Errorf("unexpected window fields: %+v", got)
	}
	if !got.RanAt.Equal(ranAt) {
		t.Errorf("expected ran_at %v, got %v", ranAt, got.RanAt)
	}
}

func TestNewOutcomeMessage_FailedRunOmitsWindow(t *testing.T) {
	outcome := core.PublishOutcome{
		Reason: core.ReasonFailed,
		Err:    errTest,
	}
	msg := NewOutcomeMessage(outcome, time.Now())
	if msg.AvgKWh != "" || msg.WindowStart != "" {
		t.Errorf("failed run should omit window fields: %+v", msg)
	}
	if msg.Error == "" {
		t.Error("expected error text")
	}
}

var errTest = errors.New("boom")
