package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wattbudget/internal/core"
)

func newTestRepo(t *testing.T) *RunHistoryRepository {
	t.Helper()
	repo, err := NewRunHistoryRepository(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRecordAndListRuns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

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
	ranAt := time.Date(2024, 7, 15, 6, 0, 0, 0, time.UTC)
	if err := repo.RecordRun(ctx, NewRunRecord(outcome, ranAt)); err != nil {
		t.Fatalf("record run: %v", err)
	}

	failed := core.PublishOutcome{
		Reason: core.ReasonFailed,
		Err:    errors.New("provider authenticate: authentication"),
	}
	if err := repo.RecordRun(ctx, NewRunRecord(failed, ranAt.Add(24*time.Hour))); err != nil {
		t.Fatalf("record failed run: %v", err)
	}

	runs, err := repo.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Newest first.
	if runs[0].Reason != "failed" || runs[0].Error == "" {
		t.Errorf("unexpected newest run: %+v", runs[0])
	}
	if runs[1].Reason != "updated" || runs[1].NewCents != 17754 || runs[1].WindowEnd != "2024-06" {
		t.Errorf("unexpected run record: %+v", runs[1])
	}
}

func TestRecentRuns_Empty(t *testing.T) {
	repo := newTestRepo(t)
	runs, err := repo.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
