// Package storage keeps a local history of run outcomes for reporting.
// Usage readings are never stored: the provider remains the authority and
// each run recomputes from scratch. Nothing in the pipeline reads this
// database back; it exists for operators.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"wattbudget/internal/core"
)

// RunRecord is one row of run history.
type RunRecord struct {
	ID            int64
	RanAt         time.Time
	Reason        string
	Attempted     bool
	Applied       bool
	PreviousKnown bool
	PreviousCents int64
	NewCents      int64
	AvgKWh        string
	WindowStart   string
	WindowEnd     string
	Error         string
}

// NewRunRecord flattens a PublishOutcome into a history row.
func NewRunRecord(outcome core.PublishOutcome, ranAt time.Time) RunRecord {
	rec := RunRecord{
		RanAt:         ranAt,
		Reason:        string(outcome.Reason),
		Attempted:     outcome.Attempted,
		Applied:       outcome.Applied,
		PreviousKnown: outcome.PreviousKnown,
		PreviousCents: outcome.Previous.Cents,
		NewCents:      outcome.New.Cents,
	}
	if avg := outcome.Average; avg.SampleCount > 0 {
		rec.AvgKWh = avg.KWhPerMonth.String()
		rec.WindowStart = avg.WindowStart.String()
		rec.WindowEnd = avg.WindowEnd.String()
	}
	if outcome.Err != nil {
		rec.Error = outcome.Err.Error()
	}
	return rec
}

type RunHistoryRepository struct {
	db *sql.DB
}

func NewRunHistoryRepository(dbPath string) (*RunHistoryRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &RunHistoryRepository{db: db}, nil
}

func (r *RunHistoryRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordRun appends one outcome row.
func (r *RunHistoryRepository) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO run_history (
			ran_at, reason, attempted, applied, previous_known,
			previous_cents, new_cents, avg_kwh, window_start, window_end, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RanAt.UTC(), rec.Reason, rec.Attempted, rec.Applied, rec.PreviousKnown,
		rec.PreviousCents, rec.NewCents, rec.AvgKWh, rec.WindowStart, rec.WindowEnd, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// RecentRuns returns the latest limit rows, newest first.
func (r *RunHistoryRepository) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ran_at, reason, attempted, applied, previous_known,
			previous_cents, new_cents, avg_kwh, window_start, window_end, error
		FROM run_history
		ORDER BY ran_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.ID, &rec.RanAt, &rec.Reason, &rec.Attempted, &rec.Applied, &rec.PreviousKnown,
			&rec.PreviousCents, &rec.NewCents, &rec.AvgKWh, &rec.WindowStart, &rec.WindowEnd, &rec.Error,
		); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run history: %w", err)
	}
	return out, nil
}
