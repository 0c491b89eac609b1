package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// flatSeries builds n consecutive months of identical usage ending at end.
func flatSeries(t *testing.T, end Period, n int, kwh int64) UsageSeries {
	t.Helper()
	raw := make([]UsageSample, 0, n)
	for i := n - 1; i >= 0; i-- {
		raw = append(raw, UsageSample{Period: end.AddMonths(-i), KWh: decimal.NewFromInt(kwh)})
	}
	series, err := NormalizeSeries(raw)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return series
}

func TestTrailingAverage_FlatTwelveMonths(t *testing.T) {
	// 12 months of exactly 1000 kWh at 0.17754 $/kWh must yield $177.54.
	end := Period{2024, time.June}
	series := flatSeries(t, end, 12, 1000)
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)

	avg, err := TrailingAverage(series, now, DefaultCompletePeriodLag)
	if err != nil {
		t.Fatalf("TrailingAverage: %v", err)
	}
	if !avg.KWhPerMonth.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected 1000 kWh/month, got %s", avg.KWhPerMonth)
	}
	if avg.WindowEnd != end {
		t.Errorf("expected window end %v, got %v", end, avg.WindowEnd)
	}
	if avg.WindowStart != (Period{2023, time.July}) {
		t.Errorf("expected window start 2023-07, got %v", avg.WindowStart)
	}
	if avg.SampleCount != 12 {
		t.Errorf("expected 12 samples, got %d", avg.SampleCount)
	}

	rate, err := ParseRate("0.17754")
	if err != nil {
		t.Fatalf("parse rate: %v", err)
	}
	target := avg.Target(rate, "cat-1")
	if target.Amount.Cents != 17754 {
		t.Errorf("expected 17754 cents, got %d", target.Amount.Cents)
	}
}

func TestTrailingAverage_MissingMonthFails(t *testing.T) {
	// 11 of the last 12 months present: never average a partial window.
	end := Period{2024, time.June}
	raw := make([]UsageSample, 0, 11)
	for i := 11; i >= 0; i-- {
		p := end.AddMonths(-i)
		if p == (Period{2024, time.January}) {
			continue
		}
		raw = append(raw, UsageSample{Period: p, KWh: decimal.NewFromInt(1000)})
	}
	series, err := NormalizeSeries(raw)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)

	_, err = TrailingAverage(series, now, DefaultCompletePeriodLag)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTrailingAverage_TooShortSeries(t *testing.T) {
	series := flatSeries(t, Period{2024, time.June}, 5, 1000)
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	_, err := TrailingAverage(series, now, DefaultCompletePeriodLag)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTrailingAverage_EmptySeries(t *testing.T) {
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	_, err := TrailingAverage(nil, now, DefaultCompletePeriodLag)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTrailingAverage_SkipsNotYetFinalMonth(t *testing.T) {
	// 13 months ending at the current month. On the 1st of the month the
	// latest period has not aged past the lag, so the window anchors one
	// month back.
	end := Period{2024, time.July}
	series := flatSeries(t, end, 13, 1000)
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC) // 12h after July ended

	avg, err := TrailingAverage(series, now, DefaultCompletePeriodLag)
	if err != nil {
		t.Fatalf("TrailingAverage: %v", err)
	}
	if avg.WindowEnd != (Period{2024, time.June}) {
		t.Errorf("expected window to anchor at 2024-06, got %v", avg.WindowEnd)
	}

	// A day later July has aged enough and becomes the anchor.
	later := time.Date(2024, 8, 2, 12, 0, 0, 0, time.UTC)
	avg, err = TrailingAverage(series, later, DefaultCompletePeriodLag)
	if err != nil {
		t.Fatalf("TrailingAverage: %v", err)
	}
	if avg.WindowEnd != end {
		t.Errorf("expected window to anchor at 2024-07, got %v", avg.WindowEnd)
	}
}

func TestTrailingAverage_Deterministic(t *testing.T) {
	// Repeated invocations over a fixed series and clock are identical,
	// including the derived target. Uses a rate with awkward decimals to
	// catch any float drift.
	end := Period{2024, time.June}
	raw := make([]UsageSample, 0, 12)
	for i := 11; i >= 0; i-- {
		kwh := decimal.NewFromFloat(987.654).Add(decimal.NewFromInt(int64(i * 13)))
		raw = append(raw, UsageSample{Period: end.AddMonths(-i), KWh: kwh})
	}
	series, err := NormalizeSeries(raw)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	rate, _ := ParseRate("0.132917")

	first, err := TrailingAverage(series, now, DefaultCompletePeriodLag)
	if err != nil {
		t.Fatalf("TrailingAverage: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := TrailingAverage(series, now, DefaultCompletePeriodLag)
		if err != nil {
			t.Fatalf("TrailingAverage run %d: %v", i, err)
		}
		if !again.KWhPerMonth.Equal(first.KWhPerMonth) {
			t.Fatalf("run %d drifted: %s vs %s", i, again.KWhPerMonth, first.KWhPerMonth)
		}
		if again.Target(rate, "c").Amount != first.Target(rate, "c").Amount {
			t.Fatalf("run %d target drifted", i)
		}
	}
}

func TestTrailingAverage_AllZeroUsage(t *testing.T) {
	// A vacant property: zero every month is a valid zero target, not an error.
	end := Period{2024, time.June}
	raw := make([]UsageSample, 0, 12)
	for i := 11; i >= 0; i-- {
		raw = append(raw, UsageSample{Period: end.AddMonths(-i), KWh: decimal.Zero})
	}
	series, err := NormalizeSeries(raw)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)

	avg, err := TrailingAverage(series, now, DefaultCompletePeriodLag)
	if err != nil {
		t.Fatalf("TrailingAverage: %v", err)
	}
	if !avg.KWhPerMonth.IsZero() {
		t.Errorf("expected zero average, got %s", avg.KWhPerMonth)
	}
	rate, _ := ParseRate("0.17754")
	if got := avg.Target(rate, "c").Amount.Cents; got != 0 {
		t.Errorf("expected zero target, got %d cents", got)
	}
}
