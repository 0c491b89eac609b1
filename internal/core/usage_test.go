package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustPeriod(t *testing.T, s string) Period {
	t.Helper()
	p, err := ParsePeriod(s)
	if err != nil {
		t.Fatalf("parse period %q: %v", s, err)
	}
	return p
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in  string
		out Period
		ok  bool
	}{
		{"2024-01", Period{2024, time.January}, true},
		{"2023-12", Period{2023, time.December}, true},
		{"2024-13", Period{}, false},
		{"2024", Period{}, false},
		{"", Period{}, false},
		{"01/2024", Period{}, false},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestPeriodArithmetic(t *testing.T) {
	p := Period{2024, time.January}
	if got := p.Prev(); got != (Period{2023, time.December}) {
		t.Errorf("Prev across year boundary: got %v", got)
	}
	if got := p.AddMonths(-12); got != (Period{2023, time.January}) {
		t.Errorf("AddMonths(-12): got %v", got)
	}
	if got := p.AddMonths(14); got != (Period{2025, time.March}) {
		t.Errorf("AddMonths(14): got %v", got)
	}
	if !p.Before(Period{2024, time.February}) {
		t.Error("2024-01 should be before 2024-02")
	}
	if p.Before(Period{2023, time.December}) {
		t.Error("2024-01 should not be before 2023-12")
	}
	if got := p.NextStart(); !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("NextStart: got %v", got)
	}
}

func TestNormalizeSeries_LastWriteWins(t *testing.T) {
	// Provider resends a corrected figure for the same period; the later
	// value must win.
	raw := []UsageSample{
		{Period: mustPeriod(t, "2024-01"), KWh: decimal.NewFromInt(900)},
		{Period: mustPeriod(t, "2024-02"), KWh: decimal.NewFromInt(950)},
		{Period: mustPeriod(t, "2024-01"), KWh: decimal.NewFromInt(910)},
	}
	series, err := NormalizeSeries(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(series))
	}
	jan, ok := series.At(mustPeriod(t, "2024-01"))
	if !ok {
		t.Fatal("missing 2024-01")
	}
	if !jan.KWh.Equal(decimal.NewFromInt(910)) {
		t.Errorf("expected corrected value 910, got %s", jan.KWh)
	}
}

func TestNormalizeSeries_Ordering(t *testing.T) {
	raw := []UsageSample{
		{Period: mustPeriod(t, "2024-03"), KWh: decimal.NewFromInt(1)},
		{Period: mustPeriod(t, "2023-11"), KWh: decimal.NewFromInt(2)},
		{Period: mustPeriod(t, "2024-01"), KWh: decimal.NewFromInt(3)},
	}
	series, err := NormalizeSeries(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for i := 1; i < len(series); i++ {
		if !series[i-1].Period.Before(series[i].Period) {
			t.Fatalf("series not ascending at %d: %v then %v", i, series[i-1].Period, series[i].Period)
		}
	}
}

func TestNormalizeSeries_RejectsNegative(t *testing.T) {
	raw := []UsageSample{
		{Period: mustPeriod(t, "2024-01"), KWh: decimal.NewFromInt(100)},
		{Period: mustPeriod(t, "2024-02"), KWh: decimal.NewFromInt(-5)},
	}
	_, err := NormalizeSeries(raw)
	if !errors.Is(err, ErrNegativeUsage) {
		t.Fatalf("expected ErrNegativeUsage, got %v", err)
	}
}

func TestNormalizeSeries_ZeroIsValid(t *testing.T) {
	raw := []UsageSample{
		{Period: mustPeriod(t, "2024-01"), KWh: decimal.Zero},
	}
	series, err := NormalizeSeries(raw)
	if err != nil {
		t.Fatalf("zero usage should be valid: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(series))
	}
}
