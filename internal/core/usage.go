package core

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeUsage = errors.New("negative usage value")
	ErrInvalidPeriod = errors.New("invalid period")
)

type (
	// Period identifies a calendar month.
	Period struct {
		Year  int
		Month time.Month
	}

	// UsageSample is one month of metered consumption.
	UsageSample struct {
		Period Period
		KWh    decimal.Decimal
	}

	// UsageSeries is ordered by period ascending with unique periods.
	// Months may be missing; contiguity is not guaranteed.
	UsageSeries []UsageSample
)

// PeriodOf returns the calendar month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a period in "2006-01" form.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return PeriodOf(t), nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns the first instant of the month in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// NextStart returns the first instant of the following month in UTC.
// The month's usage figure covers everything strictly before this point.
func (p Period) NextStart() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// AddMonths returns the period n calendar months after p (n may be negative).
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.Start().AddDate(0, n, 0))
}

func (p Period) Prev() Period { return p.AddMonths(-1) }
func (p Period) Next() Period { return p.AddMonths(1) }

func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) Validate() error {
	if p.Year < 1900 || p.Year > 3000 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, int(p.Month))
	}
	return nil
}

func (s UsageSample) Validate() error {
	if err := s.Period.Validate(); err != nil {
		return err
	}
	if s.KWh.IsNegative() {
		return fmt.Errorf("%w: %s kWh for %s", ErrNegativeUsage, s.KWh, s.Period)
	}
	return nil
}

// NormalizeSeries validates raw provider samples and produces a canonical series:
// periods ascending, duplicates resolved last-write-wins (providers resend
// corrected figures for a period). A negative value or invalid period fails the
// whole series rather than dropping the sample.
func NormalizeSeries(raw []UsageSample) (UsageSeries, error) {
	byPeriod := make(map[Period]decimal.Decimal, len(raw))
	for _, s := range raw {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		byPeriod[s.Period] = s.KWh
	}
	out := make(UsageSeries, 0, len(byPeriod))
	for p, kwh := range byPeriod {
		out = append(out, UsageSample{Period: p, KWh: kwh})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

// Latest returns the most recent sample, or false for an empty series.
func (s UsageSeries) Latest() (UsageSample, bool) {
	if len(s) == 0 {
		return UsageSample{}, false
	}
	return s[len(s)-1], true
}

// At returns the sample for period p, or false if the month is missing.
func (s UsageSeries) At(p Period) (UsageSample, bool) {
	for _, sample := range s {
		if sample.Period == p {
			return sample, true
		}
	}
	return UsageSample{}, false
}
