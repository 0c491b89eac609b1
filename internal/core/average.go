package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientData means the trailing window could not be filled with 12
// consecutive monthly samples. A shorter window is never substituted: an
// average over fewer months is not a trailing-12-month figure and must not be
// published as one.
var ErrInsufficientData = errors.New("insufficient usage data for trailing window")

// WindowMonths is the size of the trailing window.
const WindowMonths = 12

// DefaultCompletePeriodLag is how long past a month's end the provider is
// given to finalize that month's figure. SMT exposes no finality flag, so the
// most recent month only becomes eligible once this lag has elapsed.
const DefaultCompletePeriodLag = 24 * time.Hour

type (
	// UsageAverage is the trailing-12-month mean, computed once per run and
	// consumed immediately. SampleCount is always WindowMonths on success.
	UsageAverage struct {
		KWhPerMonth decimal.Decimal
		WindowStart Period
		WindowEnd   Period
		SampleCount int
	}

	// BudgetTarget is the desired state to assert into the budgeting system.
	BudgetTarget struct {
		Amount     Money
		CategoryID string
	}
)

// LatestCompletePeriod picks the most recent period in the series that is
// eligible to anchor the window: its month must have ended at least lag ago.
// A not-yet-final current month is skipped rather than averaged, since
// partial-month data would skew the result low.
func LatestCompletePeriod(series UsageSeries, now time.Time, lag time.Duration) (Period, error) {
	if lag <= 0 {
		lag = DefaultCompletePeriodLag
	}
	latest, ok := series.Latest()
	if !ok {
		return Period{}, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	earliest := series[0].Period
	p := latest.Period
	for now.Before(p.NextStart().Add(lag)) {
		if p.Before(earliest) {
			return Period{}, fmt.Errorf("%w: no complete period on or before %s", ErrInsufficientData, latest.Period)
		}
		p = p.Prev()
	}
	return p, nil
}

// TrailingAverage computes the trailing-12-month mean ending at the latest
// complete period. Every one of the 12 calendar-month slots must have a
// sample; any gap fails with ErrInsufficientData naming the missing month.
// The mean is exact decimal arithmetic, so the result is deterministic for a
// fixed series regardless of how often it is recomputed.
func TrailingAverage(series UsageSeries, now time.Time, lag time.Duration) (UsageAverage, error) {
	end, err := LatestCompletePeriod(series, now, lag)
	if err != nil {
		return UsageAverage{}, err
	}
	start := end.AddMonths(-(WindowMonths - 1))

	sum := decimal.Zero
	for p := start; !end.Before(p); p = p.Next() {
		sample, ok := series.At(p)
		if !ok {
			return UsageAverage{}, fmt.Errorf("%w: missing sample for %s in window %s..%s",
				ErrInsufficientData, p, start, end)
		}
		sum = sum.Add(sample.KWh)
	}

	return UsageAverage{
		KWhPerMonth: sum.Div(decimal.NewFromInt(WindowMonths)),
		WindowStart: start,
		WindowEnd:   end,
		SampleCount: WindowMonths,
	}, nil
}

// Target converts the average into a monthly budget amount at the given
// $/kWh rate, rounding half-up to cents.
func (a UsageAverage) Target(rate decimal.Decimal, categoryID string) BudgetTarget {
	return BudgetTarget{
		Amount:     MoneyFromDecimalDollars(a.KWhPerMonth.Mul(rate)),
		CategoryID: categoryID,
	}
}
