// Package core holds the usage and money domain types plus the
// trailing-average computation they feed.
package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Money is a currency amount in minor units (cents). All comparisons and
// arithmetic stay in cents; floats appear only at display boundaries.
type Money struct {
	Cents int64
}

// MoneyFromDecimalDollars rounds a decimal dollar amount to cents using
// half-up rounding. Half-up is the fixed rule for every rounding step in this
// program so repeated runs produce identical targets.
func MoneyFromDecimalDollars(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// ParseRate parses a positive decimal rate string such as "0.17754".
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: rate must be positive, got %s", ErrInvalidAmount, d)
	}
	return d, nil
}

// Dollars returns the dollar value as a float64 for display purposes.
// Use cents for all calculations.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

// Validate rejects negative amounts. Zero is a valid target (a vacant
// property can average zero usage).
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
