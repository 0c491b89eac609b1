// Package meter defines the outbound port for utility usage providers and
// the classified error type they surface.
package meter

import (
	"context"
	"errors"
	"fmt"

	"wattbudget/internal/core"
)

// UsageHistoryReader fetches the account's monthly usage history, covering at
// least the trailing 13 calendar months (one month of slack for provider
// publication lag). Implementations return a normalized series: ascending,
// unique periods, non-negative values.
type UsageHistoryReader interface {
	FetchUsageHistory(ctx context.Context) (core.UsageSeries, error)
}

// ErrorClass partitions provider failures by how the run boundary should
// react to them.
type ErrorClass string

const (
	ClassAuthentication     ErrorClass = "authentication"
	ClassRateLimited        ErrorClass = "rate-limited"
	ClassTransientNetwork   ErrorClass = "transient-network"
	ClassUnexpectedResponse ErrorClass = "unexpected-response"
)

// ProviderError wraps a provider failure with its class and the operation
// that produced it. Authentication and unexpected-response are fatal for the
// run; rate-limited and transient-network may be retried at the run boundary.
type ProviderError struct {
	Class ErrorClass
	Op    string
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Op, e.Class)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Op, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewError builds a classified provider error.
func NewError(class ErrorClass, op string, err error) *ProviderError {
	return &ProviderError{Class: class, Op: op, Err: err}
}

// IsRetryable reports whether err is a provider error in a class the run
// boundary may retry with backoff. Everything else fails the run outright.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Class == ClassRateLimited || pe.Class == ClassTransientNetwork
}
