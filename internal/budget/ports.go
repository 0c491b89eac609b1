// Package budget defines the outbound ports for budgeting backends and the
// classified error type they surface.
package budget

import (
	"context"
	"errors"
	"fmt"

	"wattbudget/internal/core"
)

type (
	// TargetReader fetches a category's current monthly target. known is
	// false when the backend has no target set for the category yet.
	TargetReader interface {
		CurrentTarget(ctx context.Context, categoryID string) (amount core.Money, known bool, err error)
	}

	// TargetWriter asserts a category's monthly target. The note is a
	// human-readable provenance line shown next to the target.
	TargetWriter interface {
		SetTarget(ctx context.Context, categoryID string, amount core.Money, note string) error
	}

	// Backend is a budgeting system that supports the full compare-then-write
	// publish protocol.
	Backend interface {
		TargetReader
		TargetWriter
	}
)

// ErrorClass partitions budgeting system failures.
type ErrorClass string

const (
	ClassAuthentication     ErrorClass = "authentication"
	ClassRateLimited        ErrorClass = "rate-limited"
	ClassTransientNetwork   ErrorClass = "transient-network"
	ClassUnexpectedResponse ErrorClass = "unexpected-response"
	// ClassNotFound means the category does not exist. Fatal, never retried.
	ClassNotFound ErrorClass = "not-found"
)

// SystemError wraps a budgeting backend failure with its class.
type SystemError struct {
	Class ErrorClass
	Op    string
	Err   error
}

func (e *SystemError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("budget %s: %s", e.Op, e.Class)
	}
	return fmt.Sprintf("budget %s: %s: %v", e.Op, e.Class, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }

func NewError(class ErrorClass, op string, err error) *SystemError {
	return &SystemError{Class: class, Op: op, Err: err}
}

// IsRetryable reports whether err is a transient backend failure the
// publisher may retry once before surfacing.
func IsRetryable(err error) bool {
	var se *SystemError
	if !errors.As(err, &se) {
		return false
	}
	return se.Class == ClassRateLimited || se.Class == ClassTransientNetwork
}

// IsNotFound reports whether err means the category does not exist.
func IsNotFound(err error) bool {
	var se *SystemError
	return errors.As(err, &se) && se.Class == ClassNotFound
}
