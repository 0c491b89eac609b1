// Package backend selects and constructs the budget backend from
// configuration.
package backend

import (
	"context"

	"wattbudget/internal/budget"
	"wattbudget/internal/config"
)

// CleanupFunc releases backend resources. May be nil.
type CleanupFunc func() error

// Result contains the backend instance and optional cleanup function.
type Result struct {
	Backend budget.Backend
	Cleanup CleanupFunc
}

// Factory creates budget backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, cfg *config.Config) (*Result, error)
}

// Type represents the kind of budget backend.
type Type string

const (
	YNABBackend   Type = "ynab"
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case YNABBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
