// Package memory provides an in-process usage history reader for tests and
// dry runs.
package memory

import (
	"context"
	"sync"

	"wattbudget/internal/core"
	"wattbudget/internal/meter"
)

type Reader struct {
	mu      sync.Mutex
	samples []core.UsageSample
	err     error
	fetches int
}

var _ meter.UsageHistoryReader = (*Reader)(nil)

func New(samples ...core.UsageSample) *Reader {
	return &Reader{samples: samples}
}

// FailWith makes every subsequent fetch return err.
func (r *Reader) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// FetchUsageHistory normalizes and returns the configured samples.
func (r *Reader) FetchUsageHistory(_ context.Context) (core.UsageSeries, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if r.err != nil {
		return nil, r.err
	}
	return core.NormalizeSeries(r.samples)
}

// Fetches returns how many times the reader was called.
func (r *Reader) Fetches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}
