// Package memory provides an in-process budget backend for tests and dry
// runs. It counts writes so idempotence is observable.
package memory

import (
	"context"
	"sync"

	"wattbudget/internal/budget"
	"wattbudget/internal/core"
)

type Store struct {
	mu      sync.Mutex
	targets map[string]core.Money
	notes   map[string]string
	writes  int

	readErr  error
	writeErr error
}

var _ budget.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		targets: make(map[string]core.Money),
		notes:   make(map[string]string),
	}
}

// Seed sets a category's current target without counting as a write.
func (s *Store) Seed(categoryID string, amount core.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[categoryID] = amount
}

// FailReadsWith makes CurrentTarget return err.
func (s *Store) FailReadsWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWritesWith makes SetTarget return err.
func (s *Store) FailWritesWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *Store) CurrentTarget(_ context.Context, categoryID string) (core.Money, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return core.Money{}, false, s.readErr
	}
	amount, ok := s.targets[categoryID]
	return amount, ok, nil
}

func (s *Store) SetTarget(_ context.Context, categoryID string, amount core.Money, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.targets[categoryID] = amount
	s.notes[categoryID] = note
	s.writes++
	return nil
}

// Writes returns how many effective writes were issued.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Note returns the last note written for a category.
func (s *Store) Note(categoryID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes[categoryID]
}
