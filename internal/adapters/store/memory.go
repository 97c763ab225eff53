// Package store provides record store adapters.
// The accumulated set lives in memory only; nothing survives a restart.
package store

import (
	"context"
	"sync"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

var _ ports.RecordStore = (*InMemoryStore)(nil)

// InMemoryStore is an append-only record list.
// The mutex keeps concurrent handlers memory-safe; it does not order
// overlapping ingestions, which append in completion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []entities.Record
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append adds records to the end of the set.
func (s *InMemoryStore) Append(ctx context.Context, records []entities.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// All returns a copy of every record in insertion order.
func (s *InMemoryStore) All(ctx context.Context) ([]entities.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Len returns the number of records held.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Reset removes all records.
func (s *InMemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}
