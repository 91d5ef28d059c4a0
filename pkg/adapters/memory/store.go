package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/crudgen/pkg/domain"
)

// Store implements ports.RecordStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Record
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Record),
	}
}

// Insert persists a new record.
func (s *Store) Insert(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; exists {
		return domain.ErrRecordExists
	}
	// Deep copy so later changes to nested maps do not reach the store
	s.data[id] = record.Clone()
	return nil
}

// Update replaces an existing record.
func (s *Store) Update(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return domain.ErrRecordNotFound
	}
	s.data[id] = record.Clone()
	return nil
}

// Remove deletes a record.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return domain.ErrRecordNotFound
	}
	delete(s.data, id)
	return nil
}

// Find retrieves a record from memory.
func (s *Store) Find(ctx context.Context, id string) (domain.Record, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	// Copy on read so callers can't mutate store state through the map
	return record.Clone(), nil
}

// List returns the stored record ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
