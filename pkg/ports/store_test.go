package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/aretw0/crudgen/pkg/ports"
)

// MockStore is a minimal RecordStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.Record
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Record),
	}
}

func (m *MockStore) Insert(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; ok {
		return domain.ErrRecordExists
	}
	m.data[id] = record.Clone()
	return nil
}

func (m *MockStore) Update(ctx context.Context, id string, record domain.Record) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return domain.ErrRecordNotFound
	}
	m.data[id] = record.Clone()
	return nil
}

func (m *MockStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(m.data, id)
	return nil
}

func (m *MockStore) Find(ctx context.Context, id string) (domain.Record, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.data[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record.Clone(), nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestRecordStore_Contract(t *testing.T) {
	ports.RunRecordStoreContract(t, NewMockStore())
}
