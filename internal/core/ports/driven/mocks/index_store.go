package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// MockIndexStore is an in-memory implementation of IndexStore for testing
type MockIndexStore struct {
	mu        sync.Mutex
	snapshots map[int]*domain.IndexSnapshot
	saveCalls int
	loadCalls int
	failSave  bool
	corrupt   map[int]bool
}

// NewMockIndexStore creates a new MockIndexStore
func NewMockIndexStore() *MockIndexStore {
	return &MockIndexStore{
		snapshots: make(map[int]*domain.IndexSnapshot),
		corrupt:   make(map[int]bool),
	}
}

func (m *MockIndexStore) Save(ctx context.Context, snap *domain.IndexSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.failSave {
		return fmt.Errorf("write failed: %w", domain.ErrPersistence)
	}
	m.snapshots[snap.Year] = snap
	return nil
}

func (m *MockIndexStore) Load(ctx context.Context, year int) (*domain.IndexSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	if m.corrupt[year] {
		return nil, fmt.Errorf("year %d: %w", year, domain.ErrPersistence)
	}
	snap, ok := m.snapshots[year]
	if !ok {
		return nil, fmt.Errorf("year %d: %w", year, domain.ErrIndexNotFound)
	}
	return snap, nil
}

func (m *MockIndexStore) Years(ctx context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	years := make([]int, 0, len(m.snapshots))
	for year := range m.snapshots {
		years = append(years, year)
	}
	for year := range m.corrupt {
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

func (m *MockIndexStore) Delete(ctx context.Context, year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, year)
	delete(m.corrupt, year)
	return nil
}

// Helper methods for testing

// SaveCalls returns how many times Save was invoked
func (m *MockIndexStore) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

// SetFailSave makes Save calls fail
func (m *MockIndexStore) SetFailSave(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = fail
}

// SetCorrupt makes Load for a year fail with ErrPersistence while the year
// still shows up in Years
func (m *MockIndexStore) SetCorrupt(year int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corrupt[year] = true
}
