package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// MockAnswerCache is an in-memory implementation of AnswerCache for testing.
// TTLs are ignored.
type MockAnswerCache struct {
	mu      sync.Mutex
	entries map[string]*domain.QAResult
	hits    int
	misses  int
}

// NewMockAnswerCache creates a new MockAnswerCache
func NewMockAnswerCache() *MockAnswerCache {
	return &MockAnswerCache{
		entries: make(map[string]*domain.QAResult),
	}
}

func (m *MockAnswerCache) Get(ctx context.Context, year int, query string) (*domain.QAResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.entries[cacheKey(year, query)]
	if !ok {
		m.misses++
		return nil, domain.ErrNotFound
	}
	m.hits++
	return res, nil
}

func (m *MockAnswerCache) Set(ctx context.Context, result *domain.QAResult, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(result.Year, result.Query)] = result
	return nil
}

func (m *MockAnswerCache) Close() error {
	return nil
}

// Helper methods for testing

// Hits returns the number of cache hits
func (m *MockAnswerCache) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

// Misses returns the number of cache misses
func (m *MockAnswerCache) Misses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.misses
}

func cacheKey(year int, query string) string {
	return fmt.Sprintf("%d:%s", year, query)
}
