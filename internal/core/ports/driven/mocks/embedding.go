package mocks

import (
	"context"
	"hash/fnv"
	"sync"
)

// MockEmbeddingService is a deterministic in-memory EmbeddingService for
// testing. Unknown texts get a hash-derived pseudo-random vector; fixed
// vectors can be pinned per text with SetVector.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	model      string
	failNext   bool
	fixed      map[string][]float32
	embedCalls int
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 8,
		model:      "mock-embedding-model",
		fixed:      make(map[string][]float32),
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.failNext {
		m.failNext = false
		return nil, context.DeadlineExceeded
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.vectorFor(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return nil, context.DeadlineExceeded
	}
	return m.vectorFor(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

func (m *MockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.fixed[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding
}

// Helper methods for testing

// SetVector pins the embedding returned for an exact text
func (m *MockEmbeddingService) SetVector(text string, v []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed[text] = v
	if len(v) > 0 {
		m.dimensions = len(v)
	}
}

// SetDimensions overrides the reported dimensionality
func (m *MockEmbeddingService) SetDimensions(d int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = d
}

// SetFailNext makes the next Embed or EmbedQuery call fail
func (m *MockEmbeddingService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// EmbedCalls returns how many times Embed was invoked
func (m *MockEmbeddingService) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}
