package mocks

import (
	"context"
	"fmt"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
)

// MockDocumentLoader is a mock implementation of DocumentLoader for testing
type MockDocumentLoader struct {
	pages map[string][]driven.PageText
}

// NewMockDocumentLoader creates a new MockDocumentLoader
func NewMockDocumentLoader() *MockDocumentLoader {
	return &MockDocumentLoader{
		pages: make(map[string][]driven.PageText),
	}
}

func (m *MockDocumentLoader) Load(ctx context.Context, path string) ([]driven.PageText, error) {
	pages, ok := m.pages[path]
	if !ok {
		return nil, fmt.Errorf("no such file %s: %w", path, domain.ErrNotFound)
	}
	return pages, nil
}

// SetPages registers the pages returned for a path
func (m *MockDocumentLoader) SetPages(path string, pages []driven.PageText) {
	m.pages[path] = pages
}
