package mocks

import (
	"context"
	"sync"
)

// MockLLMService is a mock implementation of LLMService for testing.
// By default it echoes the prompt back; a fixed response or a response
// function can be set instead.
type MockLLMService struct {
	mu        sync.Mutex
	model     string
	failNext  bool
	response  string
	responder func(prompt string) string
	prompts   []string
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		model: "mock-llm-model",
	}
}

func (m *MockLLMService) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.failNext {
		m.failNext = false
		return "", context.DeadlineExceeded
	}
	if m.responder != nil {
		return m.responder(prompt), nil
	}
	if m.response != "" {
		return m.response, nil
	}
	return prompt, nil
}

func (m *MockLLMService) Model() string {
	return m.model
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Helper methods for testing

// SetResponse makes Complete return a fixed string
func (m *MockLLMService) SetResponse(resp string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = resp
}

// SetResponder makes Complete derive its output from the prompt
func (m *MockLLMService) SetResponder(fn func(prompt string) string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// SetFailNext makes the next Complete call fail
func (m *MockLLMService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// Prompts returns every prompt Complete received
func (m *MockLLMService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
