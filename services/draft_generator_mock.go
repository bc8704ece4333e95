package services

import (
	"context"
	"sync"
)

// MockDraftGenerator is a mock implementation of DraftGenerator for testing
type MockDraftGenerator struct {
	Response string
	Err      error

	mu       sync.Mutex
	requests []DraftRequest
}

// NewMockDraftGenerator returns a generator that always answers with response
func NewMockDraftGenerator(response string) *MockDraftGenerator {
	return &MockDraftGenerator{Response: response}
}

// SetAsMockForTesting sets this mock as the global draft generator
func (m *MockDraftGenerator) SetAsMockForTesting() {
	SetDraftGenerator(m)
}

// GenerateDraft records the request and returns the canned response or error
func (m *MockDraftGenerator) GenerateDraft(ctx context.Context, req DraftRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Requests returns the draft requests seen so far
func (m *MockDraftGenerator) Requests() []DraftRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DraftRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
