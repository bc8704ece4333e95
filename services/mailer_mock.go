package services

import (
	"context"
	"sync"
)

// MockMailer captures outbound mail instead of sending it
type MockMailer struct {
	Err error

	mu   sync.Mutex
	sent []OutboundEmail
}

// NewMockMailer creates a mailer that accepts everything
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// SetAsMockForTesting sets this mock as the global mailer
func (m *MockMailer) SetAsMockForTesting() {
	SetMailer(m)
}

func (m *MockMailer) Send(ctx context.Context, email OutboundEmail) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

// Sent returns the delivered emails in order
func (m *MockMailer) Sent() []OutboundEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OutboundEmail, len(m.sent))
	copy(out, m.sent)
	return out
}
