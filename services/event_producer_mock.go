package services

import (
	"context"
	"sync"
)

// MockEventProducer records published ticket events for testing
type MockEventProducer struct {
	mu     sync.Mutex
	events []TicketEvent
}

// NewMockEventProducer creates an empty recorder
func NewMockEventProducer() *MockEventProducer {
	return &MockEventProducer{}
}

// SetAsMockForTesting sets this mock as the global event producer
func (m *MockEventProducer) SetAsMockForTesting() {
	SetEventProducer(m)
}

func (m *MockEventProducer) PublishTicketEvent(ctx context.Context, event TicketEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockEventProducer) Close() error {
	return nil
}

// Events returns the published events in order
func (m *MockEventProducer) Events() []TicketEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TicketEvent, len(m.events))
	copy(out, m.events)
	return out
}

// EventNames returns just the event names in order
func (m *MockEventProducer) EventNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.events))
	for _, e := range m.events {
		names = append(names, e.Event)
	}
	return names
}
