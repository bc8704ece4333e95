package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockArchiveService is an in-memory ArchiveService for testing
type MockArchiveService struct {
	Err error

	objects map[string][]byte // key -> JSON payload
	mu      sync.RWMutex
}

// NewMockArchiveService creates an empty mock archive
func NewMockArchiveService() *MockArchiveService {
	return &MockArchiveService{objects: make(map[string][]byte)}
}

// SetAsMockForTesting sets this mock as the global archive
func (m *MockArchiveService) SetAsMockForTesting() {
	SetArchiveService(m)
}

// ArchiveInbound stores the payload under a real archive key
func (m *MockArchiveService) ArchiveInbound(ctx context.Context, merchantID uint, email InboundEmail) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	content, err := json.Marshal(email)
	if err != nil {
		return "", err
	}

	key := ArchiveKey(merchantID, time.Now(), uuid.New())
	m.mu.Lock()
	m.objects[key] = content
	m.mu.Unlock()
	return key, nil
}

// Objects returns a copy of everything archived
func (m *MockArchiveService) Objects() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		objects[k] = v
	}
	return objects
}

// Exists checks if key was archived
func (m *MockArchiveService) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}
