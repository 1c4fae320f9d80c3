package store

import (
	"context"
	"sync"
)

// MemoryBlob is an in-memory Blob implementation for tests and local runs
// without a backing service.
type MemoryBlob struct {
	mu    sync.RWMutex
	data  []byte
	saved bool
}

// NewMemoryBlob creates an empty in-memory blob.
func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{}
}

// Load returns the last saved snapshot, or ErrNoSnapshot before any save.
func (m *MemoryBlob) Load(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.saved {
		return nil, ErrNoSnapshot
	}

	out := make([]byte, len(m.data))
	copy(out, m.data)

	return out, nil
}

// Save replaces the stored snapshot.
func (m *MemoryBlob) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.saved = true

	return nil
}
