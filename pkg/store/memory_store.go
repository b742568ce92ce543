package store

import (
	"context"
	"sync"
)

// MemoryStore keeps collections in-process. Used by tests and as a throwaway
// backend for local experiments.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]byte)}
}

// Load returns a copy of the stored payload.
func (m *MemoryStore) Load(_ context.Context, collection string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.collections[collection]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Save replaces the collection payload.
func (m *MemoryStore) Save(_ context.Context, collection string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.collections[collection] = stored
	return nil
}
