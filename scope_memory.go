package auth

import (
	"context"
	"sync"
)

// MemoryScope is the transient session scope: process-lifetime only,
// shared by nothing outside this client.
type MemoryScope struct {
	mu    sync.RWMutex
	value []byte
}

var _ SessionScope = (*MemoryScope)(nil)

// NewMemoryScope returns an empty transient scope.
func NewMemoryScope() *MemoryScope {
	return &MemoryScope{}
}

func (m *MemoryScope) Get(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.value == nil {
		return nil, ErrSessionNotFound
	}

	out := make([]byte, len(m.value))
	copy(out, m.value)
	return out, nil
}

func (m *MemoryScope) Set(ctx context.Context, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = make([]byte, len(value))
	copy(m.value, value)
	return nil
}

func (m *MemoryScope) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = nil
	return nil
}
