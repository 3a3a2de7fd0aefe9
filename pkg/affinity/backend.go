package affinity

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound reports that a backend has no value stored yet.
var ErrNotFound = errors.New("affinity: no stored value")

// Backend is one persistence mechanism for the raw score text.
type Backend interface {
	Name() string
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, value string) error
}

// MemoryBackend keeps the score in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	value string
	set   bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Load(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return "", ErrNotFound
	}
	return m.value, nil
}

func (m *MemoryBackend) Save(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.set = true
	return nil
}
