package storage

import (
	"slices"
	"sync"

	"github.com/starford/stash/internal/apperr"
)

// Memory is a process-local Provider, used by tests and dry runs.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
	// FailPut, when set, is returned by every Put.
	FailPut error
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return m.FailPut
	}
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Close() error { return nil }
