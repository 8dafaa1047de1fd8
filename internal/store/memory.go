package store

import (
	"bytes"
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory is a process-local Store. Contents are lost on exit.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[name]
	if !ok {
		return nil, ErrNotExist
	}
	return bytes.Clone(data), nil
}

func (m *Memory) Replace(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[name] = bytes.Clone(data)
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}
