package kv

import (
	"context"
	"sync"

	"github.com/japaniel/newsreader/pkg/vocab"
)

// Memory is a process-local slot backend. Values are lost on exit.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, vocab.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Write(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), data...)
	return nil
}
