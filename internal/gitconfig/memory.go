package gitconfig

import (
	"context"
	"sync"
)

// Memory is an in-process Identity. The Fail* maps inject errors per key.
type Memory struct {
	mu     sync.Mutex
	values map[string]string

	FailSet   map[string]error
	FailUnset map[string]error
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailSet[key]; err != nil {
		return err
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Unset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailUnset[key]; err != nil {
		return err
	}
	delete(m.values, key)
	return nil
}
