package kv

import (
	"context"
	"sync"
)

// Memory keeps values in process. A positive quota caps the summed size of
// keys and values, mirroring the few-megabyte limit of browser storage.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
}

func NewMemory(quotaBytes int) *Memory {
	return &Memory{
		values: make(map[string]string),
		quota:  quotaBytes,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		used := 0
		for k, v := range m.values {
			if k == key {
				continue
			}
			used += len(k) + len(v)
		}
		if used+len(key)+len(value) > m.quota {
			return ErrQuotaExceeded
		}
	}

	m.values[key] = value
	return nil
}

func (m *Memory) Close() error {
	return nil
}
