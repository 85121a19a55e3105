package storage

import (
	"fmt"
	"sync"
)

// MemStore is an in-memory BoundedStore with a byte capacity. Usage is
// accounted as key length plus value length per entry. Safe for concurrent
// use.
type MemStore struct {
	mu    sync.RWMutex
	items map[string]string
	used  int64
	quota int64
}

// NewMemStore creates a MemStore with the given capacity in bytes.
// A non-positive quota gets DefaultQuota.
func NewMemStore(quota int64) *MemStore {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &MemStore{
		items: make(map[string]string),
		quota: quota,
	}
}

// Set stores value under key, or returns ErrQuotaExceeded if the entry would
// push usage past the capacity.
func (m *MemStore) Set(key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := int64(len(key) + len(value))
	used := m.used
	if prev, ok := m.items[key]; ok {
		used -= int64(len(key) + len(prev))
	}
	if used+entry > m.quota {
		return fmt.Errorf("%w: need %d bytes, %d of %d used",
			ErrQuotaExceeded, entry, used, m.quota)
	}

	m.items[key] = value
	m.used = used + entry
	return nil
}

// Get retrieves the value for key, or ErrNotFound.
func (m *MemStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Remove deletes key. Absent keys are a no-op.
func (m *MemStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.items[key]; ok {
		m.used -= int64(len(key) + len(prev))
		delete(m.items, key)
	}
	return nil
}

// Keys returns a snapshot of all stored keys.
func (m *MemStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys, nil
}

// Usage reports used and total capacity in bytes.
func (m *MemStore) Usage() (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used, m.quota, nil
}
