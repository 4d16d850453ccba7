package cache

import (
	"slices"
	"sync"

	"dragonmasher/internal/core/types"
)

// MemoryStore is a map-backed Store that never expires anything.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string][]byte
	metrics *CacheMetrics
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string][]byte),
		metrics: NewCacheMetrics(),
	}
}

func (m *MemoryStore) Get(namespace, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[indexKey(namespace, key)]
	if !ok {
		m.metrics.RecordCacheMiss()
		return nil, false, nil
	}
	m.metrics.RecordCacheHit(types.Bytes(len(v)))
	return slices.Clone(v), true, nil
}

func (m *MemoryStore) Set(namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[indexKey(namespace, key)] = slices.Clone(value)
	m.metrics.RecordWrite(types.Bytes(len(value)))
	return nil
}

func (m *MemoryStore) Delete(namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, indexKey(namespace, key))
	return nil
}

func (m *MemoryStore) Sync() error {
	return nil
}

func (m *MemoryStore) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := m.metrics.GetStats()
	stats.Entries = len(m.values)
	for _, v := range m.values {
		stats.Size += types.Bytes(len(v))
	}
	return stats
}
