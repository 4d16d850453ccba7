// Package cache persists processed source data between runs. Values are
// addressed by namespace and key and expire a fixed time after their last write.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"dragonmasher/internal/core/types"
)

// Store is the keyed cache a source persists its processed data in.
type Store interface {
	// Get returns the value and true, or false when the value is absent or expired.
	Get(namespace, key string) ([]byte, bool, error)
	Set(namespace, key string, value []byte) error
	Delete(namespace, key string) error
	// Sync flushes pending index changes to durable storage.
	Sync() error
	Stats() Stats
}

type Option func(*DiskStore)

// WithClock replaces time.Now, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *DiskStore) {
		s.now = now
	}
}

// DiskStore keeps values as JSON files under a base directory with a
// persistent index of write times and sizes.
type DiskStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	storage *DiskFileStorage
	index   *Index
	metrics *CacheMetrics
}

// NewDiskStore opens (creating if needed) a cache under dir. A zero ttl disables expiry.
func NewDiskStore(dir string, ttl time.Duration, opts ...Option) (*DiskStore, error) {
	storage, err := NewDiskFileStorage(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file storage: %w", err)
	}
	index, err := LoadIndex(dir)
	if err != nil {
		return nil, err
	}

	s := &DiskStore{
		ttl:     ttl,
		now:     time.Now,
		storage: storage,
		index:   index,
		metrics: NewCacheMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewDiskStoreFromConfig opens the store described by the cache config.
func NewDiskStoreFromConfig(cfg types.CacheConfig) (*DiskStore, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = types.DefaultCacheDir()
	}
	return NewDiskStore(dir, cfg.TTLDuration())
}

func (s *DiskStore) Dir() string {
	return s.storage.BasePath()
}

func (s *DiskStore) expired(e IndexEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.Written) >= s.ttl
}

func (s *DiskStore) Get(namespace, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index.Get(namespace, key)
	if !ok {
		// Values written before the index was lost fall back to their mtime.
		info, err := s.storage.Stat(namespace, key)
		if err != nil {
			s.metrics.RecordCacheMiss()
			return nil, false, nil
		}
		entry = IndexEntry{Namespace: namespace, Key: key, Written: info.ModTime(), Size: types.Bytes(info.Size())}
		s.index.Put(entry)
	}

	if s.expired(entry) {
		if err := s.evict(entry); err != nil {
			return nil, false, err
		}
		s.metrics.RecordCacheMiss()
		return nil, false, nil
	}

	data, err := s.storage.ReadFile(namespace, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.index.Remove(namespace, key)
			s.metrics.RecordCacheMiss()
			return nil, false, nil
		}
		s.metrics.RecordReadError()
		return nil, false, err
	}
	s.metrics.RecordCacheHit(types.Bytes(len(data)))
	return data, true, nil
}

func (s *DiskStore) Set(namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.WriteFile(namespace, key, value); err != nil {
		s.metrics.RecordWriteError()
		return err
	}
	s.index.Put(IndexEntry{
		Namespace: namespace,
		Key:       key,
		Written:   s.now(),
		Size:      types.Bytes(len(value)),
	})
	s.metrics.RecordWrite(types.Bytes(len(value)))
	return nil
}

func (s *DiskStore) Delete(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.DeleteFile(namespace, key); err != nil {
		return err
	}
	s.index.Remove(namespace, key)
	return nil
}

func (s *DiskStore) Sync() error {
	return s.index.Save()
}

// Entries lists the live entries of namespace (all namespaces when empty), sorted by key.
func (s *DiskStore) Entries(namespace string) []IndexEntry {
	var out []IndexEntry
	for _, e := range s.index.Entries() {
		if namespace != "" && e.Namespace != namespace {
			continue
		}
		if s.expired(e) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Purge drops every expired entry and returns how many were removed.
func (s *DiskStore) Purge() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, e := range s.index.Entries() {
		if !s.expired(e) {
			continue
		}
		if err := s.evict(e); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, s.index.Save()
}

// Clear removes every entry in namespace (all namespaces when empty),
// including values the index has lost track of.
func (s *DiskStore) Clear(namespace string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.index.Entries() {
		if namespace == "" || e.Namespace == namespace {
			s.index.Remove(e.Namespace, e.Key)
		}
	}
	removed, err := s.storage.DeleteNamespace(namespace)
	if err != nil {
		return removed, err
	}
	return removed, s.index.Save()
}

// evict is called with s.mu held.
func (s *DiskStore) evict(e IndexEntry) error {
	if err := s.storage.DeleteFile(e.Namespace, e.Key); err != nil {
		return err
	}
	s.index.Remove(e.Namespace, e.Key)
	s.metrics.RecordEviction(e.Size)
	return nil
}

func (s *DiskStore) Stats() Stats {
	stats := s.metrics.GetStats()
	for _, e := range s.index.Entries() {
		if s.expired(e) {
			continue
		}
		stats.Entries++
		stats.Size += e.Size
	}
	// index.json included
	if usage, err := s.storage.GetTotalDiskUsage(); err == nil {
		stats.DiskUsage = usage
	}
	return stats
}
