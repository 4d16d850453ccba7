package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dragonmasher/internal/core/types"
)

const indexFileName = "index.json"

// IndexEntry records when a value was last written and how large it is.
type IndexEntry struct {
	Namespace string      `json:"namespace"`
	Key       string      `json:"key"`
	Written   time.Time   `json:"written"`
	Size      types.Bytes `json:"size"`
}

// Index is the persistent record of every value in a DiskStore.
type Index struct {
	mu      sync.RWMutex
	path    string
	entries map[string]IndexEntry
	dirty   bool
}

func indexKey(namespace, key string) string {
	return namespace + "/" + key
}

// LoadIndex reads the index from dir. A missing index is empty.
func LoadIndex(dir string) (*Index, error) {
	idx := &Index{
		path:    filepath.Join(dir, indexFileName),
		entries: make(map[string]IndexEntry),
	}

	data, err := os.ReadFile(idx.path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache index: %w", err)
	}

	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse cache index %s: %w", idx.path, err)
	}
	for _, e := range entries {
		idx.entries[indexKey(e.Namespace, e.Key)] = e
	}
	return idx, nil
}

func (idx *Index) Get(namespace, key string) (IndexEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[indexKey(namespace, key)]
	return e, ok
}

func (idx *Index) Put(e IndexEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[indexKey(e.Namespace, e.Key)] = e
	idx.dirty = true
}

func (idx *Index) Remove(namespace, key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.entries[indexKey(namespace, key)]; ok {
		delete(idx.entries, indexKey(namespace, key))
		idx.dirty = true
	}
}

// Entries returns a snapshot of every entry.
func (idx *Index) Entries() []IndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]IndexEntry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, e)
	}
	return out
}

// Save writes the index if it changed since the last save.
func (idx *Index) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	entries := make([]IndexEntry, 0, len(idx.entries))
	for _, e := range idx.entries {
		entries = append(entries, e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache index: %w", err)
	}
	if err := writeAtomic(idx.path, data); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}
