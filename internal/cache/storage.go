package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dragonmasher/internal/core/types"
)

// DiskFileStorage keeps cache values as files under a base directory,
// one subdirectory per namespace.
type DiskFileStorage struct {
	mu       sync.RWMutex
	basePath string
}

// NewDiskFileStorage creates a new disk-based file storage
func NewDiskFileStorage(basePath string) (*DiskFileStorage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &DiskFileStorage{basePath: basePath}, nil
}

func (dfs *DiskFileStorage) BasePath() string {
	return dfs.basePath
}

// getFilePath returns the full path for a value
func (dfs *DiskFileStorage) getFilePath(namespace, key string) string {
	return filepath.Join(dfs.basePath, safeName(namespace), safeName(key)+".json")
}

// safeName keeps namespaces and keys inside their directory.
func safeName(s string) string {
	s = strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}

// WriteFile writes a value atomically via a temp file and rename.
func (dfs *DiskFileStorage) WriteFile(namespace, key string, data []byte) error {
	dfs.mu.Lock()
	defer dfs.mu.Unlock()

	fullPath := dfs.getFilePath(namespace, key)
	return writeAtomic(fullPath, data)
}

func writeAtomic(fullPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// ReadFile returns the stored value; a missing value is fs.ErrNotExist.
func (dfs *DiskFileStorage) ReadFile(namespace, key string) ([]byte, error) {
	dfs.mu.RLock()
	defer dfs.mu.RUnlock()

	data, err := os.ReadFile(dfs.getFilePath(namespace, key))
	if err != nil {
		return nil, fmt.Errorf("failed to read cached value: %w", err)
	}
	return data, nil
}

// Stat returns file info for a stored value.
func (dfs *DiskFileStorage) Stat(namespace, key string) (fs.FileInfo, error) {
	return os.Stat(dfs.getFilePath(namespace, key))
}

// DeleteFile removes a value. Removing a missing value is not an error.
func (dfs *DiskFileStorage) DeleteFile(namespace, key string) error {
	dfs.mu.Lock()
	defer dfs.mu.Unlock()

	fullPath := dfs.getFilePath(namespace, key)
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

// DeleteNamespace removes every stored value of namespace, or of all
// namespaces when it is empty, whether or not the index knows about it.
// Leftover temp files go too. It returns the number of values removed.
func (dfs *DiskFileStorage) DeleteNamespace(namespace string) (int, error) {
	dfs.mu.Lock()
	defer dfs.mu.Unlock()

	dirs := []string{filepath.Join(dfs.basePath, safeName(namespace))}
	if namespace == "" {
		entries, err := os.ReadDir(dfs.basePath)
		if err != nil {
			return 0, fmt.Errorf("failed to list storage directory: %w", err)
		}
		dirs = dirs[:0]
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(dfs.basePath, e.Name()))
			}
		}
	}

	removed := 0
	for _, dir := range dirs {
		files, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, f := range files {
			name := f.Name()
			value := strings.HasSuffix(name, ".json")
			if f.IsDir() || !(value || strings.HasSuffix(name, ".json.tmp")) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
				return removed, fmt.Errorf("failed to delete file %s: %w", name, err)
			}
			if value {
				removed++
			}
		}
	}
	return removed, nil
}

// GetTotalDiskUsage calculates the total disk usage of all files in storage
func (dfs *DiskFileStorage) GetTotalDiskUsage() (types.Bytes, error) {
	dfs.mu.RLock()
	defer dfs.mu.RUnlock()

	var totalSize types.Bytes
	err := filepath.Walk(dfs.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Continue walking even if we can't access a file
			return nil
		}
		if !info.IsDir() {
			totalSize += types.Bytes(info.Size())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to calculate disk usage: %w", err)
	}
	return totalSize, nil
}
