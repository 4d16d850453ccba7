package cache

import (
	"sync"
	"time"

	"dragonmasher/internal/core/types"
)

// CacheMetrics tracks cache performance and usage statistics
type CacheMetrics struct {
	mu sync.RWMutex

	totalRequests int64
	cacheHits     int64
	cacheMisses   int64
	writes        int64
	evictionCount int64

	totalBytesRead    types.Bytes
	totalBytesWritten types.Bytes
	totalBytesEvicted types.Bytes

	readErrors  int64
	writeErrors int64

	startTime time.Time
}

// NewCacheMetrics creates a new cache metrics tracker
func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{startTime: time.Now()}
}

func (m *CacheMetrics) RecordCacheHit(bytesRead types.Bytes) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	m.cacheHits++
	m.totalBytesRead += bytesRead
}

func (m *CacheMetrics) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	m.cacheMisses++
}

func (m *CacheMetrics) RecordWrite(bytesWritten types.Bytes) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	m.totalBytesWritten += bytesWritten
}

// RecordEviction records an entry dropped because it expired.
func (m *CacheMetrics) RecordEviction(bytesEvicted types.Bytes) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictionCount++
	m.totalBytesEvicted += bytesEvicted
}

func (m *CacheMetrics) RecordReadError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readErrors++
}

func (m *CacheMetrics) RecordWriteError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeErrors++
}

// GetStats returns the counters collected since the store was opened.
func (m *CacheMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hitRatio := float64(0)
	if m.totalRequests > 0 {
		hitRatio = float64(m.cacheHits) / float64(m.totalRequests)
	}

	return Stats{
		Requests:     m.totalRequests,
		Hits:         m.cacheHits,
		Misses:       m.cacheMisses,
		HitRatio:     hitRatio,
		Writes:       m.writes,
		Evictions:    m.evictionCount,
		BytesRead:    m.totalBytesRead,
		BytesWritten: m.totalBytesWritten,
		BytesEvicted: m.totalBytesEvicted,
		ReadErrors:   m.readErrors,
		WriteErrors:  m.writeErrors,
		Uptime:       time.Since(m.startTime),
	}
}

// Stats represents cache usage statistics
type Stats struct {
	Requests     int64         `json:"requests" yaml:"requests"`
	Hits         int64         `json:"hits" yaml:"hits"`
	Misses       int64         `json:"misses" yaml:"misses"`
	HitRatio     float64       `json:"hit_ratio" yaml:"hit_ratio"`
	Writes       int64         `json:"writes" yaml:"writes"`
	Evictions    int64         `json:"evictions" yaml:"evictions"`
	BytesRead    types.Bytes   `json:"bytes_read" yaml:"bytes_read"`
	BytesWritten types.Bytes   `json:"bytes_written" yaml:"bytes_written"`
	BytesEvicted types.Bytes   `json:"bytes_evicted" yaml:"bytes_evicted"`
	ReadErrors   int64         `json:"read_errors" yaml:"read_errors"`
	WriteErrors  int64         `json:"write_errors" yaml:"write_errors"`
	Entries      int           `json:"entries" yaml:"entries"`
	DiskUsage    types.Bytes   `json:"disk_usage" yaml:"disk_usage"`
	Size         types.Bytes   `json:"size" yaml:"size"`
	Uptime       time.Duration `json:"uptime" yaml:"uptime"`
}
