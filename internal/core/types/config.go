package types

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultCacheName is the cache namespace shared by all sources.
	DefaultCacheName = "dragonmasher"
	// DefaultCacheTTL keeps processed sources for 140 days.
	DefaultCacheTTL = "3360h"
	// DefaultUserAgent is sent with every HTTP download.
	DefaultUserAgent = "dragonmasher/0.1 (+https://github.com/tsroten/dragonmasher)"
)

// Config is the top-level configuration structure
type Config struct {
	Debug    bool                    `yaml:"debug"`
	Log      LogConfig               `yaml:"log"`
	Cache    CacheConfig             `yaml:"cache"`
	Download DownloadConfig          `yaml:"download"`
	S3       S3Config                `yaml:"s3"`
	Sources  map[string]SourceConfig `yaml:"sources"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level   string `yaml:"level"`    // debug, info, warn, error
	NoColor bool   `yaml:"no_color"` // disable ANSI colours even on a terminal
}

// CacheConfig holds settings for the processed-data cache
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled"` // nil means enabled
	Dir     string `yaml:"dir"`     // base directory for cache files
	Name    string `yaml:"name"`    // namespace shared by all sources
	TTL     string `yaml:"ttl"`     // how long processed data stays valid
}

// DownloadConfig holds settings for remote source acquisition
type DownloadConfig struct {
	RateLimit Bytes  `yaml:"rate_limit"` // bytes per second, 0 = unlimited
	Timeout   string `yaml:"timeout"`    // per download, empty = none
	UserAgent string `yaml:"user_agent"`
	TempDir   string `yaml:"temp_dir"` // parent of per-source temp dirs, empty = os.TempDir
}

// S3Config holds credentials lookup for s3:// mirrors
type S3Config struct {
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// SourceConfig overrides catalog defaults for one source
type SourceConfig struct {
	URL      string `yaml:"url"`      // mirror URL (http, https, s3 or file scheme)
	Encoding string `yaml:"encoding"` // e.g. utf-8, gb18030, big5
}

// CachingEnabled reports whether processed data should be cached.
func (c CacheConfig) CachingEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TTLDuration returns the parsed cache TTL.
func (c CacheConfig) TTLDuration() time.Duration {
	return ParseDuration(c.TTL, ParseDuration(DefaultCacheTTL, 0))
}

// TimeoutDuration returns the parsed download timeout (0 = none).
func (d DownloadConfig) TimeoutDuration() time.Duration {
	return ParseDuration(d.Timeout, 0)
}

// ParseDuration parses a duration string with fallback to default
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	if dur, err := time.ParseDuration(durationStr); err == nil {
		return dur
	}
	return defaultDuration
}

// DefaultCacheDir returns the per-user cache directory for dragonmasher.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, DefaultCacheName)
	}
	return filepath.Join(os.TempDir(), DefaultCacheName)
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() Config {
	enabled := true
	return Config{
		Log: LogConfig{
			Level: "info",
		},
		Cache: CacheConfig{
			Enabled: &enabled,
			Dir:     DefaultCacheDir(),
			Name:    DefaultCacheName,
			TTL:     DefaultCacheTTL,
		},
		Download: DownloadConfig{
			UserAgent: DefaultUserAgent,
		},
		Sources: make(map[string]SourceConfig),
	}
}
