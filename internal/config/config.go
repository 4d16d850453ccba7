package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dragonmasher/internal/core/types"

	"github.com/goccy/go-yaml"
)

var ErrConfigExists = errors.New("config file already exists")

// LoadConfig loads configuration from a YAML file and applies defaults.
// A missing file is not an error; the defaults are returned instead.
func LoadConfig(configFile string) (*types.Config, error) {
	loaded := &types.Config{}

	if configFile != "" && fileExists(configFile) {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}

		if err := yaml.Unmarshal(data, loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	config := mergeConfig(loaded, types.DefaultConfig())
	expandEnvVars(config)

	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes cfg to configFile as YAML.
func SaveConfig(configFile string, cfg *types.Config) error {
	if configFile == "" {
		return fmt.Errorf("config file path is empty")
	}

	data, err := yaml.MarshalWithOptions(cfg, yaml.Indent(2))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFile, err)
	}
	return nil
}

// WriteDefaultConfig writes the default configuration to configFile. An
// existing file is only replaced when force is set.
func WriteDefaultConfig(configFile string, force bool) error {
	if !force && fileExists(configFile) {
		return fmt.Errorf("%w: %s", ErrConfigExists, configFile)
	}
	cfg := types.DefaultConfig()
	return SaveConfig(configFile, &cfg)
}

// DefaultConfigPath is the per-user config file, e.g. ~/.config/dragonmasher/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "dragonmasher", "config.yaml"), nil
}

// Validate rejects settings that would fail later in a less obvious place.
func Validate(cfg *types.Config) error {
	if cfg.Cache.TTL != "" {
		if d := types.ParseDuration(cfg.Cache.TTL, -1); d < 0 {
			return fmt.Errorf("invalid cache ttl %q", cfg.Cache.TTL)
		}
	}
	if cfg.Download.Timeout != "" {
		if d := types.ParseDuration(cfg.Download.Timeout, -1); d < 0 {
			return fmt.Errorf("invalid download timeout %q", cfg.Download.Timeout)
		}
	}
	for name, src := range cfg.Sources {
		if src.URL == "" {
			continue
		}
		scheme, _, ok := strings.Cut(src.URL, "://")
		if !ok {
			return fmt.Errorf("source %s: url %q has no scheme", name, src.URL)
		}
		switch scheme {
		case "http", "https", "s3", "file":
		default:
			return fmt.Errorf("source %s: unsupported url scheme %q", name, scheme)
		}
	}
	return nil
}

// mergeConfig merges loaded config with defaults, with loaded values taking precedence
func mergeConfig(loaded *types.Config, defaults types.Config) *types.Config {
	result := types.Config{
		Debug: loaded.Debug,
		Log: types.LogConfig{
			Level:   coalesce(loaded.Log.Level, defaults.Log.Level),
			NoColor: loaded.Log.NoColor,
		},
		Cache: types.CacheConfig{
			Enabled: coalescePtr(loaded.Cache.Enabled, defaults.Cache.Enabled),
			Dir:     coalesce(loaded.Cache.Dir, defaults.Cache.Dir),
			Name:    coalesce(loaded.Cache.Name, defaults.Cache.Name),
			TTL:     coalesce(loaded.Cache.TTL, defaults.Cache.TTL),
		},
		Download: types.DownloadConfig{
			RateLimit: coalesce(loaded.Download.RateLimit, defaults.Download.RateLimit),
			Timeout:   coalesce(loaded.Download.Timeout, defaults.Download.Timeout),
			UserAgent: coalesce(loaded.Download.UserAgent, defaults.Download.UserAgent),
			TempDir:   coalesce(loaded.Download.TempDir, defaults.Download.TempDir),
		},
		S3: types.S3Config{
			Region:  coalesce(loaded.S3.Region, defaults.S3.Region),
			Profile: coalesce(loaded.S3.Profile, defaults.S3.Profile),
		},
		Sources: make(map[string]types.SourceConfig),
	}

	if result.Debug {
		result.Log.Level = "debug"
	}
	for name, src := range defaults.Sources {
		result.Sources[strings.ToUpper(name)] = src
	}
	for name, src := range loaded.Sources {
		result.Sources[strings.ToUpper(name)] = src
	}
	return &result
}

// Helper functions to reduce repetitive conditional logic
func coalesce[T comparable](loaded, defaultVal T) T {
	var zero T
	if loaded != zero {
		return loaded
	}
	return defaultVal
}

func coalescePtr[T any](loaded, defaultVal *T) *T {
	if loaded != nil {
		return loaded
	}
	return defaultVal
}

// expandEnvVars expands ${VAR} and $VAR references in credential and path settings
func expandEnvVars(cfg *types.Config) {
	cfg.Cache.Dir = expandPath(cfg.Cache.Dir)
	cfg.Download.TempDir = expandPath(cfg.Download.TempDir)
	cfg.Download.UserAgent = os.ExpandEnv(cfg.Download.UserAgent)
	cfg.S3.Region = os.ExpandEnv(cfg.S3.Region)
	cfg.S3.Profile = os.ExpandEnv(cfg.S3.Profile)
	for name, src := range cfg.Sources {
		src.URL = os.ExpandEnv(src.URL)
		cfg.Sources[name] = src
	}
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ResolveConfigPath resolves a config file path, checking common locations
func ResolveConfigPath(configFile string) string {
	if configFile != "" {
		if filepath.IsAbs(configFile) || fileExists(configFile) {
			return configFile
		}
	}

	commonPaths := []string{
		"dragonmasher.yaml",
		"dragonmasher.yml",
	}
	if path, err := DefaultConfigPath(); err == nil {
		commonPaths = append(commonPaths, path, strings.TrimSuffix(path, ".yaml")+".yml")
	}

	for _, path := range commonPaths {
		if fileExists(path) {
			return path
		}
	}

	return configFile
}
