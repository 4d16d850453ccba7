package source

import (
	"strings"

	"dragonmasher/internal/cache"
	"dragonmasher/internal/core/types"
)

// ConfigOptions turns the loaded configuration into options for the named
// source: cache settings, temp dir and any per-source url or encoding override.
func ConfigOptions(cfg *types.Config, name string) []Option {
	opts := []Option{
		WithCaching(cfg.Cache.CachingEnabled()),
		WithTTL(cfg.Cache.TTLDuration()),
	}
	if cfg.Cache.Name != "" {
		opts = append(opts, WithNamespace(cfg.Cache.Name))
	}
	if cfg.Download.TempDir != "" {
		opts = append(opts, WithTempDir(cfg.Download.TempDir))
	}
	if sc, ok := cfg.Sources[strings.ToUpper(name)]; ok {
		opts = append(opts, WithURL(sc.URL), WithEncoding(sc.Encoding))
	}
	return opts
}

// Open looks up name in the catalog and builds a source from it, sharing
// store and fetcher across sources.
func Open(cfg *types.Config, name string, store cache.Store, fetcher Fetcher, extra ...Option) (*Source, error) {
	desc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	opts := ConfigOptions(cfg, desc.Name)
	if store != nil {
		opts = append(opts, WithStore(store))
	}
	if fetcher != nil {
		opts = append(opts, WithFetcher(fetcher))
	}
	return New(desc, append(opts, extra...)...)
}
