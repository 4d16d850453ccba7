// Package cli wires configuration, cache and downloads together behind the
// commands of the dragonmasher binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"dragonmasher/internal/cache"
	"dragonmasher/internal/core/logger"
	"dragonmasher/internal/core/tracker"
	"dragonmasher/internal/core/types"
	"dragonmasher/internal/dataset"
	"dragonmasher/internal/provider"
	"dragonmasher/internal/source"

	"github.com/goccy/go-yaml"
)

var ErrKeyNotFound = errors.New("key not found")

type Option func(*App)

// WithStore replaces the disk cache named by the configuration.
func WithStore(store cache.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

func WithFetcher(f source.Fetcher) Option {
	return func(a *App) {
		a.fetcher = f
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}

// WithListener reports download progress to l.
func WithListener(l tracker.Listener) Option {
	return func(a *App) {
		a.listener = l
	}
}

// App runs source operations with shared configuration, cache and downloader.
type App struct {
	cfg      *types.Config
	log      *logger.Logger
	store    cache.Store
	fetcher  source.Fetcher
	listener tracker.Listener
}

func New(cfg *types.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.NewLogger(logger.WithLevel(logger.ParseLevel(cfg.Log.Level)))
	}
	if a.store == nil {
		store, err := cache.NewDiskStoreFromConfig(cfg.Cache)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	if a.fetcher == nil {
		a.fetcher = provider.NewRegistry(provider.ConfigFromTypes(cfg),
			provider.WithListener(a.listener), provider.WithLogger(a.log.Named("provider")))
	}
	return a, nil
}

func (a *App) Store() cache.Store {
	return a.store
}

// Open builds the named source without acquiring it.
func (a *App) Open(name string) (*source.Source, error) {
	return source.Open(a.cfg, name, a.store, a.fetcher, source.WithLogger(a.log.Named("source")))
}

// Load acquires and parses the named source.
func (a *App) Load(ctx context.Context, name string, force bool) (*source.Source, error) {
	src, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	if err := src.Acquire(ctx, force); err != nil {
		return nil, err
	}
	if err := src.Parse(ctx); err != nil {
		src.Close()
		return nil, err
	}
	return src, nil
}

// LoadAll loads each named source in order, stopping at the first failure.
func (a *App) LoadAll(ctx context.Context, names []string, force bool) ([]*source.Source, error) {
	sources := make([]*source.Source, 0, len(names))
	for _, name := range names {
		src, err := a.Load(ctx, name, force)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Mash loads the named sources and merges them in order.
func (a *App) Mash(ctx context.Context, names []string, annotate bool) (dataset.Dataset, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("mash needs at least two sources: %w", dataset.ErrInvalidArgument)
	}
	sources, err := a.LoadAll(ctx, names, false)
	if err != nil {
		return nil, err
	}
	providers := make([]dataset.Provider, len(sources))
	for i, src := range sources {
		providers[i] = src
	}
	data, err := dataset.Mash(providers, dataset.WithAnnotate(annotate))
	if err != nil {
		return nil, err
	}
	a.log.Info("mashed", "sources", strings.Join(names, ","), "keys", len(data))
	return data, nil
}

// Show returns the record stored under key in the named source.
func (a *App) Show(ctx context.Context, name, key string) (dataset.Record, error) {
	src, err := a.Load(ctx, name, false)
	if err != nil {
		return nil, err
	}
	rec, ok := src.Data()[key]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", src.Name(), key, ErrKeyNotFound)
	}
	return rec, nil
}

// SourceInfo describes a catalog entry and its cache state.
type SourceInfo struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind" yaml:"kind"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Cached      bool   `json:"cached" yaml:"cached"`
}

// Sources lists the catalog with configured url overrides applied.
func (a *App) Sources() []SourceInfo {
	infos := make([]SourceInfo, 0)
	for _, desc := range source.Catalog() {
		info := SourceInfo{
			Name:        desc.Name,
			Kind:        desc.Kind(),
			Description: desc.Description,
			URL:         desc.URL,
		}
		if sc, ok := a.cfg.Sources[desc.Name]; ok && sc.URL != "" {
			info.URL = sc.URL
		}
		if desc.Remote() {
			_, info.Cached, _ = a.store.Get(a.namespace(), desc.Name)
		}
		infos = append(infos, info)
	}
	return infos
}

func (a *App) namespace() string {
	if a.cfg.Cache.Name != "" {
		return a.cfg.Cache.Name
	}
	return types.DefaultCacheName
}

// ClearCache removes the cached data of the named sources, or of every
// source when no name is given. It returns the number of entries removed.
func (a *App) ClearCache(names ...string) (int, error) {
	if len(names) == 0 {
		if disk, ok := a.store.(*cache.DiskStore); ok {
			return disk.Clear(a.namespace())
		}
		names = source.Names()
	}

	removed := 0
	for _, name := range names {
		desc, err := source.Lookup(name)
		if err != nil {
			return removed, err
		}
		if _, ok, _ := a.store.Get(a.namespace(), desc.Name); !ok {
			continue
		}
		if err := a.store.Delete(a.namespace(), desc.Name); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, a.store.Sync()
}

// CacheStats purges expired entries from a disk cache, then reports its
// counters together with the space it occupies.
func (a *App) CacheStats() (cache.Stats, error) {
	if disk, ok := a.store.(*cache.DiskStore); ok {
		if _, err := disk.Purge(); err != nil {
			return cache.Stats{}, err
		}
	}
	return a.store.Stats(), nil
}

// Encode writes v to w as "json" or "yaml".
func Encode(w io.Writer, v any, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		data, err := yaml.MarshalWithOptions(v, yaml.Indent(2))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
