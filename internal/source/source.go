// Package source acquires Chinese data sets, parses them into a
// dataset.Dataset and caches the result between runs.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"dragonmasher/internal/archive"
	"dragonmasher/internal/cache"
	"dragonmasher/internal/core/logger"
	"dragonmasher/internal/core/types"
	"dragonmasher/internal/dataset"
	"dragonmasher/internal/format"
	"dragonmasher/internal/provider"
	"dragonmasher/internal/resources"

	"golang.org/x/text/encoding/htmlindex"
)

var ErrNotAcquired = errors.New("source files have not been acquired")

// Fetcher downloads url into w. *provider.Registry satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Extractor unpacks the archive at path into dest and returns the extracted files.
type Extractor func(path, dest string) ([]string, error)

type Option func(*Source)

func WithFetcher(f Fetcher) Option {
	return func(s *Source) {
		s.fetcher = f
	}
}

func WithExtractor(e Extractor) Option {
	return func(s *Source) {
		s.extract = e
	}
}

// WithStore persists parsed data in store instead of the default disk cache.
func WithStore(store cache.Store) Option {
	return func(s *Source) {
		s.store = store
	}
}

func WithCaching(enabled bool) Option {
	return func(s *Source) {
		s.caching = enabled
	}
}

// WithTTL sets the expiry of the default disk cache.
func WithTTL(ttl time.Duration) Option {
	return func(s *Source) {
		s.ttl = ttl
	}
}

func WithNamespace(namespace string) Option {
	return func(s *Source) {
		s.namespace = namespace
	}
}

// WithTempDir creates download directories under dir instead of os.TempDir.
func WithTempDir(dir string) Option {
	return func(s *Source) {
		s.tempRoot = dir
	}
}

// WithResources reads bundled files from fsys.
func WithResources(fsys fs.FS) Option {
	return func(s *Source) {
		s.resources = fsys
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Source) {
		s.logger = l
	}
}

// WithURL downloads from a mirror instead of the catalog URL.
func WithURL(url string) Option {
	return func(s *Source) {
		if url != "" {
			s.desc.URL = url
		}
	}
}

func WithEncoding(encoding string) Option {
	return func(s *Source) {
		if encoding != "" {
			s.desc.Encoding = encoding
		}
	}
}

func WithWhitelist(names ...string) Option {
	return func(s *Source) {
		s.desc.Whitelist = names
	}
}

// WithFiles marks local files as already acquired. They are parsed in place
// and never removed.
func WithFiles(paths ...string) Option {
	return func(s *Source) {
		s.files = paths
	}
}

// Source is one data set moving through acquisition, parsing and caching.
type Source struct {
	mu        sync.Mutex
	desc      Descriptor
	fetcher   Fetcher
	extract   Extractor
	store     cache.Store
	caching   bool
	ttl       time.Duration
	namespace string
	tempRoot  string
	resources fs.FS
	logger    *logger.Logger
	log       *slog.Logger

	phase   types.Phase
	err     error
	files   []string
	tempDir string
	data    dataset.Dataset
	stats   format.Stats
}

// New prepares a source for desc. When caching is enabled and the store
// holds unexpired data for a remote source, the source starts Ready.
func New(desc Descriptor, opts ...Option) (*Source, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	s := &Source{
		desc:      desc,
		extract:   archive.Extract,
		caching:   true,
		ttl:       types.ParseDuration(types.DefaultCacheTTL, 0),
		namespace: types.DefaultCacheName,
		phase:     types.PhaseUnacquired,
		data:      make(dataset.Dataset),
	}
	s.desc.Whitelist = append([]string(nil), desc.Whitelist...)
	for _, opt := range opts {
		opt(s)
	}
	if s.desc.Encoding == "" {
		s.desc.Encoding = DefaultEncoding
	}
	if s.logger == nil {
		s.logger = logger.NewLogger(logger.WithName("source"))
	}
	s.log = s.logger.With("source", s.desc.Name)
	if s.resources == nil {
		s.resources = resources.FS()
	}
	if s.fetcher == nil {
		s.fetcher = provider.NewRegistry(provider.Config{UserAgent: types.DefaultUserAgent})
	}
	if len(s.files) > 0 {
		s.phase = types.PhaseAcquired
	}

	if s.desc.Remote() && s.caching {
		if s.store == nil {
			store, err := cache.NewDiskStore(types.DefaultCacheDir(), s.ttl)
			if err != nil {
				return nil, fmt.Errorf("open cache for %s: %w", s.desc.Name, err)
			}
			s.store = store
		}
		s.loadCached()
	}
	return s, nil
}

// loadCached seeds the data from the store. A corrupt entry is dropped.
func (s *Source) loadCached() {
	raw, ok, err := s.store.Get(s.namespace, s.desc.Name)
	if err != nil {
		s.log.Warn("cache read failed", "error", err)
		return
	}
	if !ok {
		s.log.Debug("cache miss")
		return
	}
	var data dataset.Dataset
	if err := json.Unmarshal(raw, &data); err != nil || len(data) == 0 {
		s.log.Warn("discarding unreadable cache entry", "error", err)
		if err := s.store.Delete(s.namespace, s.desc.Name); err != nil {
			s.log.Warn("failed to delete cache entry", "error", err)
		}
		return
	}
	s.data = data
	s.phase = types.PhaseReady
	s.log.Debug("loaded from cache", "keys", len(data))
}

// Acquire makes the source files available locally. Bundled sources are
// always available. With force, cached data is discarded and the files are
// downloaded again.
func (s *Source) Acquire(ctx context.Context, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if force {
		s.reset()
	}
	if !s.desc.Remote() {
		if s.phase == types.PhaseUnacquired {
			s.phase = types.PhaseAcquired
		}
		return nil
	}
	if s.phase == types.PhaseReady {
		s.log.Debug("using cached data")
		return nil
	}
	if len(s.files) > 0 {
		return nil
	}

	s.phase = types.PhaseAcquiring
	s.err = nil
	dir, files, err := s.download(ctx)
	if err != nil {
		s.phase = types.PhaseFailed
		s.err = err
		return err
	}
	s.tempDir = dir
	s.files = files
	s.phase = types.PhaseAcquired
	s.log.Info("acquired", "files", len(files))
	return nil
}

// reset drops data, cache entry and any downloaded files.
func (s *Source) reset() {
	if s.store != nil && s.caching && s.desc.Remote() {
		if err := s.store.Delete(s.namespace, s.desc.Name); err != nil {
			s.log.Warn("failed to delete cache entry", "error", err)
		} else if err := s.store.Sync(); err != nil {
			s.log.Warn("failed to sync cache", "error", err)
		}
	}
	s.data = make(dataset.Dataset)
	s.stats = format.Stats{}
	s.err = nil
	if s.tempDir != "" {
		s.cleanup()
	}
	if len(s.files) > 0 {
		s.phase = types.PhaseAcquired
	} else {
		s.phase = types.PhaseUnacquired
	}
}

func (s *Source) download(ctx context.Context) (string, []string, error) {
	if s.tempRoot != "" {
		if err := os.MkdirAll(s.tempRoot, 0o755); err != nil {
			return "", nil, fmt.Errorf("create temp root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(s.tempRoot, "dragonmasher-"+strings.ToLower(s.desc.Name)+"-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}

	files, err := s.fetchInto(ctx, dir)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.log.Warn("failed to remove temp dir", "dir", dir, "error", rmErr)
		}
		return "", nil, fmt.Errorf("acquire %s: %w", s.desc.Name, err)
	}
	return dir, files, nil
}

func (s *Source) fetchInto(ctx context.Context, dir string) ([]string, error) {
	target := filepath.Join(dir, provider.Basename(s.desc.URL))
	f, err := os.Create(target)
	if err != nil {
		return nil, err
	}
	n, err := s.fetcher.Fetch(ctx, s.desc.URL, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	s.log.Debug("downloaded", "url", s.desc.URL, "size", types.Bytes(n))

	if !s.desc.Archive {
		return []string{target}, nil
	}
	files, err := s.extract(target, dir)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(target); err != nil {
		return nil, err
	}
	return files, nil
}

// Parse reads every acquired file into the source data. On success the
// data replaces any previous data and is written to the cache.
func (s *Source) Parse(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == types.PhaseReady {
		return nil
	}
	files := s.files
	if len(files) == 0 && !s.desc.Remote() {
		files = s.desc.Files
	}
	if len(files) == 0 {
		return fmt.Errorf("parse %s: %w", s.desc.Name, ErrNotAcquired)
	}
	defer s.cleanup()

	s.phase = types.PhaseParsing
	data, stats, err := s.parseFiles(ctx, files)
	if err != nil {
		s.data = make(dataset.Dataset)
		s.phase = types.PhaseFailed
		s.err = err
		return err
	}

	s.data = data
	s.stats = stats
	s.phase = types.PhaseReady
	s.err = nil
	s.log.Info("parsed", "keys", len(data), "rows", stats.Rows, "skipped", stats.Skipped, "malformed", stats.Malformed)
	s.persist()
	return nil
}

func (s *Source) parseFiles(ctx context.Context, files []string) (dataset.Dataset, format.Stats, error) {
	var stats format.Stats
	data := make(dataset.Dataset)

	enc, err := htmlindex.Get(s.desc.Encoding)
	if err != nil {
		return nil, stats, fmt.Errorf("parse %s: unknown encoding %q: %w", s.desc.Name, s.desc.Encoding, err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if !allowed(s.desc.Whitelist, path) {
			s.log.Debug("skipping file outside whitelist", "file", filepath.Base(path))
			continue
		}

		raw, err := s.readFile(path)
		if err != nil {
			return nil, stats, fmt.Errorf("parse %s: %w", s.desc.Name, err)
		}
		decoded, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, stats, fmt.Errorf("parse %s: decode %s: %w", s.desc.Name, filepath.Base(path), err)
		}

		name := filepath.Base(path)
		if bytes.ContainsRune(decoded, utf8.RuneError) && !bytes.ContainsRune(raw, utf8.RuneError) {
			s.log.Warn("file has bytes outside its declared encoding; set sources."+s.desc.Name+".encoding",
				"file", name, "encoding", s.desc.Encoding)
		}
		parsed, st := s.desc.Format.ParseFile(name, string(decoded), s.desc.Prefix())
		for _, p := range st.Problems {
			s.log.Warn("skipped row", "error", p)
		}
		if st.Rows == 0 && len(bytes.TrimSpace(raw)) > 0 {
			s.log.Warn("no rows parsed from non-empty file", "file", name, "encoding", s.desc.Encoding)
		}
		stats.Add(st)
		dataset.Update(data, parsed)
	}
	return data, stats, nil
}

func (s *Source) readFile(path string) ([]byte, error) {
	if s.desc.Remote() || filepath.IsAbs(path) {
		return os.ReadFile(path)
	}
	return fs.ReadFile(s.resources, path)
}

func (s *Source) persist() {
	if !s.caching || !s.desc.Remote() || s.store == nil || len(s.data) == 0 {
		return
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		s.log.Warn("failed to encode data for cache", "error", err)
		return
	}
	if err := s.store.Set(s.namespace, s.desc.Name, raw); err != nil {
		s.log.Warn("failed to cache data", "error", err)
		return
	}
	if err := s.store.Sync(); err != nil {
		s.log.Warn("failed to sync cache", "error", err)
		return
	}
	s.log.Debug("cached", "size", types.Bytes(len(raw)))
}

// cleanup removes downloaded files. Files supplied with WithFiles are kept.
func (s *Source) cleanup() {
	if s.tempDir == "" {
		return
	}
	if err := os.RemoveAll(s.tempDir); err != nil {
		s.log.Warn("failed to remove temp dir", "dir", s.tempDir, "error", err)
	}
	s.tempDir = ""
	s.files = nil
}

// Close removes any downloaded files that were never parsed.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tempDir != "" {
		s.cleanup()
		if s.phase == types.PhaseAcquired {
			s.phase = types.PhaseUnacquired
		}
	}
	return nil
}

func (s *Source) Name() string {
	return s.desc.Name
}

func (s *Source) Descriptor() Descriptor {
	return s.desc
}

// Data returns the parsed data. The result must not be modified.
func (s *Source) Data() dataset.Dataset {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *Source) Phase() types.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Err returns the error that moved the source to PhaseFailed.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Source) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.files) == 0 && !s.desc.Remote() {
		return append([]string(nil), s.desc.Files...)
	}
	return append([]string(nil), s.files...)
}

func (s *Source) HasData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data) > 0
}

func (s *Source) HasFiles() bool {
	return len(s.Files()) > 0
}

// Stats returns the counters of the last successful parse.
func (s *Source) Stats() format.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
