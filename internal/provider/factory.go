// Package provider downloads source files. Each URL scheme is served by a
// Provider created on first use from a registered factory.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"dragonmasher/internal/core/logger"
	"dragonmasher/internal/core/tracker"
	"dragonmasher/internal/core/types"
	"dragonmasher/internal/transfer"

	"golang.org/x/time/rate"
)

// Provider streams the resource at url into w, reporting progress to t.
type Provider interface {
	Fetch(ctx context.Context, url string, w io.Writer, t *tracker.Tracker) (int64, error)
}

// Config carries the settings shared by every provider.
type Config struct {
	RateLimit  types.Bytes
	Timeout    time.Duration
	UserAgent  string
	S3         types.S3Config
	HTTPClient *http.Client
}

// ConfigFromTypes builds a provider Config from the loaded configuration.
func ConfigFromTypes(cfg *types.Config) Config {
	return Config{
		RateLimit: cfg.Download.RateLimit,
		Timeout:   cfg.Download.TimeoutDuration(),
		UserAgent: cfg.Download.UserAgent,
		S3:        cfg.S3,
	}
}

type Factory func(cfg Config) (Provider, error)

// Provider factory functions keyed by URL scheme
var providerFactories = make(map[string]Factory)

// RegisterProviderFactory registers a provider factory for a URL scheme
func RegisterProviderFactory(scheme string, factory Factory) {
	providerFactories[scheme] = factory
}

// Schemes lists the registered URL schemes.
func Schemes() []string {
	schemes := make([]string, 0, len(providerFactories))
	for scheme := range providerFactories {
		schemes = append(schemes, scheme)
	}
	return schemes
}

type RegistryOption func(*Registry)

// WithListener reports every download to l.
func WithListener(l tracker.Listener) RegistryOption {
	return func(r *Registry) {
		r.listener = l
	}
}

// WithLogger sets the logger completed downloads are reported to.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithProvider serves scheme with p instead of the registered factory.
func WithProvider(scheme string, p Provider) RegistryOption {
	return func(r *Registry) {
		r.providers[scheme] = p
	}
}

// Registry resolves URLs to providers and owns their shared configuration.
type Registry struct {
	cfg       Config
	listener  tracker.Listener
	logger    *logger.Logger
	mu        sync.Mutex
	providers map[string]Provider
}

func NewRegistry(cfg Config, opts ...RegistryOption) *Registry {
	r := &Registry{
		cfg:       cfg,
		providers: make(map[string]Provider),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.NewLogger(logger.WithName("provider"))
	}
	return r
}

// Provider returns the provider for scheme, creating it on first use.
func (r *Registry) Provider(scheme string) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[scheme]; ok {
		return p, nil
	}
	factory, ok := providerFactories[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported url scheme: %q", scheme)
	}
	p, err := factory(r.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", scheme, err)
	}
	r.providers[scheme] = p
	return p, nil
}

// Fetch downloads url into w and returns the number of bytes written.
func (r *Registry) Fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return 0, fmt.Errorf("url has no scheme: %q", url)
	}
	p, err := r.Provider(strings.ToLower(scheme))
	if err != nil {
		return 0, err
	}

	ctx, cancel := types.NewTimeoutSubContext(ctx, r.cfg.Timeout)
	defer cancel()

	t := tracker.NewTracker(Basename(url), tracker.WithListener(r.listener))
	n, err := p.Fetch(ctx, url, w, t)
	t.Finish(err)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	r.logger.Info("downloaded", "file", t.Name(), "size", t.ProgressBytes(), "speed", t.SpeedBytes(), "took", t.Duration().Round(time.Millisecond))
	return n, nil
}

// Basename returns the last path element of url, ignoring any query string.
func Basename(url string) string {
	if _, rest, ok := strings.Cut(url, "://"); ok {
		url = rest
	}
	url, _, _ = strings.Cut(url, "?")
	url, _, _ = strings.Cut(url, "#")
	base := path.Base(url)
	if base == "." || base == "/" {
		return "download"
	}
	return base
}

// copyBody streams body into w through a rate limited reader that feeds t.
func copyBody(ctx context.Context, body io.Reader, w io.Writer, limiter *rate.Limiter, t *tracker.Tracker) (int64, error) {
	rw := transfer.NewReaderWriter(
		transfer.RWWithIOReader(body),
		transfer.RWWithIOWriter(w),
		transfer.RWWithReadLimiter(limiter),
		transfer.RWWithReaderCallback(t.IncCurrent),
	)
	return rw.Transfer(ctx)
}
