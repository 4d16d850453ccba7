package provider

import (
	"context"
	"io"
	"net/http"

	"dragonmasher/internal/core/tracker"
	"dragonmasher/internal/transfer"
	"dragonmasher/internal/transport"

	"golang.org/x/time/rate"
)

// HTTPProvider downloads http:// and https:// URLs.
type HTTPProvider struct {
	httpTransfer *transport.HTTPTransfer
	limiter      *rate.Limiter
}

func NewHTTPProvider(cfg Config) (Provider, error) {
	httpOpts := []transport.HTTPTransferOption{}
	if cfg.HTTPClient != nil {
		httpOpts = append(httpOpts, transport.HTTPWithClient(cfg.HTTPClient))
	}
	if cfg.UserAgent != "" {
		httpOpts = append(httpOpts, transport.HTTPWithUserAgent(cfg.UserAgent))
	}

	return &HTTPProvider{
		httpTransfer: transport.NewHTTPTransfer(httpOpts...),
		limiter:      transfer.NewRateLimiter(cfg.RateLimit),
	}, nil
}

func (p *HTTPProvider) Fetch(ctx context.Context, url string, w io.Writer, t *tracker.Tracker) (int64, error) {
	var n int64
	err := p.httpTransfer.Get(ctx, url, func(resp *http.Response) error {
		t.Start(resp.ContentLength)
		var err error
		n, err = copyBody(ctx, resp.Body, w, p.limiter, t)
		return err
	}, transport.HTTPRequestHeader("Accept", "*/*"))
	return n, err
}

func init() {
	RegisterProviderFactory("http", NewHTTPProvider)
	RegisterProviderFactory("https", NewHTTPProvider)
}
