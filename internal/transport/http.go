package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dragonmasher/internal/core/types"

	"golang.org/x/net/http2"
)

// DefaultHTTPClient returns a client that negotiates HTTP/2 over TLS and
// falls back to HTTP/1.1 for plain http:// sources.
func DefaultHTTPClient() *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = 60 * time.Second
	if err := http2.ConfigureTransport(tr); err != nil {
		return &http.Client{Transport: http.DefaultTransport}
	}
	return &http.Client{Transport: tr}
}

type HTTPTransferOption func(*HTTPTransfer)

func HTTPWithClient(c *http.Client) HTTPTransferOption {
	return func(t *HTTPTransfer) {
		t.client = c
	}
}

// HTTPWithUserAgent sets the User-Agent sent with every request.
func HTTPWithUserAgent(ua string) HTTPTransferOption {
	return func(t *HTTPTransfer) {
		t.userAgent = ua
	}
}

type HTTPTransfer struct {
	client    *http.Client
	userAgent string
}

func NewHTTPTransfer(opts ...HTTPTransferOption) *HTTPTransfer {
	ht := &HTTPTransfer{
		client:    DefaultHTTPClient(),
		userAgent: types.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(ht)
	}
	return ht
}

type HTTPRequestOption func(*http.Request)

// HTTPRequestHeader sets one request header.
func HTTPRequestHeader(key, value string) HTTPRequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// HTTPResponseCallback consumes the response. The body is closed after it returns.
type HTTPResponseCallback func(*http.Response) error

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

func (ht *HTTPTransfer) Do(
	ctx context.Context,
	method, url string,
	respCb HTTPResponseCallback,
	reqOpts ...HTTPRequestOption,
) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	if ht.userAgent != "" {
		req.Header.Set("User-Agent", ht.userAgent)
	}
	for _, opt := range reqOpts {
		opt(req)
	}

	resp, err := ht.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, Status: resp.Status, Code: resp.StatusCode}
	}
	return respCb(resp)
}

func (ht *HTTPTransfer) Get(ctx context.Context, url string, respCb HTTPResponseCallback, reqOpts ...HTTPRequestOption) error {
	return ht.Do(ctx, http.MethodGet, url, respCb, reqOpts...)
}
