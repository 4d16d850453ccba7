package provider

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"dragonmasher/internal/core/tracker"
)

// FileProvider copies file:// URLs, for local mirrors of remote sources.
type FileProvider struct{}

func NewFileProvider(Config) (Provider, error) {
	return FileProvider{}, nil
}

func (FileProvider) Fetch(ctx context.Context, rawURL string, w io.Writer, t *tracker.Tracker) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parse url: %w", err)
	}
	path := u.Path
	if u.Host != "" && u.Host != "localhost" {
		path = u.Host + u.Path
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	t.Start(size)
	return copyBody(ctx, f, w, nil, t)
}

func init() {
	RegisterProviderFactory("file", NewFileProvider)
}
