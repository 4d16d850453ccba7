package provider

import (
	"context"
	"io"

	"dragonmasher/internal/core/tracker"
	"dragonmasher/internal/transfer"
	"dragonmasher/internal/transport"

	"github.com/aws/aws-sdk-go/service/s3"
	"golang.org/x/time/rate"
)

// S3Provider downloads s3://bucket/key URLs using the shared AWS config.
type S3Provider struct {
	transfer *transport.S3Transfer
	limiter  *rate.Limiter
}

// NewS3Provider creates a new S3 provider
func NewS3Provider(cfg Config) (Provider, error) {
	sess, err := transport.NewS3Session(cfg.S3.Region, cfg.S3.Profile)
	if err != nil {
		return nil, err
	}
	return &S3Provider{
		transfer: transport.NewS3Transfer(s3.New(sess)),
		limiter:  transfer.NewRateLimiter(cfg.RateLimit),
	}, nil
}

func (p *S3Provider) Fetch(ctx context.Context, url string, w io.Writer, t *tracker.Tracker) (int64, error) {
	bucket, key, err := transport.ParseS3URL(url)
	if err != nil {
		return 0, err
	}

	var n int64
	err = p.transfer.Get(ctx, bucket, key, func(body io.Reader, size int64) error {
		t.Start(size)
		var err error
		n, err = copyBody(ctx, body, w, p.limiter, t)
		return err
	})
	return n, err
}

func init() {
	RegisterProviderFactory("s3", NewS3Provider)
}
