package transport

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// NewS3Session builds an AWS session from the shared config files,
// optionally pinned to a region and named profile.
func NewS3Session(region, profile string) (*session.Session, error) {
	opts := session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Profile:           profile,
	}
	if region != "" {
		opts.Config = aws.Config{Region: aws.String(region)}
	}
	sess, err := session.NewSessionWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return sess, nil
}

// S3Transfer streams objects out of S3 mirrors.
type S3Transfer struct {
	client s3iface.S3API
}

func NewS3Transfer(client s3iface.S3API) *S3Transfer {
	return &S3Transfer{client: client}
}

// ParseS3URL splits s3://bucket/key into its bucket and key.
func ParseS3URL(url string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %s", url)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs a bucket and a key: %s", url)
	}
	return bucket, key, nil
}

// Get opens the object and hands its body and size (-1 if unknown) to fn.
func (t *S3Transfer) Get(ctx context.Context, bucket, key string, fn func(body io.Reader, size int64) error) error {
	out, err := t.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return fn(out.Body, size)
}
