package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

func TestHTTPTransferGet(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("1\t的\t7922684\n"))
	}))
	defer server.Close()

	ht := NewHTTPTransfer(HTTPWithUserAgent("dragonmasher-test"))

	var body bytes.Buffer
	err := ht.Get(context.Background(), server.URL+"/junda.txt", func(resp *http.Response) error {
		_, err := io.Copy(&body, resp.Body)
		return err
	})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if body.String() != "1\t的\t7922684\n" {
		t.Fatalf("unexpected body %q", body.String())
	}
	if agent != "dragonmasher-test" {
		t.Fatalf("user agent = %q", agent)
	}

	err = ht.Get(context.Background(), server.URL+"/missing", func(*http.Response) error {
		t.Fatal("callback should not run for a 404")
		return nil
	})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://mirror/cedict/cedict.zip")
	if err != nil || bucket != "mirror" || key != "cedict/cedict.zip" {
		t.Fatalf("ParseS3URL = %q, %q, %v", bucket, key, err)
	}
	for _, bad := range []string{"https://mirror/cedict.zip", "s3://mirror", "s3:///key"} {
		if _, _, err := ParseS3URL(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string]string
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func TestS3TransferGet(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"mirror/hsk.csv": "便宜,2\n"}}
	st := NewS3Transfer(client)

	var got string
	var size int64
	err := st.Get(context.Background(), "mirror", "hsk.csv", func(body io.Reader, n int64) error {
		data, err := io.ReadAll(body)
		got, size = string(data), n
		return err
	})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "便宜,2\n" || size != int64(len("便宜,2\n")) {
		t.Fatalf("got %q (%d bytes)", got, size)
	}

	if err := st.Get(context.Background(), "mirror", "absent", func(io.Reader, int64) error { return nil }); err == nil {
		t.Fatalf("expected error for missing object")
	}
}

func TestHTTPRequestHeader(t *testing.T) {
	var accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
	}))
	defer server.Close()

	ht := NewHTTPTransfer()
	err := ht.Get(context.Background(), server.URL, func(*http.Response) error { return nil },
		HTTPRequestHeader("Accept", "application/zip"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if accept != "application/zip" {
		t.Fatalf("Accept = %q", accept)
	}
}
