package transfer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"dragonmasher/internal/core/types"

	"golang.org/x/time/rate"
)

func TestTransferCountsBytes(t *testing.T) {
	body := strings.Repeat("的", 10000)
	var out bytes.Buffer
	var seen int64

	rw := NewReaderWriter(
		RWWithIOReader(strings.NewReader(body)),
		RWWithIOWriter(&out),
		RWWithReadLimiter(NewRateLimiter(0)),
		RWWithReaderCallback(func(n int64) { seen += n }),
	)
	n, err := rw.Transfer(context.Background())
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if n != int64(len(body)) || seen != n || out.String() != body {
		t.Fatalf("copied %d bytes, callback saw %d, want %d", n, seen, len(body))
	}
}

func TestTransferChunksToBurst(t *testing.T) {
	body := strings.Repeat("x", 4096)
	var out bytes.Buffer
	var calls int

	limiter := rate.NewLimiter(rate.Limit(1<<30), 1024)

	rw := NewReaderWriter(
		RWWithIOReader(strings.NewReader(body)),
		RWWithIOWriter(&out),
		RWWithReadLimiter(limiter),
		RWWithReaderCallback(func(n int64) {
			calls++
			if n > 1024 {
				t.Errorf("read of %d bytes exceeds burst", n)
			}
		}),
	)
	if _, err := rw.Transfer(context.Background()); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if calls < 4 {
		t.Fatalf("expected at least 4 limited reads, got %d", calls)
	}
}

func TestTransferCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	rw := NewReaderWriter(RWWithIOReader(strings.NewReader("data")), RWWithIOWriter(&out))
	if _, err := rw.Transfer(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewRateLimiter(t *testing.T) {
	if l := NewRateLimiter(0); l.Limit() != rate.Inf {
		t.Fatalf("zero limit should be unlimited")
	}
	l := NewRateLimiter(types.Bytes(1000))
	if l.Limit() != 1000 || l.Burst() != 1000 {
		t.Fatalf("unexpected limiter %v/%d", l.Limit(), l.Burst())
	}
	if l := NewRateLimiter(types.Bytes(10 << 20)); l.Burst() != DefaultRateBurst {
		t.Fatalf("burst should be capped at %d, got %d", DefaultRateBurst, l.Burst())
	}
}
