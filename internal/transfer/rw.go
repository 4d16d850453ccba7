package transfer

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

type RWCallback func(n int64)
type RWOption func(*ReaderWriter)

func RWWithReadLimiter(limiter *rate.Limiter) RWOption {
	return func(r *ReaderWriter) {
		r.readLimiter = limiter
	}
}

func RWWithIOReader(reader io.Reader) RWOption {
	return func(r *ReaderWriter) {
		r.reader = reader
	}
}

func RWWithIOWriter(writer io.Writer) RWOption {
	return func(r *ReaderWriter) {
		r.writer = writer
	}
}

func RWWithReaderCallback(callback RWCallback) RWOption {
	return func(r *ReaderWriter) {
		r.readerCallback = callback
	}
}

// ReaderWriter copies a download body into its destination while honouring
// context cancellation and a read rate limit.
//
// The callback fires after every read that returned data.
// NOTE: This is a hot path so don't block in the callback.
type ReaderWriter struct {
	reader         io.Reader
	writer         io.Writer
	readLimiter    *rate.Limiter
	readerCallback RWCallback
}

// NewReaderWriter creates a new ReaderWriter. Without a limiter reads are unthrottled.
func NewReaderWriter(opts ...RWOption) *ReaderWriter {
	r := &ReaderWriter{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transfer copies everything from the reader to the writer.
func (r ReaderWriter) Transfer(ctx context.Context) (int64, error) {
	return io.Copy(r.writer, r.Reader(ctx))
}

type ReaderFunc func(p []byte) (int, error)

func (f ReaderFunc) Read(p []byte) (int, error) { return f(p) }

// Reader wraps the underlying reader with cancellation, limiting and the callback.
// Reads larger than the limiter burst are shortened to the burst size.
func (r ReaderWriter) Reader(ctx context.Context) io.Reader {
	return ReaderFunc(func(p []byte) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if r.readLimiter != nil && r.readLimiter.Limit() != rate.Inf {
			if burst := r.readLimiter.Burst(); len(p) > burst {
				p = p[:burst]
			}
			if err := r.readLimiter.WaitN(ctx, len(p)); err != nil {
				return 0, err
			}
		}
		n, err := r.reader.Read(p)
		if n > 0 && r.readerCallback != nil {
			r.readerCallback(int64(n))
		}
		return n, err
	})
}
