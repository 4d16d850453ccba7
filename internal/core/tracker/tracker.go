// Package tracker records the byte progress of a single download.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Listener is notified as a tracked transfer advances.
// NOTE: called on the transfer hot path, don't block.
type Listener interface {
	Started(name string, total int64)
	Advanced(name string, n int64)
	Finished(name string, err error)
}

type Tracker struct {
	name      string
	mu        sync.RWMutex
	startedAt time.Time
	endedAt   time.Time
	current   int64
	total     int64
	listener  Listener
}

type Option func(*Tracker)

// WithListener forwards progress updates to l.
func WithListener(l Listener) Option {
	return func(t *Tracker) {
		t.listener = l
	}
}

func NewTracker(name string, opts ...Option) *Tracker {
	t := &Tracker{name: name}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Name() string {
	return t.name
}

// Start marks the transfer as running with the expected total (-1 if unknown).
func (t *Tracker) Start(total int64) {
	t.mu.Lock()
	t.startedAt = time.Now()
	t.endedAt = time.Time{}
	t.current = 0
	t.total = max(0, total)
	l := t.listener
	t.mu.Unlock()

	if l != nil {
		l.Started(t.name, total)
	}
}

func (t *Tracker) IncCurrent(n int64) {
	t.mu.Lock()
	t.current = max(0, t.current+n)
	l := t.listener
	t.mu.Unlock()

	if l != nil {
		l.Advanced(t.name, n)
	}
}

// Finish records the end of the transfer.
func (t *Tracker) Finish(err error) {
	t.mu.Lock()
	t.endedAt = time.Now()
	l := t.listener
	t.mu.Unlock()

	if l != nil {
		l.Finished(t.name, err)
	}
}

func (t *Tracker) Current() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *Tracker) Total() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

func (t *Tracker) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.startedAt.IsZero() {
		return 0
	}
	if t.endedAt.IsZero() {
		return time.Since(t.startedAt)
	}
	return t.endedAt.Sub(t.startedAt)
}

// ProgressBytes returns current/total as a human readable string.
func (t *Tracker) ProgressBytes() string {
	current := humanize.Bytes(uint64(t.Current()))
	if t.Total() == 0 {
		return current
	}
	return fmt.Sprintf("%s/%s", current, humanize.Bytes(uint64(t.Total())))
}

// SpeedBytes returns the average speed as a human readable string.
func (t *Tracker) SpeedBytes() string {
	seconds := t.Duration().Seconds()
	if seconds == 0 {
		return "0 B/s"
	}
	return fmt.Sprintf("%s/s", humanize.Bytes(uint64(float64(t.Current())/seconds)))
}
