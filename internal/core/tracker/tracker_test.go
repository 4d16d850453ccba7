package tracker

import (
	"errors"
	"strings"
	"testing"
)

type recordingListener struct {
	started  int64
	advanced int64
	finished error
	done     bool
}

func (l *recordingListener) Started(name string, total int64) { l.started = total }
func (l *recordingListener) Advanced(name string, n int64)    { l.advanced += n }
func (l *recordingListener) Finished(name string, err error) {
	l.finished = err
	l.done = true
}

func TestTrackerProgress(t *testing.T) {
	l := &recordingListener{}
	tr := NewTracker("cedict.zip", WithListener(l))

	tr.Start(2000)
	tr.IncCurrent(500)
	tr.IncCurrent(500)

	if got := tr.Current(); got != 1000 {
		t.Fatalf("expected 1000 bytes, got %d", got)
	}
	if got := tr.ProgressBytes(); got != "1.0 kB/2.0 kB" {
		t.Fatalf("unexpected progress string %q", got)
	}
	if l.started != 2000 || l.advanced != 1000 {
		t.Fatalf("listener saw started=%d advanced=%d", l.started, l.advanced)
	}

	boom := errors.New("boom")
	tr.Finish(boom)
	if !l.done || !errors.Is(l.finished, boom) {
		t.Fatalf("listener did not see finish error")
	}
	if tr.Duration() <= 0 {
		t.Fatalf("finished transfer should have a duration")
	}
	if got := tr.SpeedBytes(); !strings.HasSuffix(got, "/s") {
		t.Fatalf("unexpected speed string %q", got)
	}
}

func TestTrackerUnknownTotal(t *testing.T) {
	tr := NewTracker("junda.txt")
	tr.Start(-1)
	tr.IncCurrent(10)

	if tr.Total() != 0 {
		t.Fatalf("unknown total should be stored as 0, got %d", tr.Total())
	}
	if got := tr.ProgressBytes(); got != "10 B" {
		t.Fatalf("unexpected progress string %q", got)
	}
}
