package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Progress draws one bar per download. It satisfies tracker.Listener.
type Progress struct {
	mu        sync.Mutex
	container *mpb.Progress
	bars      map[string]*mpb.Bar
	started   map[string]time.Time
}

type Option func() mpb.ContainerOption

// WithOutput sets the output for the progress container.
func WithOutput(w io.Writer) Option {
	return func() mpb.ContainerOption {
		return mpb.WithOutput(w)
	}
}

// WithRefreshRate sets the refresh rate for the progress container.
func WithRefreshRate(refreshRate time.Duration) Option {
	return func() mpb.ContainerOption {
		return mpb.WithRefreshRate(refreshRate)
	}
}

// NewProgress creates a new progress container.
func NewProgress(opts ...Option) *Progress {
	containerOpts := []mpb.ContainerOption{
		mpb.WithOutput(os.Stderr),
		mpb.WithRefreshRate(150 * time.Millisecond),
	}
	for _, opt := range opts {
		containerOpts = append(containerOpts, opt())
	}
	return &Progress{
		container: mpb.New(containerOpts...),
		bars:      make(map[string]*mpb.Bar),
		started:   make(map[string]time.Time),
	}
}

func barOptions(description string) []mpb.BarOption {
	return []mpb.BarOption{
		mpb.BarRemoveOnComplete(),
		mpb.PrependDecorators(
			decor.Spinner(spinner, decor.WCSyncSpaceR),
			decor.Name(description, decor.WCSyncSpaceR),
			decor.CountersKibiByte("%.2f/%.2f", decor.WCSyncSpace),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.EwmaSpeed(decor.SizeB1024(0), "%.2f", 30, decor.WCSyncSpace),
			decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncSpace),
		),
	}
}

// Started adds a bar; an unknown total (<= 0) is resolved when the transfer finishes.
func (p *Progress) Started(name string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total < 0 {
		total = 0
	}
	p.bars[name] = p.container.AddBar(total, barOptions(name)...)
	p.started[name] = time.Now()
}

// Advanced increments the bar for name.
func (p *Progress) Advanced(name string, n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bar, ok := p.bars[name]; ok {
		bar.EwmaIncrInt64(n, time.Since(p.started[name]))
		p.started[name] = time.Now()
	}
}

// Finished completes or aborts the bar for name.
func (p *Progress) Finished(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bar, ok := p.bars[name]
	if !ok {
		return
	}
	if err != nil {
		bar.Abort(true)
	} else {
		bar.SetTotal(-1, true)
	}
	delete(p.bars, name)
	delete(p.started, name)
}

// Wait aborts any open bars and waits for rendering to finish.
func (p *Progress) Wait() {
	p.mu.Lock()
	for name, bar := range p.bars {
		bar.Abort(true)
		delete(p.bars, name)
	}
	p.mu.Unlock()
	p.container.Wait()
}
