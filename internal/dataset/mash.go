package dataset

import (
	"errors"
	"fmt"
)

var ErrInvalidArgument = errors.New("invalid argument")

type mashOptions struct {
	annotate        bool
	allowDuplicates bool
}

type MashOption func(*mashOptions)

// WithAnnotate merges every source after the first in annotate mode.
func WithAnnotate(annotate bool) MashOption {
	return func(o *mashOptions) {
		o.annotate = annotate
	}
}

// WithDuplicates keeps repeated values when merging.
func WithDuplicates(allow bool) MashOption {
	return func(o *mashOptions) {
		o.allowDuplicates = allow
	}
}

// Mash combines the data of two or more sources into a new dataset. The
// first source always seeds the result in full; the annotate option only
// applies to the sources that follow it.
func Mash(sources []Provider, opts ...MashOption) (Dataset, error) {
	if len(sources) < 2 {
		return nil, fmt.Errorf("%w: mash needs at least two sources, got %d", ErrInvalidArgument, len(sources))
	}
	data := make([]Dataset, len(sources))
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("%w: source %d is nil", ErrInvalidArgument, i)
		}
		// a nil pointer behind the interface reports nil data
		if data[i] = src.Data(); data[i] == nil {
			return nil, fmt.Errorf("%w: source %d has no data", ErrInvalidArgument, i)
		}
	}

	var cfg mashOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	var base []MergeOption
	if cfg.allowDuplicates {
		base = append(base, AllowDuplicates())
	}
	rest := base
	if cfg.annotate {
		rest = append(append([]MergeOption{}, base...), Annotate())
	}

	out := make(Dataset)
	for i, d := range data {
		if i == 0 {
			Update(out, d, base...)
			continue
		}
		Update(out, d, rest...)
	}
	return out, nil
}
