// Package dataset holds the keyed record model shared by every source and
// the merge rules used to combine them.
package dataset

import (
	"maps"
	"slices"
)

// Record maps prefixed attribute names ("HSK-level") to values.
type Record map[string]Value

// Dataset maps a lookup key (a word or a single character) to its record.
type Dataset map[string]Record

// Provider is anything that can hand over a populated dataset.
type Provider interface {
	Data() Dataset
}

// Data lets a raw Dataset be passed wherever a Provider is expected.
func (d Dataset) Data() Dataset {
	return d
}

// Keys returns the dataset keys in sorted order.
func (d Dataset) Keys() []string {
	return slices.Sorted(maps.Keys(d))
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	for k, rec := range d {
		out[k] = rec.Clone()
	}
	return out
}

// Names returns the attribute names in sorted order.
func (r Record) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for name, v := range r {
		out[name] = v.Clone()
	}
	return out
}

func (r Record) Equal(o Record) bool {
	return maps.EqualFunc(r, o, Value.Equal)
}

// Trim returns s without the items at the excluded positions.
func Trim[T any](s []T, excluded ...int) []T {
	out := make([]T, 0, len(s))
	for i, item := range s {
		if slices.Contains(excluded, i) {
			continue
		}
		out = append(out, item)
	}
	return out
}
