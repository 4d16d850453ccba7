package dataset

type mergeOptions struct {
	allowDuplicates bool
	annotate        bool
}

type MergeOption func(*mergeOptions)

// AllowDuplicates keeps incoming values even when the destination already holds them.
func AllowDuplicates() MergeOption {
	return func(o *mergeOptions) {
		o.allowDuplicates = true
	}
}

// Annotate restricts the merge to keys already present in the destination.
func Annotate() MergeOption {
	return func(o *mergeOptions) {
		o.annotate = true
	}
}

// Update merges o into d. Existing attributes are never overwritten: a
// conflicting value promotes the destination attribute to a list and the
// incoming items are appended. o is not modified and shares no memory with d
// afterwards.
func Update(d, o Dataset, opts ...MergeOption) {
	var cfg mergeOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	for key, incoming := range o {
		dst, ok := d[key]
		if !ok {
			if cfg.annotate {
				continue
			}
			dst = make(Record, len(incoming))
			d[key] = dst
		}

		if disjoint(dst, incoming) {
			for name, v := range incoming {
				dst[name] = v.Clone()
			}
			continue
		}

		for name, v := range incoming {
			existing, ok := dst[name]
			if !ok {
				dst[name] = v.Clone()
				continue
			}
			if merged, changed := mergeValue(existing, v, cfg.allowDuplicates); changed {
				dst[name] = merged
			}
		}
	}
}

// mergeValue appends the items of v to existing, promoting it to a list.
// Without allowDuplicates, items existing already holds are dropped and
// nothing changes when every incoming item is present.
func mergeValue(existing, v Value, allowDuplicates bool) (Value, bool) {
	items := v.Clone().Items
	if !allowDuplicates {
		fresh := items[:0]
		for _, item := range items {
			if !existing.Contains(item) {
				fresh = append(fresh, item)
			}
		}
		items = fresh
	}
	if len(items) == 0 && !allowDuplicates {
		return existing, false
	}

	merged := Value{
		Items:  make([]Item, 0, len(existing.Items)+len(items)),
		IsList: true,
	}
	merged.Items = append(merged.Items, existing.Items...)
	merged.Items = append(merged.Items, items...)
	return merged, true
}

func disjoint(a, b Record) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for name := range a {
		if _, ok := b[name]; ok {
			return false
		}
	}
	return true
}
