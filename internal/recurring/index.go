// Package recurring decides whether a fixed rule applies to a month and
// which amount it carries there.
package recurring

import "bilancio/internal/core"

// OverrideLookup answers "is there an override for this key".
type OverrideLookup interface {
	Lookup(key core.OverrideKey) (core.MonthlyOverride, bool)
}

// OverrideIndex is an in-memory map of overrides keyed by their natural key.
// The zero value is not usable; build it with NewOverrideIndex.
type OverrideIndex struct {
	byKey map[core.OverrideKey]core.MonthlyOverride
}

// NewOverrideIndex indexes overrides. When two overrides share a key the
// later one in the slice wins, matching last-writer-wins on the store.
func NewOverrideIndex(overrides []core.MonthlyOverride) *OverrideIndex {
	idx := &OverrideIndex{byKey: make(map[core.OverrideKey]core.MonthlyOverride, len(overrides))}
	for _, o := range overrides {
		idx.byKey[o.Key()] = o
	}
	return idx
}

func (i *OverrideIndex) Lookup(key core.OverrideKey) (core.MonthlyOverride, bool) {
	if i == nil {
		return core.MonthlyOverride{}, false
	}
	o, ok := i.byKey[key]
	return o, ok
}
