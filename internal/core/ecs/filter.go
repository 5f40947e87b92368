package ecs

import (
	"strings"
)

// Filter is a requires/excludes pair of component masks. A mask matches when
// it carries every required component and none of the excluded ones.
// Filters are values; Requires and Excludes return new filters.
type Filter struct {
	requires Mask
	excludes Mask
}

// Requires returns a filter requiring every given component.
func Requires(keys ...ComponentKey) Filter {
	return Filter{requires: maskOfKeys(keys)}
}

// Excludes returns a filter rejecting entities that carry any given component.
func Excludes(keys ...ComponentKey) Filter {
	return Filter{excludes: maskOfKeys(keys)}
}

// Requires returns a copy of f that additionally requires keys.
func (f Filter) Requires(keys ...ComponentKey) Filter {
	out := f.clone()
	for _, k := range keys {
		out.requires.Set(keyID(k))
	}
	return out
}

// Excludes returns a copy of f that additionally excludes keys.
func (f Filter) Excludes(keys ...ComponentKey) Filter {
	out := f.clone()
	for _, k := range keys {
		out.excludes.Set(keyID(k))
	}
	return out
}

// Match reports whether mask satisfies the filter.
func (f Filter) Match(mask Mask) bool {
	return containsAll(mask, f.requires) && !intersects(mask, f.excludes)
}

func (f Filter) RequiresMask() Mask { return f.requires.Clone(nil) }
func (f Filter) ExcludesMask() Mask { return f.excludes.Clone(nil) }

func (f Filter) String() string {
	var b strings.Builder
	b.WriteString("requires[")
	writeNames(&b, f.requires)
	b.WriteString("] excludes[")
	writeNames(&b, f.excludes)
	b.WriteString("]")
	return b.String()
}

func (f Filter) clone() Filter {
	return Filter{requires: f.requires.Clone(nil), excludes: f.excludes.Clone(nil)}
}

func keyID(k ComponentKey) ComponentID {
	if k == nil || k.Name() == "" {
		panic("ecs: filter built from an unregistered component type")
	}
	return k.ID()
}

func maskOfKeys(keys []ComponentKey) Mask {
	ids := make([]ComponentID, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, keyID(k))
	}
	return maskOf(ids...)
}

func writeNames(b *strings.Builder, m Mask) {
	first := true
	m.Range(func(id uint32) {
		if !first {
			b.WriteString(" ")
		}
		first = false
		b.WriteString(registry.Name(id))
	})
}
