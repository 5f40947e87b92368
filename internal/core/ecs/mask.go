package ecs

import "github.com/kelindar/bitmap"

// Mask is the set of component ids attached to an entity.
type Mask = bitmap.Bitmap

// containsAll reports whether every bit of sub is also set in m. It walks the
// words directly so filter checks never allocate.
func containsAll(m, sub Mask) bool {
	for i, w := range sub {
		if w == 0 {
			continue
		}
		if i >= len(m) || m[i]&w != w {
			return false
		}
	}
	return true
}

// intersects reports whether m and other share at least one bit.
func intersects(m, other Mask) bool {
	n := len(m)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if m[i]&other[i] != 0 {
			return true
		}
	}
	return false
}

func maskOf(ids ...ComponentID) Mask {
	var m Mask
	for _, id := range ids {
		m.Set(id)
	}
	return m
}
