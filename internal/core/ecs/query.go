package ecs

// Query calls fn for every enabled, non-dying entity whose mask satisfies f.
// It scans all slots; systems keep incremental matched sets and should be
// preferred for per-frame work.
func (w *World) Query(f Filter, fn func(Entity)) {
	for i := 0; i < w.pool.Cap(); i++ {
		id, ok := w.pool.Current(uint32(i))
		if !ok {
			continue
		}
		s := w.slots[i]
		if !s.enabled || s.dying || !f.Match(s.mask) {
			continue
		}
		fn(Entity{world: w, id: id})
	}
}

// Each2 iterates over entities that have both component A and B.
func Each2[A, B any](w *World, ca ComponentType[A], cb ComponentType[B], fn func(Entity, *A, *B)) {
	w.Query(Requires(ca, cb), func(e Entity) {
		s := w.slots[e.id.Index()]
		fn(e, any(s.components[ca.id]).(*A), any(s.components[cb.id]).(*B))
	})
}

// Each3 iterates over entities that have components A, B, and C.
func Each3[A, B, C any](w *World, ca ComponentType[A], cb ComponentType[B], cc ComponentType[C], fn func(Entity, *A, *B, *C)) {
	w.Query(Requires(ca, cb, cc), func(e Entity) {
		s := w.slots[e.id.Index()]
		fn(e, any(s.components[ca.id]).(*A), any(s.components[cb.id]).(*B), any(s.components[cc.id]).(*C))
	})
}
