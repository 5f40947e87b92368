package ecs

import (
	"time"
)

// Phase defines execution ordering within a single frame. Lower phases run
// first; systems sharing a phase run in registration order. Any int is a
// valid phase, the named ones are conventional slots.
type Phase int

const (
	PhaseInput      Phase = iota * 100 // 0: feed external input into components
	PhasePreUpdate                     // 100: react to last frame's events
	PhaseUpdate                        // 200: game logic
	PhasePostUpdate                    // 300: derived state, lifetimes
	PhaseOutput                        // 400: hand state to renderers/audio
)

// System is the interface every ECS system implements. Concrete systems embed
// *BaseSystem, which supplies Phase and the matched entity set.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
	base() *BaseSystem
}

// Optional hooks a concrete system may implement to react the moment an
// entity joins or leaves its matched set.
type (
	EntityAddedHook interface {
		OnEntityAdded(e Entity)
	}
	EntityRemovedHook interface {
		OnEntityRemoved(e Entity)
	}
)

// BaseSystem holds the filter, phase and matched set of a system.
type BaseSystem struct {
	filter  Filter
	phase   Phase
	enabled bool

	world  *World
	typeID SystemTypeID
	added  EntityAddedHook
	remove EntityRemovedHook

	set entitySet
}

// NewBaseSystem declares a system's update phase and component filter. The
// filter is fixed for the lifetime of the system.
func NewBaseSystem(phase Phase, filter Filter) *BaseSystem {
	return &BaseSystem{
		filter:  filter.clone(),
		phase:   phase,
		enabled: true,
		set:     newEntitySet(),
	}
}

func (s *BaseSystem) base() *BaseSystem { return s }

func (s *BaseSystem) Phase() Phase            { return s.phase }
func (s *BaseSystem) Filter() Filter          { return s.filter }
func (s *BaseSystem) World() *World           { return s.world }
func (s *BaseSystem) TypeID() SystemTypeID    { return s.typeID }
func (s *BaseSystem) Enabled() bool           { return s.enabled }
func (s *BaseSystem) SetEnabled(enabled bool) { s.enabled = enabled }

// Len returns the number of entities currently matched.
func (s *BaseSystem) Len() int { return s.set.len() }

// Contains reports whether e is in the matched set.
func (s *BaseSystem) Contains(e Entity) bool {
	return e.world == s.world && s.set.has(e.id)
}

// Each calls fn for every matched entity in insertion order. Entities that
// leave the set during iteration are skipped; entities that join are visited
// before Each returns. An entity that leaves and rejoins during the pass, as
// when one of its components is replaced, keeps its position and is visited
// at most once.
func (s *BaseSystem) Each(fn func(e Entity)) {
	w := s.world
	s.set.each(func(id EntityID) {
		fn(Entity{world: w, id: id})
	})
}

// Entities returns a copy of the matched set.
func (s *BaseSystem) Entities() []Entity {
	out := make([]Entity, 0, s.set.len())
	s.Each(func(e Entity) { out = append(out, e) })
	return out
}

// ValidateEntity re-evaluates e against the filter and adds or removes it from
// the matched set. The World calls it on every change that can affect
// membership; calling it again without a change is a no-op.
func (s *BaseSystem) ValidateEntity(e Entity) {
	if s.world == nil || e.world != s.world {
		return
	}
	slot, ok := s.world.slotFor(e.id)
	if !ok {
		s.validate(e.id, nil, false)
		return
	}
	s.validate(e.id, slot.mask, slot.enabled && !slot.dying)
}

func (s *BaseSystem) validate(id EntityID, mask Mask, eligible bool) {
	want := eligible && s.filter.Match(mask)
	if want {
		if s.set.add(id) && s.added != nil {
			s.added.OnEntityAdded(Entity{world: s.world, id: id})
		}
		return
	}
	if s.set.remove(id) && s.remove != nil {
		s.remove.OnEntityRemoved(Entity{world: s.world, id: id})
	}
}

func (s *BaseSystem) attach(w *World, owner System, typeID SystemTypeID) {
	s.world = w
	s.typeID = typeID
	s.added, _ = owner.(EntityAddedHook)
	s.remove, _ = owner.(EntityRemovedHook)
}

// detach empties the matched set, firing removal hooks, and unbinds the world.
func (s *BaseSystem) detach() {
	for _, id := range s.set.snapshot() {
		s.validate(id, nil, false)
	}
	s.world = nil
	s.added = nil
	s.remove = nil
}

// entitySet is an insertion-ordered set of entity ids with O(1) add, remove
// and membership. Removal leaves a tombstone so iteration stays stable under
// mutation; tombstones are compacted once no iteration is in flight.
type entitySet struct {
	ids       []EntityID
	dead      []bool
	pos       map[uint32]int
	holes     int
	iterating int
}

func newEntitySet() entitySet {
	return entitySet{
		ids:  make([]EntityID, 0, 64),
		dead: make([]bool, 0, 64),
		pos:  make(map[uint32]int, 64),
	}
}

func (s *entitySet) len() int { return len(s.ids) - s.holes }

func (s *entitySet) has(id EntityID) bool {
	p, ok := s.pos[id.Index()]
	return ok && s.ids[p] == id && !s.dead[p]
}

func (s *entitySet) add(id EntityID) bool {
	if p, ok := s.pos[id.Index()]; ok {
		switch {
		case s.ids[p] == id && !s.dead[p]:
			return false
		case s.ids[p] == id && s.iterating > 0:
			// Removed during the current pass: revive it in place so the
			// pass visits it at most once.
			s.dead[p] = false
			s.holes--
			return true
		case !s.dead[p]:
			// A stale generation of this index is still present; drop it first.
			s.dead[p] = true
			s.holes++
		}
	}
	s.pos[id.Index()] = len(s.ids)
	s.ids = append(s.ids, id)
	s.dead = append(s.dead, false)
	return true
}

func (s *entitySet) remove(id EntityID) bool {
	p, ok := s.pos[id.Index()]
	if !ok || s.ids[p] != id || s.dead[p] {
		return false
	}
	s.dead[p] = true
	s.holes++
	if s.iterating == 0 {
		delete(s.pos, id.Index())
		if s.holes*2 > len(s.ids) {
			s.compact()
		}
	}
	return true
}

func (s *entitySet) each(fn func(EntityID)) {
	s.iterating++
	defer func() {
		s.iterating--
		if s.iterating == 0 && s.holes*2 > len(s.ids) {
			s.compact()
		}
	}()
	for i := 0; i < len(s.ids); i++ {
		if !s.dead[i] {
			fn(s.ids[i])
		}
	}
}

func (s *entitySet) snapshot() []EntityID {
	out := make([]EntityID, 0, s.len())
	for i, id := range s.ids {
		if !s.dead[i] {
			out = append(out, id)
		}
	}
	return out
}

func (s *entitySet) compact() {
	n := 0
	for i, id := range s.ids {
		if s.dead[i] {
			if p, ok := s.pos[id.Index()]; ok && p == i {
				delete(s.pos, id.Index())
			}
			continue
		}
		s.ids[n] = id
		s.dead[n] = false
		s.pos[id.Index()] = n
		n++
	}
	clear(s.ids[n:])
	s.ids = s.ids[:n]
	s.dead = s.dead[:n]
	s.holes = 0
}
