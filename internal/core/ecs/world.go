package ecs

import (
	"reflect"
	"sort"
	"time"

	"github.com/l1jgo/devkit/internal/core/event"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// entitySlot is the storage behind one entity index. Only the World mutates
// it; handles read it through Entity methods.
type entitySlot struct {
	mask       Mask
	components []Component
	observers  []func(Entity)
	enabled    bool
	dying      bool
}

func (s *entitySlot) has(id ComponentID) bool {
	return int(id) < len(s.components) && s.components[id] != nil
}

func (s *entitySlot) reset() {
	s.mask.Clear()
	clear(s.components)
	s.components = s.components[:0]
	clear(s.observers)
	s.observers = s.observers[:0]
	s.enabled = false
	s.dying = false
}

// World is the top-level ECS container. It owns the entity pool, per-entity
// component storage, the ordered systems, and a deferred destruction queue
// flushed by Refresh at the end of every Update.
//
// A World is not safe for concurrent use.
type World struct {
	pool  *EntityPool
	slots []*entitySlot

	systems  []System
	byType   map[reflect.Type]System
	runQueue []System

	destroyQueue     []EntityID
	refreshing       bool
	destroyObservers []func(Entity)

	bus *event.Bus
	log *zap.Logger
}

// Option configures a World.
type Option func(*World)

func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithEventBus publishes lifecycle events to bus and dispatches it at the
// start of every Update.
func WithEventBus(bus *event.Bus) Option {
	return func(w *World) { w.bus = bus }
}

// WithCapacity preallocates storage for n entities.
func WithCapacity(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.pool = NewEntityPool(n)
			w.slots = make([]*entitySlot, 0, n)
		}
	}
}

func NewWorld(opts ...Option) *World {
	w := &World{
		pool:         NewEntityPool(1024),
		slots:        make([]*entitySlot, 0, 1024),
		byType:       make(map[reflect.Type]System, 16),
		destroyQueue: make([]EntityID, 0, 64),
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Bus() *event.Bus { return w.bus }

// Len returns the number of valid entities, including ones killed this frame.
func (w *World) Len() int { return w.pool.Len() }

// CreateEntity allocates an enabled entity with no components, reusing the
// lowest free index.
func (w *World) CreateEntity() Entity { return w.createEntity(true) }

func (w *World) createEntity(enabled bool) Entity {
	id := w.pool.Create()
	idx := int(id.Index())
	for len(w.slots) <= idx {
		w.slots = append(w.slots, &entitySlot{})
	}
	s := w.slots[idx]
	s.enabled = enabled
	e := Entity{world: w, id: id}
	w.validate(e, s)
	w.publish(func(b *event.Bus) { event.Emit(b, EntityCreated{Entity: e}) })
	return e
}

func (w *World) CreateEntities(n int) []Entity {
	out := make([]Entity, n)
	for i := range out {
		out[i] = w.CreateEntity()
	}
	return out
}

// IsEntityValid reports whether e names a live entity of this World.
func (w *World) IsEntityValid(e Entity) bool {
	return e.world == w && w.pool.Alive(e.id)
}

// Entity returns a handle for a raw id, if it is still current.
func (w *World) Entity(id EntityID) (Entity, bool) {
	if !w.pool.Alive(id) {
		return Entity{}, false
	}
	return Entity{world: w, id: id}, true
}

// Each calls fn for every valid entity in index order.
func (w *World) Each(fn func(Entity)) {
	for i := 0; i < w.pool.Cap(); i++ {
		if id, ok := w.pool.Current(uint32(i)); ok {
			fn(Entity{world: w, id: id})
		}
	}
}

// KillEntity marks e for destruction at the next Refresh. The entity leaves
// every system immediately but stays valid and readable until then. Killing
// a dying entity is a no-op.
func (w *World) KillEntity(e Entity) error {
	s, err := w.slotOf(e)
	if err != nil {
		return err
	}
	if s.dying {
		return nil
	}
	s.dying = true
	w.destroyQueue = append(w.destroyQueue, e.id)
	w.validate(e, s)
	w.publish(func(b *event.Bus) { event.Emit(b, EntityKilled{Entity: e}) })
	return nil
}

// OnEntityDestroyed registers fn to run for every entity destroyed by Refresh,
// after the entity's own OnDestroy observers.
func (w *World) OnEntityDestroyed(fn func(Entity)) {
	w.destroyObservers = append(w.destroyObservers, fn)
}

// Refresh destroys every killed entity: destruction observers run, every
// component is detached and destroyed, and the index is returned to the free
// list, invalidating all handles. Entities killed by callbacks during the
// sweep are destroyed by the same call.
func (w *World) Refresh() {
	if w.refreshing {
		// Re-entrant call from a destruction callback; the outer loop
		// already picks up newly killed entities.
		return
	}
	if len(w.destroyQueue) == 0 {
		return
	}
	w.refreshing = true
	i := 0
	defer func() {
		w.destroyQueue = append(w.destroyQueue[:0], w.destroyQueue[i:]...)
		w.refreshing = false
	}()
	for ; i < len(w.destroyQueue); i++ {
		w.destroy(w.destroyQueue[i])
	}
	w.log.Debug("refresh", zap.Int("destroyed", i), zap.Int("live", w.pool.Len()))
}

func (w *World) destroy(id EntityID) {
	if !w.pool.Alive(id) {
		return
	}
	e := Entity{world: w, id: id}
	s := w.slots[id.Index()]

	for i := 0; i < len(s.observers); i++ {
		s.observers[i](e)
	}
	for i := 0; i < len(w.destroyObservers); i++ {
		w.destroyObservers[i](e)
	}
	// Detach hooks may attach again, at any id; sweep until nothing is left.
	for s.mask.Count() > 0 {
		for i := 0; i < len(s.components); i++ {
			if s.components[i] != nil {
				w.detach(e, s, ComponentID(i), false)
			}
		}
	}

	w.pool.Destroy(id)
	s.reset()
	w.publish(func(b *event.Bus) { event.Emit(b, EntityDestroyed{ID: id}) })
}

// CloneEntity creates a new entity carrying a copy of each of src's
// components. Components implementing Cloner provide their own copy; others
// are copied by value. The clone has src's enabled state and is never dying.
// If a component cannot be copied the partial clone is killed and the zero
// Entity is returned.
func (w *World) CloneEntity(src Entity) (Entity, error) {
	s, err := w.slotOf(src)
	if err != nil {
		return Entity{}, eris.Wrap(err, "clone entity")
	}
	comps := make([]Component, len(s.components))
	copy(comps, s.components)
	enabled := s.enabled

	dst := w.createEntity(enabled)
	for i, c := range comps {
		if c == nil {
			continue
		}
		id := ComponentID(i)
		cp, err := registry.clone(id, c)
		if err == nil {
			err = w.attach(dst, id, cp)
		}
		if err != nil {
			_ = w.KillEntity(dst)
			return Entity{}, eris.Wrapf(err, "clone %s", registry.Name(id))
		}
	}
	return dst, nil
}

// AddSystem registers s and matches it against every existing entity.
// Registering two systems of the same concrete type is an error.
func (w *World) AddSystem(s System) error {
	b := s.base()
	if b == nil {
		return eris.Errorf("system %T has no BaseSystem", s)
	}
	typ := reflect.TypeOf(s)
	if _, ok := w.byType[typ]; ok {
		return eris.Wrapf(ErrSystemExists, "%s", typ)
	}
	if b.world != nil {
		return eris.Wrapf(ErrSystemExists, "%s is attached to another world", typ)
	}

	b.attach(w, s, registry.systemType(typ))
	w.byType[typ] = s
	w.systems = append(w.systems, s)
	sort.SliceStable(w.systems, func(i, j int) bool {
		return w.systems[i].Phase() < w.systems[j].Phase()
	})

	for i := 0; i < w.pool.Cap(); i++ {
		id, ok := w.pool.Current(uint32(i))
		if !ok {
			continue
		}
		slot := w.slots[i]
		b.validate(id, slot.mask, slot.enabled && !slot.dying)
	}
	w.log.Debug("system added",
		zap.Stringer("type", typ),
		zap.Int("phase", int(s.Phase())),
		zap.Stringer("filter", b.filter),
		zap.Int("matched", b.Len()),
	)
	return nil
}

// GetSystem returns the registered system of type T.
func GetSystem[T System](w *World) (T, bool) {
	s, ok := w.byType[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return s.(T), true
}

func HasSystem[T System](w *World) bool {
	_, ok := w.byType[reflect.TypeFor[T]()]
	return ok
}

// RemoveSystem unregisters the system of type T, firing its removal hook for
// every matched entity.
func RemoveSystem[T System](w *World) error {
	typ := reflect.TypeFor[T]()
	s, ok := w.byType[typ]
	if !ok {
		return eris.Wrapf(ErrSystemNotFound, "%s", typ)
	}
	w.removeSystem(typ, s)
	return nil
}

func (w *World) removeSystem(typ reflect.Type, s System) {
	delete(w.byType, typ)
	for i, other := range w.systems {
		if other == s {
			w.systems = append(w.systems[:i], w.systems[i+1:]...)
			break
		}
	}
	s.base().detach()
	w.log.Debug("system removed", zap.Stringer("type", typ))
}

// Systems returns the registered systems in update order.
func (w *World) Systems() []System {
	out := make([]System, len(w.systems))
	copy(out, w.systems)
	return out
}

// Update runs one frame: last frame's events are dispatched, every enabled
// system runs in phase order, then Refresh retires entities killed during
// the frame.
func (w *World) Update(dt time.Duration) {
	if w.bus != nil {
		w.bus.SwapBuffers()
		w.bus.DispatchAll()
	}

	w.runQueue = append(w.runQueue[:0], w.systems...)
	for _, s := range w.runQueue {
		b := s.base()
		if b.world != w || !b.enabled {
			continue
		}
		s.Update(dt)
	}
	clear(w.runQueue)

	w.Refresh()
}

// Close destroys every entity and removes every system.
func (w *World) Close() {
	w.Each(func(e Entity) { _ = w.KillEntity(e) })
	w.Refresh()
	for typ, s := range w.byType {
		w.removeSystem(typ, s)
	}
}

func (w *World) slotOf(e Entity) (*entitySlot, error) {
	if e.world != w {
		return nil, eris.Wrapf(ErrEntityNotFound, "%s belongs to another world", e)
	}
	return e.slot()
}

func (w *World) slotFor(id EntityID) (*entitySlot, bool) {
	if !w.pool.Alive(id) {
		return nil, false
	}
	return w.slots[id.Index()], true
}

// attach stores c under id on e, running the attach protocol. An existing
// instance of the same type is removed first with the full detach protocol.
func (w *World) attach(e Entity, id ComponentID, c Component) error {
	s, err := w.slotOf(e)
	if err != nil {
		return err
	}
	if s.has(id) {
		w.detach(e, s, id, true)
	}

	for int(id) >= len(s.components) {
		s.components = append(s.components, nil)
	}
	s.components[id] = c
	s.mask.Set(id)

	if b, ok := c.(ownerBinder); ok {
		b.bindOwner(e)
	}
	if h, ok := c.(Attacher); ok {
		h.OnAttached(e)
	}
	for i := 0; i < len(s.components); i++ {
		other := s.components[i]
		if other == nil || ComponentID(i) == id {
			continue
		}
		if o, ok := other.(SiblingAttachObserver); ok {
			o.OnComponentAttached(e, c)
		}
	}

	w.publish(func(b *event.Bus) { event.Emit(b, ComponentAttached{Entity: e, Component: id}) })
	if w.pool.Alive(e.id) {
		w.validate(e, s)
	}
	return nil
}

// detach runs the detach protocol for the component stored under id.
func (w *World) detach(e Entity, s *entitySlot, id ComponentID, revalidate bool) {
	c := s.components[id]

	if h, ok := c.(Detacher); ok {
		h.OnDetached(e)
	}
	for i := 0; i < len(s.components); i++ {
		other := s.components[i]
		if other == nil || ComponentID(i) == id {
			continue
		}
		if o, ok := other.(SiblingDetachObserver); ok {
			o.OnComponentDetached(e, c)
		}
	}
	if !s.has(id) || s.components[id] != c {
		// A hook already removed or replaced it.
		return
	}

	s.components[id] = nil
	s.mask.Remove(id)
	if d, ok := c.(Destroyer); ok {
		d.Destroy()
	}

	w.publish(func(b *event.Bus) { event.Emit(b, ComponentDetached{Entity: e, Component: id}) })
	if revalidate {
		w.validate(e, s)
	}
}

// validate re-evaluates e's membership in every system.
func (w *World) validate(e Entity, s *entitySlot) {
	eligible := s.enabled && !s.dying
	for _, sys := range w.systems {
		sys.base().validate(e.id, s.mask, eligible)
	}
}

func (w *World) publish(fn func(*event.Bus)) {
	if w.bus != nil {
		fn(w.bus)
	}
}
