package ecs

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Entity is a weak handle to an entity in a World. It is a small comparable
// value, safe to copy, store in maps and hold across frames. Once the entity
// is destroyed the handle reports Valid() == false and every accessor returns
// ErrEntityNotFound, even if the slot has since been reused.
type Entity struct {
	world *World
	id    EntityID
}

func (e Entity) ID() EntityID  { return e.id }
func (e Entity) World() *World { return e.world }

// Valid reports whether the entity exists. Killed entities stay valid until
// the next Refresh.
func (e Entity) Valid() bool {
	return e.world != nil && e.world.pool.Alive(e.id)
}

func (e Entity) String() string {
	return fmt.Sprintf("entity(%d:%d)", e.id.Index(), e.id.Generation())
}

func (e Entity) resolve() (*World, error) {
	if e.world == nil {
		return nil, eris.Wrap(ErrEntityNotFound, "zero entity handle")
	}
	if !e.world.pool.Alive(e.id) {
		return nil, eris.Wrapf(ErrEntityNotFound, "%s", e)
	}
	return e.world, nil
}

func (e Entity) slot() (*entitySlot, error) {
	w, err := e.resolve()
	if err != nil {
		return nil, err
	}
	return w.slots[e.id.Index()], nil
}

// Kill marks the entity for destruction at the next Refresh.
func (e Entity) Kill() error {
	w, err := e.resolve()
	if err != nil {
		return err
	}
	return w.KillEntity(e)
}

// Dying reports whether the entity has been killed but not yet destroyed.
func (e Entity) Dying() bool {
	s, err := e.slot()
	return err == nil && s.dying
}

func (e Entity) Enabled() bool {
	s, err := e.slot()
	return err == nil && s.enabled
}

// Enable lets systems match the entity again.
func (e Entity) Enable() error { return e.setEnabled(true) }

// Disable removes the entity from every system without destroying it.
func (e Entity) Disable() error { return e.setEnabled(false) }

func (e Entity) setEnabled(enabled bool) error {
	s, err := e.slot()
	if err != nil {
		return err
	}
	if s.enabled == enabled {
		return nil
	}
	s.enabled = enabled
	e.world.validate(e, s)
	return nil
}

// Add attaches c, replacing any instance of the same type.
func (e Entity) Add(c Component) error {
	w, err := e.resolve()
	if err != nil {
		return err
	}
	id, err := registry.idOf(c)
	if err != nil {
		return err
	}
	return w.attach(e, id, c)
}

// RemoveComponent detaches the component with the given id. Removing an
// absent component is a no-op.
func (e Entity) RemoveComponent(id ComponentID) error {
	s, err := e.slot()
	if err != nil {
		return err
	}
	if !s.has(id) {
		return nil
	}
	e.world.detach(e, s, id, true)
	return nil
}

// Has reports whether the component bit is set. Invalid handles have nothing.
func (e Entity) Has(id ComponentID) bool {
	s, err := e.slot()
	return err == nil && s.mask.Contains(id)
}

// Component returns the untyped component with the given id.
func (e Entity) Component(id ComponentID) (Component, error) {
	s, err := e.slot()
	if err != nil {
		return nil, err
	}
	if !s.has(id) {
		return nil, eris.Wrapf(ErrComponentNotFound, "%s on %s", registry.Name(id), e)
	}
	return s.components[id], nil
}

// Components returns the attached components ordered by component id.
func (e Entity) Components() []Component {
	s, err := e.slot()
	if err != nil {
		return nil
	}
	out := make([]Component, 0, s.mask.Count())
	for _, c := range s.components {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Mask returns a copy of the entity's component mask.
func (e Entity) Mask() Mask {
	s, err := e.slot()
	if err != nil {
		return nil
	}
	return s.mask.Clone(nil)
}

// OnDestroy registers fn to run when the entity is destroyed by Refresh. The
// entity is still valid while fn runs.
func (e Entity) OnDestroy(fn func(Entity)) error {
	s, err := e.slot()
	if err != nil {
		return err
	}
	s.observers = append(s.observers, fn)
	return nil
}

// Owner holds the single owning reference to an entity: closing or resetting
// it kills the entity. Any number of Entity handles may observe the same
// entity alongside one Owner. Owners are not safe to copy; pass *Owner.
type Owner struct {
	e Entity
}

func NewOwner(e Entity) *Owner {
	return &Owner{e: e}
}

// Entity returns a weak handle to the owned entity.
func (o *Owner) Entity() Entity { return o.e }

func (o *Owner) Valid() bool { return o.e.Valid() }

// Reset kills the currently owned entity, if any, and takes ownership of e.
func (o *Owner) Reset(e Entity) error {
	err := o.kill()
	o.e = e
	return err
}

// Take moves ownership out of other into o. The entity previously owned by o
// is killed first; other is left empty.
func (o *Owner) Take(other *Owner) error {
	if other == o {
		return nil
	}
	err := o.kill()
	o.e = other.e
	other.e = Entity{}
	return err
}

// Release gives up ownership without killing and returns the handle.
func (o *Owner) Release() Entity {
	e := o.e
	o.e = Entity{}
	return e
}

// Close kills the owned entity and empties the owner.
func (o *Owner) Close() error {
	err := o.kill()
	o.e = Entity{}
	return err
}

func (o *Owner) kill() error {
	if !o.e.Valid() {
		return nil
	}
	return o.e.Kill()
}
