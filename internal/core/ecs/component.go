package ecs

import (
	"github.com/rotisserie/eris"
)

// ComponentID is the dense index assigned to a component type on registration.
type ComponentID = uint32

// Component is the interface every component implements. Name must be stable
// across program runs; it keys the registry, prefab files and snapshots.
type Component interface {
	Name() string
}

// Lifecycle hooks a component may implement. All hooks run synchronously on
// the World's goroutine; a panic inside a hook propagates to the caller.
type (
	// Attacher runs after the component is stored and its bit is set.
	Attacher interface {
		OnAttached(e Entity)
	}
	// Detacher runs before the component is removed from its entity.
	Detacher interface {
		OnDetached(e Entity)
	}
	// SiblingAttachObserver is told when another component joins its entity.
	SiblingAttachObserver interface {
		OnComponentAttached(e Entity, c Component)
	}
	// SiblingDetachObserver is told when another component leaves its entity.
	SiblingDetachObserver interface {
		OnComponentDetached(e Entity, c Component)
	}
	// Destroyer releases native resources. Called once, after detach hooks and
	// before the owning slot can be reused.
	Destroyer interface {
		Destroy()
	}
	// Cloner returns a deep copy used by World.CloneEntity. Components that do
	// not implement it are copied by value.
	Cloner interface {
		Clone() Component
	}
)

type ownerBinder interface {
	bindOwner(e Entity)
}

// ComponentBase gives a component a non-owning reference to its entity.
// Embed it by value; the World sets the owner on attach.
type ComponentBase struct {
	owner Entity
}

// Entity returns the entity this component is attached to.
func (b *ComponentBase) Entity() Entity { return b.owner }

func (b *ComponentBase) bindOwner(e Entity) { b.owner = e }

// ComponentKey is implemented by every ComponentType and is what filters are
// built from.
type ComponentKey interface {
	ID() ComponentID
	Name() string
}

// ComponentType is the typed accessor returned by RegisterComponent. It is a
// small value; keep one per component type in a package-level variable.
type ComponentType[T any] struct {
	id   ComponentID
	name string
}

func (ct ComponentType[T]) ID() ComponentID { return ct.id }
func (ct ComponentType[T]) Name() string    { return ct.name }

func (ct ComponentType[T]) check() error {
	if ct.name == "" {
		return eris.Wrap(ErrComponentNotRegistered, "zero ComponentType")
	}
	return nil
}

// Add attaches v to e, replacing any instance of the same type.
func (ct ComponentType[T]) Add(e Entity, v *T) error {
	if err := ct.check(); err != nil {
		return err
	}
	w, err := e.resolve()
	if err != nil {
		return err
	}
	return w.attach(e, ct.id, any(v).(Component))
}

// Get returns the instance attached to e.
func (ct ComponentType[T]) Get(e Entity) (*T, error) {
	if err := ct.check(); err != nil {
		return nil, err
	}
	c, err := e.Component(ct.id)
	if err != nil {
		return nil, eris.Wrapf(err, "get %s", ct.name)
	}
	return any(c).(*T), nil
}

// MustGet is Get for callers that have already established the component is
// present, such as systems whose filter requires it. It panics otherwise.
func (ct ComponentType[T]) MustGet(e Entity) *T {
	v, err := ct.Get(e)
	if err != nil {
		panic(err)
	}
	return v
}

func (ct ComponentType[T]) Has(e Entity) bool {
	return ct.name != "" && e.Has(ct.id)
}

// Remove detaches the component from e. Removing an absent component is a no-op.
func (ct ComponentType[T]) Remove(e Entity) error {
	if err := ct.check(); err != nil {
		return err
	}
	return e.RemoveComponent(ct.id)
}
