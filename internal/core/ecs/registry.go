package ecs

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

type componentInfo struct {
	name  string
	typ   reflect.Type
	new   func() Component
	clone func(Component) Component
}

// Registry maps component names to dense ComponentIDs and keeps the
// constructor and copy function for each type. Registration is lazy and
// idempotent, so it does not depend on package init order.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]ComponentID
	infos  []componentInfo

	systems map[reflect.Type]SystemTypeID
}

func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]ComponentID, 32),
		infos:   make([]componentInfo, 0, 32),
		systems: make(map[reflect.Type]SystemTypeID, 16),
	}
}

var registry = NewRegistry()

// Components returns the process-wide component registry.
func Components() *Registry { return registry }

type componentPtr[T any] interface {
	*T
	Component
}

// RegisterComponent registers *T as a component type and returns its typed
// accessor. Calling it again for the same type returns the same id. Two
// different Go types declaring the same Name is a programming error and panics.
func RegisterComponent[T any, PT componentPtr[T]]() ComponentType[T] {
	name := PT(new(T)).Name()
	typ := reflect.TypeFor[*T]()

	clone := func(c Component) Component {
		cp := *any(c).(*T)
		return PT(&cp)
	}
	if _, ok := any(PT(new(T))).(Cloner); ok {
		clone = func(c Component) Component { return c.(Cloner).Clone() }
	}

	id := registry.register(componentInfo{
		name:  name,
		typ:   typ,
		new:   func() Component { return PT(new(T)) },
		clone: clone,
	})
	return ComponentType[T]{id: id, name: name}
}

func (r *Registry) register(info componentInfo) ComponentID {
	if info.name == "" {
		panic(fmt.Sprintf("ecs: component %s has an empty name", info.typ))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[info.name]; ok {
		if existing := r.infos[id].typ; existing != info.typ {
			panic(fmt.Sprintf("ecs: component name %q registered by %s and %s", info.name, existing, info.typ))
		}
		return id
	}
	id := ComponentID(len(r.infos))
	r.infos = append(r.infos, info)
	r.byName[info.name] = id
	return id
}

// Lookup returns the id registered for name.
func (r *Registry) Lookup(name string) (ComponentID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// Name returns the name registered for id, or "" if id is unknown.
func (r *Registry) Name(id ComponentID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.infos) {
		return ""
	}
	return r.infos[id].name
}

// New constructs a zero-valued component by registered name. Decoders use it
// to materialize components from prefab files and snapshots.
func (r *Registry) New(name string) (Component, error) {
	r.mu.RLock()
	id, ok := r.byName[name]
	var fn func() Component
	if ok {
		fn = r.infos[id].new
	}
	r.mu.RUnlock()
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotRegistered, "component %q", name)
	}
	return fn(), nil
}

// Names lists every registered component name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// idOf resolves the id of a component value through its name and checks the
// concrete type matches the registration.
func (r *Registry) idOf(c Component) (ComponentID, error) {
	if c == nil {
		return 0, eris.New("nil component")
	}
	name := c.Name()
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %q", name)
	}
	if typ := reflect.TypeOf(c); typ != r.infos[id].typ {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %q registered as %s, got %s", name, r.infos[id].typ, typ)
	}
	return id, nil
}

func (r *Registry) clone(id ComponentID, c Component) (Component, error) {
	r.mu.RLock()
	info := r.infos[id]
	r.mu.RUnlock()
	cp := info.clone(c)
	if typ := reflect.TypeOf(cp); cp == nil || typ != info.typ {
		return nil, eris.Wrapf(ErrCloneType, "%s clone returned %v", info.name, typ)
	}
	return cp, nil
}

// SystemTypeID is the dense index assigned to a concrete system type.
type SystemTypeID uint32

func (r *Registry) systemType(typ reflect.Type) SystemTypeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.systems[typ]; ok {
		return id
	}
	id := SystemTypeID(len(r.systems))
	r.systems[typ] = id
	return id
}
