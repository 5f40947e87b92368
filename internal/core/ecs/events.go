package ecs

// Lifecycle events published on the World's event bus, if one is configured.
// They are delivered at the start of the following frame, so handlers must
// check Entity.Valid() before touching the entity.

type EntityCreated struct {
	Entity Entity
}

type EntityKilled struct {
	Entity Entity
}

// EntityDestroyed carries the retired id; the handle is already invalid.
type EntityDestroyed struct {
	ID EntityID
}

type ComponentAttached struct {
	Entity    Entity
	Component ComponentID
}

type ComponentDetached struct {
	Entity    Entity
	Component ComponentID
}
