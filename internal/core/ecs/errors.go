package ecs

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when a handle no longer names a valid entity,
	// either because it was destroyed or because it was never issued by this World.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrComponentNotFound is returned when a component is read from an entity
	// that does not carry it.
	ErrComponentNotFound = eris.New("component not attached")

	// ErrComponentNotRegistered is returned for component names or types that
	// were never registered with the component registry.
	ErrComponentNotRegistered = eris.New("component type not registered")

	// ErrCloneType is returned by CloneEntity when a Cloner yields a value of
	// a different type than the component it copies.
	ErrCloneType = eris.New("clone has the wrong component type")

	ErrSystemExists   = eris.New("system already registered")
	ErrSystemNotFound = eris.New("system not registered")
)
