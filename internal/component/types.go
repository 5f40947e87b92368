// Package component holds the stock components shipped with the devkit.
// Pure data plus the lifecycle hooks the ECS core calls; behavior lives in
// systems.
package component

import "github.com/l1jgo/devkit/internal/core/ecs"

// Registered component types. Registration is idempotent, so other packages
// may safely register the same types again.
var (
	NodeType       = ecs.RegisterComponent[Node]()
	VelocityType   = ecs.RegisterComponent[Velocity]()
	LifetimeType   = ecs.RegisterComponent[Lifetime]()
	FrozenType     = ecs.RegisterComponent[Frozen]()
	ScriptType     = ecs.RegisterComponent[Script]()
	RenderableType = ecs.RegisterComponent[Renderable]()
)
