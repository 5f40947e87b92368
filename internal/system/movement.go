package system

import (
	"time"

	"github.com/l1jgo/devkit/internal/component"
	"github.com/l1jgo/devkit/internal/core/ecs"
)

// MovementSystem integrates Velocity into Node position every frame.
// Frozen entities are skipped.
type MovementSystem struct {
	*ecs.BaseSystem
}

func NewMovementSystem() *MovementSystem {
	return &MovementSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.PhaseUpdate,
			ecs.Requires(component.NodeType, component.VelocityType).Excludes(component.FrozenType)),
	}
}

func (s *MovementSystem) Update(dt time.Duration) {
	s.Each(func(e ecs.Entity) {
		node := component.NodeType.MustGet(e)
		vel := component.VelocityType.MustGet(e)
		node.Translate(vel.Step(dt))
	})
}
