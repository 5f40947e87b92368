package system

import (
	"math"
	"time"

	"github.com/l1jgo/devkit/internal/component"
	"github.com/l1jgo/devkit/internal/core/ecs"
)

// CleanupSystem kills entities whose Node drifted further than Radius from
// the origin. Phase PostUpdate; the kill is finalized by the World's
// end-of-frame Refresh.
type CleanupSystem struct {
	*ecs.BaseSystem
	Radius float64
}

func NewCleanupSystem(radius float64) *CleanupSystem {
	if radius <= 0 {
		radius = math.Inf(1)
	}
	return &CleanupSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.PhasePostUpdate, ecs.Requires(component.NodeType)),
		Radius:     radius,
	}
}

func (s *CleanupSystem) Update(_ time.Duration) {
	s.Each(func(e ecs.Entity) {
		if component.NodeType.MustGet(e).Position.Len() > s.Radius {
			_ = e.Kill()
		}
	})
}
