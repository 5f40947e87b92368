package system

import (
	"time"

	"github.com/l1jgo/devkit/internal/component"
	"github.com/l1jgo/devkit/internal/core/ecs"
	"go.uber.org/zap"
)

// LifetimeSystem counts down Lifetime components and kills expired entities.
// Phase PostUpdate, so movement and scripts still see the entity on its last
// frame; the World's end-of-frame Refresh retires it.
type LifetimeSystem struct {
	*ecs.BaseSystem
	log     *zap.Logger
	expired int
}

func NewLifetimeSystem(log *zap.Logger) *LifetimeSystem {
	return &LifetimeSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.PhasePostUpdate, ecs.Requires(component.LifetimeType)),
		log:        log,
	}
}

func (s *LifetimeSystem) Update(dt time.Duration) {
	s.Each(func(e ecs.Entity) {
		lt := component.LifetimeType.MustGet(e)
		lt.Remaining -= dt
		if lt.Remaining > 0 {
			return
		}
		if err := e.Kill(); err != nil {
			s.log.Warn("kill expired entity", zap.Stringer("entity", e), zap.Error(err))
			return
		}
		s.expired++
		s.log.Debug("lifetime expired", zap.Stringer("entity", e))
	})
}

// Expired returns how many entities this system has killed.
func (s *LifetimeSystem) Expired() int { return s.expired }
