package scripting

import (
	"time"

	"github.com/l1jgo/devkit/internal/component"
	"github.com/l1jgo/devkit/internal/core/ecs"
	"go.uber.org/zap"
)

// ScriptSystem runs each scripted entity's Lua handler once per frame.
// Frozen entities are skipped. A failing handler is logged and the frame
// continues with the next entity.
type ScriptSystem struct {
	*ecs.BaseSystem
	engine *Engine
	log    *zap.Logger
	errors int
}

func NewScriptSystem(engine *Engine, log *zap.Logger) *ScriptSystem {
	return &ScriptSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.PhaseUpdate,
			ecs.Requires(component.ScriptType).Excludes(component.FrozenType)),
		engine: engine,
		log:    log,
	}
}

// OnEntityAdded warns early about handlers that do not exist.
func (s *ScriptSystem) OnEntityAdded(e ecs.Entity) {
	sc := component.ScriptType.MustGet(e)
	if !s.engine.HasHandler(sc.Handler) {
		s.log.Warn("script handler not defined", zap.Stringer("entity", e), zap.String("handler", sc.Handler))
	}
}

func (s *ScriptSystem) Update(dt time.Duration) {
	s.Each(func(e ecs.Entity) {
		sc := component.ScriptType.MustGet(e)
		if err := s.engine.Call(sc.Handler, e, dt, sc.Params); err != nil {
			s.errors++
			s.log.Error("script failed", zap.Stringer("entity", e), zap.Error(err))
		}
	})
}

// Errors returns the number of handler calls that failed.
func (s *ScriptSystem) Errors() int { return s.errors }
