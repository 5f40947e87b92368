package component

import "github.com/l1jgo/devkit/internal/core/ecs"

// Script binds an entity to a Lua handler function run once per frame.
type Script struct {
	Handler string             `yaml:"handler" json:"handler"`
	Params  map[string]float64 `yaml:"params" json:"params"`
}

func (*Script) Name() string { return "script" }

func (s *Script) Clone() ecs.Component {
	cp := &Script{Handler: s.Handler}
	if s.Params != nil {
		cp.Params = make(map[string]float64, len(s.Params))
		for k, v := range s.Params {
			cp.Params[k] = v
		}
	}
	return cp
}
