package component

import (
	"io"

	"github.com/l1jgo/devkit/internal/core/ecs"
)

// Renderable describes what a renderer should draw for the entity. Resource
// is the opaque engine-side handle (GPU buffers and the like); it is owned by
// the component and released when the component is destroyed.
type Renderable struct {
	ecs.ComponentBase `yaml:"-" json:"-"`

	Mesh     string    `yaml:"mesh" json:"mesh"`
	Layer    int       `yaml:"layer" json:"layer"`
	Visible  bool      `yaml:"visible" json:"visible"`
	Resource io.Closer `yaml:"-" json:"-"`
}

func (*Renderable) Name() string { return "renderable" }

// OnComponentAttached hides the renderable while its entity is frozen.
func (r *Renderable) OnComponentAttached(_ ecs.Entity, c ecs.Component) {
	if _, ok := c.(*Frozen); ok {
		r.Visible = false
	}
}

// OnComponentDetached shows it again once the freeze is lifted.
func (r *Renderable) OnComponentDetached(_ ecs.Entity, c ecs.Component) {
	if _, ok := c.(*Frozen); ok {
		r.Visible = true
	}
}

// Clone copies the description but not the native resource; the clone
// acquires its own.
func (r *Renderable) Clone() ecs.Component {
	return &Renderable{Mesh: r.Mesh, Layer: r.Layer, Visible: r.Visible}
}

func (r *Renderable) Destroy() {
	if r.Resource != nil {
		_ = r.Resource.Close()
		r.Resource = nil
	}
}
