package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/devkit/internal/core/ecs"
)

// Node places an entity in world space.
type Node struct {
	ecs.ComponentBase `yaml:"-" json:"-"`

	Position mgl64.Vec3 `yaml:"position" json:"position"`
	Scale    float64    `yaml:"scale" json:"scale"`
}

func (*Node) Name() string { return "node" }

// Translate moves the node by delta.
func (n *Node) Translate(delta mgl64.Vec3) {
	n.Position = n.Position.Add(delta)
}
