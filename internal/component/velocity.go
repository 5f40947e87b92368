package component

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Velocity is a linear velocity in units per second.
type Velocity struct {
	Linear mgl64.Vec3 `yaml:"linear" json:"linear"`
}

func (*Velocity) Name() string { return "velocity" }

// Step returns the displacement covered over dt.
func (v *Velocity) Step(dt time.Duration) mgl64.Vec3 {
	return v.Linear.Mul(dt.Seconds())
}
