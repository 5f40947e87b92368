package component

import (
	"time"

	"github.com/l1jgo/devkit/internal/core/ecs"
)

// Lifetime kills its entity once Remaining reaches zero.
type Lifetime struct {
	Remaining time.Duration `yaml:"remaining" json:"remaining"`
	Total     time.Duration `yaml:"-" json:"total"`
}

func (*Lifetime) Name() string { return "lifetime" }

// OnAttached records the starting duration so Fraction can be computed later.
func (l *Lifetime) OnAttached(_ ecs.Entity) {
	if l.Total == 0 {
		l.Total = l.Remaining
	}
}

// Fraction returns the share of the lifetime still left, in [0, 1].
func (l *Lifetime) Fraction() float64 {
	if l.Total <= 0 {
		return 0
	}
	f := float64(l.Remaining) / float64(l.Total)
	if f < 0 {
		return 0
	}
	return f
}
