package system

import (
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/physics"
)

// PhysicsSystem advances the space by exactly one fixed step.
type PhysicsSystem struct {
	physics *physics.World
}

func NewPhysicsSystem(pw *physics.World) *PhysicsSystem {
	return &PhysicsSystem{physics: pw}
}

func (s *PhysicsSystem) Update(w *ecs.World) {
	s.physics.Step(w.Step())
}
