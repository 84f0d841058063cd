package system

import (
	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/physics"
)

// InputSystem turns each player's held directions into a thrust force.
// Directions are summed without normalising, so diagonals are faster.
type InputSystem struct {
	physics *physics.World
	accel   float64
}

func NewInputSystem(pw *physics.World, tuning common.Tuning) *InputSystem {
	return &InputSystem{physics: pw, accel: tuning.MoveAccel}
}

func (s *InputSystem) Update(w *ecs.World) {
	ecs.ForEach2(w, component.PlayerComponent.Kind(), component.BodyComponent.Kind(), func(e ecs.Entity, p *component.Player, b *component.Body) {
		dir := InputDirection(p.Input)
		if dir == (common.Vec{}) {
			return
		}
		mass := s.physics.Mass(b.Handle)
		s.physics.ApplyForce(b.Handle, dir.Scale(s.accel*mass))
	})
}

// InputDirection sums one unit per held key; screen y grows downward.
func InputDirection(in component.Input) common.Vec {
	var d common.Vec
	if in.Up {
		d.Y--
	}
	if in.Down {
		d.Y++
	}
	if in.Left {
		d.X--
	}
	if in.Right {
		d.X++
	}
	return d
}
