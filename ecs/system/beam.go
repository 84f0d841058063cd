package system

import (
	"math"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/physics"
)

// BeamSystem lifts whatever sits in an active player's beam cone and nudges
// it under the craft. The nearest hit becomes the player's BeamTarget.
type BeamSystem struct {
	physics *physics.World
	tuning  common.Tuning
}

func NewBeamSystem(pw *physics.World, tuning common.Tuning) *BeamSystem {
	return &BeamSystem{physics: pw, tuning: tuning}
}

// BeamCone returns the trapezoid under a craft at origin, near edge first.
func BeamCone(origin common.Vec, tuning common.Tuning) []common.Vec {
	top := origin.Y + tuning.BeamOffset
	bottom := top + tuning.BeamRange
	near, far := tuning.BeamNearWidth/2, tuning.BeamFarWidth/2
	return []common.Vec{
		{X: origin.X - near, Y: top},
		{X: origin.X + near, Y: top},
		{X: origin.X + far, Y: bottom},
		{X: origin.X - far, Y: bottom},
	}
}

// BeamFactor scales lift by distance: 1 at the craft, never below MinFactor.
func BeamFactor(dist float64, tuning common.Tuning) float64 {
	return math.Max(tuning.BeamMinFactor, 1-dist/tuning.BeamRange)
}

func (s *BeamSystem) Update(w *ecs.World) {
	var candidates []ecs.Entity
	ecs.ForEach2(w, component.PlayerComponent.Kind(), component.BodyComponent.Kind(), func(e ecs.Entity, p *component.Player, b *component.Body) {
		if !p.BeamActive {
			p.BeamTarget = ""
			return
		}
		if candidates == nil {
			candidates = Movable(w)
		}
		origin, ok := s.physics.Position(b.Handle)
		if !ok {
			return
		}

		handles := make([]physics.BodyID, 0, len(candidates))
		owners := make(map[physics.BodyID]ecs.Entity, len(candidates))
		for _, c := range candidates {
			if c == e {
				continue
			}
			cb, _ := ecs.Get(w, c, component.BodyComponent.Kind())
			handles = append(handles, cb.Handle)
			owners[cb.Handle] = c
		}

		hits := s.physics.QueryPolygonOverlap(BeamCone(origin, s.tuning), handles)
		nearest, best := "", math.Inf(1)
		for _, h := range hits {
			pos, _ := s.physics.Position(h)
			dist := pos.Dist(origin)
			s.lift(h, origin, pos, dist)
			if dist < best {
				best = dist
				nearest = IDOf(w, owners[h])
			}
		}
		p.BeamTarget = nearest
	})
}

func (s *BeamSystem) lift(h physics.BodyID, origin, pos common.Vec, dist float64) {
	mass := s.physics.Mass(h)
	if mass == 0 {
		return
	}
	up := -mass * s.tuning.BeamLiftAccel * BeamFactor(dist, s.tuning)
	maxSide := mass * s.tuning.BeamMaxLateralAccel
	side := common.Clamp(mass*s.tuning.BeamCenteringGain*(origin.X-pos.X), -maxSide, maxSide)
	s.physics.ApplyForce(h, common.Vec{X: side, Y: up})
}
