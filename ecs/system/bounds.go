package system

import (
	"go.uber.org/zap"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/physics"
)

// BoundsSystem catches anything that fell below the world. Emotes are
// removed; everything else is put back with zero velocity. Marbles return to
// the spawnpoint that made them, other objects to the first spawnpoint.
type BoundsSystem struct {
	physics *physics.World
	tuning  common.Tuning
	log     *zap.Logger
}

func NewBoundsSystem(pw *physics.World, tuning common.Tuning, log *zap.Logger) *BoundsSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &BoundsSystem{physics: pw, tuning: tuning, log: log}
}

func (s *BoundsSystem) Update(w *ecs.World) {
	for _, e := range Movable(w) {
		b, _ := ecs.Get(w, e, component.BodyComponent.Kind())
		pos, ok := s.physics.Position(b.Handle)
		if !ok || pos.Y <= s.tuning.LowerBound {
			continue
		}
		id, _ := ecs.Get(w, e, component.IdentityComponent.Kind())

		switch id.Kind {
		case component.KindEmote:
			s.physics.DestroyBody(b.Handle)
			w.DestroyEntity(e)
			s.log.Debug("emote fell out of the world", zap.String("emote", id.ID))
			w.Events().Push(ecs.Event{Type: ecs.EventDespawned, Data: ecs.DespawnedEvent{EntityID: id.ID}})
			continue
		case component.KindPlayer:
			s.place(b.Handle, SpawnPosition(w, s.tuning, true), 0)
		case component.KindMarble:
			home := ""
			if fb, ok := ecs.Get(w, e, component.FreeBodyComponent.Kind()); ok {
				home = fb.Home
			}
			s.place(b.Handle, HomePosition(w, s.tuning, home), 0)
		case component.KindLevelObject:
			angle := 0.0
			if lo, ok := ecs.Get(w, e, component.LevelObjectComponent.Kind()); ok {
				angle = lo.Desc.Rotation
			}
			s.place(b.Handle, SpawnPosition(w, s.tuning, false), angle)
		default:
			continue
		}
		s.log.Debug("respawned fallen entity", zap.String("entity", id.ID), zap.Stringer("kind", id.Kind))
		w.Events().Push(ecs.Event{Type: ecs.EventRespawned, Data: ecs.RespawnedEvent{EntityID: id.ID}})
	}
}

func (s *BoundsSystem) place(h physics.BodyID, pos common.Vec, angle float64) {
	s.physics.SetPosition(h, pos)
	s.physics.SetAngle(h, angle)
	s.physics.SetVelocity(h, common.Vec{})
}
