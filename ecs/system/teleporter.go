package system

import (
	"go.uber.org/zap"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/physics"
)

// TeleporterSystem moves anything overlapping a teleporter to just above its
// paired teleporter, then holds that entity on cooldown.
type TeleporterSystem struct {
	physics   *physics.World
	tuning    common.Tuning
	cooldowns *Cooldowns
	log       *zap.Logger
}

func NewTeleporterSystem(pw *physics.World, tuning common.Tuning, log *zap.Logger) (*TeleporterSystem, error) {
	cd, err := NewCooldowns(tuning.TeleportCooldown, tuning.TeleportPrune)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TeleporterSystem{physics: pw, tuning: tuning, cooldowns: cd, log: log}, nil
}

// Cooldowns exposes the arena so level loads can clear it.
func (s *TeleporterSystem) Cooldowns() *Cooldowns {
	return s.cooldowns
}

func (s *TeleporterSystem) Update(w *ecs.World) {
	now := w.Now()
	s.cooldowns.Sweep(now)

	var movers []ecs.Entity
	ecs.ForEach2(w, component.TeleporterComponent.Kind(), component.BodyComponent.Kind(), func(tpEnt ecs.Entity, tp *component.Teleporter, tpBody *component.Body) {
		target, ok := w.Lookup(tp.TargetID)
		if !ok || target == tpEnt {
			return
		}
		if _, ok := ecs.Get(w, target, component.LevelObjectComponent.Kind()); !ok {
			return
		}
		targetBody, ok := ecs.Get(w, target, component.BodyComponent.Kind())
		if !ok {
			return
		}
		area, ok := s.physics.Bounds(tpBody.Handle)
		if !ok {
			return
		}
		if movers == nil {
			movers = Movable(w)
		}
		for _, m := range movers {
			if m == tpEnt {
				continue
			}
			mb, ok := ecs.Get(w, m, component.BodyComponent.Kind())
			if !ok {
				continue
			}
			mArea, ok := s.physics.Bounds(mb.Handle)
			if !ok || !area.Intersects(mArea) {
				continue
			}
			id := IDOf(w, m)
			if !s.cooldowns.Ready(id, now) {
				continue
			}
			dest, ok := s.physics.Position(targetBody.Handle)
			if !ok {
				continue
			}
			dest.Y -= targetBody.HalfH + mb.HalfH + s.tuning.TeleportMargin
			s.physics.SetPosition(mb.Handle, dest)
			s.physics.SetVelocity(mb.Handle, common.Vec{})
			s.cooldowns.Start(id, now)

			from := IDOf(w, tpEnt)
			s.log.Debug("teleported", zap.String("entity", id), zap.String("from", from), zap.String("to", tp.TargetID))
			w.Events().Push(ecs.Event{Type: ecs.EventTeleported, Data: ecs.TeleportedEvent{EntityID: id, From: from, To: tp.TargetID}})
		}
	})
}
