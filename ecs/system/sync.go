package system

import (
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/physics"
)

// SyncSystem copies body poses into Transform. Within a tick it is the only
// writer of Transform.
type SyncSystem struct {
	physics *physics.World
}

func NewSyncSystem(pw *physics.World) *SyncSystem {
	return &SyncSystem{physics: pw}
}

func (s *SyncSystem) Update(w *ecs.World) {
	ecs.ForEach2(w, component.BodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, b *component.Body, t *component.Transform) {
		if b.Static {
			return
		}
		pos, ok := s.physics.Position(b.Handle)
		if !ok {
			return
		}
		t.X, t.Y = pos.X, pos.Y
		t.Angle = s.physics.Angle(b.Handle)
	})
}
