package system

import (
	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/levels"
)

// Movable lists every entity whose body physics may move: players, free
// bodies and non-static level objects.
func Movable(w *ecs.World) []ecs.Entity {
	var out []ecs.Entity
	ecs.ForEach2(w, component.IdentityComponent.Kind(), component.BodyComponent.Kind(), func(e ecs.Entity, _ *component.Identity, b *component.Body) {
		if !b.Static {
			out = append(out, e)
		}
	})
	return out
}

// IDOf returns the client-facing id of e, or "".
func IDOf(w *ecs.World, e ecs.Entity) string {
	if id, ok := ecs.Get(w, e, component.IdentityComponent.Kind()); ok {
		return id.ID
	}
	return ""
}

// CurrentLevel returns the loaded level descriptor, or nil before the first
// load.
func CurrentLevel(w *ecs.World) *component.LevelState {
	e, ok := w.First(component.LevelStateComponent.Kind())
	if !ok {
		return nil
	}
	st, _ := ecs.Get(w, e, component.LevelStateComponent.Kind())
	return st
}

// SpawnPosition picks where a new or fallen entity appears. Players prefer a
// playerspawn; everything then tries the first spawnpoint and finally the
// tuning fallback.
func SpawnPosition(w *ecs.World, tuning common.Tuning, forPlayer bool) common.Vec {
	fallback := common.Vec{X: tuning.FallbackX, Y: tuning.FallbackY}
	st := CurrentLevel(w)
	if st == nil || st.Level == nil {
		return fallback
	}
	if forPlayer {
		if spawns := st.Level.Tagged(levels.TagPlayerSpawn); len(spawns) > 0 {
			return spawns[0].Position()
		}
	}
	if spawns := st.Level.Tagged(levels.TagSpawnPoint); len(spawns) > 0 {
		return spawns[0].Position()
	}
	return fallback
}

// HomePosition returns the position of the named level object, falling back
// to SpawnPosition when it no longer exists.
func HomePosition(w *ecs.World, tuning common.Tuning, objectID string) common.Vec {
	if st := CurrentLevel(w); st != nil && st.Level != nil && objectID != "" {
		if obj := st.Level.Object(objectID); obj != nil {
			return obj.Position()
		}
	}
	return SpawnPosition(w, tuning, false)
}
