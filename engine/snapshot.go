package engine

import (
	"sort"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/ecs/system"
)

// PlayerState is the client-safe view of a player.
type PlayerState struct {
	ID         string  `json:"id" msgpack:"id"`
	Username   string  `json:"username" msgpack:"username"`
	UserID     string  `json:"userId" msgpack:"userId"`
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	BeamActive bool    `json:"beamActive" msgpack:"beamActive"`
	BeamTarget *string `json:"beamTarget" msgpack:"beamTarget"`
	XP         int     `json:"xp" msgpack:"xp"`
	Level      int     `json:"level" msgpack:"level"`
}

type FreeBodyState struct {
	ID     string  `json:"id" msgpack:"id"`
	Type   string  `json:"type" msgpack:"type"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Angle  float64 `json:"angle" msgpack:"angle"`
	Radius float64 `json:"radius" msgpack:"radius"`
	Name   string  `json:"name,omitempty" msgpack:"name,omitempty"`
	URL    string  `json:"url,omitempty" msgpack:"url,omitempty"`
}

type ObjectState struct {
	ID    string  `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Angle float64 `json:"angle" msgpack:"angle"`
}

type ConstraintState struct {
	ID     string     `json:"id" msgpack:"id"`
	Type   string     `json:"type" msgpack:"type"`
	BodyA  string     `json:"bodyA" msgpack:"bodyA"`
	BodyB  string     `json:"bodyB" msgpack:"bodyB"`
	A      common.Vec `json:"a" msgpack:"a"`
	B      common.Vec `json:"b" msgpack:"b"`
	Length float64    `json:"length" msgpack:"length"`
}

// Snapshot is a self-contained copy of everything clients draw. Every slice
// is sorted by id.
type Snapshot struct {
	Tick         uint64            `json:"tick" msgpack:"tick"`
	Level        string            `json:"level" msgpack:"level"`
	Players      []PlayerState     `json:"players" msgpack:"players"`
	FreeBodies   []FreeBodyState   `json:"freeBodies" msgpack:"freeBodies"`
	LevelObjects []ObjectState     `json:"levelObjects" msgpack:"levelObjects"`
	Constraints  []ConstraintState `json:"constraints" msgpack:"constraints"`
}

// Snapshot captures the state left by the last completed tick.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Tick:         e.world.Tick(),
		Level:        e.levelState().Name,
		Players:      make([]PlayerState, 0, len(e.players)),
		FreeBodies:   []FreeBodyState{},
		LevelObjects: []ObjectState{},
		Constraints:  []ConstraintState{},
	}

	for _, ent := range e.players {
		snap.Players = append(snap.Players, e.playerState(ent))
	}

	ecs.ForEach(e.world, component.FreeBodyComponent.Kind(), func(ent ecs.Entity, fb *component.FreeBody) {
		t, _ := ecs.Get(e.world, ent, component.TransformComponent.Kind())
		b, _ := ecs.Get(e.world, ent, component.BodyComponent.Kind())
		if t == nil || b == nil {
			return
		}
		snap.FreeBodies = append(snap.FreeBodies, FreeBodyState{
			ID:     system.IDOf(e.world, ent),
			Type:   fb.Type,
			X:      t.X,
			Y:      t.Y,
			Angle:  t.Angle,
			Radius: b.HalfW,
			Name:   fb.Name,
			URL:    fb.URL,
		})
	})

	ecs.ForEach(e.world, component.LevelObjectComponent.Kind(), func(ent ecs.Entity, lo *component.LevelObject) {
		st := ObjectState{ID: lo.Desc.ID, X: lo.Desc.X, Y: lo.Desc.Y, Angle: lo.Desc.Rotation}
		if t, ok := ecs.Get(e.world, ent, component.TransformComponent.Kind()); ok {
			st.X, st.Y, st.Angle = t.X, t.Y, t.Angle
		}
		snap.LevelObjects = append(snap.LevelObjects, st)
	})

	ecs.ForEach(e.world, component.JointComponent.Kind(), func(_ ecs.Entity, j *component.Joint) {
		a, b, ok := e.physics.ConstraintEndpoints(j.Handle)
		if !ok {
			return
		}
		snap.Constraints = append(snap.Constraints, ConstraintState{
			ID:     j.ID,
			Type:   string(j.Type),
			BodyA:  j.BodyA,
			BodyB:  j.BodyB,
			A:      a,
			B:      b,
			Length: j.Length,
		})
	})

	sort.Slice(snap.Players, func(i, j int) bool { return snap.Players[i].ID < snap.Players[j].ID })
	sort.Slice(snap.FreeBodies, func(i, j int) bool { return snap.FreeBodies[i].ID < snap.FreeBodies[j].ID })
	sort.Slice(snap.LevelObjects, func(i, j int) bool { return snap.LevelObjects[i].ID < snap.LevelObjects[j].ID })
	sort.Slice(snap.Constraints, func(i, j int) bool { return snap.Constraints[i].ID < snap.Constraints[j].ID })
	return snap
}

func (e *Engine) playerState(ent ecs.Entity) PlayerState {
	id, _ := ecs.Get(e.world, ent, component.IdentityComponent.Kind())
	p, _ := ecs.Get(e.world, ent, component.PlayerComponent.Kind())
	t, _ := ecs.Get(e.world, ent, component.TransformComponent.Kind())
	if id == nil || p == nil || t == nil {
		return PlayerState{}
	}
	st := PlayerState{
		ID:         id.ID,
		Username:   p.Username,
		UserID:     p.UserID,
		X:          t.X,
		Y:          t.Y,
		BeamActive: p.BeamActive,
		XP:         p.XP,
		Level:      p.Level,
	}
	if p.BeamTarget != "" {
		target := p.BeamTarget
		st.BeamTarget = &target
	}
	return st
}
