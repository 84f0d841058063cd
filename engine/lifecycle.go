package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/ecs/system"
	"github.com/milk9111/tractorbeam/levels"
	"github.com/milk9111/tractorbeam/physics"
	"github.com/milk9111/tractorbeam/prefabs"
)

// AddPlayer creates the craft for a connection at the best spawn. Adding an
// id that is already present returns the existing player unchanged.
func (e *Engine) AddPlayer(connID, username, userID string) PlayerState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ent, ok := e.players[connID]; ok {
		return e.playerState(ent)
	}

	pos := system.SpawnPosition(e.world, e.tuning, true)
	spec := e.bodies.Player
	handle, err := e.physics.CreateBody(physics.BodyDef{
		Shape:         levels.Circle{Radius: spec.Radius},
		Material:      material(spec),
		Solid:         true,
		Position:      pos,
		Hover:         true,
		Drag:          e.tuning.PlayerDrag,
		FixedRotation: true,
	})
	if err != nil {
		e.log.Error("player body", zap.String("player", connID), zap.Error(err))
		return PlayerState{ID: connID, Username: username, UserID: userID}
	}

	ent := e.world.CreateEntity()
	e.world.SetName(ent, connID)
	_ = ecs.Add(e.world, ent, component.IdentityComponent.Kind(), &component.Identity{ID: connID, Kind: component.KindPlayer})
	_ = ecs.Add(e.world, ent, component.BodyComponent.Kind(), &component.Body{Handle: handle, HalfW: spec.Radius, HalfH: spec.Radius})
	_ = ecs.Add(e.world, ent, component.TransformComponent.Kind(), &component.Transform{X: pos.X, Y: pos.Y})
	_ = ecs.Add(e.world, ent, component.PlayerComponent.Kind(), &component.Player{Username: username, UserID: userID, Level: 1})
	e.players[connID] = ent

	e.log.Info("player joined", zap.String("player", connID), zap.String("username", username))
	return e.playerState(ent)
}

// RemovePlayer destroys the player's body. Unknown ids are ignored.
func (e *Engine) RemovePlayer(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.players[connID]
	if !ok {
		return
	}
	e.destroy(ent)
	delete(e.players, connID)
	e.log.Info("player left", zap.String("player", connID))
}

// Player returns the client projection of a connected player.
func (e *Engine) Player(connID string) (PlayerState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.players[connID]
	if !ok {
		return PlayerState{}, false
	}
	return e.playerState(ent), true
}

// SetPlayerInput replaces the held directions. Unknown ids are ignored.
func (e *Engine) SetPlayerInput(connID string, in component.Input) {
	e.withPlayer(connID, func(p *component.Player) { p.Input = in })
}

// SetBeamActive toggles the continuous beam. Unknown ids are ignored.
func (e *Engine) SetBeamActive(connID string, active bool) {
	e.withPlayer(connID, func(p *component.Player) {
		p.BeamActive = active
		if !active {
			p.BeamTarget = ""
		}
	})
}

func (e *Engine) withPlayer(connID string, fn func(*component.Player)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.players[connID]
	if !ok {
		return
	}
	if p, ok := ecs.Get(e.world, ent, component.PlayerComponent.Kind()); ok {
		fn(p)
	}
}

// HandleBeamInteraction fires a one-shot pulse at the movable entity nearest
// (tx,ty), yanking it toward the craft. The beam must be on and the point
// within beam range. It returns the id of the entity hit, or "".
func (e *Engine) HandleBeamInteraction(connID string, tx, ty float64) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.players[connID]
	if !ok {
		return ""
	}
	p, _ := ecs.Get(e.world, ent, component.PlayerComponent.Kind())
	body, _ := ecs.Get(e.world, ent, component.BodyComponent.Kind())
	if p == nil || body == nil || !p.BeamActive {
		return ""
	}
	origin, ok := e.physics.Position(body.Handle)
	if !ok {
		return ""
	}
	target := common.Vec{X: tx, Y: ty}
	if target.Dist(origin) > e.tuning.BeamRange+e.tuning.BeamOffset {
		return ""
	}

	var (
		best     ecs.Entity
		bestDist = math.Inf(1)
	)
	for _, m := range system.Movable(e.world) {
		if m == ent {
			continue
		}
		mb, _ := ecs.Get(e.world, m, component.BodyComponent.Kind())
		pos, ok := e.physics.Position(mb.Handle)
		if !ok {
			continue
		}
		if d := pos.Dist(target); d <= e.tuning.BeamPulseRadius && d < bestDist {
			best, bestDist = m, d
		}
	}
	if bestDist == math.Inf(1) {
		return ""
	}

	mb, _ := ecs.Get(e.world, best, component.BodyComponent.Kind())
	pos, _ := e.physics.Position(mb.Handle)
	toward := origin.Sub(pos)
	if l := toward.Len(); l > 0 {
		toward = toward.Scale(1 / l)
	}
	mass := e.physics.Mass(mb.Handle)
	e.physics.ApplyForce(mb.Handle, toward.Scale(mass*e.tuning.BeamPulseSpeed/e.tuning.Step()))
	return system.IDOf(e.world, best)
}

// SpawnEmote drops an emote over an emotespawn (or spawnpoint) with a little
// horizontal jitter. The oldest emote is removed once the cap is reached.
func (e *Engine) SpawnEmote(url, name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := e.emoteSpawn()
	pos.X += (e.rng.Float64()*2 - 1) * e.tuning.EmoteJitter

	e.enforceEmoteCap()

	spec := e.bodies.Emote
	handle, err := e.physics.CreateBody(physics.BodyDef{
		Shape:    levels.Circle{Radius: spec.Radius},
		Material: material(spec),
		Solid:    true,
		Position: pos,
	})
	if err != nil {
		e.log.Error("emote body", zap.Error(err))
		return ""
	}

	e.emoteSeq++
	id := e.uniqueID(fmt.Sprintf("emote-%d", e.emoteSeq))
	ent := e.world.CreateEntity()
	e.world.SetName(ent, id)
	_ = ecs.Add(e.world, ent, component.IdentityComponent.Kind(), &component.Identity{ID: id, Kind: component.KindEmote})
	_ = ecs.Add(e.world, ent, component.BodyComponent.Kind(), &component.Body{Handle: handle, HalfW: spec.Radius, HalfH: spec.Radius})
	_ = ecs.Add(e.world, ent, component.TransformComponent.Kind(), &component.Transform{X: pos.X, Y: pos.Y})
	_ = ecs.Add(e.world, ent, component.FreeBodyComponent.Kind(), &component.FreeBody{Type: component.FreeBodyEmote, Name: name, URL: url, Seq: e.emoteSeq})

	e.log.Debug("emote spawned", zap.String("emote", id), zap.String("name", name))
	return id
}

func (e *Engine) emoteSpawn() common.Vec {
	st := e.levelState()
	if st.Level != nil {
		if spawns := st.Level.Tagged(levels.TagEmoteSpawn); len(spawns) > 0 {
			return spawns[e.rng.Intn(len(spawns))].Position()
		}
	}
	return system.SpawnPosition(e.world, e.tuning, false)
}

func (e *Engine) enforceEmoteCap() {
	if e.tuning.MaxEmotes <= 0 {
		return
	}
	type emote struct {
		ent ecs.Entity
		seq uint64
	}
	var live []emote
	ecs.ForEach(e.world, component.FreeBodyComponent.Kind(), func(ent ecs.Entity, fb *component.FreeBody) {
		if fb.Type == component.FreeBodyEmote {
			live = append(live, emote{ent, fb.Seq})
		}
	})
	if len(live) < e.tuning.MaxEmotes {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].seq < live[j].seq })
	for _, old := range live[:len(live)-e.tuning.MaxEmotes+1] {
		e.destroy(old.ent)
	}
}

// LoadLevel replaces every level object, joint and free body with ones built
// from lvl. Players keep their bodies and are moved to the new spawn. The
// level is repaired and validated first; every problem found, and every
// connection or role that had to be skipped, is returned as a warning.
func (e *Engine) LoadLevel(lvl *levels.Level) ([]levels.Warning, error) {
	if lvl == nil {
		return nil, eris.New("engine: load nil level")
	}
	lvl = lvl.Clone()
	warnings := levels.Repair(lvl)
	warnings = append(warnings, levels.Validate(lvl)...)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearLevel()

	st := e.levelState()
	st.Name = lvl.Name
	st.Level = lvl
	st.Completed = false

	// built holds only level objects; generated ids never resolve through it
	built := make(map[string]ecs.Entity, len(lvl.Objects))
	for i := range lvl.Objects {
		obj := &lvl.Objects[i]
		ent, err := e.buildObject(obj)
		if err != nil {
			warnings = append(warnings, levels.Warning{Code: levels.WarnSkippedObject, ObjectID: obj.ID, Message: "object skipped: " + err.Error()})
			continue
		}
		built[obj.ID] = ent
	}
	for i := range lvl.Objects {
		obj := &lvl.Objects[i]
		ent, ok := built[obj.ID]
		if !ok {
			continue
		}
		if obj.Tags.Has(levels.TagTeleporter) && obj.TeleporterTarget != obj.ID {
			if _, ok := built[obj.TeleporterTarget]; ok {
				_ = ecs.Add(e.world, ent, component.TeleporterComponent.Kind(), &component.Teleporter{TargetID: obj.TeleporterTarget})
			}
		}
		if obj.Tags.Has(levels.TagSpawnPoint) {
			e.spawnMarble(obj)
		}
	}
	for _, conn := range lvl.Connections {
		if w, ok := e.buildJoint(conn, built); !ok {
			warnings = append(warnings, w)
		}
	}
	e.resetPlayers()

	for _, w := range warnings {
		e.log.Warn("level warning", zap.String("level", lvl.Name), zap.String("code", w.Code), zap.String("object", w.ObjectID), zap.String("message", w.Message))
	}
	e.log.Info("level loaded",
		zap.String("level", lvl.Name),
		zap.Int("objects", len(lvl.Objects)),
		zap.Int("connections", len(lvl.Connections)),
		zap.Int("warnings", len(warnings)))
	return warnings, nil
}

// CurrentLevel returns a copy of the loaded level, or nil.
func (e *Engine) CurrentLevel() *levels.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.levelState().Level.Clone()
}

func (e *Engine) LevelName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.levelState().Name
}

func (e *Engine) clearLevel() {
	for _, ent := range e.world.Query(component.JointComponent.Kind()) {
		j, _ := ecs.Get(e.world, ent, component.JointComponent.Kind())
		e.physics.RemoveConstraint(j.Handle)
		e.world.DestroyEntity(ent)
	}
	for _, ent := range e.world.Query(component.IdentityComponent.Kind()) {
		id, _ := ecs.Get(e.world, ent, component.IdentityComponent.Kind())
		if id.Kind != component.KindPlayer {
			e.destroy(ent)
		}
	}
	e.teleporter.Cooldowns().Clear()
}

func (e *Engine) buildObject(obj *levels.Object) (ecs.Entity, error) {
	density := obj.Density
	if density <= 0 {
		density = e.tuning.DefaultDensity
	}
	handle, err := e.physics.CreateBody(physics.BodyDef{
		Shape:    obj.Shape,
		Material: physics.Material{Friction: obj.Friction, Restitution: obj.Restitution, Density: density},
		Static:   obj.IsStatic,
		Solid:    obj.IsSolid,
		Position: obj.Position(),
		Angle:    obj.Rotation,
	})
	if err != nil {
		return 0, err
	}

	w, h := obj.Shape.Bounds()
	ent := e.world.CreateEntity()
	e.world.SetName(ent, obj.ID)
	_ = ecs.Add(e.world, ent, component.IdentityComponent.Kind(), &component.Identity{ID: obj.ID, Kind: component.KindLevelObject})
	_ = ecs.Add(e.world, ent, component.BodyComponent.Kind(), &component.Body{Handle: handle, Static: obj.IsStatic, HalfW: w / 2, HalfH: h / 2})
	_ = ecs.Add(e.world, ent, component.TransformComponent.Kind(), &component.Transform{X: obj.X, Y: obj.Y, Angle: obj.Rotation})
	_ = ecs.Add(e.world, ent, component.LevelObjectComponent.Kind(), &component.LevelObject{Desc: *obj})

	if obj.Tags.Has(levels.TagGoal) {
		_ = ecs.Add(e.world, ent, component.GoalComponent.Kind(), &component.Goal{NextLevel: obj.NextLevel})
	}
	return ent, nil
}

func (e *Engine) spawnMarble(home *levels.Object) {
	spec := e.bodies.Marble
	pos := home.Position()
	handle, err := e.physics.CreateBody(physics.BodyDef{
		Shape:    levels.Circle{Radius: spec.Radius},
		Material: material(spec),
		Solid:    true,
		Position: pos,
	})
	if err != nil {
		e.log.Error("marble body", zap.Error(err))
		return
	}
	id := e.uniqueID("marble-" + home.ID)
	ent := e.world.CreateEntity()
	e.world.SetName(ent, id)
	_ = ecs.Add(e.world, ent, component.IdentityComponent.Kind(), &component.Identity{ID: id, Kind: component.KindMarble})
	_ = ecs.Add(e.world, ent, component.BodyComponent.Kind(), &component.Body{Handle: handle, HalfW: spec.Radius, HalfH: spec.Radius})
	_ = ecs.Add(e.world, ent, component.TransformComponent.Kind(), &component.Transform{X: pos.X, Y: pos.Y})
	_ = ecs.Add(e.world, ent, component.FreeBodyComponent.Kind(), &component.FreeBody{Type: component.FreeBodyMarble, Home: home.ID})
}

func (e *Engine) buildJoint(conn levels.Connection, built map[string]ecs.Entity) (levels.Warning, bool) {
	a, okA := built[conn.BodyA]
	b, okB := built[conn.BodyB]
	if !okA || !okB {
		return levels.Warning{Code: levels.WarnSkippedConnection, ObjectID: conn.ID, Message: "connection skipped: endpoint missing"}, false
	}
	ba, _ := ecs.Get(e.world, a, component.BodyComponent.Kind())
	bb, _ := ecs.Get(e.world, b, component.BodyComponent.Kind())
	handle, length, err := e.physics.AddConstraint(physics.ConstraintDef{
		Type:      conn.Type,
		A:         ba.Handle,
		B:         bb.Handle,
		AnchorA:   conn.PointA,
		AnchorB:   conn.PointB,
		Length:    conn.Length,
		Stiffness: conn.Stiffness,
		Damping:   conn.Damping,
	})
	if err != nil {
		return levels.Warning{Code: levels.WarnSkippedConnection, ObjectID: conn.ID, Message: "connection skipped: " + err.Error()}, false
	}
	ent := e.world.CreateEntity()
	_ = ecs.Add(e.world, ent, component.JointComponent.Kind(), &component.Joint{
		ID:     conn.ID,
		Type:   conn.Type,
		BodyA:  conn.BodyA,
		BodyB:  conn.BodyB,
		Handle: handle,
		Length: length,
	})
	return levels.Warning{}, true
}

func (e *Engine) resetPlayers() {
	pos := system.SpawnPosition(e.world, e.tuning, true)
	for _, ent := range e.players {
		b, ok := ecs.Get(e.world, ent, component.BodyComponent.Kind())
		if !ok {
			continue
		}
		e.physics.SetPosition(b.Handle, pos)
		e.physics.SetVelocity(b.Handle, common.Vec{})
		if t, ok := ecs.Get(e.world, ent, component.TransformComponent.Kind()); ok {
			t.X, t.Y = pos.X, pos.Y
		}
		if p, ok := ecs.Get(e.world, ent, component.PlayerComponent.Kind()); ok {
			p.BeamTarget = ""
		}
	}
}

// uniqueID returns base, or base with the first free numeric suffix, so an
// engine-generated id never shares a name with a level object or another
// live entity.
func (e *Engine) uniqueID(base string) string {
	lvl := e.levelState().Level
	taken := func(id string) bool {
		if _, ok := e.world.Lookup(id); ok {
			return true
		}
		return lvl != nil && lvl.Object(id) != nil
	}
	id := base
	for n := 1; taken(id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

// destroy releases the entity's body (and with it any joints) and the entity.
func (e *Engine) destroy(ent ecs.Entity) {
	if b, ok := ecs.Get(e.world, ent, component.BodyComponent.Kind()); ok {
		e.physics.DestroyBody(b.Handle)
	}
	e.world.DestroyEntity(ent)
}

func material(spec prefabs.BodySpec) physics.Material {
	return physics.Material{Friction: spec.Friction, Restitution: spec.Restitution, Density: spec.Density}
}
