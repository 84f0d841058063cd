package engine

import (
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/levels"
	"github.com/milk9111/tractorbeam/physics"
)

func newTestEngine(t *testing.T, mutate ...func(*common.Tuning)) *Engine {
	t.Helper()
	tuning := common.DefaultTuning()
	for _, m := range mutate {
		m(&tuning)
	}
	e, err := New(Options{Tuning: tuning, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func mustLoad(t *testing.T, e *Engine, lvl *levels.Level) []levels.Warning {
	t.Helper()
	warnings, err := e.LoadLevel(lvl)
	if err != nil {
		t.Fatalf("LoadLevel: %v", err)
	}
	return warnings
}

func marker(id string, x, y float64, tags ...levels.Tag) levels.Object {
	return levels.Object{
		ID:       id,
		Shape:    levels.Circle{Radius: 10},
		X:        x,
		Y:        y,
		IsStatic: true,
		IsSolid:  false,
		Tags:     levels.NewTagSet(tags...),
	}
}

func bodyOf(t *testing.T, e *Engine, id string) physics.BodyID {
	t.Helper()
	ent, ok := e.world.Lookup(id)
	if !ok {
		t.Fatalf("no entity %q", id)
	}
	b, ok := ecs.Get(e.world, ent, component.BodyComponent.Kind())
	if !ok {
		t.Fatalf("entity %q has no body", id)
	}
	return b.Handle
}

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestSingleBodyPerPlayer(t *testing.T) {
	e := newTestEngine(t)
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		e.AddPlayer(id, "user-"+id, "uid-"+id)
	}
	e.AddPlayer("a", "again", "again")
	if got := e.physics.BodyCount(); got != len(ids) {
		t.Fatalf("expected %d bodies, got %d", len(ids), got)
	}

	e.RemovePlayer("b")
	if got := e.physics.BodyCount(); got != 2 {
		t.Fatalf("expected 2 bodies after leave, got %d", got)
	}
	for _, id := range ids {
		e.RemovePlayer(id)
	}
	if got := e.physics.BodyCount(); got != 0 {
		t.Fatalf("expected no bodies, got %d", got)
	}
}

func TestRemovePlayerIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.AddPlayer("keep", "k", "k")
	e.AddPlayer("gone", "g", "g")

	e.RemovePlayer("gone")
	once := e.Snapshot().Players
	e.RemovePlayer("gone")
	e.RemovePlayer("never-joined")
	twice := e.Snapshot().Players

	if len(once) != 1 || len(twice) != 1 || once[0].ID != twice[0].ID {
		t.Fatalf("state changed on repeated removal: %v vs %v", once, twice)
	}
}

func TestUnknownPlayerOperationsAreIgnored(t *testing.T) {
	e := newTestEngine(t)
	e.SetPlayerInput("ghost", component.Input{Up: true})
	e.SetBeamActive("ghost", true)
	if hit := e.HandleBeamInteraction("ghost", 0, 0); hit != "" {
		t.Fatalf("expected no hit, got %q", hit)
	}
	if _, ok := e.Player("ghost"); ok {
		t.Fatalf("ghost should not exist")
	}
	e.Tick()
}

func levelIDs(s Snapshot) []string {
	var ids []string
	for _, o := range s.LevelObjects {
		ids = append(ids, "obj:"+o.ID)
	}
	for _, f := range s.FreeBodies {
		ids = append(ids, "free:"+f.ID)
	}
	for _, c := range s.Constraints {
		ids = append(ids, "joint:"+c.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestLevelReloadIsDeterministic(t *testing.T) {
	store := levels.NewStore("")
	l1, _, err := store.Load("level1")
	if err != nil {
		t.Fatal(err)
	}
	l2, _, err := store.Load("level2")
	if err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t)
	e.AddPlayer("p1", "pilot", "u1")

	mustLoad(t, e, l1)
	first := levelIDs(e.Snapshot())
	firstEntities, firstBodies := e.world.EntityCount(), e.physics.BodyCount()
	for i := 0; i < 30; i++ {
		e.Tick()
	}

	mustLoad(t, e, l2)
	if e.Snapshot().Level != "level2" {
		t.Fatalf("expected level2 loaded, got %q", e.Snapshot().Level)
	}
	for i := 0; i < 30; i++ {
		e.Tick()
	}

	mustLoad(t, e, l1)
	again := levelIDs(e.Snapshot())
	if len(again) != len(first) {
		t.Fatalf("expected %d ids, got %d", len(first), len(again))
	}
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("id mismatch at %d: %s vs %s", i, first[i], again[i])
		}
	}
	if e.world.EntityCount() != firstEntities || e.physics.BodyCount() != firstBodies {
		t.Fatalf("entities/bodies %d/%d, want %d/%d", e.world.EntityCount(), e.physics.BodyCount(), firstEntities, firstBodies)
	}
	if _, ok := e.Player("p1"); !ok {
		t.Fatalf("players must survive level loads")
	}
}

func TestFallRespawnBoundary(t *testing.T) {
	e := newTestEngine(t)
	mustLoad(t, e, &levels.Level{Name: "fall", Objects: []levels.Object{
		marker("spawn", 100, 100, levels.TagSpawnPoint),
	}})
	bound := e.tuning.LowerBound
	marble := bodyOf(t, e, "marble-spawn")

	e.physics.SetPosition(marble, common.Vec{X: 300, Y: bound - 1})
	e.physics.SetVelocity(marble, common.Vec{})
	e.Tick()
	pos, _ := e.physics.Position(marble)
	if pos.X != 300 || pos.Y < bound-1 || pos.Y > bound {
		t.Fatalf("marble above the bound should not be moved, at %v", pos)
	}

	e.physics.SetPosition(marble, common.Vec{X: 300, Y: bound + 1})
	e.physics.SetVelocity(marble, common.Vec{})
	e.Tick()
	pos, _ = e.physics.Position(marble)
	vel, _ := e.physics.Velocity(marble)
	if pos != (common.Vec{X: 100, Y: 100}) {
		t.Fatalf("expected respawn at spawnpoint, got %v", pos)
	}
	if vel != (common.Vec{}) {
		t.Fatalf("expected zero velocity after respawn, got %v", vel)
	}
	snap := e.Snapshot()
	if len(snap.FreeBodies) != 1 || snap.FreeBodies[0].Y != 100 {
		t.Fatalf("snapshot should reflect the respawn: %+v", snap.FreeBodies)
	}
}

func TestFallenLevelObjectReturnsToSpawn(t *testing.T) {
	e := newTestEngine(t)
	crate := levels.Object{ID: "crate", Shape: levels.Rect{Width: 20, Height: 20}, X: 600, Y: 0, Rotation: 0.5, IsSolid: true}
	mustLoad(t, e, &levels.Level{Name: "crates", Objects: []levels.Object{
		marker("spawn", 100, 100, levels.TagSpawnPoint),
		crate,
	}})

	h := bodyOf(t, e, "crate")
	e.physics.SetPosition(h, common.Vec{X: 600, Y: e.tuning.LowerBound + 1})
	e.Tick()
	pos, _ := e.physics.Position(h)
	angle := e.physics.Angle(h)
	if pos != (common.Vec{X: 100, Y: 100}) || angle != 0.5 {
		t.Fatalf("crate should be back at the spawnpoint, got %v angle %v", pos, angle)
	}
}

func TestPlayerFallsBackToPlayerSpawn(t *testing.T) {
	e := newTestEngine(t)
	mustLoad(t, e, &levels.Level{Name: "spawns", Objects: []levels.Object{
		marker("spawn", 100, 100, levels.TagSpawnPoint),
		marker("pad", 700, 50, levels.TagPlayerSpawn),
	}})
	p := e.AddPlayer("p", "pilot", "u")
	if p.X != 700 || p.Y != 50 {
		t.Fatalf("player should start on the playerspawn, got (%v,%v)", p.X, p.Y)
	}

	h := bodyOf(t, e, "p")
	e.physics.SetPosition(h, common.Vec{X: 0, Y: e.tuning.LowerBound + 50})
	e.Tick()
	pos, _ := e.physics.Position(h)
	if pos != (common.Vec{X: 700, Y: 50}) {
		t.Fatalf("player should respawn at the playerspawn, got %v", pos)
	}
}

func TestGoalAwardsXPAndRequestsTransitionOnce(t *testing.T) {
	e := newTestEngine(t)
	var (
		mu          sync.Mutex
		transitions []string
	)
	e.OnLevelTransition(func(next string) {
		mu.Lock()
		transitions = append(transitions, next)
		mu.Unlock()
	})

	goal := marker("goal", 100, 900, levels.TagGoal)
	goal.NextLevel = "level2"
	mustLoad(t, e, &levels.Level{Name: "drop", Objects: []levels.Object{
		marker("spawn", 100, 100, levels.TagSpawnPoint),
		goal,
	}})

	// let the marble clear the spawn before the crafts appear there
	for i := 0; i < 20; i++ {
		e.Tick()
	}
	e.AddPlayer("p1", "one", "u1")
	e.AddPlayer("p2", "two", "u2")

	won := false
	for i := 0; i < 300 && !won; i++ {
		for _, evt := range e.Tick() {
			if evt.Type == ecs.EventLevelComplete {
				won = true
			}
		}
	}
	if !won {
		t.Fatalf("marble never reached the goal")
	}
	for _, p := range e.Snapshot().Players {
		if p.XP != 100 || p.Level != 1 {
			t.Fatalf("player %s: xp=%d level=%d, want 100/1", p.ID, p.XP, p.Level)
		}
	}

	for i := 0; i < 600; i++ {
		e.Tick()
	}
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != "level2" {
		t.Fatalf("expected exactly one transition to level2, got %v", transitions)
	}
	for _, p := range e.Snapshot().Players {
		if p.XP != 100 {
			t.Fatalf("a level is won once per load, %s has %d xp", p.ID, p.XP)
		}
	}
}

func TestTeleporterCooldown(t *testing.T) {
	e := newTestEngine(t)
	a := levels.Object{ID: "A", Shape: levels.Rect{Width: 60, Height: 60}, IsStatic: true, Tags: levels.NewTagSet(levels.TagTeleporter), TeleporterTarget: "B"}
	b := levels.Object{ID: "B", Shape: levels.Rect{Width: 60, Height: 60}, X: 500, Y: 500, IsStatic: true, Tags: levels.NewTagSet(levels.TagTeleporter), TeleporterTarget: "A"}
	mustLoad(t, e, &levels.Level{Name: "portals", Objects: []levels.Object{
		a, b, marker("spawn", 1000, 0, levels.TagSpawnPoint),
	}})
	marble := bodyOf(t, e, "marble-spawn")
	radius := e.bodies.Marble.Radius
	landing := common.Vec{X: 500, Y: 500 - 30 - radius - e.tuning.TeleportMargin}

	push := func() {
		e.physics.SetPosition(marble, common.Vec{})
		e.physics.SetVelocity(marble, common.Vec{X: 5})
	}

	push()
	e.Tick()
	pos, _ := e.physics.Position(marble)
	vel, _ := e.physics.Velocity(marble)
	if !near(pos.X, landing.X, 1e-9) || !near(pos.Y, landing.Y, 1e-9) {
		t.Fatalf("expected marble above B at %v, got %v", landing, pos)
	}
	if vel != (common.Vec{}) {
		t.Fatalf("expected zero velocity after teleport, got %v", vel)
	}

	push()
	e.Tick()
	pos, _ = e.physics.Position(marble)
	if pos.Dist(common.Vec{}) > 5 {
		t.Fatalf("marble teleported again inside the cooldown, at %v", pos)
	}

	for i := 0; i < int(e.tuning.TeleportCooldown*float64(e.tuning.TickHz)); i++ {
		e.Tick()
	}
	push()
	e.Tick()
	pos, _ = e.physics.Position(marble)
	if !near(pos.X, landing.X, 1e-9) || !near(pos.Y, landing.Y, 1e-9) {
		t.Fatalf("marble should teleport once the cooldown ends, got %v", pos)
	}
}

func beamLevel() *levels.Level {
	return &levels.Level{Name: "beam", Objects: []levels.Object{
		marker("pad", 500, 500, levels.TagPlayerSpawn),
		marker("spawn", 500, 600, levels.TagSpawnPoint),
	}}
}

func TestTeleporterMovesEveryMovableKind(t *testing.T) {
	cases := []struct {
		name    string
		target  string
		subject string
		halfH   func(*Engine) float64
		moved   bool
		warning string
	}{
		{"player", "B", "p", func(e *Engine) float64 { return e.bodies.Player.Radius }, true, ""},
		{"dynamic_crate", "B", "crate", func(*Engine) float64 { return 10 }, true, ""},
		{"marble", "B", "marble-spawn", func(e *Engine) float64 { return e.bodies.Marble.Radius }, true, ""},
		{"dangling_target", "nowhere", "marble-spawn", func(e *Engine) float64 { return e.bodies.Marble.Radius }, false, levels.WarnMissingTeleporter},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newTestEngine(t)
			a := levels.Object{ID: "A", Shape: levels.Rect{Width: 60, Height: 60}, IsStatic: true, Tags: levels.NewTagSet(levels.TagTeleporter), TeleporterTarget: c.target}
			b := levels.Object{ID: "B", Shape: levels.Rect{Width: 60, Height: 60}, X: 500, Y: 500, IsStatic: true, Tags: levels.NewTagSet(levels.TagTeleporter), TeleporterTarget: "A"}
			crate := levels.Object{ID: "crate", Shape: levels.Rect{Width: 20, Height: 20}, X: 1400, Y: 300, IsSolid: true}
			warnings := mustLoad(t, e, &levels.Level{Name: "portals", Objects: []levels.Object{
				a, b, crate, marker("spawn", 1000, 0, levels.TagSpawnPoint),
			}})
			e.AddPlayer("p", "pilot", "u")

			gotWarning := false
			for _, w := range warnings {
				if w.Code == levels.WarnMissingTeleporter && w.ObjectID == "A" {
					gotWarning = true
				}
			}
			if gotWarning != (c.warning != "") {
				t.Fatalf("missing target warning = %v, warnings %+v", gotWarning, warnings)
			}

			h := bodyOf(t, e, c.subject)
			e.physics.SetPosition(h, common.Vec{})
			e.physics.SetVelocity(h, common.Vec{})
			teleported := false
			for _, evt := range e.Tick() {
				if evt.Type == ecs.EventTeleported {
					teleported = true
				}
			}
			pos, _ := e.physics.Position(h)
			vel, _ := e.physics.Velocity(h)

			if !c.moved {
				if teleported || pos.Dist(common.Vec{}) > 5 {
					t.Fatalf("nothing should teleport through a dangling target, %s at %v", c.subject, pos)
				}
				return
			}
			landing := common.Vec{X: 500, Y: 500 - 30 - c.halfH(e) - e.tuning.TeleportMargin}
			if !teleported || !near(pos.X, landing.X, 1e-9) || !near(pos.Y, landing.Y, 1e-9) {
				t.Fatalf("expected %s above B at %v, got %v", c.subject, landing, pos)
			}
			if vel != (common.Vec{}) {
				t.Fatalf("expected zero velocity after teleport, got %v", vel)
			}
		})
	}
}

func TestGeneratedIDsDoNotShadowLevelObjects(t *testing.T) {
	e := newTestEngine(t)
	anchor := levels.Object{ID: "anchor", Shape: levels.Circle{Radius: 5}, X: 600, Y: 100, IsStatic: true, IsSolid: true}
	crate := levels.Object{ID: "marble-sp", Shape: levels.Rect{Width: 20, Height: 20}, X: 700, Y: 100, IsSolid: true}
	warnings := mustLoad(t, e, &levels.Level{
		Name:    "shadow",
		Objects: []levels.Object{marker("sp", 100, 100, levels.TagSpawnPoint), anchor, crate},
		Connections: []levels.Connection{
			{ID: "rope", Type: levels.JointRope, BodyA: "anchor", BodyB: "marble-sp"},
		},
	})
	for _, w := range warnings {
		if w.Code == levels.WarnSkippedConnection {
			t.Fatalf("rope should be built: %+v", w)
		}
	}

	snap := e.Snapshot()
	if len(snap.Constraints) != 1 {
		t.Fatalf("expected one constraint, got %+v", snap.Constraints)
	}
	rope := snap.Constraints[0]
	if !near(rope.Length, 100, 1e-9) || rope.B != (common.Vec{X: 700, Y: 100}) {
		t.Fatalf("rope should join anchor to the crate, got %+v", rope)
	}

	if len(snap.FreeBodies) != 1 || snap.FreeBodies[0].ID == "marble-sp" {
		t.Fatalf("marble id must not reuse a level object id: %+v", snap.FreeBodies)
	}
	if got := snap.FreeBodies[0].ID; got != "marble-sp_1" {
		t.Fatalf("marble id %q, want marble-sp_1", got)
	}
	if ent, ok := e.world.Lookup("marble-sp"); !ok || !ecs.Has(e.world, ent, component.LevelObjectComponent.Kind()) {
		t.Fatalf("marble-sp should still name the crate")
	}
}

func TestMarblesOnlyForBuiltSpawnpoints(t *testing.T) {
	e := newTestEngine(t)
	broken := marker("bad", 300, 100, levels.TagSpawnPoint)
	broken.Shape = levels.Circle{Radius: 0}
	warnings := mustLoad(t, e, &levels.Level{Name: "spawns", Objects: []levels.Object{
		marker("good", 100, 100, levels.TagSpawnPoint),
		broken,
	}})

	skipped := false
	for _, w := range warnings {
		if w.Code == levels.WarnSkippedObject && w.ObjectID == "bad" {
			skipped = true
		}
	}
	if !skipped {
		t.Fatalf("expected the broken spawnpoint to be skipped, warnings %+v", warnings)
	}
	snap := e.Snapshot()
	if len(snap.FreeBodies) != 1 || snap.FreeBodies[0].ID != "marble-good" {
		t.Fatalf("expected only marble-good, got %+v", snap.FreeBodies)
	}
}

func TestLevelLoadMovesPlayersBeforeNextTick(t *testing.T) {
	e := newTestEngine(t)
	mustLoad(t, e, &levels.Level{Name: "first", Objects: []levels.Object{
		marker("pad", 100, 100, levels.TagPlayerSpawn),
	}})
	e.AddPlayer("p", "pilot", "u")
	mustLoad(t, e, &levels.Level{Name: "second", Objects: []levels.Object{
		marker("pad", 300, 40, levels.TagPlayerSpawn),
	}})

	snap := e.Snapshot()
	if len(snap.Players) != 1 || snap.Players[0].X != 300 || snap.Players[0].Y != 40 {
		t.Fatalf("snapshot should show the player on the new spawn, got %+v", snap.Players)
	}
}

func TestBeamLiftsFreeBody(t *testing.T) {
	run := func(active bool) (float64, *string) {
		e := newTestEngine(t)
		mustLoad(t, e, beamLevel())
		e.AddPlayer("p", "pilot", "u")
		e.SetBeamActive("p", active)
		e.Tick()
		vel, _ := e.physics.Velocity(bodyOf(t, e, "marble-spawn"))
		p, _ := e.Player("p")
		return vel.Y, p.BeamTarget
	}

	controlVY, controlTarget := run(false)
	beamVY, beamTarget := run(true)
	if beamVY >= controlVY {
		t.Fatalf("beam should reduce vy: beam=%v control=%v", beamVY, controlVY)
	}
	if controlTarget != nil {
		t.Fatalf("inactive beam should have no target, got %q", *controlTarget)
	}
	if beamTarget == nil || *beamTarget != "marble-spawn" {
		t.Fatalf("expected beam target marble-spawn, got %v", beamTarget)
	}
}

func TestBeamInteractionPulsesTowardCraft(t *testing.T) {
	e := newTestEngine(t)
	mustLoad(t, e, beamLevel())
	e.AddPlayer("p", "pilot", "u")

	if hit := e.HandleBeamInteraction("p", 500, 600); hit != "" {
		t.Fatalf("pulse requires an active beam, hit %q", hit)
	}
	e.SetBeamActive("p", true)
	if hit := e.HandleBeamInteraction("p", 510, 590); hit != "marble-spawn" {
		t.Fatalf("expected marble hit, got %q", hit)
	}
	vel, _ := e.physics.Velocity(bodyOf(t, e, "marble-spawn"))
	if vel.Y >= 0 {
		t.Fatalf("pulse should pull the marble up toward the craft, vy=%v", vel.Y)
	}
	if hit := e.HandleBeamInteraction("p", 2000, 2000); hit != "" {
		t.Fatalf("out of range click should miss, hit %q", hit)
	}
}

func TestRevoluteConnectionLength(t *testing.T) {
	e := newTestEngine(t)
	warnings := mustLoad(t, e, &levels.Level{
		Name: "hinge",
		Objects: []levels.Object{
			{ID: "A", Shape: levels.Circle{Radius: 5}, IsStatic: true, IsSolid: true},
			{ID: "B", Shape: levels.Circle{Radius: 5}, X: 100, Density: 0.01, IsSolid: true},
		},
		Connections: []levels.Connection{
			{ID: "hinge", Type: levels.JointRevolute, BodyA: "A", BodyB: "B"},
			{ID: "broken", Type: levels.JointRope, BodyA: "A", BodyB: "missing"},
		},
	})

	snap := e.Snapshot()
	if len(snap.Constraints) != 1 {
		t.Fatalf("expected one live joint, got %+v", snap.Constraints)
	}
	if c := snap.Constraints[0]; c.ID != "hinge" || !near(c.Length, 100, 1e-9) {
		t.Fatalf("expected hinge length 100, got %+v", c)
	}

	skipped := false
	for _, w := range warnings {
		if w.Code == levels.WarnSkippedConnection && w.ObjectID == "broken" {
			skipped = true
		}
	}
	if !skipped {
		t.Fatalf("expected a skipped connection warning, got %v", warnings)
	}
}

func TestDuplicateIDsRepairedOnLoad(t *testing.T) {
	e := newTestEngine(t)
	warnings := mustLoad(t, e, &levels.Level{Name: "dupes", Objects: []levels.Object{
		marker("x", 0, 0),
		marker("x", 50, 0),
	}})
	if len(warnings) == 0 || warnings[0].Code != levels.WarnDuplicateID {
		t.Fatalf("expected a duplicate id warning, got %v", warnings)
	}
	ids := levelIDs(e.Snapshot())
	if len(ids) != 2 || ids[0] != "obj:x" || ids[1] != "obj:x_1" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestEmotesCapAndDespawn(t *testing.T) {
	e := newTestEngine(t, func(tn *common.Tuning) { tn.MaxEmotes = 2 })
	mustLoad(t, e, &levels.Level{Name: "emotes", Objects: []levels.Object{
		marker("drop", 300, 100, levels.TagEmoteSpawn),
	}})

	first := e.SpawnEmote("/wave.png", "wave")
	e.SpawnEmote("/gg.png", "gg")
	third := e.SpawnEmote("/lol.png", "lol")

	snap := e.Snapshot()
	if len(snap.FreeBodies) != 2 {
		t.Fatalf("expected emote cap of 2, got %d", len(snap.FreeBodies))
	}
	for _, fb := range snap.FreeBodies {
		if fb.ID == first {
			t.Fatalf("oldest emote should have been removed")
		}
		if fb.Type != component.FreeBodyEmote || math.Abs(fb.X-300) > e.tuning.EmoteJitter {
			t.Fatalf("unexpected emote %+v", fb)
		}
	}

	e.physics.SetPosition(bodyOf(t, e, third), common.Vec{Y: e.tuning.LowerBound + 10})
	despawned := false
	for _, evt := range e.Tick() {
		if d, ok := evt.Data.(ecs.DespawnedEvent); ok && d.EntityID == third {
			despawned = true
		}
	}
	if !despawned {
		t.Fatalf("expected despawn event for %s", third)
	}
	if _, ok := e.world.Lookup(third); ok {
		t.Fatalf("fallen emote should be gone")
	}
	if got := len(e.Snapshot().FreeBodies); got != 1 {
		t.Fatalf("expected 1 emote left, got %d", got)
	}
}

func TestInputMovesCraft(t *testing.T) {
	e := newTestEngine(t)
	start := e.AddPlayer("p", "pilot", "u")
	e.SetPlayerInput("p", component.Input{Right: true, Up: true})
	for i := 0; i < 30; i++ {
		e.Tick()
	}
	p, _ := e.Player("p")
	if p.X <= start.X || p.Y >= start.Y {
		t.Fatalf("expected up-right movement from (%v,%v), got (%v,%v)", start.X, start.Y, p.X, p.Y)
	}

	e.SetPlayerInput("p", component.Input{})
	for i := 0; i < 600; i++ {
		e.Tick()
	}
	vel, _ := e.physics.Velocity(bodyOf(t, e, "p"))
	if vel.Len() > 1 {
		t.Fatalf("drag should settle an idle craft, v=%v", vel)
	}
}

func TestLoadNilLevel(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.LoadLevel(nil); err == nil {
		t.Fatalf("expected error for nil level")
	}
}

func TestNewRejectsBadTuning(t *testing.T) {
	tuning := common.DefaultTuning()
	tuning.TeleportPrune = tuning.TeleportCooldown
	if _, err := New(Options{Tuning: tuning}); err == nil {
		t.Fatalf("expected prune >= cooldown to be rejected")
	}
}
