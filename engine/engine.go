// Package engine is the authoritative simulation. It owns the physics world
// and every live entity; callers drive it with Tick and read it with
// Snapshot. All exported methods are safe for concurrent use.
package engine

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/ecs/system"
	"github.com/milk9111/tractorbeam/physics"
	"github.com/milk9111/tractorbeam/prefabs"
)

type Options struct {
	Tuning common.Tuning
	// Bodies overrides the prefab body specs; nil loads bodies.yaml.
	Bodies *prefabs.Bodies
	Logger *zap.Logger
	// Seed fixes emote jitter for tests; zero seeds from the clock.
	Seed int64
}

type Engine struct {
	mu sync.Mutex

	tuning  common.Tuning
	bodies  prefabs.Bodies
	log     *zap.Logger
	rng     *rand.Rand
	physics *physics.World
	world   *ecs.World
	sched   *ecs.Scheduler

	teleporter *system.TeleporterSystem
	levelEnt   ecs.Entity
	players    map[string]ecs.Entity
	emoteSeq   uint64

	bus *Bus
}

func New(opts Options) (*Engine, error) {
	tuning := opts.Tuning
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var bodies prefabs.Bodies
	if opts.Bodies != nil {
		if err := opts.Bodies.Validate(); err != nil {
			return nil, err
		}
		bodies = *opts.Bodies
	} else {
		loaded, err := prefabs.LoadBodies()
		if err != nil {
			return nil, err
		}
		bodies = loaded
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	pw := physics.NewWorld(physics.Options{
		Gravity:              tuning.Gravity,
		Step:                 tuning.Step(),
		SpringStiffnessScale: tuning.SpringStiffnessScale,
		SpringDampingScale:   tuning.SpringDampingScale,
	})
	w := ecs.NewWorld(tuning.Step())

	tp, err := system.NewTeleporterSystem(pw, tuning, log)
	if err != nil {
		return nil, err
	}
	sched := ecs.NewScheduler(
		system.NewInputSystem(pw, tuning),
		system.NewPhysicsSystem(pw),
		system.NewBeamSystem(pw, tuning),
		system.NewSyncSystem(pw),
		system.NewGoalSystem(tuning, log),
		tp,
		system.NewBoundsSystem(pw, tuning, log),
		// relocations above must be visible to the next snapshot
		system.NewSyncSystem(pw),
	)

	levelEnt := w.CreateEntity()
	if err := ecs.Add(w, levelEnt, component.LevelStateComponent.Kind(), &component.LevelState{}); err != nil {
		return nil, err
	}

	return &Engine{
		tuning:     tuning,
		bodies:     bodies,
		log:        log,
		rng:        rand.New(rand.NewSource(seed)),
		physics:    pw,
		world:      w,
		sched:      sched,
		teleporter: tp,
		levelEnt:   levelEnt,
		players:    make(map[string]ecs.Entity),
		bus:        NewBus(),
	}, nil
}

// Tick advances the simulation one fixed step, then publishes the events the
// step raised. The returned slice is the same set of events.
func (e *Engine) Tick() []ecs.Event {
	e.mu.Lock()
	e.sched.Update(e.world)
	events := e.world.Events().Drain()
	e.mu.Unlock()

	for _, evt := range events {
		e.bus.Publish(evt)
	}
	return events
}

// Bus returns the event bus systems publish to after every tick.
func (e *Engine) Bus() *Bus {
	return e.bus
}

// OnLevelTransition registers fn to receive the next level name whenever a
// goal with a next level is reached. The returned func unsubscribes.
func (e *Engine) OnLevelTransition(fn func(next string)) func() {
	return e.bus.Subscribe(func(evt ecs.Event) {
		if evt.Type != ecs.EventLevelTransition {
			return
		}
		if data, ok := evt.Data.(ecs.LevelTransitionEvent); ok {
			fn(data.NextLevel)
		}
	})
}

// Tuning returns the constants the engine was built with.
func (e *Engine) Tuning() common.Tuning {
	return e.tuning
}

type Stats struct {
	Tick      uint64 `json:"tick"`
	Level     string `json:"level"`
	Players   int    `json:"players"`
	Entities  int    `json:"entities"`
	Bodies    int    `json:"bodies"`
	Cooldowns int    `json:"cooldowns"`
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Tick:      e.world.Tick(),
		Level:     e.levelState().Name,
		Players:   len(e.players),
		Entities:  e.world.EntityCount(),
		Bodies:    e.physics.BodyCount(),
		Cooldowns: e.teleporter.Cooldowns().Len(),
	}
}

func (e *Engine) levelState() *component.LevelState {
	st, _ := ecs.Get(e.world, e.levelEnt, component.LevelStateComponent.Kind())
	return st
}
