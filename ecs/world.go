package ecs

import "github.com/milk9111/tractorbeam/ecs/component"

// System updates a world once per tick.
type System interface {
	Update(w *World)
}

// World owns entities, their components, a name index and the tick clock.
// It is not safe for concurrent use.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	names    map[string]Entity
	events   EventQueue

	step float64
	tick uint64
}

// NewWorld creates an empty world advancing step seconds per tick.
func NewWorld(step float64) *World {
	if step <= 0 {
		step = 1.0 / 60.0
	}
	return &World{
		stores: make(map[component.ComponentID]*SparseSet),
		names:  make(map[string]Entity),
		step:   step,
	}
}

func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity drops every component and the name binding of e.
func (w *World) DestroyEntity(e Entity) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(e)
	}
	for name, named := range w.names {
		if named == e {
			delete(w.names, name)
		}
	}
	return w.entities.destroy(e)
}

func (w *World) IsAlive(e Entity) bool {
	return w.entities.isAlive(e)
}

func (w *World) Entities() []Entity {
	return w.entities.all()
}

func (w *World) EntityCount() int {
	return w.entities.count
}

// SetName binds a stable string id to e, replacing any previous binding of
// that name.
func (w *World) SetName(e Entity, name string) {
	if name == "" || !w.IsAlive(e) {
		return
	}
	w.names[name] = e
}

// Lookup resolves a name bound with SetName.
func (w *World) Lookup(name string) (Entity, bool) {
	e, ok := w.names[name]
	if !ok || !w.IsAlive(e) {
		return 0, false
	}
	return e, true
}

func (w *World) store(id component.ComponentID, create bool) *SparseSet {
	s, ok := w.stores[id]
	if !ok && create {
		s = &SparseSet{}
		w.stores[id] = s
	}
	return s
}

func (w *World) Events() *EventQueue {
	return &w.events
}

// Tick is the number of completed Advance calls.
func (w *World) Tick() uint64 {
	return w.tick
}

// Now is simulated seconds since the world was created.
func (w *World) Now() float64 {
	return float64(w.tick) * w.step
}

func (w *World) Step() float64 {
	return w.step
}

// Advance moves the clock forward by one step.
func (w *World) Advance() {
	w.tick++
}
