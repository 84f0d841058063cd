package engine

import (
	"slices"
	"sync"

	"github.com/milk9111/tractorbeam/ecs"
)

// Bus fans tick events out to subscribers. Handlers run on the ticking
// goroutine after the engine lock is released, so they may call back into
// the engine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(ecs.Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(ecs.Event))}
}

// Subscribe registers fn and returns a func that removes it.
func (b *Bus) Subscribe(fn func(ecs.Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(evt ecs.Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	handlers := make([]func(ecs.Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}
