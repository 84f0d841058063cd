package ecs

// EventType names a gameplay event raised by a system during a tick.
type EventType string

const (
	EventLevelComplete   EventType = "level_complete"
	EventLevelTransition EventType = "level_transition"
	EventLevelUp         EventType = "level_up"
	EventTeleported      EventType = "teleported"
	EventRespawned       EventType = "respawned"
	EventDespawned       EventType = "despawned"
)

// Event is a typed payload queued for the engine to drain after a tick.
type Event struct {
	Type EventType
	Data any
}

type LevelCompleteEvent struct {
	Level     string
	GoalID    string
	MarbleID  string
	NextLevel string
}

type LevelTransitionEvent struct {
	NextLevel string
}

type LevelUpEvent struct {
	PlayerID string
	Level    int
}

type TeleportedEvent struct {
	EntityID string
	From     string
	To       string
}

type RespawnedEvent struct {
	EntityID string
}

type DespawnedEvent struct {
	EntityID string
}

// EventQueue is a FIFO of events.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	q.items = append(q.items, evt)
}

// Drain returns all queued events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	return len(q.items)
}
