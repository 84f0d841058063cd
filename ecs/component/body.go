package component

import "github.com/milk9111/tractorbeam/physics"

// Body links an entity to the physics body it exclusively owns.
type Body struct {
	Handle physics.BodyID
	Static bool
	// Half extents of the unrotated outline.
	HalfW, HalfH float64
}

var BodyComponent = NewComponent[Body]()

// Transform caches the body pose for snapshots. The sync system refreshes it
// every tick. Outside a tick the engine seeds it when it creates a body or
// moves players to a new level's spawn.
type Transform struct {
	X, Y  float64
	Angle float64
}

var TransformComponent = NewComponent[Transform]()
