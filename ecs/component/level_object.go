package component

import (
	"github.com/milk9111/tractorbeam/levels"
	"github.com/milk9111/tractorbeam/physics"
)

// LevelObject keeps the descriptor an object was built from so it can be
// returned home and described to clients.
type LevelObject struct {
	Desc levels.Object
}

var LevelObjectComponent = NewComponent[LevelObject]()

type Goal struct {
	NextLevel string
}

var GoalComponent = NewComponent[Goal]()

type Teleporter struct {
	TargetID string
}

var TeleporterComponent = NewComponent[Teleporter]()

// Joint is a live constraint built from a level connection.
type Joint struct {
	ID     string
	Type   levels.JointType
	BodyA  string
	BodyB  string
	Handle physics.ConstraintID
	Length float64
}

var JointComponent = NewComponent[Joint]()

// LevelState is a singleton describing the loaded level.
type LevelState struct {
	Name      string
	Level     *levels.Level
	Completed bool
}

var LevelStateComponent = NewComponent[LevelState]()
