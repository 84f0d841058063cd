package component

// Input is the latest movement intent; each tick re-applies it.
type Input struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

type Player struct {
	Username   string
	UserID     string
	Input      Input
	BeamActive bool
	// BeamTarget is the id of the nearest entity in the beam, or "".
	BeamTarget string
	XP         int
	Level      int
}

var PlayerComponent = NewComponent[Player]()
