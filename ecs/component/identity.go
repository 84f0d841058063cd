package component

// EntityKind classifies the live entities the engine tracks.
type EntityKind uint8

const (
	KindPlayer EntityKind = iota + 1
	KindMarble
	KindEmote
	KindLevelObject
)

func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMarble:
		return "marble"
	case KindEmote:
		return "emote"
	case KindLevelObject:
		return "object"
	}
	return "unknown"
}

// Identity is the stable string id clients see.
type Identity struct {
	ID   string
	Kind EntityKind
}

var IdentityComponent = NewComponent[Identity]()
