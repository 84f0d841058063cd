package component

const (
	FreeBodyMarble = "marble"
	FreeBodyEmote  = "emote"
)

// FreeBody marks marbles and emotes.
type FreeBody struct {
	Type string
	Name string
	URL  string
	// Home is the spawn point a marble returns to after falling.
	Home string
	// Seq orders emotes by creation for the live cap.
	Seq uint64
}

var FreeBodyComponent = NewComponent[FreeBody]()
