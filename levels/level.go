package levels

import (
	"math"

	"github.com/milk9111/tractorbeam/common"
)

// Shape is the closed set of collision outlines a level object may use.
// Implementations are Circle and Rect; callers switch on the concrete type.
type Shape interface {
	isShape()
	// Bounds returns the axis-aligned width and height of the unrotated shape.
	Bounds() (w, h float64)
	Area() float64
}

type Circle struct {
	Radius float64
}

type Rect struct {
	Width  float64
	Height float64
}

func (Circle) isShape() {}
func (Rect) isShape()   {}

func (c Circle) Bounds() (float64, float64) { return 2 * c.Radius, 2 * c.Radius }
func (r Rect) Bounds() (float64, float64)   { return r.Width, r.Height }

func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }
func (r Rect) Area() float64   { return r.Width * r.Height }

// Tag marks a gameplay role on a level object.
type Tag uint8

const (
	TagSpawnPoint Tag = 1 << iota
	TagPlayerSpawn
	TagEmoteSpawn
	TagGoal
	TagTeleporter
)

var tagNames = []struct {
	tag  Tag
	name string
}{
	{TagSpawnPoint, "spawnpoint"},
	{TagPlayerSpawn, "playerspawn"},
	{TagEmoteSpawn, "emotespawn"},
	{TagGoal, "goal"},
	{TagTeleporter, "teleporter"},
}

func (t Tag) String() string {
	for _, tn := range tagNames {
		if tn.tag == t {
			return tn.name
		}
	}
	return "unknown"
}

// ParseTag maps a tag name to its Tag. Unknown names report false.
func ParseTag(name string) (Tag, bool) {
	for _, tn := range tagNames {
		if tn.name == name {
			return tn.tag, true
		}
	}
	return 0, false
}

// TagSet is a bit set of Tags.
type TagSet uint8

func NewTagSet(tags ...Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s |= TagSet(t)
	}
	return s
}

func (s TagSet) Has(t Tag) bool { return s&TagSet(t) != 0 }

func (s TagSet) With(t Tag) TagSet { return s | TagSet(t) }

// Names lists the tags in canonical order.
func (s TagSet) Names() []string {
	out := make([]string, 0, len(tagNames))
	for _, tn := range tagNames {
		if s.Has(tn.tag) {
			out = append(out, tn.name)
		}
	}
	return out
}

// Motion describes an oscillating platform. It is carried as data only.
type Motion struct {
	PointA     common.Vec
	PointB     common.Vec
	TimeToA    float64
	TimeFromA  float64
	SpeedToB   float64
	SpeedFromB float64
}

type Object struct {
	ID          string
	Shape       Shape
	X, Y        float64
	Rotation    float64
	Friction    float64
	Restitution float64
	Density     float64
	IsStatic    bool
	IsSolid     bool
	Tags        TagSet
	Color       string

	// NextLevel is only meaningful with TagGoal.
	NextLevel string
	// TeleporterTarget is only meaningful with TagTeleporter.
	TeleporterTarget string

	Active bool
	Motion *Motion
}

func (o *Object) Position() common.Vec { return common.Vec{X: o.X, Y: o.Y} }

type JointType string

const (
	JointRevolute JointType = "revolute"
	JointRope     JointType = "rope"
	JointSpring   JointType = "spring"
	JointDistance JointType = "distance"
)

func (j JointType) Valid() bool {
	switch j {
	case JointRevolute, JointRope, JointSpring, JointDistance:
		return true
	}
	return false
}

// Connection joins two objects. PointA and PointB are offsets in each body's
// unrotated local frame.
type Connection struct {
	ID        string
	Type      JointType
	BodyA     string
	BodyB     string
	PointA    common.Vec
	PointB    common.Vec
	Length    float64
	Stiffness float64
	Damping   float64
}

type Level struct {
	Name            string
	Objects         []Object
	Connections     []Connection
	BackgroundImage string
}

// Object returns the object with the given id, or nil.
func (l *Level) Object(id string) *Object {
	for i := range l.Objects {
		if l.Objects[i].ID == id {
			return &l.Objects[i]
		}
	}
	return nil
}

// Tagged returns the objects carrying tag, in level order.
func (l *Level) Tagged(tag Tag) []*Object {
	var out []*Object
	for i := range l.Objects {
		if l.Objects[i].Tags.Has(tag) {
			out = append(out, &l.Objects[i])
		}
	}
	return out
}

// Clone returns a deep copy so callers may mutate without affecting the source.
func (l *Level) Clone() *Level {
	if l == nil {
		return nil
	}
	out := &Level{
		Name:            l.Name,
		BackgroundImage: l.BackgroundImage,
		Objects:         make([]Object, len(l.Objects)),
		Connections:     make([]Connection, len(l.Connections)),
	}
	copy(out.Objects, l.Objects)
	copy(out.Connections, l.Connections)
	for i := range out.Objects {
		if m := out.Objects[i].Motion; m != nil {
			mc := *m
			out.Objects[i].Motion = &mc
		}
	}
	return out
}
