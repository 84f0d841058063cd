package levels

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/milk9111/tractorbeam/common"
)

const (
	defaultFriction    = 0.3
	defaultRestitution = 0.1
)

type objectJSON struct {
	ID               string      `json:"id"`
	Shape            string      `json:"shape"`
	Width            float64     `json:"width,omitempty"`
	Height           float64     `json:"height,omitempty"`
	Radius           float64     `json:"radius,omitempty"`
	X                float64     `json:"x"`
	Y                float64     `json:"y"`
	Rotation         float64     `json:"rotation"`
	Friction         *float64    `json:"friction,omitempty"`
	Restitution      *float64    `json:"restitution,omitempty"`
	Density          float64     `json:"density,omitempty"`
	IsStatic         bool        `json:"isStatic"`
	IsSolid          *bool       `json:"isSolid,omitempty"`
	Properties       []string    `json:"properties,omitempty"`
	Color            string      `json:"color,omitempty"`
	NextLevel        string      `json:"nextLevel,omitempty"`
	TeleporterTarget string      `json:"teleporterTarget,omitempty"`
	Active           bool        `json:"active,omitempty"`
	PointA           *common.Vec `json:"pointA,omitempty"`
	PointB           *common.Vec `json:"pointB,omitempty"`
	TimeToA          float64     `json:"timeToA,omitempty"`
	TimeFromA        float64     `json:"timeFromA,omitempty"`
	SpeedToB         float64     `json:"speedToB,omitempty"`
	SpeedFromB       float64     `json:"speedFromB,omitempty"`
}

type connectionJSON struct {
	ID        string     `json:"id,omitempty"`
	Type      JointType  `json:"type"`
	BodyA     string     `json:"bodyA"`
	BodyB     string     `json:"bodyB"`
	PointA    common.Vec `json:"pointA"`
	PointB    common.Vec `json:"pointB"`
	Length    float64    `json:"length,omitempty"`
	Stiffness float64    `json:"stiffness,omitempty"`
	Damping   float64    `json:"damping,omitempty"`
}

type levelJSON struct {
	Name            string           `json:"name,omitempty"`
	Objects         []objectJSON     `json:"objects"`
	Connections     []connectionJSON `json:"connections"`
	BackgroundImage string           `json:"backgroundImage,omitempty"`
}

// Decode parses a level document. Unknown property tags are dropped;
// an unknown shape or joint type is an error.
func Decode(data []byte) (*Level, error) {
	var raw levelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "unmarshal level")
	}

	lvl := &Level{
		Name:            raw.Name,
		BackgroundImage: raw.BackgroundImage,
		Objects:         make([]Object, 0, len(raw.Objects)),
		Connections:     make([]Connection, 0, len(raw.Connections)),
	}
	for i, ro := range raw.Objects {
		obj, err := ro.toObject()
		if err != nil {
			return nil, eris.Wrapf(err, "object %d (%q)", i, ro.ID)
		}
		lvl.Objects = append(lvl.Objects, obj)
	}
	for i, rc := range raw.Connections {
		if !rc.Type.Valid() {
			return nil, eris.Errorf("connection %d: unknown joint type %q", i, rc.Type)
		}
		id := rc.ID
		if id == "" {
			id = fmt.Sprintf("conn-%d", i)
		}
		lvl.Connections = append(lvl.Connections, Connection{
			ID:        id,
			Type:      rc.Type,
			BodyA:     rc.BodyA,
			BodyB:     rc.BodyB,
			PointA:    rc.PointA,
			PointB:    rc.PointB,
			Length:    rc.Length,
			Stiffness: rc.Stiffness,
			Damping:   rc.Damping,
		})
	}
	return lvl, nil
}

// Encode renders a level document, indented for hand editing.
func Encode(lvl *Level) ([]byte, error) {
	if lvl == nil {
		return nil, eris.New("encode nil level")
	}
	raw := levelJSON{
		Name:            lvl.Name,
		BackgroundImage: lvl.BackgroundImage,
		Objects:         make([]objectJSON, 0, len(lvl.Objects)),
		Connections:     make([]connectionJSON, 0, len(lvl.Connections)),
	}
	for i := range lvl.Objects {
		raw.Objects = append(raw.Objects, fromObject(&lvl.Objects[i]))
	}
	for _, c := range lvl.Connections {
		raw.Connections = append(raw.Connections, connectionJSON{
			ID:        c.ID,
			Type:      c.Type,
			BodyA:     c.BodyA,
			BodyB:     c.BodyB,
			PointA:    c.PointA,
			PointB:    c.PointB,
			Length:    c.Length,
			Stiffness: c.Stiffness,
			Damping:   c.Damping,
		})
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "marshal level")
	}
	return data, nil
}

func (ro objectJSON) toObject() (Object, error) {
	obj := Object{
		ID:               ro.ID,
		X:                ro.X,
		Y:                ro.Y,
		Rotation:         ro.Rotation,
		Friction:         defaultFriction,
		Restitution:      defaultRestitution,
		Density:          ro.Density,
		IsStatic:         ro.IsStatic,
		IsSolid:          true,
		Color:            ro.Color,
		NextLevel:        ro.NextLevel,
		TeleporterTarget: ro.TeleporterTarget,
		Active:           ro.Active,
	}
	if ro.Friction != nil {
		obj.Friction = *ro.Friction
	}
	if ro.Restitution != nil {
		obj.Restitution = *ro.Restitution
	}
	if ro.IsSolid != nil {
		obj.IsSolid = *ro.IsSolid
	}

	switch ro.Shape {
	case "circle":
		obj.Shape = Circle{Radius: ro.Radius}
	case "rectangle", "rect", "":
		obj.Shape = Rect{Width: ro.Width, Height: ro.Height}
	default:
		return Object{}, eris.Errorf("unknown shape %q", ro.Shape)
	}

	for _, name := range ro.Properties {
		if tag, ok := ParseTag(name); ok {
			obj.Tags = obj.Tags.With(tag)
		}
	}

	if ro.PointA != nil || ro.PointB != nil || ro.TimeToA != 0 || ro.TimeFromA != 0 || ro.SpeedToB != 0 || ro.SpeedFromB != 0 {
		m := &Motion{
			TimeToA:    ro.TimeToA,
			TimeFromA:  ro.TimeFromA,
			SpeedToB:   ro.SpeedToB,
			SpeedFromB: ro.SpeedFromB,
		}
		if ro.PointA != nil {
			m.PointA = *ro.PointA
		}
		if ro.PointB != nil {
			m.PointB = *ro.PointB
		}
		obj.Motion = m
	}
	return obj, nil
}

func fromObject(o *Object) objectJSON {
	friction, restitution, solid := o.Friction, o.Restitution, o.IsSolid
	ro := objectJSON{
		ID:               o.ID,
		X:                o.X,
		Y:                o.Y,
		Rotation:         o.Rotation,
		Friction:         &friction,
		Restitution:      &restitution,
		Density:          o.Density,
		IsStatic:         o.IsStatic,
		IsSolid:          &solid,
		Properties:       o.Tags.Names(),
		Color:            o.Color,
		NextLevel:        o.NextLevel,
		TeleporterTarget: o.TeleporterTarget,
		Active:           o.Active,
	}
	switch s := o.Shape.(type) {
	case Circle:
		ro.Shape = "circle"
		ro.Radius = s.Radius
	case Rect:
		ro.Shape = "rectangle"
		ro.Width = s.Width
		ro.Height = s.Height
	}
	if m := o.Motion; m != nil {
		a, b := m.PointA, m.PointB
		ro.PointA = &a
		ro.PointB = &b
		ro.TimeToA = m.TimeToA
		ro.TimeFromA = m.TimeFromA
		ro.SpeedToB = m.SpeedToB
		ro.SpeedFromB = m.SpeedFromB
	}
	return ro
}
