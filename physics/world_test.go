package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/levels"
)

func newTestWorld() *World {
	return NewWorld(Options{Gravity: 900, Step: 1.0 / 60.0})
}

func mustBody(t *testing.T, w *World, def BodyDef) BodyID {
	t.Helper()
	id, err := w.CreateBody(def)
	if err != nil {
		t.Fatalf("CreateBody: %v", err)
	}
	return id
}

func TestRevoluteLengthUsesWorldAnchors(t *testing.T) {
	cases := []struct {
		name    string
		angleA  float64
		anchorA common.Vec
		want    float64
	}{
		{"centers", 0, common.Vec{}, 100},
		{"offset", 0, common.Vec{X: 10}, 90},
		{"rotated_offset", math.Pi / 2, common.Vec{X: 10}, math.Hypot(100, 10)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newTestWorld()
			a := mustBody(t, w, BodyDef{Shape: levels.Rect{Width: 20, Height: 20}, Static: true, Solid: true, Angle: c.angleA})
			b := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 5}, Material: Material{Density: 1}, Solid: true, Position: common.Vec{X: 100}})
			_, length, err := w.AddConstraint(ConstraintDef{Type: levels.JointRevolute, A: a, B: b, AnchorA: c.anchorA})
			if err != nil {
				t.Fatalf("AddConstraint: %v", err)
			}
			if math.Abs(length-c.want) > 1e-9 {
				t.Fatalf("expected length %v, got %v", c.want, length)
			}
		})
	}
}

func TestConstraintErrors(t *testing.T) {
	w := newTestWorld()
	a := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 5}, Static: true, Solid: true})
	b := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 5}, Static: true, Solid: true, Position: common.Vec{X: 50}})

	if _, _, err := w.AddConstraint(ConstraintDef{Type: levels.JointRope, A: a, B: b}); !errors.Is(err, ErrStaticJoint) {
		t.Fatalf("expected ErrStaticJoint, got %v", err)
	}
	if _, _, err := w.AddConstraint(ConstraintDef{Type: levels.JointRope, A: a, B: 99}); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("expected ErrUnknownBody, got %v", err)
	}
	if _, err := w.CreateBody(BodyDef{Shape: levels.Circle{}}); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
}

func TestDestroyBodyRemovesJoints(t *testing.T) {
	w := newTestWorld()
	a := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 5}, Static: true, Solid: true})
	b := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 5}, Material: Material{Density: 1}, Solid: true, Position: common.Vec{Y: 50}})
	if _, _, err := w.AddConstraint(ConstraintDef{Type: levels.JointSpring, A: a, B: b, Stiffness: 1, Damping: 1}); err != nil {
		t.Fatalf("AddConstraint: %v", err)
	}

	w.DestroyBody(b)
	w.DestroyBody(b)
	if w.ConstraintCount() != 0 {
		t.Fatalf("expected joints removed with body, got %d", w.ConstraintCount())
	}
	if w.BodyCount() != 1 {
		t.Fatalf("expected one body left, got %d", w.BodyCount())
	}
	w.Step(1.0 / 60.0)
}

func TestApplyForceIsImmediate(t *testing.T) {
	w := newTestWorld()
	id := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 10}, Material: Material{Density: 0.01}, Solid: true})
	mass := w.Mass(id)
	w.ApplyForce(id, common.Vec{Y: -600 * mass})

	v, _ := w.Velocity(id)
	if math.Abs(v.Y-(-10)) > 1e-9 {
		t.Fatalf("expected vy -10 before stepping, got %v", v.Y)
	}
}

func TestSolidFlagControlsCollision(t *testing.T) {
	cases := []struct {
		name      string
		solid     bool
		fallsPast bool
	}{
		{"solid_floor", true, false},
		{"ghost_floor", false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newTestWorld()
			mustBody(t, w, BodyDef{Shape: levels.Rect{Width: 400, Height: 20}, Static: true, Solid: c.solid, Position: common.Vec{Y: 100}})
			ball := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 10}, Material: Material{Density: 0.01}, Solid: true})
			for i := 0; i < 120; i++ {
				w.Step(1.0 / 60.0)
			}
			p, _ := w.Position(ball)
			if got := p.Y > 120; got != c.fallsPast {
				t.Fatalf("ball y=%v, fallsPast=%v want %v", p.Y, got, c.fallsPast)
			}
		})
	}
}

func TestHoverIgnoresGravity(t *testing.T) {
	w := newTestWorld()
	id := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 10}, Material: Material{Density: 0.01}, Solid: true, Hover: true, Drag: 2, FixedRotation: true})
	for i := 0; i < 60; i++ {
		w.Step(1.0 / 60.0)
	}
	p, _ := w.Position(id)
	if math.Abs(p.Y) > 1e-6 {
		t.Fatalf("hovering body moved to %v", p)
	}
}

func TestQueryPolygonOverlap(t *testing.T) {
	w := newTestWorld()
	cone := []common.Vec{{X: -20, Y: 0}, {X: 20, Y: 0}, {X: 80, Y: 200}, {X: -80, Y: 200}}

	inside := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 5}, Material: Material{Density: 1}, Solid: true, Position: common.Vec{Y: 100}})
	edge := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 10}, Material: Material{Density: 1}, Solid: true, Position: common.Vec{X: 28, Y: 10}})
	far := mustBody(t, w, BodyDef{Shape: levels.Circle{Radius: 5}, Material: Material{Density: 1}, Solid: true, Position: common.Vec{X: 500}})
	huge := mustBody(t, w, BodyDef{Shape: levels.Rect{Width: 1000, Height: 1000}, Static: true, Solid: true, Position: common.Vec{Y: 100}})
	ghost := mustBody(t, w, BodyDef{Shape: levels.Rect{Width: 10, Height: 10}, Static: true, Solid: false, Position: common.Vec{Y: 150}, Angle: 0.5})

	hits := w.QueryPolygonOverlap(cone, []BodyID{inside, edge, far, huge, ghost, 999})
	want := []BodyID{inside, edge, huge, ghost}
	if len(hits) != len(want) {
		t.Fatalf("expected %v, got %v", want, hits)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, hits)
		}
	}
}

func TestSetPoseOnlyMovesDynamicBodies(t *testing.T) {
	cases := []struct {
		name   string
		static bool
		want   common.Vec
		angle  float64
	}{
		{"dynamic", false, common.Vec{X: 40, Y: -30}, 1.25},
		{"static", true, common.Vec{X: 5, Y: 5}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newTestWorld()
			id := mustBody(t, w, BodyDef{Shape: levels.Rect{Width: 10, Height: 10}, Static: c.static, Solid: true, Position: common.Vec{X: 5, Y: 5}})
			w.SetPosition(id, common.Vec{X: 40, Y: -30})
			w.SetAngle(id, 1.25)

			pos, ok := w.Position(id)
			if !ok || pos != c.want {
				t.Fatalf("position %v, want %v", pos, c.want)
			}
			if got := w.Angle(id); math.Abs(got-c.angle) > 1e-9 {
				t.Fatalf("angle %v, want %v", got, c.angle)
			}
		})
	}
}
