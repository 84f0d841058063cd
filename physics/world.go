// Package physics wraps the chipmunk space behind id handles so that the rest
// of the server never holds *cp.Body pointers.
package physics

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/rotisserie/eris"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/levels"
)

const minMass = 0.01

var (
	ErrUnknownBody   = eris.New("physics: unknown body")
	ErrStaticJoint   = eris.New("physics: joint between two static bodies")
	ErrUnknownJoint  = eris.New("physics: unknown joint type")
	ErrInvalidShape  = eris.New("physics: invalid shape")
	ErrSameBodyJoint = eris.New("physics: joint connects a body to itself")
)

// BodyID identifies a body owned by a World. Zero is never issued.
type BodyID uint32

// ConstraintID identifies a joint owned by a World. Zero is never issued.
type ConstraintID uint32

type Material struct {
	Friction    float64
	Restitution float64
	Density     float64
}

type BodyDef struct {
	Shape    levels.Shape
	Material Material
	Static   bool
	// Solid=false bodies collide with nothing but still answer overlap queries.
	Solid    bool
	Position common.Vec
	Angle    float64

	// Hover bodies ignore gravity and lose Drag (1/s) of their velocity.
	Hover         bool
	Drag          float64
	FixedRotation bool
}

type ConstraintDef struct {
	Type      levels.JointType
	A, B      BodyID
	AnchorA   common.Vec
	AnchorB   common.Vec
	Length    float64
	Stiffness float64
	Damping   float64
}

type Options struct {
	Gravity float64
	Step    float64
	// Spring stiffness and damping in level files are scaled by these.
	SpringStiffnessScale float64
	SpringDampingScale   float64
}

type body struct {
	body    *cp.Body
	shape   *cp.Shape
	outline levels.Shape
	static  bool
	joints  map[ConstraintID]struct{}
}

type constraint struct {
	c       *cp.Constraint
	def     ConstraintDef
	length  float64
	bodyA   BodyID
	bodyB   BodyID
	anchorA common.Vec
	anchorB common.Vec
}

// World owns a cp.Space and every body and joint in it.
type World struct {
	space       *cp.Space
	opts        Options
	bodies      map[BodyID]*body
	constraints map[ConstraintID]*constraint
	nextBody    BodyID
	nextJoint   ConstraintID
}

func NewWorld(opts Options) *World {
	if opts.Step <= 0 {
		opts.Step = 1.0 / 60.0
	}
	if opts.SpringStiffnessScale <= 0 {
		opts.SpringStiffnessScale = 1
	}
	if opts.SpringDampingScale <= 0 {
		opts.SpringDampingScale = 1
	}
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: opts.Gravity})

	return &World{
		space:       space,
		opts:        opts,
		bodies:      make(map[BodyID]*body),
		constraints: make(map[ConstraintID]*constraint),
	}
}

// CreateBody adds a body with a single collision shape.
func (w *World) CreateBody(def BodyDef) (BodyID, error) {
	area, err := shapeArea(def.Shape)
	if err != nil {
		return 0, err
	}

	var cb *cp.Body
	if def.Static {
		cb = cp.NewStaticBody()
	} else {
		mass := math.Max(def.Material.Density*area, minMass)
		moment := math.Inf(1)
		if !def.FixedRotation {
			switch s := def.Shape.(type) {
			case levels.Circle:
				moment = cp.MomentForCircle(mass, 0, s.Radius, cp.Vector{})
			case levels.Rect:
				moment = cp.MomentForBox(mass, s.Width, s.Height)
			}
		}
		cb = cp.NewBody(mass, moment)
	}
	cb.SetPosition(toCP(def.Position))
	cb.SetAngle(def.Angle)

	if def.Hover && !def.Static {
		drag := def.Drag
		cb.SetVelocityUpdateFunc(func(b *cp.Body, gravity cp.Vector, damping, dt float64) {
			cp.BodyUpdateVelocity(b, cp.Vector{}, damping*math.Exp(-drag*dt), dt)
		})
	}

	var shape *cp.Shape
	switch s := def.Shape.(type) {
	case levels.Circle:
		shape = cp.NewCircle(cb, s.Radius, cp.Vector{})
	case levels.Rect:
		shape = cp.NewBox(cb, s.Width, s.Height, 0)
	}
	shape.SetFriction(def.Material.Friction)
	shape.SetElasticity(def.Material.Restitution)
	if !def.Solid {
		shape.SetFilter(cp.ShapeFilter{Group: cp.NO_GROUP, Categories: 0, Mask: 0})
	}

	w.space.AddBody(cb)
	w.space.AddShape(shape)

	w.nextBody++
	id := w.nextBody
	w.bodies[id] = &body{
		body:    cb,
		shape:   shape,
		outline: def.Shape,
		static:  def.Static,
		joints:  make(map[ConstraintID]struct{}),
	}
	return id, nil
}

// DestroyBody removes the body and any joint attached to it. Unknown ids are
// ignored.
func (w *World) DestroyBody(id BodyID) {
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	for cid := range b.joints {
		w.RemoveConstraint(cid)
	}
	w.space.RemoveShape(b.shape)
	w.space.RemoveBody(b.body)
	delete(w.bodies, id)
}

// AddConstraint joins two bodies. The returned length is the distance between
// the world-space anchor points at creation time.
func (w *World) AddConstraint(def ConstraintDef) (ConstraintID, float64, error) {
	a, ok := w.bodies[def.A]
	if !ok {
		return 0, 0, eris.Wrapf(ErrUnknownBody, "body A %d", def.A)
	}
	b, ok := w.bodies[def.B]
	if !ok {
		return 0, 0, eris.Wrapf(ErrUnknownBody, "body B %d", def.B)
	}
	if def.A == def.B {
		return 0, 0, ErrSameBodyJoint
	}
	if a.static && b.static {
		return 0, 0, ErrStaticJoint
	}

	worldA := localToWorld(a.body, def.AnchorA)
	worldB := localToWorld(b.body, def.AnchorB)
	length := worldA.Dist(worldB)
	anchorA, anchorB := toCP(def.AnchorA), toCP(def.AnchorB)

	var c *cp.Constraint
	switch def.Type {
	case levels.JointRevolute:
		if length < 1e-6 {
			c = cp.NewPivotJoint2(a.body, b.body, anchorA, anchorB)
		} else {
			c = cp.NewSlideJoint(a.body, b.body, anchorA, anchorB, length, length)
		}
	case levels.JointDistance:
		c = cp.NewSlideJoint(a.body, b.body, anchorA, anchorB, length, length)
	case levels.JointRope:
		c = cp.NewSlideJoint(a.body, b.body, anchorA, anchorB, 0, math.Max(length, def.Length))
	case levels.JointSpring:
		rest := length
		if def.Length > 0 {
			rest = def.Length
		}
		c = cp.NewDampedSpring(a.body, b.body, anchorA, anchorB, rest,
			def.Stiffness*w.opts.SpringStiffnessScale, def.Damping*w.opts.SpringDampingScale)
	default:
		return 0, 0, eris.Wrapf(ErrUnknownJoint, "%q", def.Type)
	}
	w.space.AddConstraint(c)

	w.nextJoint++
	id := w.nextJoint
	w.constraints[id] = &constraint{
		c:       c,
		def:     def,
		length:  length,
		bodyA:   def.A,
		bodyB:   def.B,
		anchorA: def.AnchorA,
		anchorB: def.AnchorB,
	}
	a.joints[id] = struct{}{}
	b.joints[id] = struct{}{}
	return id, length, nil
}

func (w *World) RemoveConstraint(id ConstraintID) {
	c, ok := w.constraints[id]
	if !ok {
		return
	}
	w.space.RemoveConstraint(c.c)
	if a, ok := w.bodies[c.bodyA]; ok {
		delete(a.joints, id)
	}
	if b, ok := w.bodies[c.bodyB]; ok {
		delete(b.joints, id)
	}
	delete(w.constraints, id)
}

// ConstraintEndpoints returns the current world-space anchor points.
func (w *World) ConstraintEndpoints(id ConstraintID) (common.Vec, common.Vec, bool) {
	c, ok := w.constraints[id]
	if !ok {
		return common.Vec{}, common.Vec{}, false
	}
	a, okA := w.bodies[c.bodyA]
	b, okB := w.bodies[c.bodyB]
	if !okA || !okB {
		return common.Vec{}, common.Vec{}, false
	}
	return localToWorld(a.body, c.anchorA), localToWorld(b.body, c.anchorB), true
}

// ApplyForce adds force for one fixed step as an immediate impulse through
// the centre of mass. Static and unknown bodies are ignored.
func (w *World) ApplyForce(id BodyID, force common.Vec) {
	b, ok := w.bodies[id]
	if !ok || b.static {
		return
	}
	impulse := force.Scale(w.opts.Step)
	b.body.ApplyImpulseAtWorldPoint(toCP(impulse), b.body.Position())
}

// SetPosition teleports a body. Locomotion must go through ApplyForce.
// Static bodies never move.
func (w *World) SetPosition(id BodyID, p common.Vec) {
	b, ok := w.bodies[id]
	if !ok || b.static {
		return
	}
	b.body.SetPosition(toCP(p))
}

func (w *World) SetAngle(id BodyID, angle float64) {
	b, ok := w.bodies[id]
	if !ok || b.static {
		return
	}
	b.body.SetAngle(angle)
}

// SetVelocity sets linear velocity and clears spin.
func (w *World) SetVelocity(id BodyID, v common.Vec) {
	b, ok := w.bodies[id]
	if !ok || b.static {
		return
	}
	b.body.SetVelocityVector(toCP(v))
	b.body.SetAngularVelocity(0)
}

func (w *World) Step(dt float64) {
	w.space.Step(dt)
}

func (w *World) Position(id BodyID) (common.Vec, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return common.Vec{}, false
	}
	return fromCP(b.body.Position()), true
}

func (w *World) Angle(id BodyID) float64 {
	if b, ok := w.bodies[id]; ok {
		return b.body.Angle()
	}
	return 0
}

func (w *World) Velocity(id BodyID) (common.Vec, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return common.Vec{}, false
	}
	return fromCP(b.body.Velocity()), true
}

// Mass returns zero for static or unknown bodies.
func (w *World) Mass(id BodyID) float64 {
	b, ok := w.bodies[id]
	if !ok || b.static {
		return 0
	}
	return b.body.Mass()
}

func (w *World) IsStatic(id BodyID) bool {
	b, ok := w.bodies[id]
	return ok && b.static
}

func (w *World) Exists(id BodyID) bool {
	_, ok := w.bodies[id]
	return ok
}

func (w *World) BodyCount() int       { return len(w.bodies) }
func (w *World) ConstraintCount() int { return len(w.constraints) }

// Bounds returns the axis-aligned box around the body's rotated outline.
func (w *World) Bounds(id BodyID) (common.Rect, bool) {
	o, ok := w.outline(id)
	if !ok {
		return common.Rect{}, false
	}
	return o.bounds(), true
}

func (w *World) outline(id BodyID) (outline, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return outline{}, false
	}
	pos := fromCP(b.body.Position())
	switch s := b.outline.(type) {
	case levels.Circle:
		return outline{center: pos, radius: s.Radius}, true
	case levels.Rect:
		return outline{center: pos, poly: boxVertices(pos, s.Width, s.Height, b.body.Angle())}, true
	}
	return outline{}, false
}

// QueryPolygonOverlap returns the candidates whose outline overlaps poly,
// preserving candidate order. Collision filtering does not apply.
func (w *World) QueryPolygonOverlap(poly []common.Vec, candidates []BodyID) []BodyID {
	if len(poly) < 3 {
		return nil
	}
	var hits []BodyID
	for _, id := range candidates {
		o, ok := w.outline(id)
		if !ok {
			continue
		}
		if o.overlapsPolygon(poly) {
			hits = append(hits, id)
		}
	}
	return hits
}

func shapeArea(s levels.Shape) (float64, error) {
	switch v := s.(type) {
	case levels.Circle:
		if v.Radius <= 0 {
			return 0, eris.Wrapf(ErrInvalidShape, "circle radius %v", v.Radius)
		}
	case levels.Rect:
		if v.Width <= 0 || v.Height <= 0 {
			return 0, eris.Wrapf(ErrInvalidShape, "rect %vx%v", v.Width, v.Height)
		}
	default:
		return 0, eris.Wrap(ErrInvalidShape, "missing shape")
	}
	return s.Area(), nil
}

func localToWorld(b *cp.Body, local common.Vec) common.Vec {
	return fromCP(b.Position()).Add(local.Rotate(b.Angle()))
}

func toCP(v common.Vec) cp.Vector   { return cp.Vector{X: v.X, Y: v.Y} }
func fromCP(v cp.Vector) common.Vec { return common.Vec{X: v.X, Y: v.Y} }
