package physics

import (
	"math"

	"github.com/milk9111/tractorbeam/common"
)

// outline is either a circle (poly == nil) or a convex polygon.
type outline struct {
	center common.Vec
	radius float64
	poly   []common.Vec
}

func (o outline) bounds() common.Rect {
	if o.poly == nil {
		return common.RectAround(o.center, 2*o.radius, 2*o.radius)
	}
	return polygonBounds(o.poly)
}

// overlapsPolygon tests both directions so that a small outline inside the
// polygon and a polygon inside a large outline are both reported.
func (o outline) overlapsPolygon(poly []common.Vec) bool {
	if !o.bounds().Intersects(polygonBounds(poly)) {
		return false
	}
	if o.poly == nil {
		if pointInPolygon(o.center, poly) {
			return true
		}
		for i := range poly {
			a, b := poly[i], poly[(i+1)%len(poly)]
			if segmentPointDistance(a, b, o.center) <= o.radius {
				return true
			}
		}
		return false
	}
	return polygonsOverlap(o.poly, poly)
}

func polygonsOverlap(p, q []common.Vec) bool {
	for _, v := range p {
		if pointInPolygon(v, q) {
			return true
		}
	}
	for _, v := range q {
		if pointInPolygon(v, p) {
			return true
		}
	}
	for i := range p {
		a1, a2 := p[i], p[(i+1)%len(p)]
		for j := range q {
			if segmentsIntersect(a1, a2, q[j], q[(j+1)%len(q)]) {
				return true
			}
		}
	}
	return false
}

// pointInPolygon uses even-odd ray casting; points on an edge may go either way.
func pointInPolygon(pt common.Vec, poly []common.Vec) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y) + a.X
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func cross(o, a, b common.Vec) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func segmentsIntersect(p1, p2, q1, q2 common.Vec) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func onSegment(a, b, p common.Vec) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

func segmentPointDistance(a, b, p common.Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := common.Clamp(((p.X-a.X)*ab.X+(p.Y-a.Y)*ab.Y)/l2, 0, 1)
	return p.Dist(a.Add(ab.Scale(t)))
}

func polygonBounds(poly []common.Vec) common.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range poly {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return common.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func boxVertices(center common.Vec, width, height, angle float64) []common.Vec {
	hw, hh := width/2, height/2
	corners := []common.Vec{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	for i, c := range corners {
		corners[i] = center.Add(c.Rotate(angle))
	}
	return corners
}
