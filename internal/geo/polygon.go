package geo

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"
)

// Polygon is an exterior ring with zero or more interior rings (holes). A
// polygon without rings is empty.
type Polygon struct {
	collection[*LineString]
	noCurve
}

// NewPolygon builds a polygon; rings[0] is the exterior ring. Every ring must
// be closed and hold at least four points.
func NewPolygon(rings []*LineString) (*Polygon, error) {
	c, err := newCollection(rings)
	if err != nil {
		return nil, err
	}
	for i, r := range c.geoms {
		if closed, _ := r.IsClosed(); !closed {
			return nil, errors.Wrapf(ErrInvalidGeometry, "ring %d is not closed", i+1)
		}
		if r.NumPoints() < 4 {
			return nil, errors.Wrapf(ErrInvalidGeometry, "ring %d has %d points, need 4", i+1, r.NumPoints())
		}
	}
	return &Polygon{collection: c}, nil
}

func (p *Polygon) sealed() {}

func (p *Polygon) Type() Type { return TypePolygon }

func (p *Polygon) WithSRID(srid int) Geometry {
	cp := *p
	cp.srid = srid
	return &cp
}

func (p *Polygon) Dimension() int { return 2 }

// Area is the exterior ring area minus the hole areas.
func (p *Polygon) Area() float64 {
	if len(p.geoms) == 0 {
		return 0
	}
	a := math.Abs(signedArea(p.geoms[0]))
	for _, hole := range p.geoms[1:] {
		a -= math.Abs(signedArea(hole))
	}
	return a
}

// signedArea applies the shoelace formula; counter-clockwise rings are
// positive.
func signedArea(ring *LineString) float64 {
	pts := ring.geoms
	var s float64
	for i := 0; i+1 < len(pts); i++ {
		s += pts[i].x*pts[i+1].y - pts[i+1].x*pts[i].y
	}
	return s / 2
}

// Centroid is area weighted across the rings, with holes subtracted. A
// polygon of zero area falls back to the mean of its exterior vertices.
func (p *Polygon) Centroid() *Point {
	if len(p.geoms) == 0 {
		return nil
	}
	var cx, cy, total float64
	for i, ring := range p.geoms {
		x, y, a := ringCentroid(ring)
		if i > 0 {
			a = -a
		}
		cx += x * a
		cy += y * a
		total += a
	}
	if total == 0 {
		ext := p.geoms[0].geoms
		return meanPoint(ext[:len(ext)-1])
	}
	return &Point{x: cx / total, y: cy / total}
}

// ringCentroid returns the centroid and the absolute area of a ring.
func ringCentroid(ring *LineString) (x, y, area float64) {
	pts := ring.geoms
	var sx, sy, s float64
	for i := 0; i+1 < len(pts); i++ {
		cross := pts[i].x*pts[i+1].y - pts[i+1].x*pts[i].y
		sx += (pts[i].x + pts[i+1].x) * cross
		sy += (pts[i].y + pts[i+1].y) * cross
		s += cross
	}
	if s == 0 {
		return 0, 0, 0
	}
	a := s / 2
	return sx / (6 * a), sy / (6 * a), math.Abs(a)
}

// Boundary is the exterior ring, or a MultiLineString of every ring when the
// polygon has holes.
func (p *Polygon) Boundary() Geometry {
	switch len(p.geoms) {
	case 0:
		return &MultiLineString{collection: collection[*LineString]{srid: p.srid}}
	case 1:
		return p.geoms[0].WithSRID(p.srid)
	}
	rings := make([]*LineString, len(p.geoms))
	copy(rings, p.geoms)
	return &MultiLineString{collection: collection[*LineString]{geoms: rings, srid: p.srid}}
}

func (p *Polygon) IsSimple() bool { return p.allSimple() }

func (p *Polygon) Equals(other Geometry) bool {
	if other == nil || other.Type() != TypePolygon {
		return false
	}
	return p.equalMembers(other)
}

// AsArray returns one coordinate list per ring.
func (p *Polygon) AsArray() any {
	out := make([][][]float64, len(p.geoms))
	for i, r := range p.geoms {
		out[i] = r.AsArray().([][]float64)
	}
	return out
}

func (p *Polygon) IsClosed() (bool, bool) { return false, false }

func (p *Polygon) ExteriorRing() *LineString {
	if len(p.geoms) == 0 {
		return nil
	}
	return p.geoms[0]
}

func (p *Polygon) NumInteriorRings() (int, bool) {
	if len(p.geoms) == 0 {
		return 0, true
	}
	return len(p.geoms) - 1, true
}

// InteriorRingN returns the n-th hole counting from 1.
func (p *Polygon) InteriorRingN(n int) *LineString {
	if n < 1 || n >= len(p.geoms) {
		return nil
	}
	return p.geoms[n]
}

// Explode returns every ring segment.
func (p *Polygon) Explode() []*LineString { return p.explode() }

// Contains reports whether (x, y) lies inside the exterior ring and outside
// every hole, using even-odd ray casting.
func (p *Polygon) Contains(x, y float64) bool {
	if len(p.geoms) == 0 {
		return false
	}
	if !ringContains(p.geoms[0], x, y) {
		return false
	}
	for _, hole := range p.geoms[1:] {
		if ringContains(hole, x, y) {
			return false
		}
	}
	return true
}

func ringContains(ring *LineString, x, y float64) bool {
	pts := ring.geoms
	inside := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.y > y) != (b.y > y) && x < (b.x-a.x)*(y-a.y)/(b.y-a.y)+a.x {
			inside = !inside
		}
	}
	return inside
}

// PointOnSurface returns the centroid when it falls inside the polygon,
// otherwise the middle of the widest interior span on the horizontal line
// through the middle of the bounding box.
func (p *Polygon) PointOnSurface() *Point {
	if len(p.geoms) == 0 {
		return nil
	}
	if c := p.Centroid(); c != nil && p.Contains(c.x, c.y) {
		return c
	}
	b, _ := p.BBox()
	y := (b.MinY + b.MaxY) / 2
	var xs []float64
	for _, ring := range p.geoms {
		pts := ring.geoms
		for i := 1; i < len(pts); i++ {
			a, c := pts[i-1], pts[i]
			if (a.y > y) != (c.y > y) {
				xs = append(xs, a.x+(y-a.y)*(c.x-a.x)/(c.y-a.y))
			}
		}
	}
	sort.Float64s(xs)
	best, bestWidth := -1, -1.0
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > bestWidth {
			best, bestWidth = i, w
		}
	}
	if best < 0 {
		return p.geoms[0].geoms[0]
	}
	return &Point{x: (xs[best] + xs[best+1]) / 2, y: y}
}
