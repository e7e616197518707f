package geo

import "github.com/cockroachdb/errors"

// collection holds the ordered, exclusively owned members of a composite
// geometry and the computations that simply fold over them.
type collection[T Geometry] struct {
	geoms []T
	srid  int
}

func newCollection[T Geometry](members []T) (collection[T], error) {
	geoms := make([]T, len(members))
	for i, m := range members {
		if Geometry(m) == nil || isNilMember(m) {
			return collection[T]{}, errors.Wrapf(ErrInvalidGeometry, "member %d is nil", i+1)
		}
		geoms[i] = m
	}
	return collection[T]{geoms: geoms}, nil
}

func isNilMember(g Geometry) bool {
	switch v := g.(type) {
	case *Point:
		return v == nil
	case *LineString:
		return v == nil
	case *Polygon:
		return v == nil
	case *MultiPoint:
		return v == nil
	case *MultiLineString:
		return v == nil
	case *MultiPolygon:
		return v == nil
	case *GeometryCollection:
		return v == nil
	}
	return false
}

func (c collection[T]) SRID() int { return c.srid }

func (c collection[T]) NumGeometries() (int, bool) { return len(c.geoms), true }

// GeometryN returns the n-th member counting from 1, or nil when n is out of
// range.
func (c collection[T]) GeometryN(n int) Geometry {
	if n < 1 || n > len(c.geoms) {
		return nil
	}
	return c.geoms[n-1]
}

func (c collection[T]) IsEmpty() bool { return len(c.geoms) == 0 }

func (c collection[T]) BBox() (BBox, bool) { return bboxOf(c.geoms) }

func (c collection[T]) Envelope() Geometry {
	b, ok := c.BBox()
	if !ok {
		return &GeometryCollection{collection: collection[Geometry]{srid: c.srid}}
	}
	return b.Polygon().WithSRID(c.srid)
}

func (c collection[T]) Is3D() bool {
	for _, g := range c.geoms {
		if g.Is3D() {
			return true
		}
	}
	return false
}

func (c collection[T]) NumPoints() int {
	n := 0
	for _, g := range c.geoms {
		n += g.NumPoints()
	}
	return n
}

func (c collection[T]) Points() []*Point {
	out := make([]*Point, 0, len(c.geoms))
	for _, g := range c.geoms {
		out = append(out, g.Points()...)
	}
	return out
}

func (c collection[T]) Area() float64 {
	var a float64
	for _, g := range c.geoms {
		a += g.Area()
	}
	return a
}

func (c collection[T]) Length() float64 {
	var l float64
	for _, g := range c.geoms {
		l += g.Length()
	}
	return l
}

func (c collection[T]) GreatCircleLength(radius float64) float64 {
	var l float64
	for _, g := range c.geoms {
		l += g.GreatCircleLength(radius)
	}
	return l
}

func (c collection[T]) HaversineLength() float64 {
	var l float64
	for _, g := range c.geoms {
		l += g.HaversineLength()
	}
	return l
}

func (c collection[T]) Dimension() int {
	d := 0
	for _, g := range c.geoms {
		d = max(d, g.Dimension())
	}
	return d
}

func (c collection[T]) allSimple() bool {
	for _, g := range c.geoms {
		if !g.IsSimple() {
			return false
		}
	}
	return true
}

func (c collection[T]) explode() []*LineString {
	var out []*LineString
	for _, g := range c.geoms {
		out = append(out, g.Explode()...)
	}
	return out
}

func (c collection[T]) equalMembers(other Geometry) bool {
	n, ok := other.NumGeometries()
	if !ok || n != len(c.geoms) {
		return false
	}
	for i, g := range c.geoms {
		if !g.Equals(other.GeometryN(i + 1)) {
			return false
		}
	}
	return true
}

func (c collection[T]) asArray() []any {
	out := make([]any, len(c.geoms))
	for i, g := range c.geoms {
		out[i] = g.AsArray()
	}
	return out
}

// weightedCentroid averages member centroids weighted by area, length or
// count, using only the members of the highest dimension.
func (c collection[T]) weightedCentroid() *Point {
	dim := -1
	for _, g := range c.geoms {
		if !g.IsEmpty() {
			dim = max(dim, g.Dimension())
		}
	}
	if dim < 0 {
		return nil
	}
	var sx, sy, sw float64
	var fallback []*Point
	for _, g := range c.geoms {
		if g.IsEmpty() || g.Dimension() != dim {
			continue
		}
		ct := g.Centroid()
		if ct == nil {
			continue
		}
		fallback = append(fallback, ct)
		w := 1.0
		switch dim {
		case 1:
			w = g.Length()
		case 2:
			w = g.Area()
		}
		sx += ct.x * w
		sy += ct.y * w
		sw += w
	}
	if sw == 0 {
		return meanPoint(fallback)
	}
	return &Point{x: sx / sw, y: sy / sw}
}

func (c collection[T]) firstPointOnSurface() *Point {
	for _, g := range c.geoms {
		if p := g.PointOnSurface(); p != nil {
			return p
		}
	}
	return nil
}

func meanPoint(points []*Point) *Point {
	if len(points) == 0 {
		return nil
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.x
		sy += p.y
	}
	n := float64(len(points))
	return &Point{x: sx / n, y: sy / n}
}
