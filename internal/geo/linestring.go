package geo

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/golang/geo/s2"
)

// LineString is a connected path through an ordered sequence of points. It
// is either empty or holds at least two points.
type LineString struct {
	collection[*Point]
	noSurface
}

// NewLineString builds a linestring from points, which it copies.
func NewLineString(points []*Point) (*LineString, error) {
	if len(points) == 1 {
		return nil, errors.Wrap(ErrInvalidGeometry, "linestring needs at least two points")
	}
	c, err := newCollection(points)
	if err != nil {
		return nil, err
	}
	return &LineString{collection: c}, nil
}

func (l *LineString) sealed() {}

func (l *LineString) Type() Type { return TypeLineString }

func (l *LineString) WithSRID(srid int) Geometry {
	cp := *l
	cp.srid = srid
	return &cp
}

func (l *LineString) Dimension() int { return 1 }

func (l *LineString) Length() float64 {
	var d float64
	for i := 1; i < len(l.geoms); i++ {
		d += distance(l.geoms[i-1], l.geoms[i])
	}
	return d
}

// GreatCircleLength treats coordinates as lon/lat degrees and returns the
// path length in the units of radius along a sphere.
func (l *LineString) GreatCircleLength(radius float64) float64 {
	if radius <= 0 {
		radius = EarthRadius
	}
	var angle float64
	for i := 1; i < len(l.geoms); i++ {
		a := s2.LatLngFromDegrees(l.geoms[i-1].y, l.geoms[i-1].x)
		b := s2.LatLngFromDegrees(l.geoms[i].y, l.geoms[i].x)
		angle += a.Distance(b).Radians()
	}
	return angle * radius
}

// HaversineLength treats coordinates as lon/lat degrees and returns the
// path length in degrees of arc.
func (l *LineString) HaversineLength() float64 {
	var deg float64
	for i := 1; i < len(l.geoms); i++ {
		deg += haversine(l.geoms[i-1], l.geoms[i])
	}
	return deg
}

func haversine(a, b *Point) float64 {
	lat1, lat2 := a.y*math.Pi/180, b.y*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.x - a.x) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h)) * 180 / math.Pi
}

// Centroid weights each segment midpoint by the segment length. Zero-length
// paths fall back to the mean of their points.
func (l *LineString) Centroid() *Point {
	if len(l.geoms) == 0 {
		return nil
	}
	var sx, sy, sw float64
	for i := 1; i < len(l.geoms); i++ {
		a, b := l.geoms[i-1], l.geoms[i]
		w := distance(a, b)
		sx += (a.x + b.x) / 2 * w
		sy += (a.y + b.y) / 2 * w
		sw += w
	}
	if sw == 0 {
		return meanPoint(l.geoms)
	}
	return &Point{x: sx / sw, y: sy / sw}
}

// Boundary is the pair of end points, or an empty MultiPoint for closed and
// empty paths.
func (l *LineString) Boundary() Geometry {
	if closed, _ := l.IsClosed(); closed || len(l.geoms) == 0 {
		return &MultiPoint{collection: collection[*Point]{srid: l.srid}}
	}
	return &MultiPoint{collection: collection[*Point]{
		geoms: []*Point{l.StartPoint(), l.EndPoint()},
		srid:  l.srid,
	}}
}

// IsSimple reports whether the path never crosses or touches itself, apart
// from the shared end point of a closed path.
func (l *LineString) IsSimple() bool {
	segs := l.segments()
	closed, _ := l.IsClosed()
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			adjacent := j == i+1 || (closed && i == 0 && j == len(segs)-1)
			if adjacent {
				if overlapsCollinear(segs[i], segs[j]) {
					return false
				}
				continue
			}
			if segmentsIntersect(segs[i], segs[j]) {
				return false
			}
		}
	}
	return true
}

func (l *LineString) Equals(other Geometry) bool {
	if other == nil || other.Type() != TypeLineString {
		return false
	}
	return l.equalMembers(other)
}

// AsArray returns one coordinate slice per point.
func (l *LineString) AsArray() any {
	out := make([][]float64, len(l.geoms))
	for i, p := range l.geoms {
		out[i] = p.AsArray().([]float64)
	}
	return out
}

func (l *LineString) StartPoint() *Point { return l.PointN(1) }

func (l *LineString) EndPoint() *Point { return l.PointN(len(l.geoms)) }

// PointN returns the n-th point counting from 1.
func (l *LineString) PointN(n int) *Point {
	if n < 1 || n > len(l.geoms) {
		return nil
	}
	return l.geoms[n-1]
}

func (l *LineString) IsClosed() (bool, bool) {
	if len(l.geoms) == 0 {
		return false, true
	}
	return l.StartPoint().Equals(l.EndPoint()), true
}

func (l *LineString) IsRing() (bool, bool) {
	closed, _ := l.IsClosed()
	return closed && len(l.geoms) >= 4 && l.IsSimple(), true
}

// PointOnSurface returns the middle vertex.
func (l *LineString) PointOnSurface() *Point {
	if len(l.geoms) == 0 {
		return nil
	}
	return l.geoms[len(l.geoms)/2]
}

// Explode splits the path into two-point segments.
func (l *LineString) Explode() []*LineString {
	segs := l.segments()
	out := make([]*LineString, len(segs))
	for i, s := range segs {
		out[i] = &LineString{collection: collection[*Point]{geoms: []*Point{s[0], s[1]}, srid: l.srid}}
	}
	return out
}

type segment [2]*Point

func (l *LineString) segments() []segment {
	if len(l.geoms) < 2 {
		return nil
	}
	out := make([]segment, 0, len(l.geoms)-1)
	for i := 1; i < len(l.geoms); i++ {
		out = append(out, segment{l.geoms[i-1], l.geoms[i]})
	}
	return out
}

func orientation(a, b, c *Point) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

func onSegment(a, b, p *Point) bool {
	return math.Min(a.x, b.x) <= p.x && p.x <= math.Max(a.x, b.x) &&
		math.Min(a.y, b.y) <= p.y && p.y <= math.Max(a.y, b.y)
}

func segmentsIntersect(s, t segment) bool {
	d1 := orientation(t[0], t[1], s[0])
	d2 := orientation(t[0], t[1], s[1])
	d3 := orientation(s[0], s[1], t[0])
	d4 := orientation(s[0], s[1], t[1])
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(t[0], t[1], s[0])) ||
		(d2 == 0 && onSegment(t[0], t[1], s[1])) ||
		(d3 == 0 && onSegment(s[0], s[1], t[0])) ||
		(d4 == 0 && onSegment(s[0], s[1], t[1]))
}

// overlapsCollinear reports whether two segments sharing an end point fold
// back over each other.
func overlapsCollinear(s, t segment) bool {
	if orientation(s[0], s[1], t[0]) != 0 || orientation(s[0], s[1], t[1]) != 0 {
		return false
	}
	// Collinear and adjacent: they overlap unless they only share the joint.
	shared := s[1]
	if t[1].Equals(s[0]) {
		shared = s[0]
	}
	var other *Point
	if t[0].Equals(shared) {
		other = t[1]
	} else {
		other = t[0]
	}
	far := s[0]
	if far.Equals(shared) {
		far = s[1]
	}
	// The other end of t lies on s, or s's far end lies on t.
	return (onSegment(s[0], s[1], other) && !other.Equals(shared)) ||
		(onSegment(t[0], t[1], far) && !far.Equals(shared))
}
