package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Point is a single location in two or three dimensions.
//
// Equals compares x and y only; z is ignored. Adapters rely on this 2D
// equality, so it is kept even though two points differing only in z
// compare equal.
type Point struct {
	noCurve
	noSurface

	x, y, z float64
	hasZ    bool
	srid    int
}

// NewPoint returns a 2D point. Coordinates must be finite.
func NewPoint(x, y float64) (*Point, error) {
	if err := checkFinite(x, y); err != nil {
		return nil, err
	}
	return &Point{x: x, y: y}, nil
}

// NewPointZ returns a 3D point. Coordinates must be finite.
func NewPointZ(x, y, z float64) (*Point, error) {
	if err := checkFinite(x, y, z); err != nil {
		return nil, err
	}
	return &Point{x: x, y: y, z: z, hasZ: true}, nil
}

// ParsePoint builds a point from textual coordinates. A third value, when
// given, makes the point 3D.
func ParsePoint(x, y string, z ...string) (*Point, error) {
	if len(z) > 1 {
		return nil, errors.Wrapf(ErrInvalidCoordinate, "too many coordinates: %d", 2+len(z))
	}
	fx, err := parseCoord(x)
	if err != nil {
		return nil, err
	}
	fy, err := parseCoord(y)
	if err != nil {
		return nil, err
	}
	if len(z) == 0 {
		return NewPoint(fx, fy)
	}
	fz, err := parseCoord(z[0])
	if err != nil {
		return nil, err
	}
	return NewPointZ(fx, fy, fz)
}

// MustPoint is like NewPoint but panics on invalid input. It is meant for
// literals in tests and tables.
func MustPoint(x, y float64) *Point {
	p, err := NewPoint(x, y)
	if err != nil {
		panic(err)
	}
	return p
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidCoordinate, "%q is not a number", s)
	}
	return v, nil
}

func checkFinite(vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidCoordinate, "%v is not finite", v)
		}
	}
	return nil
}

func (p *Point) sealed() {}

// X returns the first coordinate (longitude for geographic data).
func (p *Point) X() float64 { return p.x }

// Y returns the second coordinate (latitude for geographic data).
func (p *Point) Y() float64 { return p.y }

// Z returns the third coordinate; ok is false for 2D points.
func (p *Point) Z() (z float64, ok bool) { return p.z, p.hasZ }

// CoordDim is 3 for points built with a z value, 2 otherwise.
func (p *Point) CoordDim() int {
	if p.hasZ {
		return 3
	}
	return 2
}

func (p *Point) Type() Type { return TypePoint }
func (p *Point) SRID() int { return p.srid }
func (p *Point) Is3D() bool { return p.hasZ }

func (p *Point) WithSRID(srid int) Geometry {
	cp := *p
	cp.srid = srid
	return &cp
}

func (p *Point) Area() float64 { return 0 }
func (p *Point) Length() float64 { return 0 }
func (p *Point) GreatCircleLength(float64) float64 { return 0 }
func (p *Point) HaversineLength() float64 { return 0 }
func (p *Point) Centroid() *Point { return p }
func (p *Point) Boundary() Geometry { return p }
func (p *Point) Envelope() Geometry { return p }
func (p *Point) Dimension() int { return 0 }
func (p *Point) IsEmpty() bool { return false }
func (p *Point) IsSimple() bool { return true }
func (p *Point) NumPoints() int { return 1 }
func (p *Point) Points() []*Point { return []*Point{p} }

func (p *Point) BBox() (BBox, bool) {
	return BBox{MinX: p.x, MinY: p.y, MaxX: p.x, MaxY: p.y}, true
}

func (p *Point) Equals(other Geometry) bool {
	o, ok := other.(*Point)
	if !ok || o == nil {
		return false
	}
	return p.x == o.x && p.y == o.y
}

// AsArray returns []float64{x, y} or []float64{x, y, z}.
func (p *Point) AsArray() any {
	if p.hasZ {
		return []float64{p.x, p.y, p.z}
	}
	return []float64{p.x, p.y}
}

func (p *Point) NumGeometries() (int, bool) { return 0, false }
func (p *Point) GeometryN(int) Geometry { return nil }
func (p *Point) IsClosed() (bool, bool) { return false, false }
func (p *Point) PointOnSurface() *Point { return nil }
func (p *Point) Explode() []*LineString { return nil }

func (p *Point) String() string {
	return "Point(" + formatCoords(p) + ")"
}

func formatCoords(p *Point) string {
	s := strconv.FormatFloat(p.x, 'f', -1, 64) + " " + strconv.FormatFloat(p.y, 'f', -1, 64)
	if p.hasZ {
		s += " " + strconv.FormatFloat(p.z, 'f', -1, 64)
	}
	return s
}

func distance(a, b *Point) float64 {
	return math.Hypot(b.x-a.x, b.y-a.y)
}
