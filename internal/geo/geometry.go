// Package geo implements an immutable planar geometry model: points,
// linestrings, polygons and their multi and collection variants.
//
// Operations that have no meaning for a variant (the interior rings of a
// point, the start point of a polygon) report "not applicable" through nil
// results or a false ok value instead of failing.
package geo

// EarthRadius is the default sphere radius in metres used by
// GreatCircleLength.
const EarthRadius = 6378137.0

// Geometry is the capability set shared by every variant. The set of
// variants is closed: Point, LineString, Polygon, MultiPoint,
// MultiLineString, MultiPolygon and GeometryCollection.
type Geometry interface {
	Type() Type
	SRID() int
	// WithSRID returns a copy of the geometry carrying srid.
	WithSRID(srid int) Geometry
	Is3D() bool

	Area() float64
	Length() float64
	GreatCircleLength(radius float64) float64
	HaversineLength() float64
	Centroid() *Point
	BBox() (BBox, bool)
	Envelope() Geometry
	Boundary() Geometry
	Dimension() int
	IsEmpty() bool
	IsSimple() bool
	NumPoints() int
	Points() []*Point
	Equals(other Geometry) bool
	AsArray() any

	NumGeometries() (int, bool)
	GeometryN(n int) Geometry
	StartPoint() *Point
	EndPoint() *Point
	PointN(n int) *Point
	IsClosed() (closed bool, ok bool)
	IsRing() (ring bool, ok bool)
	ExteriorRing() *LineString
	NumInteriorRings() (int, bool)
	InteriorRingN(n int) *LineString
	PointOnSurface() *Point
	Explode() []*LineString

	sealed()
}

// noCurve is embedded by variants without curve operations.
type noCurve struct{}

func (noCurve) StartPoint() *Point { return nil }
func (noCurve) EndPoint() *Point { return nil }
func (noCurve) PointN(int) *Point { return nil }
func (noCurve) IsRing() (bool, bool) { return false, false }

// noSurface is embedded by variants without ring operations.
type noSurface struct{}

func (noSurface) ExteriorRing() *LineString { return nil }
func (noSurface) NumInteriorRings() (int, bool) { return 0, false }
func (noSurface) InteriorRingN(int) *LineString { return nil }

// Reduce collapses a collection holding a single member into that member and
// any empty collection into an empty GeometryCollection. Other geometries are
// returned unchanged.
func Reduce(g Geometry) Geometry {
	if g == nil {
		return nil
	}
	switch g.Type() {
	case TypePoint, TypeLineString, TypePolygon:
		return g
	}
	n, _ := g.NumGeometries()
	switch n {
	case 0:
		if g.Type() == TypeGeometryCollection {
			return g
		}
		return (&GeometryCollection{}).WithSRID(g.SRID())
	case 1:
		return Reduce(g.GeometryN(1)).WithSRID(g.SRID())
	}
	return g
}
