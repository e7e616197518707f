package geo

// MultiPoint is a disconnected set of locations.
type MultiPoint struct {
	collection[*Point]
	noCurve
	noSurface
}

// NewMultiPoint builds a multipoint from points, which it copies.
func NewMultiPoint(points []*Point) (*MultiPoint, error) {
	c, err := newCollection(points)
	if err != nil {
		return nil, err
	}
	return &MultiPoint{collection: c}, nil
}

func (m *MultiPoint) sealed() {}

func (m *MultiPoint) Type() Type { return TypeMultiPoint }

func (m *MultiPoint) WithSRID(srid int) Geometry {
	cp := *m
	cp.srid = srid
	return &cp
}

// NumPoints equals NumGeometries.
func (m *MultiPoint) NumPoints() int { return len(m.geoms) }

// IsSimple is always true: duplicate points are not detected.
func (m *MultiPoint) IsSimple() bool { return true }

// Centroid is the mean of the points.
func (m *MultiPoint) Centroid() *Point { return meanPoint(m.geoms) }

// Boundary of a point set is empty.
func (m *MultiPoint) Boundary() Geometry {
	return &GeometryCollection{collection: collection[Geometry]{srid: m.srid}}
}

func (m *MultiPoint) Equals(other Geometry) bool {
	if other == nil || other.Type() != TypeMultiPoint {
		return false
	}
	return m.equalMembers(other)
}

// AsArray returns one coordinate slice per point.
func (m *MultiPoint) AsArray() any {
	out := make([][]float64, len(m.geoms))
	for i, p := range m.geoms {
		out[i] = p.AsArray().([]float64)
	}
	return out
}

func (m *MultiPoint) IsClosed() (bool, bool) { return false, false }

func (m *MultiPoint) PointOnSurface() *Point {
	if len(m.geoms) == 0 {
		return nil
	}
	return m.geoms[0]
}

// Explode does not apply to point sets and returns nil.
func (m *MultiPoint) Explode() []*LineString { return nil }
