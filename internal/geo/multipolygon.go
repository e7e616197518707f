package geo

// MultiPolygon is a set of polygons.
type MultiPolygon struct {
	collection[*Polygon]
	noCurve
	noSurface
}

// NewMultiPolygon builds a multipolygon from polygons, which it copies.
func NewMultiPolygon(polygons []*Polygon) (*MultiPolygon, error) {
	c, err := newCollection(polygons)
	if err != nil {
		return nil, err
	}
	return &MultiPolygon{collection: c}, nil
}

func (m *MultiPolygon) sealed() {}

func (m *MultiPolygon) Type() Type { return TypeMultiPolygon }

func (m *MultiPolygon) WithSRID(srid int) Geometry {
	cp := *m
	cp.srid = srid
	return &cp
}

func (m *MultiPolygon) Centroid() *Point { return m.weightedCentroid() }

// Boundary collects the rings of every member.
func (m *MultiPolygon) Boundary() Geometry {
	var rings []*LineString
	for _, p := range m.geoms {
		rings = append(rings, p.geoms...)
	}
	return &MultiLineString{collection: collection[*LineString]{geoms: rings, srid: m.srid}}
}

func (m *MultiPolygon) IsSimple() bool { return m.allSimple() }

func (m *MultiPolygon) Equals(other Geometry) bool {
	if other == nil || other.Type() != TypeMultiPolygon {
		return false
	}
	return m.equalMembers(other)
}

func (m *MultiPolygon) AsArray() any {
	out := make([][][][]float64, len(m.geoms))
	for i, p := range m.geoms {
		out[i] = p.AsArray().([][][]float64)
	}
	return out
}

func (m *MultiPolygon) IsClosed() (bool, bool) { return false, false }

func (m *MultiPolygon) PointOnSurface() *Point { return m.firstPointOnSurface() }

func (m *MultiPolygon) Explode() []*LineString { return m.explode() }
