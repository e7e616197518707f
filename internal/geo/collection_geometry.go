package geo

// GeometryCollection is a heterogeneous set of geometries, possibly nested.
type GeometryCollection struct {
	collection[Geometry]
	noCurve
	noSurface
}

// NewGeometryCollection builds a collection from geoms, which it copies.
func NewGeometryCollection(geoms []Geometry) (*GeometryCollection, error) {
	c, err := newCollection(geoms)
	if err != nil {
		return nil, err
	}
	return &GeometryCollection{collection: c}, nil
}

func (g *GeometryCollection) sealed() {}

func (g *GeometryCollection) Type() Type { return TypeGeometryCollection }

func (g *GeometryCollection) WithSRID(srid int) Geometry {
	cp := *g
	cp.srid = srid
	return &cp
}

func (g *GeometryCollection) Centroid() *Point { return g.weightedCentroid() }

// Boundary collects the boundaries of the members.
func (g *GeometryCollection) Boundary() Geometry {
	out := make([]Geometry, 0, len(g.geoms))
	for _, m := range g.geoms {
		if b := m.Boundary(); b != nil && !b.IsEmpty() {
			out = append(out, b)
		}
	}
	return &GeometryCollection{collection: collection[Geometry]{geoms: out, srid: g.srid}}
}

func (g *GeometryCollection) IsSimple() bool { return g.allSimple() }

func (g *GeometryCollection) Equals(other Geometry) bool {
	if other == nil || other.Type() != TypeGeometryCollection {
		return false
	}
	return g.equalMembers(other)
}

// AsArray returns the member arrays in order.
func (g *GeometryCollection) AsArray() any { return g.asArray() }

func (g *GeometryCollection) IsClosed() (bool, bool) { return false, false }

func (g *GeometryCollection) PointOnSurface() *Point { return g.firstPointOnSurface() }

func (g *GeometryCollection) Explode() []*LineString { return g.explode() }
