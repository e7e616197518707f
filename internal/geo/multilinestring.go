package geo

// MultiLineString is a set of paths.
type MultiLineString struct {
	collection[*LineString]
	noCurve
	noSurface
}

// NewMultiLineString builds a multilinestring from lines, which it copies.
func NewMultiLineString(lines []*LineString) (*MultiLineString, error) {
	c, err := newCollection(lines)
	if err != nil {
		return nil, err
	}
	return &MultiLineString{collection: c}, nil
}

func (m *MultiLineString) sealed() {}

func (m *MultiLineString) Type() Type { return TypeMultiLineString }

func (m *MultiLineString) WithSRID(srid int) Geometry {
	cp := *m
	cp.srid = srid
	return &cp
}

func (m *MultiLineString) Centroid() *Point { return m.weightedCentroid() }

// Boundary applies the mod-2 rule: end points shared by an even number of
// member paths are interior.
func (m *MultiLineString) Boundary() Geometry {
	type key struct{ x, y float64 }
	counts := make(map[key]int)
	var order []*Point
	for _, l := range m.geoms {
		if closed, _ := l.IsClosed(); closed || l.IsEmpty() {
			continue
		}
		for _, p := range []*Point{l.StartPoint(), l.EndPoint()} {
			k := key{p.x, p.y}
			if counts[k] == 0 {
				order = append(order, p)
			}
			counts[k]++
		}
	}
	var out []*Point
	for _, p := range order {
		if counts[key{p.x, p.y}]%2 == 1 {
			out = append(out, p)
		}
	}
	return &MultiPoint{collection: collection[*Point]{geoms: out, srid: m.srid}}
}

func (m *MultiLineString) IsSimple() bool { return m.allSimple() }

func (m *MultiLineString) Equals(other Geometry) bool {
	if other == nil || other.Type() != TypeMultiLineString {
		return false
	}
	return m.equalMembers(other)
}

func (m *MultiLineString) AsArray() any {
	out := make([][][]float64, len(m.geoms))
	for i, l := range m.geoms {
		out[i] = l.AsArray().([][]float64)
	}
	return out
}

// IsClosed is true when every member path is closed.
func (m *MultiLineString) IsClosed() (bool, bool) {
	for _, l := range m.geoms {
		if closed, _ := l.IsClosed(); !closed {
			return false, true
		}
	}
	return true, true
}

func (m *MultiLineString) PointOnSurface() *Point { return m.firstPointOnSurface() }

func (m *MultiLineString) Explode() []*LineString { return m.explode() }
