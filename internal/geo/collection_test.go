package geo

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func line(t *testing.T, coords ...float64) *LineString {
	t.Helper()
	pts := make([]*Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, MustPoint(coords[i], coords[i+1]))
	}
	l, err := NewLineString(pts)
	require.NoError(t, err)
	return l
}

func square(t *testing.T, x0, y0, size float64) *LineString {
	return line(t, x0, y0, x0+size, y0, x0+size, y0+size, x0, y0+size, x0, y0)
}

func TestMultiPoint(t *testing.T) {
	empty, err := NewMultiPoint(nil)
	require.NoError(t, err)
	n, ok := empty.NumGeometries()
	require.True(t, ok)
	require.Zero(t, n)
	require.True(t, empty.IsSimple())
	require.True(t, empty.IsEmpty())
	_, ok = empty.BBox()
	require.False(t, ok)
	require.Nil(t, empty.Centroid())

	mp, err := NewMultiPoint([]*Point{MustPoint(0, 0), MustPoint(2, 4), MustPoint(2, 4)})
	require.NoError(t, err)
	require.Equal(t, 3, mp.NumPoints())
	n, _ = mp.NumGeometries()
	require.Equal(t, 3, n)
	// duplicates are not detected
	require.True(t, mp.IsSimple())
	require.Nil(t, mp.Explode())
	require.False(t, mp.IsEmpty())

	b, ok := mp.BBox()
	require.True(t, ok)
	require.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 2, MaxY: 4}, b)

	require.True(t, mp.GeometryN(1).Equals(MustPoint(0, 0)))
	require.True(t, mp.GeometryN(3).Equals(MustPoint(2, 4)))
	require.Nil(t, mp.GeometryN(0))
	require.Nil(t, mp.GeometryN(4))

	c := mp.Centroid()
	require.InDelta(t, 4.0/3, c.X(), 1e-12)
	require.InDelta(t, 8.0/3, c.Y(), 1e-12)
	require.Zero(t, mp.Dimension())
}

func TestCollectionRejectsNilMembers(t *testing.T) {
	_, err := NewMultiPoint([]*Point{MustPoint(0, 0), nil})
	require.True(t, errors.Is(err, ErrInvalidGeometry))

	_, err = NewGeometryCollection([]Geometry{nil})
	require.True(t, errors.Is(err, ErrInvalidGeometry))
}

func TestLineString(t *testing.T) {
	_, err := NewLineString([]*Point{MustPoint(0, 0)})
	require.True(t, errors.Is(err, ErrInvalidGeometry))

	l := line(t, 0, 0, 3, 4, 3, 0)
	require.Equal(t, 1, l.Dimension())
	require.Equal(t, 9.0, l.Length())
	require.True(t, l.StartPoint().Equals(MustPoint(0, 0)))
	require.True(t, l.EndPoint().Equals(MustPoint(3, 0)))
	require.True(t, l.PointN(2).Equals(MustPoint(3, 4)))
	require.Nil(t, l.PointN(4))

	closed, ok := l.IsClosed()
	require.True(t, ok)
	require.False(t, closed)
	ring, ok := l.IsRing()
	require.True(t, ok)
	require.False(t, ring)

	segs := l.Explode()
	require.Len(t, segs, 2)
	require.Equal(t, [][]float64{{0, 0}, {3, 4}}, segs[0].AsArray())

	bnd := l.Boundary()
	require.Equal(t, TypeMultiPoint, bnd.Type())
	require.Equal(t, 2, bnd.NumPoints())

	c := l.Centroid()
	require.InDelta(t, (1.5*5+3*4)/9, c.X(), 1e-12)
	require.InDelta(t, 2.0, c.Y(), 1e-12)
}

func TestLineStringRing(t *testing.T) {
	sq := square(t, 0, 0, 1)
	ring, _ := sq.IsRing()
	require.True(t, ring)
	require.True(t, sq.IsSimple())
	require.True(t, sq.Boundary().IsEmpty())

	bowtie := line(t, 0, 0, 1, 1, 1, 0, 0, 1, 0, 0)
	require.False(t, bowtie.IsSimple())
	ring, _ = bowtie.IsRing()
	require.False(t, ring)

	backtrack := line(t, 0, 0, 2, 0, 1, 0)
	require.False(t, backtrack.IsSimple())
}

func TestGreatCircleLength(t *testing.T) {
	// one degree along the equator
	l := line(t, 0, 0, 1, 0)
	require.InDelta(t, EarthRadius*math.Pi/180, l.GreatCircleLength(0), 1e-6)
	require.InDelta(t, 1.0, l.HaversineLength(), 1e-9)

	mls, err := NewMultiLineString([]*LineString{l, l})
	require.NoError(t, err)
	require.InDelta(t, 2.0, mls.HaversineLength(), 1e-9)
}

func TestPolygon(t *testing.T) {
	_, err := NewPolygon([]*LineString{line(t, 0, 0, 1, 0, 1, 1)})
	require.True(t, errors.Is(err, ErrInvalidGeometry))
	_, err = NewPolygon([]*LineString{line(t, 0, 0, 1, 0, 0, 0)})
	require.True(t, errors.Is(err, ErrInvalidGeometry))

	p, err := NewPolygon([]*LineString{square(t, 0, 0, 4), square(t, 1, 1, 1)})
	require.NoError(t, err)
	require.Equal(t, 15.0, p.Area())
	require.Equal(t, 20.0, p.Length())
	require.Equal(t, 2, p.Dimension())
	require.Equal(t, 10, p.NumPoints())

	n, ok := p.NumInteriorRings()
	require.True(t, ok)
	require.Equal(t, 1, n)
	require.True(t, p.ExteriorRing().Equals(square(t, 0, 0, 4)))
	require.True(t, p.InteriorRingN(1).Equals(square(t, 1, 1, 1)))
	require.Nil(t, p.InteriorRingN(2))
	require.Nil(t, p.StartPoint())

	require.True(t, p.Contains(3, 3))
	require.False(t, p.Contains(1.5, 1.5))

	c := p.Centroid()
	// (16*(2,2) - 1*(1.5,1.5)) / 15
	require.InDelta(t, (32-1.5)/15, c.X(), 1e-12)
	require.InDelta(t, (32-1.5)/15, c.Y(), 1e-12)

	bnd := p.Boundary()
	require.Equal(t, TypeMultiLineString, bnd.Type())
	require.Len(t, p.Explode(), 8)
}

func TestPolygonPointOnSurface(t *testing.T) {
	// U shape: centroid falls in the notch
	u := line(t, 0, 0, 3, 0, 3, 3, 2, 3, 2, 1, 1, 1, 1, 3, 0, 3, 0, 0)
	p, err := NewPolygon([]*LineString{u})
	require.NoError(t, err)
	pos := p.PointOnSurface()
	require.NotNil(t, pos)
	require.True(t, p.Contains(pos.X(), pos.Y()), "%v", pos)
}

func TestMultiPolygonAndCollection(t *testing.T) {
	a, err := NewPolygon([]*LineString{square(t, 0, 0, 2)})
	require.NoError(t, err)
	b, err := NewPolygon([]*LineString{square(t, 10, 0, 2)})
	require.NoError(t, err)
	mp, err := NewMultiPolygon([]*Polygon{a, b})
	require.NoError(t, err)
	require.Equal(t, 8.0, mp.Area())
	c := mp.Centroid()
	require.InDelta(t, 6.0, c.X(), 1e-12)
	require.InDelta(t, 1.0, c.Y(), 1e-12)

	gc, err := NewGeometryCollection([]Geometry{MustPoint(100, 100), line(t, 0, 0, 1, 0), mp})
	require.NoError(t, err)
	require.Equal(t, 2, gc.Dimension())
	bb, ok := gc.BBox()
	require.True(t, ok)
	require.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}, bb)
	// only polygonal members weigh in
	require.True(t, gc.Centroid().Equals(c))
	require.Equal(t, 1+2+10, gc.NumPoints())
	require.Len(t, gc.Points(), 13)
}

func TestEquals(t *testing.T) {
	a := line(t, 0, 0, 1, 1)
	b := line(t, 0, 0, 1, 1)
	c := line(t, 1, 1, 0, 0)
	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))

	mp, _ := NewMultiPoint([]*Point{MustPoint(0, 0), MustPoint(1, 1)})
	require.False(t, a.Equals(mp))
}

func TestMultiLineStringBoundary(t *testing.T) {
	mls, err := NewMultiLineString([]*LineString{
		line(t, 0, 0, 1, 0),
		line(t, 1, 0, 2, 0),
	})
	require.NoError(t, err)
	bnd := mls.Boundary()
	require.Equal(t, [][]float64{{0, 0}, {2, 0}}, bnd.AsArray())
	closed, ok := mls.IsClosed()
	require.True(t, ok)
	require.False(t, closed)
}

func TestReduce(t *testing.T) {
	single, _ := NewMultiPoint([]*Point{MustPoint(1, 2)})
	require.Equal(t, TypePoint, Reduce(single).Type())

	empty, _ := NewMultiPolygon(nil)
	require.Equal(t, TypeGeometryCollection, Reduce(empty).Type())

	two, _ := NewMultiPoint([]*Point{MustPoint(1, 2), MustPoint(3, 4)})
	require.Same(t, two, Reduce(two))
}

func TestEnvelope(t *testing.T) {
	l := line(t, 0, 0, 2, 3)
	env := l.Envelope()
	require.Equal(t, TypePolygon, env.Type())
	require.Equal(t, 6.0, env.Area())

	flat := line(t, 0, 0, 2, 0)
	require.Equal(t, TypeLineString, flat.Envelope().Type())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("multipolygon")
	require.NoError(t, err)
	require.Equal(t, TypeMultiPolygon, typ)
	require.Equal(t, "MultiPolygon", typ.String())

	_, err = ParseType("circle")
	require.True(t, errors.Is(err, ErrUnsupportedGeometryType))
}
