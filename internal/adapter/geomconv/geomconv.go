// Package geomconv translates between the geo model and go-geom values so
// the go-geom encoders can serve the binary and JSON adapters.
package geomconv

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/twpayne/go-geom"
	"github.com/woozymasta/foxfire/internal/geo"
)

// ToGeom converts g to a go-geom value carrying the same SRID. Geometries
// mixing 2D and 3D points are promoted to XYZ with z=0 for the 2D points.
func ToGeom(g geo.Geometry) (geom.T, error) {
	if g == nil {
		return nil, errors.Wrap(geo.ErrInvalidGeometry, "nil geometry")
	}
	layout := geom.XY
	if g.Is3D() {
		layout = geom.XYZ
	}
	t, err := toGeom(g, layout)
	if err != nil {
		return nil, err
	}
	return setSRID(t, g.SRID()), nil
}

func toGeom(g geo.Geometry, layout geom.Layout) (geom.T, error) {
	switch g.Type() {
	case geo.TypePoint:
		return geom.NewPoint(layout).SetCoords(coord(g.(*geo.Point), layout))
	case geo.TypeLineString:
		return geom.NewLineString(layout).SetCoords(coords1(g.Points(), layout))
	case geo.TypePolygon:
		return geom.NewPolygon(layout).SetCoords(coords2(g, layout))
	case geo.TypeMultiPoint:
		return geom.NewMultiPoint(layout).SetCoords(coords1(g.Points(), layout))
	case geo.TypeMultiLineString:
		return geom.NewMultiLineString(layout).SetCoords(coords2(g, layout))
	case geo.TypeMultiPolygon:
		n, _ := g.NumGeometries()
		cs := make([][][]geom.Coord, n)
		for i := range cs {
			cs[i] = coords2(g.GeometryN(i+1), layout)
		}
		return geom.NewMultiPolygon(layout).SetCoords(cs)
	case geo.TypeGeometryCollection:
		gc := geom.NewGeometryCollection()
		n, _ := g.NumGeometries()
		for i := 1; i <= n; i++ {
			member, err := toGeom(g.GeometryN(i), layout)
			if err != nil {
				return nil, err
			}
			if err := gc.Push(member); err != nil {
				return nil, errors.Wrap(err, "geometry collection")
			}
		}
		return gc, nil
	}
	return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "%s", g.Type())
}

func coord(p *geo.Point, layout geom.Layout) geom.Coord {
	if layout == geom.XYZ {
		z, _ := p.Z()
		return geom.Coord{p.X(), p.Y(), z}
	}
	return geom.Coord{p.X(), p.Y()}
}

func coords1(pts []*geo.Point, layout geom.Layout) []geom.Coord {
	out := make([]geom.Coord, len(pts))
	for i, p := range pts {
		out[i] = coord(p, layout)
	}
	return out
}

// coords2 converts the members of a polygon (rings) or multilinestring.
func coords2(g geo.Geometry, layout geom.Layout) [][]geom.Coord {
	n, _ := g.NumGeometries()
	out := make([][]geom.Coord, n)
	for i := range out {
		out[i] = coords1(g.GeometryN(i+1).Points(), layout)
	}
	return out
}

func setSRID(t geom.T, srid int) geom.T {
	switch t := t.(type) {
	case *geom.Point:
		return t.SetSRID(srid)
	case *geom.LineString:
		return t.SetSRID(srid)
	case *geom.Polygon:
		return t.SetSRID(srid)
	case *geom.MultiPoint:
		return t.SetSRID(srid)
	case *geom.MultiLineString:
		return t.SetSRID(srid)
	case *geom.MultiPolygon:
		return t.SetSRID(srid)
	case *geom.GeometryCollection:
		return t.SetSRID(srid)
	}
	return t
}

// FromGeom converts a go-geom value into the geo model. Measured layouts are
// rejected with geo.ErrUnsupportedGeometryType; structurally invalid input
// is additionally marked geo.ErrMalformedInput.
func FromGeom(t geom.T) (geo.Geometry, error) {
	if t == nil {
		return nil, errors.Wrap(geo.ErrMalformedInput, "nil geometry")
	}
	switch t.Layout() {
	case geom.XY, geom.XYZ, geom.NoLayout:
	default:
		return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "layout %v", t.Layout())
	}
	g, err := fromGeom(t)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidGeometry) || errors.Is(err, geo.ErrInvalidCoordinate) {
			err = errors.Mark(err, geo.ErrMalformedInput)
		}
		return nil, err
	}
	if t.SRID() != 0 {
		g = g.WithSRID(t.SRID())
	}
	return g, nil
}

func fromGeom(t geom.T) (geo.Geometry, error) {
	switch t := t.(type) {
	case *geom.Point:
		if t.Empty() {
			return nil, errors.Wrap(geo.ErrUnsupportedGeometryType, "empty point")
		}
		return point(t.Coords())
	case *geom.LineString:
		return lineString(t.Coords())
	case *geom.Polygon:
		return polygon(t.Coords())
	case *geom.MultiPoint:
		pts, err := points(t.Coords())
		if err != nil {
			return nil, err
		}
		return geo.NewMultiPoint(pts)
	case *geom.MultiLineString:
		lines := make([]*geo.LineString, t.NumLineStrings())
		for i := range lines {
			l, err := lineString(t.LineString(i).Coords())
			if err != nil {
				return nil, err
			}
			lines[i] = l
		}
		return geo.NewMultiLineString(lines)
	case *geom.MultiPolygon:
		polys := make([]*geo.Polygon, t.NumPolygons())
		for i := range polys {
			p, err := polygon(t.Polygon(i).Coords())
			if err != nil {
				return nil, err
			}
			polys[i] = p
		}
		return geo.NewMultiPolygon(polys)
	case *geom.GeometryCollection:
		members := make([]geo.Geometry, t.NumGeoms())
		for i, m := range t.Geoms() {
			g, err := fromGeom(m)
			if err != nil {
				return nil, err
			}
			members[i] = g
		}
		return geo.NewGeometryCollection(members)
	}
	return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "%T", t)
}

func point(c geom.Coord) (*geo.Point, error) {
	// WKB writers encode POINT EMPTY as NaN coordinates.
	if len(c) >= 2 && math.IsNaN(c[0]) && math.IsNaN(c[1]) {
		return nil, errors.Wrap(geo.ErrUnsupportedGeometryType, "empty point")
	}
	switch len(c) {
	case 2:
		return geo.NewPoint(c[0], c[1])
	case 3:
		return geo.NewPointZ(c[0], c[1], c[2])
	}
	return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "%d-dimensional coordinate", len(c))
}

func points(cs []geom.Coord) ([]*geo.Point, error) {
	out := make([]*geo.Point, len(cs))
	for i, c := range cs {
		p, err := point(c)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func lineString(cs []geom.Coord) (*geo.LineString, error) {
	pts, err := points(cs)
	if err != nil {
		return nil, err
	}
	return geo.NewLineString(pts)
}

func polygon(rings [][]geom.Coord) (*geo.Polygon, error) {
	ls := make([]*geo.LineString, len(rings))
	for i, r := range rings {
		l, err := lineString(r)
		if err != nil {
			return nil, err
		}
		ls[i] = l
	}
	return geo.NewPolygon(ls)
}
