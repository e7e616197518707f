// Package shp reads and writes ESRI shapefiles. Shapefiles span several
// files on disk, so this adapter works on paths rather than byte slices.
package shp

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	goshp "github.com/jonas-p/go-shp"
	"github.com/woozymasta/foxfire/internal/geo"
)

const maxFieldName = 10

// Feature is one shapefile record.
type Feature struct {
	// Geometry is nil for null shapes.
	Geometry   geo.Geometry
	Properties map[string]string
}

// ReadFile reads every record of the shapefile at path, which may be given
// with or without the .shp extension.
func ReadFile(path string) ([]Feature, error) {
	path = strings.TrimSuffix(path, ".shp") + ".shp"
	r, err := goshp.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer r.Close()

	fields := r.Fields()
	var out []Feature
	for r.Next() {
		n, shape := r.Shape()
		g, err := toGeometry(shape)
		if err != nil {
			return nil, errors.Wrapf(err, "%s record %d", path, n)
		}
		f := Feature{Geometry: g}
		if len(fields) > 0 {
			f.Properties = make(map[string]string, len(fields))
			for i, field := range fields {
				f.Properties[fieldName(field)] = strings.Trim(r.ReadAttribute(n, i), " \x00")
			}
		}
		out = append(out, f)
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(geo.ErrMalformedInput, "%s: %v", path, err)
	}
	return out, nil
}

// ReadGeometry reads the shapefile at path as one geometry: the only
// record's geometry, or a GeometryCollection of all non-null records.
func ReadGeometry(path string) (geo.Geometry, error) {
	features, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	var geoms []geo.Geometry
	for _, f := range features {
		if f.Geometry != nil {
			geoms = append(geoms, f.Geometry)
		}
	}
	if len(geoms) == 1 {
		return geoms[0], nil
	}
	return geo.NewGeometryCollection(geoms)
}

func fieldName(f goshp.Field) string {
	return string(bytes.TrimRight(f.Name[:], "\x00"))
}

func toGeometry(shape goshp.Shape) (geo.Geometry, error) {
	switch s := shape.(type) {
	case *goshp.Null:
		return nil, nil
	case *goshp.Point:
		return geo.NewPoint(s.X, s.Y)
	case *goshp.PointM:
		return geo.NewPoint(s.X, s.Y)
	case *goshp.PointZ:
		return geo.NewPointZ(s.X, s.Y, s.Z)
	case *goshp.MultiPoint:
		return multiPoint(s.Points, nil)
	case *goshp.MultiPointM:
		return multiPoint(s.Points, nil)
	case *goshp.MultiPointZ:
		return multiPoint(s.Points, s.ZArray)
	case *goshp.PolyLine:
		return polyLine(s.Parts, s.Points, nil)
	case *goshp.PolyLineM:
		return polyLine(s.Parts, s.Points, nil)
	case *goshp.PolyLineZ:
		return polyLine(s.Parts, s.Points, s.ZArray)
	case *goshp.Polygon:
		return polygon(s.Parts, s.Points, nil)
	case *goshp.PolygonM:
		return polygon(s.Parts, s.Points, nil)
	case *goshp.PolygonZ:
		return polygon(s.Parts, s.Points, s.ZArray)
	}
	return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "shape %T", shape)
}

func points(src []goshp.Point, z []float64, from int) ([]*geo.Point, error) {
	out := make([]*geo.Point, len(src))
	for i, p := range src {
		var err error
		if from+i < len(z) {
			out[i], err = geo.NewPointZ(p.X, p.Y, z[from+i])
		} else {
			out[i], err = geo.NewPoint(p.X, p.Y)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func multiPoint(src []goshp.Point, z []float64) (geo.Geometry, error) {
	pts, err := points(src, z, 0)
	if err != nil {
		return nil, err
	}
	return geo.NewMultiPoint(pts)
}

// splitParts slices the flat point list at the part offsets.
func splitParts(parts []int32, src []goshp.Point, z []float64) ([][]*geo.Point, error) {
	out := make([][]*geo.Point, len(parts))
	for i := range parts {
		start, end := int(parts[i]), len(src)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if start < 0 || start > end || end > len(src) {
			return nil, errors.Wrapf(geo.ErrMalformedInput, "part %d spans %d..%d of %d points", i, start, end, len(src))
		}
		pts, err := points(src[start:end], z, start)
		if err != nil {
			return nil, err
		}
		out[i] = pts
	}
	return out, nil
}

func polyLine(parts []int32, src []goshp.Point, z []float64) (geo.Geometry, error) {
	split, err := splitParts(parts, src, z)
	if err != nil {
		return nil, err
	}
	lines := make([]*geo.LineString, len(split))
	for i, pts := range split {
		if lines[i], err = geo.NewLineString(pts); err != nil {
			return nil, err
		}
	}
	if len(lines) == 1 {
		return lines[0], nil
	}
	return geo.NewMultiLineString(lines)
}

// polygon groups rings: clockwise rings start a polygon, counter-clockwise
// rings are holes of the polygon before them. Rings are reversed into the
// OGC orientation (counter-clockwise exterior).
func polygon(parts []int32, src []goshp.Point, z []float64) (geo.Geometry, error) {
	split, err := splitParts(parts, src, z)
	if err != nil {
		return nil, err
	}
	var groups [][]*geo.LineString
	for _, pts := range split {
		outer := signedArea(pts) <= 0
		reverse(pts)
		ring, err := geo.NewLineString(pts)
		if err != nil {
			return nil, err
		}
		if outer || len(groups) == 0 {
			groups = append(groups, []*geo.LineString{ring})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], ring)
	}

	polys := make([]*geo.Polygon, len(groups))
	for i, rings := range groups {
		if polys[i], err = geo.NewPolygon(rings); err != nil {
			return nil, err
		}
	}
	if len(polys) == 1 {
		return polys[0], nil
	}
	return geo.NewMultiPolygon(polys)
}

// signedArea is positive for counter-clockwise rings.
func signedArea(pts []*geo.Point) float64 {
	var sum float64
	for i := 0; i+1 < len(pts); i++ {
		sum += pts[i].X()*pts[i+1].Y() - pts[i+1].X()*pts[i].Y()
	}
	return sum / 2
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// WriteFile writes features to path (.shp, .shx and, when any feature has
// properties, .dbf). All geometries must belong to one shape family: points,
// multipoints, lines or polygons. Features without geometry are skipped since
// every record of a shapefile carries the file's shape type. Z values are not
// written.
func WriteFile(path string, features []Feature) error {
	shapeType, err := familyOf(features)
	if err != nil {
		return err
	}
	path = strings.TrimSuffix(path, ".shp") + ".shp"
	w, err := goshp.Create(path, shapeType)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer w.Close()

	fields := fieldNames(features)
	if len(fields) > 0 {
		shpFields := make([]goshp.Field, len(fields))
		for i, f := range fields {
			shpFields[i] = goshp.StringField(f.name, 254)
		}
		w.SetFields(shpFields)
	}

	for _, f := range features {
		if f.Geometry == nil || f.Geometry.IsEmpty() {
			continue
		}
		shape, err := toShape(f.Geometry)
		if err != nil {
			return err
		}
		row := int(w.Write(shape))
		for i, field := range fields {
			if v, ok := f.Properties[field.key]; ok {
				w.WriteAttribute(row, i, v)
			}
		}
	}
	return nil
}

// field pairs a property key with its dBASE column name.
type field struct {
	key  string
	name string
}

// fieldNames returns the sorted property keys with column names cut to the
// ten characters dBASE allows. Names that collide after the cut get a
// numeric suffix.
func fieldNames(features []Feature) []field {
	seen := map[string]bool{}
	var keys []string
	for _, f := range features {
		if f.Geometry == nil || f.Geometry.IsEmpty() {
			continue
		}
		for k := range f.Properties {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	taken := map[string]bool{}
	out := make([]field, 0, len(keys))
	for _, k := range keys {
		name := k
		if len(name) > maxFieldName {
			name = name[:maxFieldName]
		}
		for n := 1; taken[name]; n++ {
			suffix := "_" + strconv.Itoa(n)
			name = k[:min(len(k), maxFieldName-len(suffix))] + suffix
		}
		taken[name] = true
		out = append(out, field{key: k, name: name})
	}
	return out
}

func familyOf(features []Feature) (goshp.ShapeType, error) {
	family := goshp.NULL
	for _, f := range features {
		if f.Geometry == nil || f.Geometry.IsEmpty() {
			continue
		}
		var t goshp.ShapeType
		switch f.Geometry.Type() {
		case geo.TypePoint:
			t = goshp.POINT
		case geo.TypeMultiPoint:
			t = goshp.MULTIPOINT
		case geo.TypeLineString, geo.TypeMultiLineString:
			t = goshp.POLYLINE
		case geo.TypePolygon, geo.TypeMultiPolygon:
			t = goshp.POLYGON
		default:
			return goshp.NULL, errors.Wrapf(geo.ErrUnsupportedGeometryType, "shapefile cannot hold %s", f.Geometry.Type())
		}
		if family != goshp.NULL && family != t {
			return goshp.NULL, errors.Wrapf(geo.ErrUnsupportedGeometryType,
				"shapefile mixes %s with other shape families", f.Geometry.Type())
		}
		family = t
	}
	if family == goshp.NULL {
		return goshp.NULL, errors.Wrap(geo.ErrInvalidGeometry, "no non-empty geometry to write")
	}
	return family, nil
}

func toShape(g geo.Geometry) (goshp.Shape, error) {
	switch g.Type() {
	case geo.TypePoint:
		p := g.(*geo.Point)
		return &goshp.Point{X: p.X(), Y: p.Y()}, nil
	case geo.TypeMultiPoint:
		pts := shpPoints(g.Points())
		box, _ := g.BBox()
		return &goshp.MultiPoint{
			Box:       goshp.Box{MinX: box.MinX, MinY: box.MinY, MaxX: box.MaxX, MaxY: box.MaxY},
			NumPoints: int32(len(pts)),
			Points:    pts,
		}, nil
	case geo.TypeLineString:
		return goshp.NewPolyLine([][]goshp.Point{shpPoints(g.Points())}), nil
	case geo.TypeMultiLineString:
		n, _ := g.NumGeometries()
		parts := make([][]goshp.Point, n)
		for i := range parts {
			parts[i] = shpPoints(g.GeometryN(i + 1).Points())
		}
		return goshp.NewPolyLine(parts), nil
	case geo.TypePolygon, geo.TypeMultiPolygon:
		var parts [][]goshp.Point
		for _, poly := range polygons(g) {
			parts = append(parts, orientedRing(poly.ExteriorRing(), false))
			holes, _ := poly.NumInteriorRings()
			for i := 1; i <= holes; i++ {
				parts = append(parts, orientedRing(poly.InteriorRingN(i), true))
			}
		}
		p := goshp.Polygon(*goshp.NewPolyLine(parts))
		return &p, nil
	}
	return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "shapefile cannot hold %s", g.Type())
}

func polygons(g geo.Geometry) []geo.Geometry {
	if g.Type() == geo.TypePolygon {
		return []geo.Geometry{g}
	}
	n, _ := g.NumGeometries()
	out := make([]geo.Geometry, 0, n)
	for i := 1; i <= n; i++ {
		if m := g.GeometryN(i); !m.IsEmpty() {
			out = append(out, m)
		}
	}
	return out
}

// orientedRing returns the ring clockwise, or counter-clockwise for holes.
func orientedRing(r *geo.LineString, ccw bool) []goshp.Point {
	pts := r.Points()
	out := shpPoints(pts)
	if (signedArea(pts) > 0) != ccw {
		reverse(out)
	}
	return out
}

func shpPoints(pts []*geo.Point) []goshp.Point {
	out := make([]goshp.Point, len(pts))
	for i, p := range pts {
		out[i] = goshp.Point{X: p.X(), Y: p.Y()}
	}
	return out
}
