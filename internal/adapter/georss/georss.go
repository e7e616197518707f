// Package georss reads and writes GeoRSS fragments in the Simple and GML
// profiles, plus the W3C geo:lat/geo:long vocabulary on read.
//
// Positions are written latitude first, as every GeoRSS profile requires.
package georss

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/woozymasta/foxfire/internal/adapter/wkt"
	"github.com/woozymasta/foxfire/internal/geo"
)

// Namespaces used when writing.
const (
	NamespaceGeoRSS = "http://www.georss.org/georss"
	NamespaceGML    = "http://www.opengis.net/gml"
	NamespaceW3C    = "http://www.w3.org/2003/01/geo/wgs84_pos#"
)

// Adapter converts geometries to and from GeoRSS.
type Adapter struct {
	// GML writes georss:where/gml:* elements instead of the Simple profile.
	GML bool
	// DecimalDigits caps written fraction digits, 0 writes the shortest
	// exact form.
	DecimalDigits int
}

// Read parses every GeoRSS geometry in data. One geometry is returned as
// is, several become a GeometryCollection in document order.
func (a Adapter) Read(data []byte) (geo.Geometry, error) {
	return Unmarshal(data)
}

// Write encodes g. Collections are written as a sequence of member
// elements; Simple polygons with holes fall back to GML.
func (a Adapter) Write(g geo.Geometry) ([]byte, error) {
	if g == nil {
		return nil, errors.Wrap(geo.ErrInvalidGeometry, "georss: nil geometry")
	}
	w := writer{gml: a.GML, digits: a.DecimalDigits}
	if err := w.geometry(g); err != nil {
		return nil, err
	}
	return []byte(w.String()), nil
}

// Marshal encodes g in the Simple profile.
func Marshal(g geo.Geometry) ([]byte, error) { return Adapter{}.Write(g) }

type writer struct {
	strings.Builder
	gml    bool
	digits int
}

func (w *writer) geometry(g geo.Geometry) error {
	if g.IsEmpty() {
		return errors.Wrapf(geo.ErrUnsupportedGeometryType, "georss: empty %s", g.Type())
	}
	switch g.Type() {
	case geo.TypePoint:
		if w.gml {
			w.WriteString("<georss:where><gml:Point><gml:pos>")
			w.positions(g.Points())
			w.WriteString("</gml:pos></gml:Point></georss:where>")
			return nil
		}
		w.simple("point", g.Points())
	case geo.TypeLineString:
		if w.gml {
			w.WriteString("<georss:where><gml:LineString>")
			w.posList(g.Points())
			w.WriteString("</gml:LineString></georss:where>")
			return nil
		}
		w.simple("line", g.Points())
	case geo.TypePolygon:
		holes, _ := g.NumInteriorRings()
		if w.gml || holes > 0 {
			w.gmlPolygon(g)
			return nil
		}
		w.simple("polygon", g.ExteriorRing().Points())
	default:
		n, _ := g.NumGeometries()
		for i := 1; i <= n; i++ {
			if err := w.geometry(g.GeometryN(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) simple(name string, pts []*geo.Point) {
	w.WriteString("<georss:" + name + ">")
	w.positions(pts)
	w.WriteString("</georss:" + name + ">")
}

func (w *writer) gmlPolygon(g geo.Geometry) {
	w.WriteString("<georss:where><gml:Polygon>")
	w.ring("exterior", g.ExteriorRing())
	holes, _ := g.NumInteriorRings()
	for i := 1; i <= holes; i++ {
		w.ring("interior", g.InteriorRingN(i))
	}
	w.WriteString("</gml:Polygon></georss:where>")
}

func (w *writer) ring(name string, r *geo.LineString) {
	w.WriteString("<gml:" + name + "><gml:LinearRing>")
	w.posList(r.Points())
	w.WriteString("</gml:LinearRing></gml:" + name + ">")
}

func (w *writer) posList(pts []*geo.Point) {
	w.WriteString("<gml:posList>")
	w.positions(pts)
	w.WriteString("</gml:posList>")
}

// positions writes "lat lon" pairs separated by spaces. Z is not part of
// any GeoRSS profile and is dropped.
func (w *writer) positions(pts []*geo.Point) {
	for i, p := range pts {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(wkt.FormatFloat(p.Y(), w.digits))
		w.WriteByte(' ')
		w.WriteString(wkt.FormatFloat(p.X(), w.digits))
	}
}
