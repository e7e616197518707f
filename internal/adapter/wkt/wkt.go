// Package wkt reads and writes Well-Known Text and its PostGIS extension
// EWKT, which prefixes the text with "SRID=n;".
//
// Output follows the PostGIS layout: no space between the type keyword and
// its coordinates, commas without spaces, e.g. "LINESTRING(1 2,3 4)".
package wkt

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/woozymasta/foxfire/internal/geo"
)

// Adapter converts geometries to and from WKT. Read accepts EWKT in either
// mode.
type Adapter struct {
	// Extended writes the "SRID=n;" prefix for geometries with a non-zero
	// SRID.
	Extended bool
	// DecimalDigits caps the fraction digits written; 0 writes the shortest
	// exact representation.
	DecimalDigits int
}

func (a Adapter) Read(data []byte) (geo.Geometry, error) {
	return Unmarshal(string(data))
}

func (a Adapter) Write(g geo.Geometry) ([]byte, error) {
	if g == nil {
		return nil, errors.Wrap(geo.ErrInvalidGeometry, "wkt: nil geometry")
	}
	w := writer{digits: a.DecimalDigits}
	if a.Extended && g.SRID() != 0 {
		w.WriteString("SRID=")
		w.WriteString(strconv.Itoa(g.SRID()))
		w.WriteByte(';')
	}
	w.geometry(g)
	return []byte(w.String()), nil
}

// Marshal returns the WKT text of g.
func Marshal(g geo.Geometry) (string, error) {
	b, err := Adapter{}.Write(g)
	return string(b), err
}

// MarshalExtended returns the EWKT text of g.
func MarshalExtended(g geo.Geometry) (string, error) {
	b, err := Adapter{Extended: true}.Write(g)
	return string(b), err
}

type writer struct {
	strings.Builder
	digits int
}

func (w *writer) geometry(g geo.Geometry) {
	w.WriteString(keyword(g.Type()))
	if g.IsEmpty() {
		w.WriteString(" EMPTY")
		return
	}
	w.body(g)
}

func keyword(t geo.Type) string {
	return strings.ToUpper(t.String())
}

func (w *writer) body(g geo.Geometry) {
	switch g.Type() {
	case geo.TypePoint:
		w.WriteByte('(')
		w.coord(g.(*geo.Point))
		w.WriteByte(')')
	case geo.TypeLineString, geo.TypeMultiPoint:
		w.coordList(g.Points())
	case geo.TypeGeometryCollection:
		w.members(g, w.geometry)
	default:
		w.members(g, w.bodyOrEmpty)
	}
}

func (w *writer) bodyOrEmpty(g geo.Geometry) {
	if g.IsEmpty() {
		w.WriteString("EMPTY")
		return
	}
	w.body(g)
}

func (w *writer) members(g geo.Geometry, each func(geo.Geometry)) {
	n, _ := g.NumGeometries()
	w.WriteByte('(')
	for i := 1; i <= n; i++ {
		if i > 1 {
			w.WriteByte(',')
		}
		each(g.GeometryN(i))
	}
	w.WriteByte(')')
}

func (w *writer) coordList(pts []*geo.Point) {
	w.WriteByte('(')
	for i, p := range pts {
		if i > 0 {
			w.WriteByte(',')
		}
		w.coord(p)
	}
	w.WriteByte(')')
}

func (w *writer) coord(p *geo.Point) {
	w.num(p.X())
	w.WriteByte(' ')
	w.num(p.Y())
	if z, ok := p.Z(); ok {
		w.WriteByte(' ')
		w.num(z)
	}
}

func (w *writer) num(v float64) {
	w.WriteString(FormatFloat(v, w.digits))
}

// FormatFloat formats v without exponent, trimming trailing zeros when
// digits caps the fraction length.
func FormatFloat(v float64, digits int) string {
	if digits <= 0 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
