package wkt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/woozymasta/foxfire/internal/geo"
)

const sridPrefix = "SRID"

// dimension constraint declared by a Z suffix; zero means "take it from the
// coordinates".
type dims int

type parser struct {
	lex  lexer
	tok  token
	want dims
}

// Unmarshal parses WKT or EWKT text. An EWKT "SRID=n;" prefix sets the SRID
// of the returned geometry.
func Unmarshal(s string) (geo.Geometry, error) {
	p := &parser{lex: lexer{line: s}}
	if err := p.advance(); err != nil {
		return nil, err
	}

	srid := 0
	if p.tok.kind == tokWord && p.tok.text == sridPrefix {
		var err error
		if srid, err = p.srid(); err != nil {
			return nil, err
		}
	}

	g, err := p.geometry()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.unexpected("end of input")
	}
	if srid != 0 {
		g = g.WithSRID(srid)
	}
	return g, nil
}

func (p *parser) srid() (int, error) {
	if err := p.advance(); err != nil {
		return 0, err
	}
	if err := p.expect(tokEquals); err != nil {
		return 0, err
	}
	if p.tok.kind != tokNumber {
		return 0, p.unexpected("SRID number")
	}
	srid, err := strconv.ParseInt(p.tok.text, 10, 32)
	if err != nil {
		return 0, p.malformed(fmt.Sprintf("invalid SRID %q", p.tok.text))
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	if err := p.expect(tokSemicolon); err != nil {
		return 0, err
	}
	return int(srid), nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind) error {
	if p.tok.kind != kind {
		return p.unexpected(kind.String())
	}
	return p.advance()
}

func (p *parser) malformed(problem string) error {
	return &ParseError{problem: problem, pos: p.tok.pos, str: p.lex.line, class: geo.ErrMalformedInput}
}

func (p *parser) unsupported(problem string) error {
	return &ParseError{problem: problem, pos: p.tok.pos, str: p.lex.line, class: geo.ErrUnsupportedGeometryType}
}

func (p *parser) unexpected(want string) error {
	got := p.tok.kind.String()
	if p.tok.text != "" {
		got = fmt.Sprintf("%q", p.tok.text)
	}
	return p.malformed(fmt.Sprintf("expected %s, got %s", want, got))
}

var keywords = map[string]geo.Type{
	"POINT":              geo.TypePoint,
	"LINESTRING":         geo.TypeLineString,
	"POLYGON":            geo.TypePolygon,
	"MULTIPOINT":         geo.TypeMultiPoint,
	"MULTILINESTRING":    geo.TypeMultiLineString,
	"MULTIPOLYGON":       geo.TypeMultiPolygon,
	"GEOMETRYCOLLECTION": geo.TypeGeometryCollection,
}

// keyword resolves a type keyword with an optional glued dimension suffix,
// e.g. POINTZ.
func (p *parser) keyword() (geo.Type, error) {
	if p.tok.kind != tokWord {
		return 0, p.unexpected("geometry type")
	}
	word := p.tok.text
	if t, ok := keywords[word]; ok {
		return t, p.advance()
	}
	for _, suffix := range []string{"ZM", "Z", "M"} {
		base, found := strings.CutSuffix(word, suffix)
		if !found {
			continue
		}
		if t, ok := keywords[base]; ok {
			if err := p.dimSuffix(suffix); err != nil {
				return 0, err
			}
			return t, p.advance()
		}
	}
	return 0, p.unsupported(fmt.Sprintf("unknown geometry type %q", word))
}

func (p *parser) dimSuffix(suffix string) error {
	switch suffix {
	case "Z":
		p.want = 3
		return nil
	case "M", "ZM":
		return p.unsupported("measured coordinates are not supported")
	}
	return nil
}

// geometry parses one tagged geometry: a type keyword, an optional spaced
// dimension suffix, then EMPTY or a body.
func (p *parser) geometry() (geo.Geometry, error) {
	typ, err := p.keyword()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokWord && (p.tok.text == "Z" || p.tok.text == "M" || p.tok.text == "ZM") {
		if err := p.dimSuffix(p.tok.text); err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.kind == tokWord && p.tok.text == "EMPTY" {
		if typ == geo.TypePoint {
			return nil, p.unsupported("empty points are not supported")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return emptyOf(typ), nil
	}

	switch typ {
	case geo.TypePoint:
		return p.pointBody()
	case geo.TypeLineString:
		return p.lineString()
	case geo.TypePolygon:
		return p.polygon()
	case geo.TypeMultiPoint:
		return p.multiPoint()
	case geo.TypeMultiLineString:
		return p.multiLineString()
	case geo.TypeMultiPolygon:
		return p.multiPolygon()
	default:
		return p.geometryCollection()
	}
}

func emptyOf(typ geo.Type) geo.Geometry {
	var (
		g   geo.Geometry
		err error
	)
	switch typ {
	case geo.TypeLineString:
		g, err = geo.NewLineString(nil)
	case geo.TypePolygon:
		g, err = geo.NewPolygon(nil)
	case geo.TypeMultiPoint:
		g, err = geo.NewMultiPoint(nil)
	case geo.TypeMultiLineString:
		g, err = geo.NewMultiLineString(nil)
	case geo.TypeMultiPolygon:
		g, err = geo.NewMultiPolygon(nil)
	default:
		g, err = geo.NewGeometryCollection(nil)
	}
	if err != nil {
		panic(err)
	}
	return g
}

func (p *parser) coord() (*geo.Point, error) {
	start := p.tok
	var vals []string
	for p.tok.kind == tokNumber {
		vals = append(vals, p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	switch {
	case len(vals) < 2:
		return nil, p.unexpected("coordinate")
	case len(vals) > 3:
		p.tok = start
		return nil, p.unsupported("measured coordinates are not supported")
	case p.want == 3 && len(vals) != 3:
		p.tok = start
		return nil, p.malformed("expected 3 coordinates for a Z geometry")
	}
	pt, err := geo.ParsePoint(vals[0], vals[1], vals[2:]...)
	if err != nil {
		p.tok = start
		return nil, &ParseError{problem: err.Error(), pos: start.pos, str: p.lex.line, class: geo.ErrMalformedInput}
	}
	return pt, nil
}

func (p *parser) pointBody() (*geo.Point, error) {
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	pt, err := p.coord()
	if err != nil {
		return nil, err
	}
	return pt, p.expect(tokRParen)
}

// list parses '(' item {',' item} ')'.
func (p *parser) list(item func() error) error {
	if err := p.expect(tokLParen); err != nil {
		return err
	}
	for {
		if err := item(); err != nil {
			return err
		}
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	return p.expect(tokRParen)
}

func (p *parser) coordList() ([]*geo.Point, error) {
	var pts []*geo.Point
	err := p.list(func() error {
		pt, err := p.coord()
		pts = append(pts, pt)
		return err
	})
	return pts, err
}

func (p *parser) wrap(start token, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{problem: err.Error(), pos: start.pos, str: p.lex.line, class: geo.ErrMalformedInput}
}

func (p *parser) lineString() (*geo.LineString, error) {
	start := p.tok
	pts, err := p.coordList()
	if err != nil {
		return nil, err
	}
	ls, err := geo.NewLineString(pts)
	return ls, p.wrap(start, err)
}

// lineStringOrEmpty parses a member linestring of a multi geometry.
func (p *parser) lineStringOrEmpty() (*geo.LineString, error) {
	if p.tok.kind == tokWord && p.tok.text == "EMPTY" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return geo.NewLineString(nil)
	}
	return p.lineString()
}

func (p *parser) polygon() (*geo.Polygon, error) {
	start := p.tok
	var rings []*geo.LineString
	err := p.list(func() error {
		ring, err := p.lineString()
		rings = append(rings, ring)
		return err
	})
	if err != nil {
		return nil, err
	}
	poly, err := geo.NewPolygon(rings)
	return poly, p.wrap(start, err)
}

func (p *parser) polygonOrEmpty() (*geo.Polygon, error) {
	if p.tok.kind == tokWord && p.tok.text == "EMPTY" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return geo.NewPolygon(nil)
	}
	return p.polygon()
}

// multiPoint accepts both MULTIPOINT(1 2,3 4) and MULTIPOINT((1 2),(3 4)).
func (p *parser) multiPoint() (*geo.MultiPoint, error) {
	var pts []*geo.Point
	err := p.list(func() error {
		var (
			pt  *geo.Point
			err error
		)
		switch {
		case p.tok.kind == tokLParen:
			pt, err = p.pointBody()
		case p.tok.kind == tokWord && p.tok.text == "EMPTY":
			return p.unsupported("empty points are not supported")
		default:
			pt, err = p.coord()
		}
		pts = append(pts, pt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return geo.NewMultiPoint(pts)
}

func (p *parser) multiLineString() (*geo.MultiLineString, error) {
	var lines []*geo.LineString
	err := p.list(func() error {
		l, err := p.lineStringOrEmpty()
		lines = append(lines, l)
		return err
	})
	if err != nil {
		return nil, err
	}
	return geo.NewMultiLineString(lines)
}

func (p *parser) multiPolygon() (*geo.MultiPolygon, error) {
	var polys []*geo.Polygon
	err := p.list(func() error {
		poly, err := p.polygonOrEmpty()
		polys = append(polys, poly)
		return err
	})
	if err != nil {
		return nil, err
	}
	return geo.NewMultiPolygon(polys)
}

func (p *parser) geometryCollection() (*geo.GeometryCollection, error) {
	var geoms []geo.Geometry
	outer := p.want
	err := p.list(func() error {
		p.want = outer
		g, err := p.geometry()
		geoms = append(geoms, g)
		return err
	})
	if err != nil {
		return nil, err
	}
	return geo.NewGeometryCollection(geoms)
}
