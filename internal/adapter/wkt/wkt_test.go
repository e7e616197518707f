package wkt

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/foxfire/internal/geo"
)

func TestMarshalPoint(t *testing.T) {
	p := geo.MustPoint(-122.4, 37.8)
	s, err := Marshal(p)
	require.NoError(t, err)
	require.Equal(t, "POINT(-122.4 37.8)", s)
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []string{
		"POINT(-122.4 37.8)",
		"POINT(-1 -2)",
		"POINT(1 2 3)",
		"LINESTRING(-1 -2,-3.5 4,5 -6)",
		"LINESTRING(1 2,3 4,5 6)",
		"LINESTRING EMPTY",
		"POLYGON((0 0,4 0,4 4,0 4,0 0),(1 1,2 1,2 2,1 2,1 1))",
		"POLYGON EMPTY",
		"MULTIPOINT(1 2,3 4)",
		"MULTIPOINT EMPTY",
		"MULTILINESTRING((0 0,1 1),(2 2,3 3))",
		"MULTILINESTRING((0 0,1 1),EMPTY)",
		"MULTIPOLYGON(((0 0,1 0,1 1,0 0)),((5 5,6 5,6 6,5 5)))",
		"GEOMETRYCOLLECTION(POINT(1 2),LINESTRING(0 0,1 1),GEOMETRYCOLLECTION EMPTY)",
		"GEOMETRYCOLLECTION EMPTY",
		"POINT(0.000001 1000000)",
	} {
		t.Run(tc, func(t *testing.T) {
			g, err := Unmarshal(tc)
			require.NoError(t, err)
			out, err := Marshal(g)
			require.NoError(t, err)
			require.Equal(t, tc, out)

			again, err := Unmarshal(out)
			require.NoError(t, err)
			require.True(t, g.Equals(again))
		})
	}
}

func TestUnmarshalVariants(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected string
	}{
		{"POINT (1 2)", "POINT(1 2)"},
		{"point(1 2)", "POINT(1 2)"},
		{"  POINT ( 1   2 )  ", "POINT(1 2)"},
		{"POINT Z (1 2 3)", "POINT(1 2 3)"},
		{"POINTZ(1 2 3)", "POINT(1 2 3)"},
		{"POINT(1e3 -2.5E-1)", "POINT(1000 -0.25)"},
		{"POINT(+1 -2e+1)", "POINT(1 -20)"},
		{"POINT(.5 -.25)", "POINT(0.5 -0.25)"},
		{"MULTIPOINT((1 2),(3 4))", "MULTIPOINT(1 2,3 4)"},
		{"MULTIPOINT (1 2, 3 4)", "MULTIPOINT(1 2,3 4)"},
		{"SRID=4326;POINT(1 2)", "POINT(1 2)"},
		{"GeometryCollection(Point(1 2))", "GEOMETRYCOLLECTION(POINT(1 2))"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			g, err := Unmarshal(tc.in)
			require.NoError(t, err)
			out, err := Marshal(g)
			require.NoError(t, err)
			require.Equal(t, tc.expected, out)
		})
	}
}

func TestEWKT(t *testing.T) {
	g, err := Unmarshal("SRID=4326;LINESTRING(1 2,3 4)")
	require.NoError(t, err)
	require.Equal(t, 4326, g.SRID())

	out, err := MarshalExtended(g)
	require.NoError(t, err)
	require.Equal(t, "SRID=4326;LINESTRING(1 2,3 4)", out)

	plain, err := Marshal(g)
	require.NoError(t, err)
	require.Equal(t, "LINESTRING(1 2,3 4)", plain)

	noSRID, err := MarshalExtended(geo.MustPoint(1, 2))
	require.NoError(t, err)
	require.Equal(t, "POINT(1 2)", noSRID)
}

func TestDecimalDigits(t *testing.T) {
	p := geo.MustPoint(1.123456789, -0.0000001)
	out, err := Adapter{DecimalDigits: 3}.Write(p)
	require.NoError(t, err)
	require.Equal(t, "POINT(1.123 0)", string(out))
}

func TestUnmarshalErrors(t *testing.T) {
	for _, tc := range []struct {
		in    string
		class error
	}{
		{"POINT(1 2", geo.ErrMalformedInput},
		{"1 2", geo.ErrMalformedInput},
		{"-1 POINT(1 2)", geo.ErrMalformedInput},
		{"POINT(- 1)", geo.ErrMalformedInput},
		{"POINT(1)", geo.ErrMalformedInput},
		{"POINT(1 2) x", geo.ErrMalformedInput},
		{"POINT(a b)", geo.ErrMalformedInput},
		{"POINT(1 2 ]", geo.ErrMalformedInput},
		{"", geo.ErrMalformedInput},
		{"LINESTRING(1 2)", geo.ErrMalformedInput},
		{"POLYGON((0 0,1 0,1 1,0 1))", geo.ErrMalformedInput},
		{"POINT Z (1 2)", geo.ErrMalformedInput},
		{"SRID=abc;POINT(1 2)", geo.ErrMalformedInput},
		{"SRID=4326 POINT(1 2)", geo.ErrMalformedInput},
		{"CIRCLE(1 2)", geo.ErrUnsupportedGeometryType},
		{"POINT M (1 2 3)", geo.ErrUnsupportedGeometryType},
		{"POINTZM(1 2 3 4)", geo.ErrUnsupportedGeometryType},
		{"POINT(1 2 3 4)", geo.ErrUnsupportedGeometryType},
		{"POINT EMPTY", geo.ErrUnsupportedGeometryType},
	} {
		t.Run(tc.in, func(t *testing.T) {
			_, err := Unmarshal(tc.in)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.class), "got %v", err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
		})
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := Unmarshal("POINT(1 2")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 9, perr.Pos())
}

func TestLexNumbers(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected []string
	}{
		{"-122.4 37.8", []string{"-122.4", "37.8"}},
		{"1", []string{"1"}},
		{"+1,-2", []string{"+1", "-2"}},
		{"1e-3 2E+4", []string{"1e-3", "2E+4"}},
		{"2-3", []string{"2", "-3"}},
		{"--1", []string{"-", "-1"}},
	} {
		t.Run(tc.in, func(t *testing.T) {
			l := lexer{line: tc.in}
			var got []string
			for {
				tok, err := l.next()
				require.NoError(t, err)
				if tok.kind == tokEOF {
					break
				}
				if tok.kind == tokNumber {
					got = append(got, tok.text)
				}
				require.Less(t, len(got), 10)
			}
			require.Equal(t, tc.expected, got)
		})
	}
}
