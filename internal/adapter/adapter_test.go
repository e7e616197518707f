package adapter

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/foxfire/internal/geo"
)

func TestGet(t *testing.T) {
	for _, name := range Names() {
		a, err := Get(name)
		require.NoError(t, err, name)
		require.NotNil(t, a)
	}

	_, err := Get(" GeoJSON ")
	require.NoError(t, err)

	_, err = Get("kml")
	require.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{
		"ewkb", "ewkb_hex", "ewkt", "geohash", "geojson",
		"georss", "json", "wkb", "wkb_hex", "wkt",
	}, Names())
}

func TestDetect(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected string
	}{
		{"\x01\x01\x00\x00\x00", EWKB},
		{"0101000000000000000000F03F0000000000000040", EWKBHex},
		{`{"type":"Point","coordinates":[1,2]}`, GeoJSON},
		{"  <georss:point>1 2</georss:point>", GeoRSS},
		{"SRID=4326;POINT(1 2)", EWKT},
		{"srid=4326;POINT(1 2)", EWKT},
		{"POINT(1 2)", WKT},
		{"multipolygon EMPTY", WKT},
		{"ezs42", GeoHash},
		{"01bc", GeoHash},
		{"0123456789bcdef0", GeoHash},
		{"EZS42", GeoHash},
	} {
		t.Run(tc.in, func(t *testing.T) {
			name, err := Detect([]byte(tc.in))
			require.NoError(t, err)
			require.Equal(t, tc.expected, name)
		})
	}
}

func TestDetectErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "hello world", "ezs42ezs42ezs42ezs42ezs42"} {
		_, err := Detect([]byte(in))
		require.True(t, errors.Is(err, geo.ErrMalformedInput), in)
	}
}

func TestConvert(t *testing.T) {
	for _, tc := range []struct {
		name     string
		in       string
		from, to string
		opts     Options
		expected string
	}{
		{
			name:     "wkt to geojson",
			in:       "POINT(-122.4 37.8)",
			from:     WKT,
			to:       GeoJSON,
			expected: `{"type":"Point","coordinates":[-122.4,37.8]}`,
		},
		{
			name:     "detected geojson to wkt",
			in:       `{"type":"LineString","coordinates":[[1,2],[3,4]]}`,
			to:       WKT,
			expected: "LINESTRING(1 2,3 4)",
		},
		{
			name:     "wkt to wkb hex",
			in:       "POINT(1 2)",
			from:     WKT,
			to:       WKBHex,
			expected: "0101000000000000000000F03F0000000000000040",
		},
		{
			name:     "ewkt to ewkb hex",
			in:       "SRID=4326;POINT(1 2)",
			to:       EWKBHex,
			expected: "0101000020E6100000000000000000F03F0000000000000040",
		},
		{
			name:     "digits",
			in:       "POINT(1.23456 2.34567)",
			to:       WKT,
			opts:     Options{DecimalDigits: 2},
			expected: "POINT(1.23 2.35)",
		},
		{
			name:     "geohash",
			in:       "POINT(-5.6 42.6)",
			to:       GeoHash,
			opts:     Options{Precision: 0.05},
			expected: "ezs42",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Convert([]byte(tc.in), tc.from, tc.to, tc.opts)
			require.NoError(t, err)
			if tc.to == GeoJSON {
				require.JSONEq(t, tc.expected, string(out))
				return
			}
			require.Equal(t, tc.expected, string(out))
		})
	}
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert([]byte("POINT(1 2)"), WKT, "kml", Options{})
	require.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = Convert([]byte("POINT(1"), WKT, GeoJSON, Options{})
	require.True(t, errors.Is(err, geo.ErrMalformedInput))

	_, err = Convert([]byte("nonsense input"), "", WKT, Options{})
	require.True(t, errors.Is(err, geo.ErrMalformedInput))
}

func TestMinify(t *testing.T) {
	out, err := Minify(GeoJSON, []byte("{\n  \"type\": \"Point\",\n  \"coordinates\": [1, 2]\n}"))
	require.NoError(t, err)
	require.Equal(t, `{"type":"Point","coordinates":[1,2]}`, string(out))

	out, err = Minify(WKT, []byte("POINT(1 2)"))
	require.NoError(t, err)
	require.Equal(t, "POINT(1 2)", string(out))
}

func TestLoad(t *testing.T) {
	g, err := Load([]byte("MULTIPOINT(1 2,3 4)"), "")
	require.NoError(t, err)
	require.Equal(t, geo.TypeMultiPoint, g.Type())
	n, ok := g.NumGeometries()
	require.True(t, ok)
	require.Equal(t, 2, n)
}

func TestLoadNegativeCoordinates(t *testing.T) {
	g, err := Load([]byte("POINT(-122.4 37.8)"), "")
	require.NoError(t, err)
	require.True(t, geo.MustPoint(-122.4, 37.8).Equals(g))

	_, err = Load([]byte("01bc"), "")
	require.NoError(t, err)
}
