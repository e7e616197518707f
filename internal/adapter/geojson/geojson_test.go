package geojson

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/foxfire/internal/adapter/wkt"
	"github.com/woozymasta/foxfire/internal/geo"
)

func mustWKT(t *testing.T, s string) geo.Geometry {
	t.Helper()
	g, err := wkt.Unmarshal(s)
	require.NoError(t, err)
	return g
}

func TestMarshalPoint(t *testing.T) {
	out, err := Marshal(geo.MustPoint(-122.4, 37.8))
	require.NoError(t, err)
	require.Equal(t, `{"type":"Point","coordinates":[-122.4,37.8]}`, string(out))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{
		"POINT(-122.4 37.8)",
		"POINT(1 2 3)",
		"LINESTRING(0 0,1 1,2 0)",
		"POLYGON((0 0,4 0,4 4,0 4,0 0),(1 1,2 1,2 2,1 1))",
		"MULTIPOINT(1 2,3 4)",
		"MULTILINESTRING((0 0,1 1),(2 2,3 3))",
		"MULTIPOLYGON(((0 0,1 0,1 1,0 0)),((5 5,6 5,6 6,5 5)))",
		"GEOMETRYCOLLECTION(POINT(1 2),LINESTRING(0 0,1 1))",
	} {
		t.Run(s, func(t *testing.T) {
			g := mustWKT(t, s)
			first, err := Marshal(g)
			require.NoError(t, err)

			back, err := Unmarshal(first)
			require.NoError(t, err)
			require.True(t, g.Equals(back), "%s", first)

			second, err := Marshal(back)
			require.NoError(t, err)
			require.JSONEq(t, string(first), string(second))
		})
	}
}

func TestReadFeature(t *testing.T) {
	g, err := Unmarshal([]byte(`{
		"type": "Feature",
		"id": "a",
		"properties": {"name": "pier"},
		"geometry": {"type": "LineString", "coordinates": [[0, 0], [3, 4]]}
	}`))
	require.NoError(t, err)
	require.Equal(t, geo.TypeLineString, g.Type())
	require.InDelta(t, 5, g.Length(), 1e-9)
}

func TestReadFeatureCollection(t *testing.T) {
	g, err := Unmarshal([]byte(`{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1, 2]}},
			{"type": "Feature", "properties": {}, "geometry": null},
			{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [3, 4]}}
		]
	}`))
	require.NoError(t, err)
	require.Equal(t, geo.TypeGeometryCollection, g.Type())

	n, ok := g.NumGeometries()
	require.True(t, ok)
	require.Equal(t, 2, n)
	require.True(t, geo.MustPoint(3, 4).Equals(g.GeometryN(2)))
}

func TestWriteOptions(t *testing.T) {
	g := mustWKT(t, "LINESTRING(0.123456 1,2 3.987654)")

	out, err := Adapter{DecimalDigits: 2}.Write(g)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"LineString","coordinates":[[0.12,1],[2,3.99]]}`, string(out))

	out, err = Adapter{BBox: true}.Write(geo.MustPoint(1, 2))
	require.NoError(t, err)
	require.Contains(t, string(out), `"bbox":[1,2,1,2]`)
}

func TestWriteFeature(t *testing.T) {
	out, err := Adapter{}.WriteFeature(geo.MustPoint(1, 2), "x", map[string]any{"name": "a"})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "Feature",
		"id": "x",
		"geometry": {"type": "Point", "coordinates": [1, 2]},
		"properties": {"name": "a"}
	}`, string(out))

	back, err := Unmarshal(out)
	require.NoError(t, err)
	require.True(t, geo.MustPoint(1, 2).Equals(back))
}

func TestWriteFeatureCollection(t *testing.T) {
	line, err := geo.NewLineString([]*geo.Point{geo.MustPoint(0, 0), geo.MustPoint(1, 1)})
	require.NoError(t, err)

	out, err := Adapter{}.WriteFeatureCollection([]Feature{
		{ID: "1", Geometry: geo.MustPoint(1, 2), Properties: map[string]any{"name": "a"}},
		{Geometry: line},
		{Properties: map[string]any{"name": "null shape"}},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "id": "1", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {"name": "a"}},
			{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": null},
			{"type": "Feature", "geometry": null, "properties": {"name": "null shape"}}
		]
	}`, string(out))

	back, err := Unmarshal(out)
	require.NoError(t, err)
	require.Equal(t, geo.TypeGeometryCollection, back.Type())
	n, _ := back.NumGeometries()
	require.Equal(t, 2, n)
}

func TestReadErrors(t *testing.T) {
	testCases := []struct {
		desc  string
		input string
		class error
	}{
		{desc: "not json", input: `{"type":`, class: geo.ErrMalformedInput},
		{desc: "no type", input: `{"coordinates":[1,2]}`, class: geo.ErrMalformedInput},
		{desc: "no coordinates", input: `{"type":"Point"}`, class: geo.ErrMalformedInput},
		{desc: "null geometry", input: `{"type":"Feature","geometry":null}`, class: geo.ErrMalformedInput},
		{desc: "member not an object", input: `{"type":"GeometryCollection","geometries":[1]}`, class: geo.ErrMalformedInput},
		{desc: "unknown type", input: `{"type":"Circle","coordinates":[1,2]}`, class: geo.ErrUnsupportedGeometryType},
		{desc: "one point line", input: `{"type":"LineString","coordinates":[[1,2]]}`, class: geo.ErrMalformedInput},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Unmarshal([]byte(tc.input))
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.class), "got %v", err)
		})
	}
}
