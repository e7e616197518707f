package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/adapter/wkt"
	"github.com/woozymasta/foxfire/internal/geo"
)

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFormatOf(t *testing.T) {
	for _, tc := range []struct {
		path     string
		expected string
	}{
		{"a.wkt", adapter.WKT},
		{"a.EWKT", adapter.EWKT},
		{"dir/a.geojson", adapter.GeoJSON},
		{"a.json", adapter.GeoJSON},
		{"feed.rss", adapter.GeoRSS},
		{"a.wkb", adapter.EWKB},
		{"roads.shp", Shapefile},
		{"a.txt", ""},
	} {
		require.Equal(t, tc.expected, FormatOf(tc.path), tc.path)
	}
}

func TestRun(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeInput(t, in, "point.wkt", "POINT(1 2)")
	writeInput(t, in, "nested/line.txt", "LINESTRING(0 0,1 1)")
	writeInput(t, in, "shape.geojson", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
	writeInput(t, in, "broken.wkt", "POINT(1")

	s, err := Run(context.Background(), in, out, Options{To: adapter.GeoJSON, Concurrency: 2})
	require.NoError(t, err)
	require.Equal(t, 3, s.Converted)
	require.Equal(t, 1, s.Failed)
	require.Len(t, s.Results, 4)
	require.True(t, errors.Is(s.Results[0].Err, geo.ErrMalformedInput), s.Results[0].Input)

	data, err := os.ReadFile(filepath.Join(out, "nested", "line.geojson"))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"LineString","coordinates":[[0,0],[1,1]]}`, string(data))

	s, err = Run(context.Background(), in, out, Options{To: adapter.GeoJSON})
	require.NoError(t, err)
	require.Equal(t, 3, s.Skipped)
	require.Equal(t, 1, s.Failed)

	s, err = Run(context.Background(), in, out, Options{To: adapter.GeoJSON, Force: true})
	require.NoError(t, err)
	require.Equal(t, 3, s.Converted)
}

func TestRunOptions(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeInput(t, in, "p.geojson", "{\n  \"type\": \"Point\",\n  \"coordinates\": [1.23456, 2.34567]\n}")

	_, err := Run(context.Background(), in, out, Options{
		To:    adapter.WKT,
		Write: adapter.Options{DecimalDigits: 2},
	})
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(out, "p.wkt"))
	require.NoError(t, err)
	require.Equal(t, "POINT(1.23 2.35)", string(data))
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), t.TempDir(), t.TempDir(), Options{})
	require.Error(t, err)

	_, err = Run(context.Background(), t.TempDir(), t.TempDir(), Options{To: "kml"})
	require.True(t, errors.Is(err, adapter.ErrUnknownFormat))

	_, err = Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir(), Options{To: adapter.WKT})
	require.Error(t, err)
}

func TestShapefileRoundTrip(t *testing.T) {
	in, mid, out := t.TempDir(), t.TempDir(), t.TempDir()
	writeInput(t, in, "roads.wkt", "MULTILINESTRING((0 0,1 1),(2 2,3 3))")

	s, err := Run(context.Background(), in, mid, Options{To: Shapefile})
	require.NoError(t, err)
	require.Equal(t, 1, s.Converted)
	_, err = os.Stat(filepath.Join(mid, "roads.shx"))
	require.NoError(t, err)

	s, err = Run(context.Background(), mid, out, Options{To: adapter.WKT})
	require.NoError(t, err)
	require.Equal(t, 1, s.Converted)

	data, err := os.ReadFile(filepath.Join(out, "roads.wkt"))
	require.NoError(t, err)
	got, err := wkt.Unmarshal(string(data))
	require.NoError(t, err)
	want, err := wkt.Unmarshal("MULTILINESTRING((0 0,1 1),(2 2,3 3))")
	require.NoError(t, err)
	require.True(t, want.Equals(got))
}

func TestWriteFileCollectionToShapefile(t *testing.T) {
	g, err := wkt.Unmarshal("GEOMETRYCOLLECTION(POINT(1 2),POINT(3 4))")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pts.shp")
	require.NoError(t, WriteFile(path, Shapefile, g, adapter.Options{}))

	back, err := ReadFile(path, "")
	require.NoError(t, err)
	require.True(t, g.Equals(back))
}
