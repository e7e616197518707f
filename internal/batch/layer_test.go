package batch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/adapter/shp"
	"github.com/woozymasta/foxfire/internal/geo"
)

func TestReadFeaturesShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "towns.shp")
	require.NoError(t, shp.WriteFile(path, []shp.Feature{
		{Geometry: geo.MustPoint(1, 2), Properties: map[string]string{"name": "Alpha"}},
		{Geometry: geo.MustPoint(3, 4), Properties: map[string]string{"name": "Beta"}},
	}))

	features, err := ReadFeatures(context.Background(), nil, path, "")
	require.NoError(t, err)
	require.Len(t, features, 2)
	require.Equal(t, "Beta", features[1].Properties["name"])

	g, err := Geometry(features)
	require.NoError(t, err)
	require.Equal(t, geo.TypeGeometryCollection, g.Type())

	out := filepath.Join(t.TempDir(), "towns", "layer.geojson")
	require.NoError(t, SaveFeatureCollection(out, features, adapter.Options{}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"name":"Alpha"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]},"properties":{"name":"Beta"}}
	]}`, string(data))
}

func TestReadFeaturesFile(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a.wkt", "GEOMETRYCOLLECTION(POINT(1 2),LINESTRING(0 0,1 1))")

	features, err := ReadFeatures(context.Background(), nil, filepath.Join(dir, "a.wkt"), "")
	require.NoError(t, err)
	require.Len(t, features, 2)
	require.Nil(t, features[0].Properties)

	g, err := Geometry(features[:1])
	require.NoError(t, err)
	require.Equal(t, geo.TypePoint, g.Type())
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/layer.wkt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("MULTIPOINT(1 2,3 4)"))
	}))
	defer srv.Close()

	features, err := ReadFeatures(context.Background(), srv.Client(), srv.URL+"/layer.wkt?v=1", "")
	require.NoError(t, err)
	require.Len(t, features, 1)
	require.Equal(t, geo.TypeMultiPoint, features[0].Geometry.Type())

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/missing", "")
	require.Error(t, err)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/layer.shp", Shapefile)
	require.Error(t, err)
}
