package batch

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/adapter/geojson"
	"github.com/woozymasta/foxfire/internal/adapter/shp"
	"github.com/woozymasta/foxfire/internal/geo"
)

// maxDownload caps remote layer sources.
const maxDownload = 64 << 20

// ReadFeatures loads source as a list of features. Shapefiles keep their
// attributes as properties; collections are split into one feature per
// member. Sources starting with http:// or https:// are downloaded with
// client.
func ReadFeatures(ctx context.Context, client *http.Client, source, format string) ([]geojson.Feature, error) {
	if isRemote(source) {
		g, err := Fetch(ctx, client, source, format)
		if err != nil {
			return nil, err
		}
		return split(g), nil
	}

	if format == "" {
		format = FormatOf(source)
	}
	if format != Shapefile {
		g, err := ReadFile(source, format)
		if err != nil {
			return nil, err
		}
		return split(g), nil
	}

	records, err := shp.ReadFile(source)
	if err != nil {
		return nil, err
	}
	out := make([]geojson.Feature, len(records))
	for i, r := range records {
		out[i].Geometry = r.Geometry
		if len(r.Properties) > 0 {
			out[i].Properties = make(map[string]any, len(r.Properties))
			for k, v := range r.Properties {
				out[i].Properties[k] = v
			}
		}
	}
	return out, nil
}

// Geometry joins the non-null feature geometries: the only one, or a
// GeometryCollection of all of them.
func Geometry(features []geojson.Feature) (geo.Geometry, error) {
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

// SaveFeatureCollection writes features as a GeoJSON FeatureCollection.
func SaveFeatureCollection(path string, features []geojson.Feature, opts adapter.Options) error {
	a := geojson.Adapter{DecimalDigits: opts.DecimalDigits, BBox: opts.BBox}
	data, err := a.WriteFeatureCollection(features)
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	if opts.Minify {
		if data, err = adapter.Minify(adapter.GeoJSON, data); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	_, err = f.Write(data)
	return err
}

// Fetch downloads a geometry document and reads it in format, detected when
// empty.
func Fetch(ctx context.Context, client *http.Client, url, format string) (geo.Geometry, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if format == Shapefile {
		return nil, errors.Newf("%s: shapefiles cannot be downloaded", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "download %s", url)
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", url)
	}

	if format == "" {
		format = FormatOf(strings.SplitN(url, "?", 2)[0])
	}
	g, err := adapter.Load(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", url)
	}
	return g, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func split(g geo.Geometry) []geojson.Feature {
	if g.Type() != geo.TypeGeometryCollection {
		return []geojson.Feature{{Geometry: g}}
	}
	n, _ := g.NumGeometries()
	out := make([]geojson.Feature, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, geojson.Feature{Geometry: g.GeometryN(i)})
	}
	return out
}
