// Package geojson reads and writes RFC 7946 GeoJSON geometries.
package geojson

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/woozymasta/foxfire/internal/adapter/geomconv"
	"github.com/woozymasta/foxfire/internal/geo"
)

// DefaultDecimalDigits is the coordinate precision used when DecimalDigits
// is negative.
const DefaultDecimalDigits = 9

// Adapter converts geometries to and from GeoJSON.
type Adapter struct {
	// DecimalDigits limits coordinate precision on write, 0 keeps full
	// precision.
	DecimalDigits int
	// BBox adds the bbox member to written geometries.
	BBox bool
}

// object is the subset of GeoJSON members needed to tell geometries from
// features.
type object struct {
	Type       string            `json:"type"`
	Geometry   json.RawMessage   `json:"geometry"`
	Features   []json.RawMessage `json:"features"`
	Geometries json.RawMessage   `json:"geometries"`
	Coords     json.RawMessage   `json:"coordinates"`
}

// Read decodes a geometry object, a Feature or a FeatureCollection. Feature
// members other than the geometry are discarded; a FeatureCollection becomes
// a GeometryCollection of its feature geometries in order.
func (a Adapter) Read(data []byte) (geo.Geometry, error) {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.Wrapf(geo.ErrMalformedInput, "geojson: %v", err)
	}

	switch obj.Type {
	case "Feature":
		return featureGeometry(obj.Geometry)
	case "FeatureCollection":
		members := make([]geo.Geometry, 0, len(obj.Features))
		for i, raw := range obj.Features {
			var f object
			if err := json.Unmarshal(raw, &f); err != nil {
				return nil, errors.Wrapf(geo.ErrMalformedInput, "geojson: feature %d: %v", i, err)
			}
			if f.Type != "Feature" {
				return nil, errors.Wrapf(geo.ErrMalformedInput, "geojson: feature %d has type %q", i, f.Type)
			}
			if isNull(f.Geometry) {
				continue
			}
			g, err := decodeGeometry(f.Geometry)
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d", i)
			}
			members = append(members, g)
		}
		return geo.NewGeometryCollection(members)
	}
	return decodeGeometry(data)
}

func featureGeometry(raw json.RawMessage) (geo.Geometry, error) {
	if isNull(raw) {
		return nil, errors.Wrap(geo.ErrMalformedInput, "geojson: feature without geometry")
	}
	return decodeGeometry(raw)
}

func decodeGeometry(raw json.RawMessage) (geo.Geometry, error) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Wrapf(geo.ErrMalformedInput, "geojson: %v", err)
	}
	switch obj.Type {
	case "":
		return nil, errors.Wrap(geo.ErrMalformedInput, "geojson: missing type member")
	case "GeometryCollection":
		if isNull(obj.Geometries) {
			return nil, errors.Wrap(geo.ErrMalformedInput, "geojson: missing geometries member")
		}
	case "Point", "LineString", "Polygon", "MultiPoint", "MultiLineString", "MultiPolygon":
		if isNull(obj.Coords) {
			return nil, errors.Wrapf(geo.ErrMalformedInput, "geojson: %s without coordinates", obj.Type)
		}
	default:
		return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "geojson: %q", obj.Type)
	}

	if obj.Type == "GeometryCollection" {
		var raws []json.RawMessage
		if err := json.Unmarshal(obj.Geometries, &raws); err != nil {
			return nil, errors.Wrapf(geo.ErrMalformedInput, "geojson: geometries: %v", err)
		}
		members := make([]geo.Geometry, len(raws))
		for i, r := range raws {
			g, err := decodeGeometry(r)
			if err != nil {
				return nil, err
			}
			members[i] = g
		}
		return geo.NewGeometryCollection(members)
	}

	var t geom.T
	if err := geojson.Unmarshal(raw, &t); err != nil {
		var unsupported geojson.ErrUnsupportedType
		if errors.As(err, &unsupported) {
			return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "geojson: %v", err)
		}
		return nil, errors.Wrapf(geo.ErrMalformedInput, "geojson: %v", err)
	}
	return geomconv.FromGeom(t)
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// Write encodes g as a GeoJSON geometry object.
func (a Adapter) Write(g geo.Geometry) ([]byte, error) {
	t, err := geomconv.ToGeom(g)
	if err != nil {
		return nil, err
	}
	out, err := geojson.Marshal(t, a.options()...)
	if err != nil {
		return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "geojson: %v", err)
	}
	return out, nil
}

// WriteFeature encodes g as a Feature with the given id and properties.
func (a Adapter) WriteFeature(g geo.Geometry, id string, properties map[string]any) ([]byte, error) {
	f, err := a.feature(Feature{ID: id, Geometry: g, Properties: properties})
	if err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// Feature is one member of a FeatureCollection. A nil Geometry is written
// as null.
type Feature struct {
	ID         string
	Geometry   geo.Geometry
	Properties map[string]any
}

// WriteFeatureCollection encodes features as a FeatureCollection.
func (a Adapter) WriteFeatureCollection(features []Feature) ([]byte, error) {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]feature, 0, len(features)),
	}
	for i, f := range features {
		out, err := a.feature(f)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}
		fc.Features = append(fc.Features, out)
	}
	return json.Marshal(fc)
}

func (a Adapter) feature(f Feature) (feature, error) {
	out := feature{Type: "Feature", ID: f.ID, Properties: f.Properties, Geometry: json.RawMessage("null")}
	if f.Geometry != nil {
		raw, err := a.Write(f.Geometry)
		if err != nil {
			return feature{}, err
		}
		out.Geometry = raw
	}
	return out, nil
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

func (a Adapter) options() []geojson.EncodeGeometryOption {
	var opts []geojson.EncodeGeometryOption
	switch {
	case a.DecimalDigits > 0:
		opts = append(opts, geojson.EncodeGeometryWithMaxDecimalDigits(a.DecimalDigits))
	case a.DecimalDigits < 0:
		opts = append(opts, geojson.EncodeGeometryWithMaxDecimalDigits(DefaultDecimalDigits))
	}
	if a.BBox {
		opts = append(opts, geojson.EncodeGeometryWithBBox())
	}
	return opts
}

// Marshal encodes g with full precision.
func Marshal(g geo.Geometry) ([]byte, error) { return Adapter{}.Write(g) }

// Unmarshal decodes GeoJSON.
func Unmarshal(data []byte) (geo.Geometry, error) { return Adapter{}.Read(data) }
