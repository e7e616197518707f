// Package adapter is the format registry: it names every byte-oriented
// codec, sniffs the format of unlabelled input and converts between formats.
package adapter

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/woozymasta/foxfire/internal/adapter/geohash"
	"github.com/woozymasta/foxfire/internal/adapter/geojson"
	"github.com/woozymasta/foxfire/internal/adapter/georss"
	"github.com/woozymasta/foxfire/internal/adapter/wkb"
	"github.com/woozymasta/foxfire/internal/adapter/wkt"
	"github.com/woozymasta/foxfire/internal/geo"
	"github.com/woozymasta/foxfire/internal/metrics"
)

// Adapter reads and writes one external format.
type Adapter interface {
	Read(data []byte) (geo.Geometry, error)
	Write(g geo.Geometry) ([]byte, error)
}

// ErrUnknownFormat is returned for names missing from the registry.
var ErrUnknownFormat = errors.New("unknown format")

// Format names.
const (
	WKT     = "wkt"
	EWKT    = "ewkt"
	WKB     = "wkb"
	EWKB    = "ewkb"
	WKBHex  = "wkb_hex"
	EWKBHex = "ewkb_hex"
	GeoJSON = "geojson"
	JSON    = "json"
	GeoHash = "geohash"
	GeoRSS  = "georss"
)

var registry = map[string]Adapter{
	WKT:     wkt.Adapter{},
	EWKT:    wkt.Adapter{Extended: true},
	WKB:     wkb.Adapter{},
	EWKB:    wkb.Adapter{Extended: true},
	WKBHex:  wkb.Adapter{Hex: true},
	EWKBHex: wkb.Adapter{Extended: true, Hex: true},
	GeoJSON: geojson.Adapter{},
	JSON:    geojson.Adapter{},
	GeoHash: geohash.Adapter{},
	GeoRSS:  georss.Adapter{},
}

// Get returns the adapter registered under name, case-insensitively.
func Get(name string) (Adapter, error) {
	a, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", name)
	}
	return a, nil
}

// Names lists registered format names in order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Options tune the writer side of Convert.
type Options struct {
	// DecimalDigits caps coordinate precision for text formats, 0 keeps
	// full precision.
	DecimalDigits int
	// Precision is the geohash cell size in degrees.
	Precision float64
	// BBox adds a bbox member to GeoJSON output.
	BBox bool
	// Minify compacts JSON and XML output.
	Minify bool
}

// Writer returns the adapter for name configured with opts.
func Writer(name string, opts Options) (Adapter, error) {
	a, err := Get(name)
	if err != nil {
		return nil, err
	}
	switch a := a.(type) {
	case wkt.Adapter:
		a.DecimalDigits = opts.DecimalDigits
		return a, nil
	case geojson.Adapter:
		a.DecimalDigits = opts.DecimalDigits
		a.BBox = opts.BBox
		return a, nil
	case geohash.Adapter:
		a.Precision = opts.Precision
		return a, nil
	case georss.Adapter:
		a.DecimalDigits = opts.DecimalDigits
		return a, nil
	}
	return a, nil
}

// Load reads data in the named format, detecting it when name is empty.
func Load(data []byte, name string) (geo.Geometry, error) {
	if name == "" {
		detected, err := Detect(data)
		if err != nil {
			return nil, err
		}
		name = detected
	}
	a, err := Get(name)
	if err != nil {
		return nil, err
	}
	return a.Read(data)
}

// Convert reads data in format from (detected when empty) and writes it in
// format to.
func Convert(data []byte, from, to string, opts Options) ([]byte, error) {
	if from == "" {
		detected, err := Detect(data)
		if err != nil {
			return nil, err
		}
		from = detected
	}
	metrics.ConvertTotal.WithLabelValues(from, to).Inc()

	out, err := convert(data, from, to, opts)
	if err != nil {
		metrics.ConvertFailTotal.WithLabelValues(from, to).Inc()
		return nil, err
	}
	return out, nil
}

func convert(data []byte, from, to string, opts Options) ([]byte, error) {
	g, err := Load(data, from)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", from)
	}
	w, err := Writer(to, opts)
	if err != nil {
		return nil, err
	}
	out, err := w.Write(g)
	if err != nil {
		return nil, errors.Wrapf(err, "write %s", to)
	}
	if opts.Minify {
		return Minify(to, out)
	}
	return out, nil
}
