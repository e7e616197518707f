package adapter

import (
	"github.com/cockroachdb/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/xml"
)

var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("application/json", json.Minify)
	m.AddFunc("text/xml", xml.Minify)
	return m
}

// MediaType returns the content type written by the named format.
func MediaType(name string) string {
	switch name {
	case GeoJSON, JSON:
		return "application/geo+json"
	case GeoRSS:
		return "application/xml"
	case WKB, EWKB:
		return "application/octet-stream"
	}
	return "text/plain; charset=utf-8"
}

// Minify compacts JSON and XML output; other formats are returned as is.
func Minify(name string, data []byte) ([]byte, error) {
	var mediatype string
	switch name {
	case GeoJSON, JSON:
		mediatype = "application/json"
	case GeoRSS:
		mediatype = "text/xml"
	default:
		return data, nil
	}
	out, err := minifier.Bytes(mediatype, data)
	if err != nil {
		return nil, errors.Wrapf(err, "minify %s", name)
	}
	return out, nil
}
