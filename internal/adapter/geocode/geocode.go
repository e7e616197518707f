// Package geocode resolves addresses to geometries and geometries back to
// addresses through the Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/foxfire/internal/geo"
	"github.com/woozymasta/foxfire/internal/metrics"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the Google Geocoding API JSON endpoint.
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// SRID of every geometry returned by the service.
const SRID = 4326

const maxBody = 4 << 20

// Geocoder calls the geocoding service. The zero value is usable and
// talks to DefaultEndpoint without a key or cache.
type Geocoder struct {
	Client   *http.Client
	Endpoint string
	APIKey   string
	// Cache stores successful response bodies keyed by query, optional.
	Cache Cache
	// Limiter paces outgoing requests, optional.
	Limiter *rate.Limiter
}

// Options select the shape returned by Read.
type Options struct {
	// Bounds returns the result bounds (or viewport) as a polygon instead
	// of the location point.
	Bounds bool
	// Multiple returns every result as a MultiPoint or MultiPolygon instead
	// of only the first.
	Multiple bool
}

// Response is the subset of the Geocoding API response in use.
type Response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Results      []Result `json:"results"`
}

// Result is one geocoding match.
type Result struct {
	FormattedAddress string `json:"formatted_address"`
	PlaceID          string `json:"place_id,omitempty"`
	Geometry         struct {
		Location LatLng    `json:"location"`
		Bounds   *Viewport `json:"bounds,omitempty"`
		Viewport *Viewport `json:"viewport,omitempty"`
	} `json:"geometry"`
}

// LatLng is a service coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Viewport is a service rectangle.
type Viewport struct {
	NorthEast LatLng `json:"northeast"`
	SouthWest LatLng `json:"southwest"`
}

// Read geocodes address.
func (g *Geocoder) Read(ctx context.Context, address string, opts Options) (geo.Geometry, error) {
	if address == "" {
		return nil, errors.Wrap(geo.ErrMalformedInput, "geocode: empty address")
	}
	q := url.Values{}
	q.Set("address", address)
	resp, err := g.Lookup(ctx, q)
	if err != nil {
		return nil, err
	}

	if !opts.Multiple {
		return resultGeometry(resp.Results[0], opts.Bounds)
	}
	if opts.Bounds {
		polys := make([]*geo.Polygon, len(resp.Results))
		for i, r := range resp.Results {
			p, err := viewportPolygon(r)
			if err != nil {
				return nil, err
			}
			polys[i] = p
		}
		mp, err := geo.NewMultiPolygon(polys)
		if err != nil {
			return nil, err
		}
		return mp.WithSRID(SRID), nil
	}
	pts := make([]*geo.Point, len(resp.Results))
	for i, r := range resp.Results {
		p, err := location(r)
		if err != nil {
			return nil, err
		}
		pts[i] = p
	}
	mp, err := geo.NewMultiPoint(pts)
	if err != nil {
		return nil, err
	}
	return mp.WithSRID(SRID), nil
}

// Write reverse geocodes the centroid of g and returns the formatted
// address of the best match.
func (g *Geocoder) Write(ctx context.Context, gm geo.Geometry) (string, error) {
	addrs, err := g.Reverse(ctx, gm)
	if err != nil {
		return "", err
	}
	return addrs[0], nil
}

// Reverse returns the formatted addresses of every match for the centroid
// of gm, best first.
func (g *Geocoder) Reverse(ctx context.Context, gm geo.Geometry) ([]string, error) {
	if gm == nil || gm.IsEmpty() {
		return nil, errors.Wrap(geo.ErrInvalidGeometry, "geocode: empty geometry")
	}
	c := gm.Centroid()
	if c == nil {
		return nil, errors.Wrapf(geo.ErrInvalidGeometry, "geocode: %s has no centroid", gm.Type())
	}
	q := url.Values{}
	q.Set("latlng", formatCoord(c.Y())+","+formatCoord(c.X()))
	resp, err := g.Lookup(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = r.FormattedAddress
	}
	return out, nil
}

// Lookup performs one query, serving it from the cache when possible. A
// returned response always has status OK and at least one result.
func (g *Geocoder) Lookup(ctx context.Context, q url.Values) (*Response, error) {
	key := q.Encode()
	if g.Cache != nil {
		if body, ok := g.Cache.Get(ctx, key); ok {
			metrics.GeocodeCacheHitsTotal.Inc()
			if resp, err := decode(body); err == nil {
				return resp, nil
			}
		}
		metrics.GeocodeCacheMissesTotal.Inc()
	}

	body, err := g.fetch(ctx, q)
	if err != nil {
		metrics.GeocodeFailTotal.Inc()
		return nil, err
	}
	resp, err := decode(body)
	if err != nil {
		metrics.GeocodeFailTotal.Inc()
		return nil, err
	}
	if g.Cache != nil {
		g.Cache.Set(ctx, key, body)
	}
	return resp, nil
}

func (g *Geocoder) fetch(ctx context.Context, q url.Values) ([]byte, error) {
	if g.Limiter != nil {
		if err := g.Limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "geocode: rate limit")
		}
	}

	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if g.APIKey != "" {
		q = cloneValues(q)
		q.Set("key", g.APIKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: %v", err)
	}
	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	t0 := time.Now()
	metrics.GeocodeRequestsTotal.Inc()
	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("geocode request failed")
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	dur := time.Since(t0).Milliseconds()
	metrics.GeocodeDurationMs.Observe(float64(dur))
	log.Debug().Int("status", resp.StatusCode).Int64("duration_ms", dur).Msg("geocode response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: http status %d", resp.StatusCode)
	}
	if err != nil {
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: read body: %v", err)
	}
	return body, nil
}

func decode(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: decode: %v", err)
	}
	if resp.Status != "OK" {
		msg := resp.Status
		if resp.ErrorMessage != "" {
			msg += ": " + resp.ErrorMessage
		}
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: status %s", msg)
	}
	if len(resp.Results) == 0 {
		return nil, errors.Wrap(geo.ErrServiceError, "geocode: no results")
	}
	return &resp, nil
}

func resultGeometry(r Result, bounds bool) (geo.Geometry, error) {
	if bounds {
		p, err := viewportPolygon(r)
		if err != nil {
			return nil, err
		}
		return p.WithSRID(SRID), nil
	}
	p, err := location(r)
	if err != nil {
		return nil, err
	}
	return p.WithSRID(SRID), nil
}

func location(r Result) (*geo.Point, error) {
	p, err := geo.NewPoint(r.Geometry.Location.Lng, r.Geometry.Location.Lat)
	if err != nil {
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: location: %v", err)
	}
	return p, nil
}

// viewportPolygon prefers the exact bounds and falls back to the viewport.
func viewportPolygon(r Result) (*geo.Polygon, error) {
	v := r.Geometry.Bounds
	if v == nil {
		v = r.Geometry.Viewport
	}
	if v == nil {
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: %q has no bounds", r.FormattedAddress)
	}
	sw, ne := v.SouthWest, v.NorthEast
	corners := [][2]float64{
		{sw.Lng, sw.Lat}, {ne.Lng, sw.Lat}, {ne.Lng, ne.Lat}, {sw.Lng, ne.Lat}, {sw.Lng, sw.Lat},
	}
	pts := make([]*geo.Point, len(corners))
	for i, c := range corners {
		p, err := geo.NewPoint(c[0], c[1])
		if err != nil {
			return nil, errors.Wrapf(geo.ErrServiceError, "geocode: bounds: %v", err)
		}
		pts[i] = p
	}
	ring, err := geo.NewLineString(pts)
	if err != nil {
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: bounds: %v", err)
	}
	poly, err := geo.NewPolygon([]*geo.LineString{ring})
	if err != nil {
		return nil, errors.Wrapf(geo.ErrServiceError, "geocode: bounds: %v", err)
	}
	return poly, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q)+1)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// String describes the geocoder for logs without exposing the key.
func (g *Geocoder) String() string {
	if g == nil {
		return "geocoder(disabled)"
	}
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return fmt.Sprintf("geocoder(%s, key=%t, cache=%t)", endpoint, g.APIKey != "", g.Cache != nil)
}
