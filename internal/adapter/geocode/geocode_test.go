package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/foxfire/internal/geo"
)

const okBody = `{
	"status": "OK",
	"results": [
		{
			"formatted_address": "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA",
			"geometry": {
				"location": {"lat": 37.4224764, "lng": -122.0842499},
				"viewport": {
					"northeast": {"lat": 37.4238, "lng": -122.0829},
					"southwest": {"lat": 37.4211, "lng": -122.0856}
				}
			}
		},
		{
			"formatted_address": "Mountain View, CA, USA",
			"geometry": {
				"location": {"lat": 37.3861, "lng": -122.0839},
				"bounds": {
					"northeast": {"lat": 37.4699, "lng": -122.0446},
					"southwest": {"lat": 37.3561, "lng": -122.1178}
				}
			}
		}
	]
}`

func newServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRead(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, okBody)
	g := &Geocoder{Endpoint: srv.URL, APIKey: "secret"}
	ctx := context.Background()

	p, err := g.Read(ctx, "1600 Amphitheatre Parkway", Options{})
	require.NoError(t, err)
	require.True(t, geo.MustPoint(-122.0842499, 37.4224764).Equals(p))
	require.Equal(t, SRID, p.SRID())

	b, err := g.Read(ctx, "1600 Amphitheatre Parkway", Options{Bounds: true})
	require.NoError(t, err)
	require.Equal(t, geo.TypePolygon, b.Type())
	box, ok := b.BBox()
	require.True(t, ok)
	require.Equal(t, geo.BBox{MinX: -122.0856, MinY: 37.4211, MaxX: -122.0829, MaxY: 37.4238}, box)

	m, err := g.Read(ctx, "Mountain View", Options{Multiple: true})
	require.NoError(t, err)
	require.Equal(t, geo.TypeMultiPoint, m.Type())
	require.Equal(t, 2, m.NumPoints())

	mb, err := g.Read(ctx, "Mountain View", Options{Multiple: true, Bounds: true})
	require.NoError(t, err)
	require.Equal(t, geo.TypeMultiPolygon, mb.Type())
	second := mb.GeometryN(2)
	box, _ = second.BBox()
	require.Equal(t, -122.1178, box.MinX)
}

func TestWrite(t *testing.T) {
	var latlng string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		latlng = r.URL.Query().Get("latlng")
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	g := &Geocoder{Endpoint: srv.URL}
	addr, err := g.Write(context.Background(), geo.MustPoint(-122.0842499, 37.4224764))
	require.NoError(t, err)
	require.Equal(t, "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA", addr)
	require.Equal(t, "37.4224764,-122.0842499", latlng)

	all, err := g.Reverse(context.Background(), geo.MustPoint(0, 0))
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestServiceErrors(t *testing.T) {
	testCases := []struct {
		desc   string
		status int
		body   string
	}{
		{desc: "non 2xx", status: http.StatusInternalServerError, body: okBody},
		{desc: "bad body", status: http.StatusOK, body: `<html>`},
		{desc: "zero results", status: http.StatusOK, body: `{"status":"ZERO_RESULTS","results":[]}`},
		{desc: "denied", status: http.StatusOK, body: `{"status":"REQUEST_DENIED","error_message":"bad key"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			srv, _ := newServer(t, tc.status, tc.body)
			g := &Geocoder{Endpoint: srv.URL, APIKey: "secret"}
			_, err := g.Read(context.Background(), "x", Options{})
			require.Error(t, err)
			require.True(t, errors.Is(err, geo.ErrServiceError), "got %v", err)
		})
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	_, err := (&Geocoder{Endpoint: srv.URL}).Read(context.Background(), "x", Options{})
	require.True(t, errors.Is(err, geo.ErrServiceError))
}

func TestCacheAvoidsRequests(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, okBody)
	cache, err := NewMemoryCache(16, time.Minute)
	require.NoError(t, err)
	g := &Geocoder{Endpoint: srv.URL, APIKey: "secret", Cache: cache}

	for range 3 {
		_, err := g.Read(context.Background(), "Mountain View", Options{})
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 1, cache.Len())
}

func TestFailuresAreNotCached(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"status":"OVER_QUERY_LIMIT"}`)
	cache, err := NewMemoryCache(16, time.Minute)
	require.NoError(t, err)
	g := &Geocoder{Endpoint: srv.URL, APIKey: "secret", Cache: cache}

	for range 2 {
		_, err := g.Read(context.Background(), "x", Options{})
		require.Error(t, err)
	}
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, 0, cache.Len())
}

func TestMemoryCacheExpiry(t *testing.T) {
	c, err := NewMemoryCache(2, time.Second)
	require.NoError(t, err)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"))
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, "a")
	require.False(t, ok)

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	c.Set(ctx, "c", []byte("3"))
	_, ok = c.Get(ctx, "a")
	require.False(t, ok, "oldest entry evicted")
}

func TestEmptyInput(t *testing.T) {
	g := &Geocoder{Endpoint: "http://127.0.0.1:0"}
	_, err := g.Read(context.Background(), "", Options{})
	require.True(t, errors.Is(err, geo.ErrMalformedInput))

	empty, err := geo.NewMultiPoint(nil)
	require.NoError(t, err)
	_, err = g.Write(context.Background(), empty)
	require.True(t, errors.Is(err, geo.ErrInvalidGeometry))
}
