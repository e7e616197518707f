// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/adapter/geocode"
	"github.com/woozymasta/foxfire/internal/adapter/geohash"
	"github.com/woozymasta/foxfire/internal/adapter/geojson"
	"github.com/woozymasta/foxfire/internal/geo"
	"github.com/woozymasta/foxfire/internal/render"
)

const (
	etagCap        = 64
	maxPreviewSize = 2048
)

// HandleFormats serves the JSON list of registered format names.
func (s *ServerContext) HandleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, adapter.Names())
}

// HandleLayers serves the JSON list of tile layers.
func (s *ServerContext) HandleLayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Layers)
}

// HandleConvert converts the request body between the formats named by the
// from (optional) and to query parameters.
func (s *ServerContext) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	to := q.Get("to")
	if to == "" {
		to = adapter.GeoJSON
	}
	opts := s.Config.Options()
	if v := q.Get("digits"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpError(w, errors.Wrapf(geo.ErrMalformedInput, "digits %q", v))
			return
		}
		opts.DecimalDigits = n
	}
	if v := q.Get("precision"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httpError(w, errors.Wrapf(geo.ErrMalformedInput, "precision %q", v))
			return
		}
		opts.Precision = p
	}
	if q.Has("bbox") {
		opts.BBox = flag(q.Get("bbox"))
	}
	if q.Has("minify") {
		opts.Minify = flag(q.Get("minify"))
	}

	out, err := adapter.Convert(body, q.Get("from"), to, opts)
	if err != nil {
		httpError(w, err)
		return
	}

	w.Header().Set("Content-Type", adapter.MediaType(to))
	_, _ = w.Write(out)
}

// HandleGeohash serves a decoded geohash as a GeoJSON feature: the cell
// centre, or the cell rectangle when grid is set.
func (s *ServerContext) HandleGeohash(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hash := strings.ToLower(strings.TrimSpace(q.Get("hash")))

	a := geohash.Adapter{AsGrid: flag(q.Get("grid"))}
	g, err := a.Read([]byte(hash))
	if err != nil {
		httpError(w, err)
		return
	}
	neighbors, err := geohash.Neighbors(hash)
	if err != nil {
		httpError(w, err)
		return
	}

	out, err := geojson.Adapter{}.WriteFeature(g, hash, map[string]any{
		"hash":      hash,
		"neighbors": neighbors,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(out)
}

// HandleGeocode geocodes the address parameter into GeoJSON.
func (s *ServerContext) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	if s.Geocoder == nil {
		http.Error(w, "geocoding disabled", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	g, err := s.Geocoder.Read(r.Context(), strings.TrimSpace(q.Get("address")), geocode.Options{
		Bounds:   flag(q.Get("bounds")),
		Multiple: flag(q.Get("multiple")),
	})
	if err != nil {
		httpError(w, err)
		return
	}

	out, err := geojson.Marshal(g)
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(out)
}

// HandleReverse resolves lat and lon into addresses.
func (s *ServerContext) HandleReverse(w http.ResponseWriter, r *http.Request) {
	if s.Geocoder == nil {
		http.Error(w, "geocoding disabled", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		httpError(w, errors.Wrap(geo.ErrInvalidCoordinate, "lat and lon must be numbers"))
		return
	}
	p, err := geo.NewPoint(lon, lat)
	if err != nil {
		httpError(w, err)
		return
	}

	addrs, err := s.Geocoder.Reverse(r.Context(), p)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Address string   `json:"address"`
		Results []string `json:"results"`
	}{addrs[0], addrs})
}

// HandlePreview renders the request body as a WebP image.
func (s *ServerContext) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	g, err := adapter.Load(body, q.Get("from"))
	if err != nil {
		httpError(w, err)
		return
	}

	opts := render.Options{Size: s.Config.Render.Size, Quality: s.Config.Render.Quality}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxPreviewSize {
			httpError(w, errors.Wrapf(geo.ErrMalformedInput, "size %q", v))
			return
		}
		opts.Size = n
	}

	img, err := render.Render(g, opts)
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/webp")
	if err := render.Encode(w, img, opts.Quality); err != nil {
		log.Error().Err(err).Msg("Failed to encode preview")
	}
}

// HandleFavicon serves the site icon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleTile serves pre-rendered tiles: /tiles/{layer}/{z}/{x}/{y}.webp.
// Missing tiles inside a known layer get a transparent tile.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 5 || s.TilesDir == "" {
		http.NotFound(w, r)
		return
	}

	// parts: tiles, layer, z, x, y.webp
	layer, z, x, y := parts[1], parts[2], parts[3], parts[4]
	for _, p := range []string{z, x, strings.TrimSuffix(y, ".webp")} {
		if _, err := strconv.Atoi(p); err != nil {
			http.NotFound(w, r)
			return
		}
	}
	if !strings.HasSuffix(y, ".webp") || layer == "." || layer == ".." || strings.ContainsAny(layer, `\`) {
		http.NotFound(w, r)
		return
	}

	layerDir := filepath.Join(s.TilesDir, layer)
	if info, err := os.Stat(layerDir); err != nil || !info.IsDir() {
		http.NotFound(w, r)
		return
	}

	if s.serveFile(w, r, filepath.Join(layerDir, z, x, y), "image/webp") {
		return
	}

	// cache transparent tile
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(s.TransparentTile)
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// statusOf maps the error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, geo.ErrServiceError):
		return http.StatusBadGateway
	case errors.Is(err, geo.ErrUnsupportedGeometryType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, adapter.ErrUnknownFormat),
		errors.Is(err, geo.ErrMalformedInput),
		errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrInvalidGeometry):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func httpError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg("Request failed")
	}
	writeJSON(w, code, struct {
		Error string `json:"error"`
	}{err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func flag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
