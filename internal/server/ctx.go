package server

import (
	"bytes"
	"image"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/adapter/geocode"
	"github.com/woozymasta/foxfire/internal/config"
	"github.com/woozymasta/foxfire/internal/metrics"
	"github.com/woozymasta/foxfire/internal/render"
	"github.com/woozymasta/foxfire/internal/web"
)

// MaxBodySize caps request bodies accepted by the conversion endpoints.
const MaxBodySize = 8 << 20

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config *config.Config
	// Geocoder is nil when geocoding is disabled.
	Geocoder *geocode.Geocoder
	// TilesDir is the root of pre-rendered {layer}/{z}/{x}/{y}.webp pyramids.
	TilesDir string
	// Layers lists the configured layers that have rendered tiles.
	Layers          []config.Layer
	IndexHTML       []byte
	Favicon         []byte
	TransparentTile []byte
}

// NewServerContext builds the playground page, the fallback tile and the
// geocoder described by cfg.
func NewServerContext(cfg *config.Config, tilesDir string) (*ServerContext, error) {
	log.Info().Str("tiles", tilesDir).Msg("Initializing server context")

	page, err := web.Build(web.Assets, adapter.Names())
	if err != nil {
		return nil, err
	}

	tileSize := cfg.Render.TileSize
	if tileSize <= 0 {
		tileSize = 256
	}
	var tile bytes.Buffer
	if err := render.Encode(&tile, image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize)), 0); err != nil {
		return nil, err
	}

	layers := make([]config.Layer, 0, len(cfg.Layers))
	for _, layer := range cfg.Layers {
		dir := filepath.Join(tilesDir, layer.Name)
		if _, err := os.Stat(dir); err != nil {
			log.Warn().
				Str("layer", layer.Name).
				Str("path", dir).
				Msg("Skipping layer: tiles directory not found")
			continue
		}
		log.Debug().Str("layer", layer.Name).Msg("Layer validated and added to context")
		layers = append(layers, layer)
	}

	gc, err := cfg.NewGeocoder()
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("index_bytes", len(page.HTML)).
		Int("layers", len(layers)).
		Stringer("geocoder", gc).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:          cfg,
		Geocoder:        gc,
		TilesDir:        tilesDir,
		Layers:          layers,
		IndexHTML:       page.HTML,
		Favicon:         page.Favicon,
		TransparentTile: tile.Bytes(),
	}, nil
}

// Routes returns the full handler tree wrapped in the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/formats", s.HandleFormats)
	mux.HandleFunc("/api/layers", s.HandleLayers)
	mux.HandleFunc("/api/convert", s.HandleConvert)
	mux.HandleFunc("/api/geohash", s.HandleGeohash)
	mux.HandleFunc("/api/geocode", s.HandleGeocode)
	mux.HandleFunc("/api/reverse", s.HandleReverse)
	mux.HandleFunc("/api/preview", s.HandlePreview)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/favicon.svg", s.HandleFavicon)
	mux.HandleFunc("/tiles/", s.HandleTile)
	mux.HandleFunc("/", s.HandleIndex)

	return RequestLogger(mux)
}
