package main

import (
	"context"
	"image"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/woozymasta/foxfire/internal/batch"
	"github.com/woozymasta/foxfire/internal/config"
	"github.com/woozymasta/foxfire/internal/logger"
	"github.com/woozymasta/foxfire/internal/render"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"       env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	TilesDir    string   `short:"o" long:"tiles-dir"    env:"TILES_DIR"    description:"Output directory for tile layers" default:"tiles"`
	Limit       []string `short:"l" long:"limit"        env:"LIMIT_NAMES"  description:"Limit processing to specific layer names"`
	Concurrency int      `short:"p" long:"concurrency"  env:"CONCURRENCY"  description:"Concurrency" default:"20"`
	ZoomLimit   int      `short:"z" long:"zoom-limit"   env:"ZOOM_LIMIT"   description:"Tiles zoom limit" default:"6"`
	TilesOnly   bool     `short:"t" long:"tiles-only"   description:"Render tiles only"`
	GeoJSONOnly bool     `short:"g" long:"geojson-only" description:"Generate GeoJSON only"`
	Force       bool     `short:"f" long:"force"        description:"Force overwrite of existing files"`
	FastCheck   bool     `short:"F" long:"fast-check"   description:"Skip processing if cache exist"`
}

func main() {
	_ = godotenv.Load(".env")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	processTiles := true
	processGeo := true
	if opts.TilesOnly && !opts.GeoJSONOnly {
		processGeo = false
	} else if opts.GeoJSONOnly && !opts.TilesOnly {
		processTiles = false
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 20
	}

	client := &http.Client{Timeout: 30 * time.Second}
	backdrop := renderBackdrop(client, cfg)

	// Filter layers if limit is set
	layersToProcess := cfg.Layers
	if len(opts.Limit) > 0 {
		layersToProcess = make([]config.Layer, 0)
		availableLayers := make(map[string]config.Layer)
		for _, l := range cfg.Layers {
			availableLayers[l.Name] = l
		}

		seen := make(map[string]bool)

		for _, limitName := range opts.Limit {
			if seen[limitName] {
				continue
			}
			seen[limitName] = true

			if l, ok := availableLayers[limitName]; ok {
				layersToProcess = append(layersToProcess, l)
			} else {
				log.Error().
					Str("name", limitName).
					Msg("Layer specified in --limit not found in configuration")
			}
		}
	}

	log.Info().
		Int("layers_total", len(cfg.Layers)).
		Int("layers_queued", len(layersToProcess)).
		Bool("fast_check", opts.FastCheck).
		Msg("Starting loader")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, layer := range layersToProcess {
		if ctx.Err() != nil {
			break
		}

		baseDir := filepath.Join(opts.TilesDir, layer.Name)
		if opts.FastCheck {
			if _, err := os.Stat(baseDir); err == nil {
				log.Info().Str("layer", layer.Name).Msg("Layer directory exists, skipping (fast-check)")
				continue
			}
		}

		log.Info().
			Str("layer", layer.Name).
			Str("source", layer.Source).
			Msg("Processing layer")

		features, err := batch.ReadFeatures(ctx, client, layer.Source, layer.Format)
		if err != nil {
			log.Error().Err(err).Str("layer", layer.Name).Msg("Failed to read layer source")
			continue
		}

		if processGeo {
			path := filepath.Join(baseDir, "layer.geojson")
			if _, err := os.Stat(path); err == nil && !opts.Force {
				log.Debug().Str("layer", layer.Name).Msg("GeoJSON file exists, skipping")
			} else if err := batch.SaveFeatureCollection(path, features, cfg.Options()); err != nil {
				log.Error().Err(err).Str("layer", layer.Name).Msg("Failed to write GeoJSON")
			}
		}

		if !processTiles {
			continue
		}

		g, err := batch.Geometry(features)
		if err != nil {
			log.Error().Err(err).Str("layer", layer.Name).Msg("Layer has no drawable geometry")
			continue
		}

		zoom := layer.ZoomLimit
		if zoom <= 0 {
			zoom = opts.ZoomLimit
		}
		n, err := render.WriteTiles(ctx, g, baseDir, render.TileOptions{
			Options: render.Options{
				Backdrop: backdrop,
				Quality:  cfg.Render.Quality,
			},
			ZoomLimit:   zoom,
			TileSize:    cfg.Render.TileSize,
			Force:       opts.Force,
			Concurrency: opts.Concurrency,
			World:       layer.World,
		})
		if err != nil {
			log.Error().Err(err).Str("layer", layer.Name).Msg("Failed to render tiles")
			continue
		}
		log.Info().Str("layer", layer.Name).Int("tiles", n).Msg("Layer rendered")
	}

	log.Info().Msg("Loader finished successfully")
}

func renderBackdrop(client *http.Client, cfg *config.Config) image.Image {
	if cfg.Render.Background == "" {
		return nil
	}
	img, err := render.LoadBackdrop(context.Background(), client, cfg.Render.Background)
	if err != nil {
		log.Warn().Err(err).Str("source", cfg.Render.Background).Msg("Backdrop unavailable, rendering without it")
		return nil
	}
	return img
}
