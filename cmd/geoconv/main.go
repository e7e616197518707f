package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/batch"
	"github.com/woozymasta/foxfire/internal/config"
	"github.com/woozymasta/foxfire/internal/geo"
	"github.com/woozymasta/foxfire/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string  `short:"c" long:"config"    env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Input      string  `short:"i" long:"in"        description:"Input file or, with --batch, directory. Reads from stdin if empty"`
	Output     string  `short:"o" long:"out"       description:"Output file or, with --batch, directory. Writes to stdout if empty"`
	From       string  `short:"f" long:"from"      description:"Input format, detected when empty"`
	To         string  `short:"t" long:"to"        description:"Output format" default:"geojson"`
	Digits     int     `short:"d" long:"digits"    description:"Maximum decimal digits, 0 keeps full precision" default:"-1"`
	Precision  float64 `long:"precision"           description:"Geohash cell size in degrees"`
	BBox       bool    `long:"bbox"                description:"Add bbox to GeoJSON output"`
	Minify     bool    `short:"m" long:"minify"    description:"Minify JSON and XML output"`
	Batch      bool    `short:"b" long:"batch"     description:"Convert every file of the input directory"`
	Workers    int     `short:"p" long:"concurrency" description:"Batch concurrency, config value when 0"`
	Force      bool    `long:"force"               description:"Overwrite existing batch outputs"`
	Info       string  `long:"info"                description:"Print a geometry summary instead of converting" choice:"json" choice:"yaml"`
}

// Summary is printed by --info.
type Summary struct {
	Type       string    `json:"type"                 yaml:"type"`
	SRID       int       `json:"srid,omitempty"       yaml:"srid,omitempty"`
	Dimension  int       `json:"dimension"            yaml:"dimension"`
	Is3D       bool      `json:"is_3d"                yaml:"is_3d"`
	Empty      bool      `json:"empty"                yaml:"empty"`
	Simple     bool      `json:"simple"               yaml:"simple"`
	Points     int       `json:"points"               yaml:"points"`
	Geometries int       `json:"geometries,omitempty" yaml:"geometries,omitempty"`
	Area       float64   `json:"area"                 yaml:"area"`
	Length     float64   `json:"length"               yaml:"length"`
	Meters     float64   `json:"great_circle_length"  yaml:"great_circle_length"`
	BBox       *geo.BBox `json:"bbox,omitempty"       yaml:"bbox,omitempty"`
	Centroid   []float64 `json:"centroid,omitempty"   yaml:"centroid,omitempty"`
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

	writeOpts := cfg.Options()
	if opts.Digits >= 0 {
		writeOpts.DecimalDigits = opts.Digits
	}
	if opts.Precision > 0 {
		writeOpts.Precision = opts.Precision
	}
	writeOpts.BBox = writeOpts.BBox || opts.BBox
	writeOpts.Minify = writeOpts.Minify || opts.Minify

	if opts.Batch {
		runBatch(cfg, opts, writeOpts)
		return
	}

	g, err := readInput(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	if opts.Info != "" {
		if err := printInfo(os.Stdout, g, opts.Info); err != nil {
			log.Fatal().Err(err).Msg("Failed to print summary")
		}
		return
	}

	if opts.Output != "" {
		if err := batch.WriteFile(opts.Output, opts.To, g, writeOpts); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output")
		}
		log.Info().
			Str("out", opts.Output).
			Str("type", g.Type().String()).
			Str("format", opts.To).
			Msg("Successfully converted geometry")
		return
	}

	w, err := adapter.Writer(opts.To, writeOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid output format")
	}
	out, err := w.Write(g)
	if err == nil && writeOpts.Minify {
		out, err = adapter.Minify(opts.To, out)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
	_, _ = os.Stdout.Write(out)
	if opts.To != adapter.WKB && opts.To != adapter.EWKB {
		fmt.Println()
	}
}

func readInput(opts Options) (geo.Geometry, error) {
	if opts.Input != "" {
		return batch.ReadFile(opts.Input, opts.From)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	return adapter.Load(data, opts.From)
}

func runBatch(cfg *config.Config, opts Options, writeOpts adapter.Options) {
	if opts.Input == "" || opts.Output == "" {
		log.Fatal().Msg("--batch needs both --in and --out directories")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Batch.Concurrency
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := batch.Run(ctx, opts.Input, opts.Output, batch.Options{
		From:        opts.From,
		To:          opts.To,
		Write:       writeOpts,
		Concurrency: workers,
		Force:       opts.Force,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Batch conversion failed")
	}
	if s.Failed > 0 {
		os.Exit(2)
	}
}

func summarize(g geo.Geometry) Summary {
	s := Summary{
		Type:      g.Type().String(),
		SRID:      g.SRID(),
		Dimension: g.Dimension(),
		Is3D:      g.Is3D(),
		Empty:     g.IsEmpty(),
		Simple:    g.IsSimple(),
		Points:    g.NumPoints(),
		Area:      g.Area(),
		Length:    g.Length(),
		Meters:    g.GreatCircleLength(0),
	}
	if n, ok := g.NumGeometries(); ok {
		s.Geometries = n
	}
	if box, ok := g.BBox(); ok {
		s.BBox = &box
	}
	if c := g.Centroid(); c != nil {
		s.Centroid = []float64{c.X(), c.Y()}
	}
	return s
}

func printInfo(w io.Writer, g geo.Geometry, format string) error {
	s := summarize(g)
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(s)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
