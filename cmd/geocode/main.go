package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/adapter/geocode"
	"github.com/woozymasta/foxfire/internal/config"
	"github.com/woozymasta/foxfire/internal/geo"
	"github.com/woozymasta/foxfire/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"   env:"CONFIG_FILE"      description:"Path to configuration file" default:"config.yaml"`
	APIKey     string        `short:"k" long:"api-key"  env:"GEOCODER_API_KEY" description:"Geocoding service API key"`
	SaveKey    bool          `long:"save-key"           description:"Store --api-key in the configuration settings and exit"`
	Reverse    string        `short:"r" long:"reverse"  description:"Reverse geocode a \"lat,lon\" pair"`
	Format     string        `short:"t" long:"to"       description:"Output format" default:"geojson"`
	Bounds     bool          `short:"b" long:"bounds"   description:"Return the result viewport instead of its location"`
	Multiple   bool          `short:"m" long:"multiple" description:"Return every match"`
	Timeout    time.Duration `long:"timeout"            description:"Overall request timeout" default:"30s"`

	Args struct {
		Address []string `positional-arg-name:"address"`
	} `positional-args:"yes"`
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

	if opts.SaveKey {
		if opts.APIKey == "" {
			log.Fatal().Msg("--save-key needs --api-key")
		}
		cfg.Set(config.SettingGeocoderKey, opts.APIKey)
		if err := cfg.Save(); err != nil {
			log.Fatal().Err(err).Msg("Failed to save configuration")
		}
		log.Info().Str("config", opts.ConfigFile).Msg("API key stored")
		return
	}

	if opts.APIKey != "" {
		cfg.Geocoder.APIKey = opts.APIKey
	}
	gc, err := cfg.NewGeocoder()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure geocoder")
	}
	if gc == nil {
		log.Fatal().Str("config", opts.ConfigFile).Msg("Geocoding is disabled in configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	if opts.Reverse != "" {
		p, err := parseLatLon(opts.Reverse)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --reverse value")
		}
		addrs, err := gc.Reverse(ctx, p)
		if err != nil {
			log.Fatal().Err(err).Msg("Reverse geocoding failed")
		}
		for _, a := range addrs {
			fmt.Println(a)
		}
		return
	}

	address := strings.Join(opts.Args.Address, " ")
	g, err := gc.Read(ctx, address, geocode.Options{Bounds: opts.Bounds, Multiple: opts.Multiple})
	if err != nil {
		log.Fatal().Err(err).Str("address", address).Msg("Geocoding failed")
	}

	w, err := adapter.Writer(opts.Format, cfg.Options())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid output format")
	}
	out, err := w.Write(g)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
	fmt.Println(string(out))
}

// parseLatLon reads "lat,lon" into a point with x = lon.
func parseLatLon(s string) (*geo.Point, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil, err
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return nil, err
	}
	return geo.NewPoint(x, y)
}
