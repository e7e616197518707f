package main

import (
	"os"
	"path/filepath"

	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/logger"
	"github.com/woozymasta/foxfire/internal/web"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Assets string `short:"a" long:"assets" description:"Directory with page sources, the embedded copy when empty"`
	Output string `short:"o" long:"out"    description:"Output directory" default:"public"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	fsys := web.Assets
	if opts.Assets != "" {
		fsys = os.DirFS(opts.Assets)
	}

	page, err := web.Build(fsys, adapter.Names())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build page")
	}

	if err := os.MkdirAll(opts.Output, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}
	for name, data := range map[string][]byte{
		"index.html":  page.HTML,
		"favicon.svg": page.Favicon,
	} {
		path := filepath.Join(opts.Output, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to write file")
		}
	}

	log.Info().
		Str("out", opts.Output).
		Int("html_bytes", len(page.HTML)).
		Msg("minify done")
}
