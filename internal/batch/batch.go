// Package batch converts whole directories of geometry files between formats.
package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/adapter/shp"
	"github.com/woozymasta/foxfire/internal/geo"
	"github.com/woozymasta/foxfire/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Shapefile is the pseudo format name for ESRI shapefiles, which live on disk
// rather than in a byte slice and so are not in the adapter registry.
const Shapefile = "shp"

// Options control a batch run.
type Options struct {
	// From forces the input format, empty picks it per file.
	From string
	// To is the output format.
	To    string
	Write adapter.Options
	// Concurrency bounds the number of files converted at once.
	Concurrency int
	// Force overwrites existing outputs.
	Force bool
}

// Result describes one input file.
type Result struct {
	Input   string
	Output  string
	Skipped bool
	Err     error
}

// Summary aggregates a run.
type Summary struct {
	Converted int
	Skipped   int
	Failed    int
	Results   []Result
}

var extensions = map[string]string{
	adapter.WKT:     ".wkt",
	adapter.EWKT:    ".ewkt",
	adapter.WKB:     ".wkb",
	adapter.EWKB:    ".ewkb",
	adapter.WKBHex:  ".hex",
	adapter.EWKBHex: ".hex",
	adapter.GeoJSON: ".geojson",
	adapter.JSON:    ".json",
	adapter.GeoHash: ".geohash",
	adapter.GeoRSS:  ".xml",
	Shapefile:       ".shp",
}

// Extension returns the file extension written for format.
func Extension(format string) string {
	if ext, ok := extensions[format]; ok {
		return ext
	}
	return "." + format
}

// FormatOf guesses a format from a file extension, empty when unknown.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wkt":
		return adapter.WKT
	case ".ewkt":
		return adapter.EWKT
	case ".wkb", ".ewkb":
		return adapter.EWKB
	case ".geojson", ".json":
		return adapter.GeoJSON
	case ".xml", ".rss", ".georss", ".atom":
		return adapter.GeoRSS
	case ".geohash":
		return adapter.GeoHash
	case ".shp":
		return Shapefile
	}
	return ""
}

// Run converts every regular file below inDir into outDir, mirroring the
// directory layout. Shapefile sidecars (.shx, .dbf, .prj) are ignored. A
// failing file does not stop the run; the returned error reports only
// cancellation or an unreadable input tree.
func Run(ctx context.Context, inDir, outDir string, opts Options) (Summary, error) {
	if opts.To == "" {
		return Summary{}, errors.New("batch: no output format")
	}
	if opts.To != Shapefile {
		if _, err := adapter.Get(opts.To); err != nil {
			return Summary{}, err
		}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	inputs, err := collect(inDir)
	if err != nil {
		return Summary{}, err
	}

	log.Info().
		Str("in", inDir).
		Str("out", outDir).
		Str("to", opts.To).
		Int("files", len(inputs)).
		Msg("Starting batch conversion")

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(inputs))
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)

	for _, rel := range inputs {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			in := filepath.Join(inDir, rel)
			out := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+Extension(opts.To))

			res := Result{Input: in, Output: out}
			res.Skipped, res.Err = ConvertFile(in, out, opts)
			record(res)

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return ctx.Err()
		})
	}
	err = eg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Input < results[j].Input })
	s := Summary{Results: results}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		default:
			s.Converted++
		}
	}

	log.Info().
		Int("converted", s.Converted).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Msg("Batch conversion finished")

	return s, err
}

func record(res Result) {
	switch {
	case res.Err != nil:
		metrics.BatchFilesTotal.WithLabelValues("failed").Inc()
		log.Error().Err(res.Err).Str("path", res.Input).Msg("Failed to convert file")
	case res.Skipped:
		metrics.BatchFilesTotal.WithLabelValues("skipped").Inc()
		log.Debug().Str("path", res.Output).Msg("Output exists, skipping")
	default:
		metrics.BatchFilesTotal.WithLabelValues("converted").Inc()
		log.Debug().Str("path", res.Output).Msg("File converted")
	}
}

func collect(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".shx", ".dbf", ".prj", ".cpg":
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", root)
	}
	sort.Strings(out)
	return out, nil
}

// ConvertFile converts one file. It reports skipped when out exists and
// opts.Force is not set.
func ConvertFile(in, out string, opts Options) (skipped bool, err error) {
	if !opts.Force {
		if info, err := os.Stat(out); err == nil && info.Size() > 0 {
			return true, nil
		}
	}

	g, err := ReadFile(in, opts.From)
	if err != nil {
		return false, err
	}
	return false, WriteFile(out, opts.To, g, opts.Write)
}

// ReadFile loads the geometry stored at path in format, guessed from the
// extension or the content when empty.
func ReadFile(path, format string) (geo.Geometry, error) {
	if format == "" {
		format = FormatOf(path)
	}
	if format == Shapefile {
		return shp.ReadGeometry(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	g, err := adapter.Load(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return g, nil
}

// WriteFile stores g at path in format, creating parent directories.
func WriteFile(path, format string, g geo.Geometry, opts adapter.Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if format == Shapefile {
		return shp.WriteFile(path, features(g))
	}

	w, err := adapter.Writer(format, opts)
	if err != nil {
		return err
	}
	data, err := w.Write(g)
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	if opts.Minify {
		if data, err = adapter.Minify(format, data); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	_, err = f.Write(data)
	return err
}

// features splits a GeometryCollection into one shapefile record per member.
func features(g geo.Geometry) []shp.Feature {
	if g.Type() != geo.TypeGeometryCollection {
		return []shp.Feature{{Geometry: g}}
	}
	n, _ := g.NumGeometries()
	out := make([]shp.Feature, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, shp.Feature{Geometry: g.GeometryN(i)})
	}
	return out
}
