package render

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/foxfire/internal/geo"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// TileOptions control WriteTiles.
type TileOptions struct {
	Options
	// ZoomLimit is the deepest zoom level written.
	ZoomLimit int
	// TileSize is the tile edge in pixels.
	TileSize int
	// Force overwrites tiles that already exist.
	Force bool
	// Concurrency bounds parallel tile writes.
	Concurrency int
	// World aligns the pyramid with the standard XYZ scheme: Web Mercator
	// over the whole globe, no padding.
	World bool
}

// WriteTiles renders g once at the deepest zoom level and writes a
// {z}/{x}/{y}.webp pyramid under baseDir, downscaling the master image for
// each shallower level. It returns the number of tiles written.
func WriteTiles(ctx context.Context, g geo.Geometry, baseDir string, opts TileOptions) (int, error) {
	if opts.TileSize <= 0 {
		opts.TileSize = 256
	}
	if opts.ZoomLimit < 0 {
		opts.ZoomLimit = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 20
	}
	if opts.Quality == 0 {
		opts.Quality = 85
	}

	ro := opts.Options
	ro.Size = (1 << opts.ZoomLimit) * opts.TileSize
	if opts.World {
		world := geo.WorldBBox
		ro.Extent = &world
		ro.Mercator = true
		ro.Padding = -1
	}
	srcImg, err := Render(g, ro)
	if err != nil {
		return 0, err
	}

	log.Info().
		Int("px", ro.Size).
		Int("zoom_limit", opts.ZoomLimit).
		Str("dir", baseDir).
		Msg("Geometry rendered, starting tiling")

	written := 0
	for z := 0; z <= opts.ZoomLimit; z++ {
		gridSize := 1 << z
		totalPixels := gridSize * opts.TileSize

		log.Debug().
			Int("zoom", z).
			Int("grid", gridSize).
			Int("px", totalPixels).
			Msg("Processing zoom level")

		var dstImg *image.RGBA
		if z == opts.ZoomLimit {
			dstImg = srcImg
		} else {
			dstImg = image.NewRGBA(image.Rect(0, 0, totalPixels, totalPixels))
			xdraw.CatmullRom.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Over, nil)
		}

		n, err := sliceLevel(ctx, dstImg, baseDir, z, opts)
		written += n
		if err != nil {
			return written, err
		}
	}

	return written, nil
}

func sliceLevel(ctx context.Context, img *image.RGBA, baseDir string, z int, opts TileOptions) (int, error) {
	gridSize := 1 << z
	counts := make([]bool, gridSize*gridSize)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)

	for x := 0; x < gridSize; x++ {
		for y := 0; y < gridSize; y++ {
			if ctx.Err() != nil {
				break
			}
			zx, zy := x, y
			eg.Go(func() error {
				rect := image.Rect(zx*opts.TileSize, zy*opts.TileSize, (zx+1)*opts.TileSize, (zy+1)*opts.TileSize)
				outPath := TilePath(baseDir, z, zx, zy)

				ok, err := writeTile(img.SubImage(rect), outPath, opts.Quality, opts.Force)
				if err != nil {
					return errors.Wrapf(err, "tile %d/%d/%d", z, zx, zy)
				}
				counts[zx*gridSize+zy] = ok
				return nil
			})
		}
	}
	err := eg.Wait()

	n := 0
	for _, ok := range counts {
		if ok {
			n++
		}
	}
	return n, err
}

// TilePath returns the location of tile z/x/y under baseDir.
func TilePath(baseDir string, z, x, y int) string {
	return filepath.Join(
		baseDir,
		fmt.Sprintf("%d", z),
		fmt.Sprintf("%d", x),
		fmt.Sprintf("%d.webp", y),
	)
}

func writeTile(img image.Image, outPath string, quality int, force bool) (bool, error) {
	if !force {
		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return false, err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	if err := Encode(f, img, quality); err != nil {
		return false, err
	}
	return true, nil
}
