package render

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadBackdrop opens a raster image from a local path or an http(s) URL.
// JPEG, PNG, BMP, TIFF and WebP sources are understood.
func LoadBackdrop(ctx context.Context, client *http.Client, source string) (image.Image, error) {
	var reader io.Reader

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		log.Info().Str("url", source).Msg("Downloading backdrop image")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, errors.Wrap(err, "backdrop request")
		}
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "download backdrop")
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, errors.Newf("download failed: %d", resp.StatusCode)
		}

		// Need to buffer for decoding if stream doesn't support seek
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "read backdrop")
		}
		reader = bytes.NewReader(bodyBytes)
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, errors.Wrap(err, "open backdrop")
		}
		defer func() { _ = f.Close() }()

		reader = f
	}

	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, errors.Wrap(err, "decode backdrop")
	}

	log.Debug().Str("format", format).Msg("Backdrop decoded")
	return img, nil
}
