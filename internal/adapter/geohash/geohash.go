// Package geohash encodes geometries as base-32 geohash strings and decodes
// them back into cell centres or cell polygons.
package geohash

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pierrre/geohash"
	"github.com/woozymasta/foxfire/internal/geo"
)

// MaxPrecision is the longest hash produced. Doubles carry 51 bits of
// mantissa per axis and each character holds 5 bits: floor(2*51/5) = 20.
const MaxPrecision = 20

// Adapter converts geometries to and from geohash strings.
type Adapter struct {
	// Precision in degrees for Write; 0 writes MaxPrecision characters.
	Precision float64
	// AsGrid makes Read return the cell polygon instead of its centre.
	AsGrid bool
}

// Read decodes a geohash.
func (a Adapter) Read(data []byte) (geo.Geometry, error) {
	hash := string(data)
	if a.AsGrid {
		box, err := DecodeCell(hash)
		if err != nil {
			return nil, err
		}
		return box.Polygon(), nil
	}
	return Decode(hash)
}

// Write encodes g with the adapter precision.
func (a Adapter) Write(g geo.Geometry) ([]byte, error) {
	hash, err := Encode(g, a.Precision)
	if err != nil {
		return nil, err
	}
	return []byte(hash), nil
}

// Decode returns the centre of the cell named by hash.
func Decode(hash string) (*geo.Point, error) {
	box, err := DecodeCell(hash)
	if err != nil {
		return nil, err
	}
	return geo.NewPoint((box.MinX+box.MaxX)/2, (box.MinY+box.MaxY)/2)
}

// DecodeCell returns the bounds of the cell named by hash, x being longitude.
func DecodeCell(hash string) (geo.BBox, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return geo.BBox{}, errors.Wrap(geo.ErrMalformedInput, "geohash: empty hash")
	}
	if len(hash) > MaxPrecision {
		return geo.BBox{}, errors.Wrapf(geo.ErrMalformedInput, "geohash: %q longer than %d characters", hash, MaxPrecision)
	}
	box, err := geohash.Decode(hash)
	if err != nil {
		return geo.BBox{}, errors.Wrapf(geo.ErrMalformedInput, "geohash: %v", err)
	}
	return geo.BBox{
		MinX: box.Lon.Min,
		MinY: box.Lat.Min,
		MaxX: box.Lon.Max,
		MaxY: box.Lat.Max,
	}, nil
}

// Encode returns the shortest hash whose cell is no larger than precision
// degrees on either axis. Non-point geometries encode the common prefix of
// their bbox corners, i.e. the smallest cell containing the whole geometry.
func Encode(g geo.Geometry, precision float64) (string, error) {
	if g == nil {
		return "", errors.Wrap(geo.ErrInvalidGeometry, "geohash: nil geometry")
	}
	box, ok := g.BBox()
	if !ok {
		return "", errors.Wrapf(geo.ErrInvalidGeometry, "geohash: empty %s", g.Type())
	}
	if box.MinX < -180 || box.MaxX > 180 || box.MinY < -90 || box.MaxY > 90 {
		return "", errors.Wrapf(geo.ErrInvalidCoordinate,
			"geohash: bounds (%g %g, %g %g) outside lon/lat range",
			box.MinX, box.MinY, box.MaxX, box.MaxY)
	}

	n := Length(precision)
	lo := geohash.Encode(box.MinY, box.MinX, MaxPrecision)
	hi := geohash.Encode(box.MaxY, box.MaxX, MaxPrecision)
	if p := commonPrefix(lo, hi); p < n {
		n = p
	}
	return lo[:n], nil
}

// Length returns the number of characters needed for a cell no larger than
// precision degrees, MaxPrecision when precision is not positive.
func Length(precision float64) int {
	if precision <= 0 {
		return MaxPrecision
	}
	for n := 1; n < MaxPrecision; n++ {
		w, h := CellSize(n)
		if w <= precision && h <= precision {
			return n
		}
	}
	return MaxPrecision
}

// CellSize returns the width (longitude) and height (latitude) in degrees of
// a cell of n characters. Longitude takes the extra bit of odd bit counts.
func CellSize(n int) (width, height float64) {
	bits := 5 * n
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return 360 / float64(uint64(1)<<lonBits), 180 / float64(uint64(1)<<latBits)
}

// Neighbors returns the eight hashes adjacent to hash, clockwise from north.
func Neighbors(hash string) ([]string, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if _, err := DecodeCell(hash); err != nil {
		return nil, err
	}
	nb, err := geohash.GetNeighbors(hash)
	if err != nil {
		return nil, errors.Wrapf(geo.ErrMalformedInput, "geohash: %v", err)
	}
	return []string{
		nb.North, nb.NorthEast, nb.East, nb.SouthEast,
		nb.South, nb.SouthWest, nb.West, nb.NorthWest,
	}, nil
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
