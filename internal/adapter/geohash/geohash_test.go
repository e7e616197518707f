package geohash

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/foxfire/internal/adapter/wkt"
	"github.com/woozymasta/foxfire/internal/geo"
)

func TestEncodePoint(t *testing.T) {
	testCases := []struct {
		desc      string
		precision float64
		expected  string
	}{
		{desc: "five characters", precision: 0.05, expected: "ezs42"},
		{desc: "coarse", precision: 50, expected: "e"},
		{desc: "three characters", precision: 10, expected: "ezs"},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			hash, err := Encode(geo.MustPoint(-5.6, 42.6), tc.precision)
			require.NoError(t, err)
			require.Equal(t, tc.expected, hash)
		})
	}

	hash, err := Encode(geo.MustPoint(-5.6, 42.6), 0)
	require.NoError(t, err)
	require.Len(t, hash, MaxPrecision)
	require.Equal(t, "ezs42", hash[:5])
}

func TestDecodeWithinCell(t *testing.T) {
	points := [][2]float64{{-5.6, 42.6}, {-122.4, 37.8}, {151.2093, -33.8688}, {0, 0}}
	for _, precision := range []float64{1, 0.1, 0.001, 0.00001} {
		for _, xy := range points {
			p := geo.MustPoint(xy[0], xy[1])
			hash, err := Encode(p, precision)
			require.NoError(t, err)

			c, err := Decode(hash)
			require.NoError(t, err)
			w, h := CellSize(len(hash))
			require.LessOrEqual(t, w, precision)
			require.LessOrEqual(t, h, precision)
			require.InDelta(t, p.X(), c.X(), w/2)
			require.InDelta(t, p.Y(), c.Y(), h/2)
		}
	}
}

func TestDecodeCell(t *testing.T) {
	box, err := DecodeCell("EZS42")
	require.NoError(t, err)
	require.InDelta(t, 42.605, (box.MinY+box.MaxY)/2, 0.001)
	require.InDelta(t, -5.603, (box.MinX+box.MaxX)/2, 0.001)

	g, err := Adapter{AsGrid: true}.Read([]byte("ezs42"))
	require.NoError(t, err)
	require.Equal(t, geo.TypePolygon, g.Type())
	w, h := CellSize(5)
	require.InDelta(t, w*h, g.Area(), 1e-12)
}

func TestEncodeLineString(t *testing.T) {
	g, err := wkt.Unmarshal("LINESTRING(-5.61 42.59,-5.59 42.61)")
	require.NoError(t, err)

	hash, err := Encode(g, 0)
	require.NoError(t, err)
	box, err := DecodeCell(hash)
	require.NoError(t, err)
	require.True(t, box.Contains(-5.61, 42.59))
	require.True(t, box.Contains(-5.59, 42.61))
	require.Less(t, len(hash), MaxPrecision)
}

func TestNeighbors(t *testing.T) {
	nb, err := Neighbors("ezs42")
	require.NoError(t, err)
	require.Len(t, nb, 8)

	w, h := CellSize(5)
	centre, err := Decode("ezs42")
	require.NoError(t, err)
	north, err := Decode(nb[0])
	require.NoError(t, err)
	east, err := Decode(nb[2])
	require.NoError(t, err)
	require.InDelta(t, centre.Y()+h, north.Y(), 1e-9)
	require.InDelta(t, centre.X()+w, east.X(), 1e-9)
}

func TestErrors(t *testing.T) {
	_, err := Decode("")
	require.True(t, errors.Is(err, geo.ErrMalformedInput))

	_, err = Decode("ezs4a")
	require.True(t, errors.Is(err, geo.ErrMalformedInput))

	_, err = Encode(geo.MustPoint(200, 0), 0)
	require.True(t, errors.Is(err, geo.ErrInvalidCoordinate))

	empty, err := geo.NewMultiPoint(nil)
	require.NoError(t, err)
	_, err = Encode(empty, 0)
	require.True(t, errors.Is(err, geo.ErrInvalidGeometry))
}
