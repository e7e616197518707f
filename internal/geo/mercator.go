package geo

import "math"

// MaxMercatorLat is the latitude at which Web Mercator becomes square.
const MaxMercatorLat = 85.05112878

// WorldBBox is the Web Mercator world in longitude and latitude.
var WorldBBox = BBox{MinX: -180, MinY: -MaxMercatorLat, MaxX: 180, MaxY: MaxMercatorLat}

// MercatorY projects a latitude onto the Web Mercator y axis, scaled to
// degrees so that it shares units with longitude. Latitudes are clamped to
// MaxMercatorLat.
func MercatorY(lat float64) float64 {
	lat = math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))
	latRad := lat * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4+latRad/2)) * 180 / math.Pi
}

// InverseMercatorY is the inverse of MercatorY.
func InverseMercatorY(y float64) float64 {
	mercatorY := y * math.Pi / 180

	// Inverse Mercator projection
	latRad := (2.0 * math.Atan(math.Exp(mercatorY))) - (math.Pi * 0.5)

	lat := latRad * (180.0 / math.Pi)
	if lat > MaxMercatorLat {
		lat = MaxMercatorLat
	} else if lat < -MaxMercatorLat {
		lat = -MaxMercatorLat
	}
	return lat
}
