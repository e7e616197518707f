package adapter

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/woozymasta/foxfire/internal/geo"
)

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// minHexWKB is the hex length of the shortest WKB value: byte order, type
// and an element count of an empty collection.
const minHexWKB = 18

var wktKeywords = []string{
	"POINT", "LINESTRING", "POLYGON", "MULTIPOINT",
	"MULTILINESTRING", "MULTIPOLYGON", "GEOMETRYCOLLECTION",
}

// Detect guesses the format of data from its first bytes: raw WKB starts
// with a byte order flag, hex WKB with "00" or "01", GeoJSON with '{',
// GeoRSS with '<', EWKT with "SRID=" and WKT with a type keyword. Anything
// left that uses only the geohash alphabet is a geohash.
func Detect(data []byte) (string, error) {
	if len(data) > 0 && (data[0] == 0x00 || data[0] == 0x01) {
		return EWKB, nil
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", errors.Wrap(geo.ErrMalformedInput, "empty input")
	}

	switch s[0] {
	case '{':
		return GeoJSON, nil
	case '<':
		return GeoRSS, nil
	}
	if len(s) >= minHexWKB && (strings.HasPrefix(s, "00") || strings.HasPrefix(s, "01")) && isHex(s) {
		return EWKBHex, nil
	}

	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, "SRID=") {
		return EWKT, nil
	}
	for _, kw := range wktKeywords {
		if strings.HasPrefix(upper, kw) {
			return WKT, nil
		}
	}
	if isGeohash(strings.ToLower(s)) {
		return GeoHash, nil
	}
	return "", errors.Wrapf(geo.ErrMalformedInput, "unrecognised format starting %q", prefix(s, 16))
}

func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune("0123456789abcdefABCDEF", rune(s[i])) {
			return false
		}
	}
	return true
}

func isGeohash(s string) bool {
	if len(s) > 20 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if bytes.IndexByte([]byte(geohashAlphabet), s[i]) < 0 {
			return false
		}
	}
	return true
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
