package geo

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Type identifies a geometry variant.
type Type int

// Geometry variants.
const (
	TypePoint Type = iota + 1
	TypeLineString
	TypePolygon
	TypeMultiPoint
	TypeMultiLineString
	TypeMultiPolygon
	TypeGeometryCollection
)

var typeNames = map[Type]string{
	TypePoint:              "Point",
	TypeLineString:         "LineString",
	TypePolygon:            "Polygon",
	TypeMultiPoint:         "MultiPoint",
	TypeMultiLineString:    "MultiLineString",
	TypeMultiPolygon:       "MultiPolygon",
	TypeGeometryCollection: "GeometryCollection",
}

// String returns the OGC name of the type, e.g. "MultiPoint".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseType resolves an OGC type name case-insensitively.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrUnsupportedGeometryType, "%q", name)
}
