package geo

import "github.com/cockroachdb/errors"

// Error classes shared by the geometry model and every adapter. Call sites wrap
// them with context, so match with errors.Is.
var (
	// ErrInvalidCoordinate reports a non-numeric or non-finite coordinate.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrInvalidGeometry reports a structurally invalid geometry, such as a
	// linestring with a single point or an open polygon ring.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrMalformedInput reports adapter input that does not follow its grammar.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnsupportedGeometryType reports a type code or keyword with no variant.
	ErrUnsupportedGeometryType = errors.New("unsupported geometry type")
	// ErrServiceError reports a failed geocoding service call.
	ErrServiceError = errors.New("service error")
)
