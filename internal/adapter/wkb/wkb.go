// Package wkb reads and writes Well-Known Binary and the PostGIS extended
// variant, in raw or hex form.
package wkb

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkbcommon"
	"github.com/twpayne/go-geom/encoding/wkbhex"
	"github.com/woozymasta/foxfire/internal/adapter/geomconv"
	"github.com/woozymasta/foxfire/internal/geo"
)

// Byte orders accepted by Adapter.ByteOrder.
var (
	NDR binary.ByteOrder = binary.LittleEndian
	XDR binary.ByteOrder = binary.BigEndian
)

// Adapter converts geometries to and from WKB. The zero value writes
// little-endian ISO WKB.
type Adapter struct {
	// ByteOrder used by Write, NDR when nil.
	ByteOrder binary.ByteOrder
	// Extended selects EWKB, which carries the SRID and Z flags in the type code.
	Extended bool
	// Hex reads and writes the upper-case hexadecimal text form.
	Hex bool
}

// Read decodes data into a geometry.
func (a Adapter) Read(data []byte) (geo.Geometry, error) {
	g, _, err := a.Decode(data)
	return g, err
}

// Decode decodes data and also reports the byte order of the outermost
// geometry, so that re-encoding can reproduce the input exactly.
func (a Adapter) Decode(data []byte) (geo.Geometry, binary.ByteOrder, error) {
	var (
		t   geom.T
		err error
	)
	raw := data
	if a.Hex {
		s := strings.TrimSpace(string(data))
		if raw, err = hex.DecodeString(s); err != nil {
			return nil, nil, errors.Wrapf(geo.ErrMalformedInput, "wkb hex: %v", err)
		}
	}
	order, err := byteOrder(raw)
	if err != nil {
		return nil, nil, err
	}

	if a.Extended {
		t, err = ewkb.Unmarshal(raw)
	} else {
		t, err = wkb.Unmarshal(raw)
	}
	if err != nil {
		return nil, nil, classify(err)
	}

	g, err := geomconv.FromGeom(t)
	if err != nil {
		return nil, nil, err
	}
	return g, order, nil
}

// Write encodes g in the configured byte order.
func (a Adapter) Write(g geo.Geometry) ([]byte, error) {
	t, err := geomconv.ToGeom(g)
	if err != nil {
		return nil, err
	}
	order := a.ByteOrder
	if order == nil {
		order = NDR
	}

	var out []byte
	if a.Hex {
		var s string
		if a.Extended {
			s, err = ewkbhex.Encode(t, order)
		} else {
			s, err = wkbhex.Encode(t, order)
		}
		out = []byte(strings.ToUpper(s))
	} else if a.Extended {
		out, err = ewkb.Marshal(t, order)
	} else {
		out, err = wkb.Marshal(t, order)
	}
	if err != nil {
		return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "wkb: %v", err)
	}
	return out, nil
}

// Marshal encodes g as little-endian WKB.
func Marshal(g geo.Geometry) ([]byte, error) { return Adapter{}.Write(g) }

// Unmarshal decodes WKB or EWKB.
func Unmarshal(data []byte) (geo.Geometry, error) { return Adapter{Extended: true}.Read(data) }

func byteOrder(raw []byte) (binary.ByteOrder, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(geo.ErrMalformedInput, "wkb: empty input")
	}
	switch raw[0] {
	case 0:
		return XDR, nil
	case 1:
		return NDR, nil
	}
	return nil, errors.Wrapf(geo.ErrMalformedInput, "wkb: invalid byte order flag %#x", raw[0])
}

func classify(err error) error {
	var (
		unknown     wkbcommon.ErrUnknownType
		unsupported wkbcommon.ErrUnsupportedType
	)
	if errors.As(err, &unknown) || errors.As(err, &unsupported) {
		return errors.Wrapf(geo.ErrUnsupportedGeometryType, "wkb: %v", err)
	}
	return errors.Wrapf(geo.ErrMalformedInput, "wkb: %v", err)
}
