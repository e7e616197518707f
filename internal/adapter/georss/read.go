package georss

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/woozymasta/foxfire/internal/geo"
)

type posList struct {
	Dim  int    `xml:"srsDimension,attr"`
	Text string `xml:",chardata"`
}

type gmlPoint struct {
	Pos         posList `xml:"pos"`
	Coordinates string  `xml:"coordinates"`
}

type gmlLineString struct {
	PosList posList `xml:"posList"`
}

type gmlRing struct {
	PosList posList `xml:"LinearRing>posList"`
}

type gmlPolygon struct {
	Exterior gmlRing   `xml:"exterior"`
	Interior []gmlRing `xml:"interior"`
}

// Unmarshal parses GeoRSS. Element namespaces are not checked, only local
// names, so undeclared prefixes in fragments are accepted.
func Unmarshal(data []byte) (geo.Geometry, error) {
	d := xml.NewDecoder(bytes.NewReader(data))

	var (
		found    []geo.Geometry
		lat, lon *float64
	)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: %v", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		var g geo.Geometry
		switch se.Name.Local {
		case "point", "line", "polygon", "box", "circle":
			var text string
			if err := d.DecodeElement(&text, &se); err != nil {
				return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: %s: %v", se.Name.Local, err)
			}
			g, err = simple(se.Name.Local, text)
		case "Point":
			var v gmlPoint
			if err := d.DecodeElement(&v, &se); err != nil {
				return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: Point: %v", err)
			}
			g, err = v.geometry()
		case "LineString":
			var v gmlLineString
			if err := d.DecodeElement(&v, &se); err != nil {
				return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: LineString: %v", err)
			}
			g, err = v.geometry()
		case "Polygon":
			var v gmlPolygon
			if err := d.DecodeElement(&v, &se); err != nil {
				return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: Polygon: %v", err)
			}
			g, err = v.geometry()
		case "lat", "long":
			var text string
			if err := d.DecodeElement(&text, &se); err != nil {
				return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: %s: %v", se.Name.Local, err)
			}
			v, perr := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if perr != nil {
				return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: %s %q", se.Name.Local, text)
			}
			if se.Name.Local == "lat" {
				lat = &v
			} else {
				lon = &v
			}
			if lat != nil && lon != nil {
				g, err = geo.NewPoint(*lon, *lat)
				lat, lon = nil, nil
			}
		default:
			continue
		}
		if err != nil {
			return nil, malformed(err)
		}
		if g != nil {
			found = append(found, g)
		}
	}

	switch len(found) {
	case 0:
		return nil, errors.Wrap(geo.ErrMalformedInput, "georss: no geometry found")
	case 1:
		return found[0], nil
	}
	return geo.NewGeometryCollection(found)
}

// malformed marks construction failures on parsed input as malformed while
// keeping their original class.
func malformed(err error) error {
	if errors.Is(err, geo.ErrMalformedInput) || errors.Is(err, geo.ErrUnsupportedGeometryType) {
		return err
	}
	return errors.Mark(err, geo.ErrMalformedInput)
}

func simple(name, text string) (geo.Geometry, error) {
	nums, err := numbers(text)
	if err != nil {
		return nil, err
	}
	switch name {
	case "point":
		if len(nums) != 2 {
			return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: point needs 2 numbers, got %d", len(nums))
		}
		return geo.NewPoint(nums[1], nums[0])
	case "box":
		if len(nums) != 4 {
			return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: box needs 4 numbers, got %d", len(nums))
		}
		box := geo.BBox{MinX: nums[1], MinY: nums[0], MaxX: nums[3], MaxY: nums[2]}
		if box.MinX > box.MaxX || box.MinY > box.MaxY {
			return nil, errors.Wrap(geo.ErrMalformedInput, "georss: box corners out of order")
		}
		return box.Polygon(), nil
	case "circle":
		// The radius has no geometry counterpart; the centre is kept.
		if len(nums) != 3 {
			return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: circle needs 3 numbers, got %d", len(nums))
		}
		return geo.NewPoint(nums[1], nums[0])
	}

	pts, err := pairs(nums, 2)
	if err != nil {
		return nil, err
	}
	if name == "line" {
		return geo.NewLineString(pts)
	}
	ring, err := geo.NewLineString(pts)
	if err != nil {
		return nil, err
	}
	return geo.NewPolygon([]*geo.LineString{ring})
}

func (v gmlPoint) geometry() (geo.Geometry, error) {
	text, dim := v.Pos.Text, v.Pos.Dim
	if strings.TrimSpace(text) == "" {
		// Older GML writes "lon,lat" tuples in gml:coordinates.
		nums, err := numbers(v.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(nums) != 2 {
			return nil, errors.Wrap(geo.ErrMalformedInput, "georss: gml:coordinates needs 2 numbers")
		}
		return geo.NewPoint(nums[0], nums[1])
	}
	nums, err := numbers(text)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		dim = len(nums)
	}
	pts, err := pairs(nums, dim)
	if err != nil {
		return nil, err
	}
	if len(pts) != 1 {
		return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: gml:pos holds %d positions", len(pts))
	}
	return pts[0], nil
}

func (v gmlLineString) geometry() (geo.Geometry, error) {
	pts, err := v.PosList.points()
	if err != nil {
		return nil, err
	}
	return geo.NewLineString(pts)
}

func (v gmlPolygon) geometry() (geo.Geometry, error) {
	rings := make([]*geo.LineString, 0, 1+len(v.Interior))
	for _, r := range append([]gmlRing{v.Exterior}, v.Interior...) {
		pts, err := r.PosList.points()
		if err != nil {
			return nil, err
		}
		ring, err := geo.NewLineString(pts)
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}
	return geo.NewPolygon(rings)
}

func (l posList) points() ([]*geo.Point, error) {
	nums, err := numbers(l.Text)
	if err != nil {
		return nil, err
	}
	dim := l.Dim
	if dim == 0 {
		dim = 2
	}
	return pairs(nums, dim)
}

func numbers(text string) ([]float64, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: coordinate %q", f)
		}
		out[i] = v
	}
	return out, nil
}

// pairs groups nums into lat-first positions of dim values each.
func pairs(nums []float64, dim int) ([]*geo.Point, error) {
	if dim != 2 && dim != 3 {
		return nil, errors.Wrapf(geo.ErrUnsupportedGeometryType, "georss: %d-dimensional positions", dim)
	}
	if len(nums)%dim != 0 {
		return nil, errors.Wrapf(geo.ErrMalformedInput, "georss: %d numbers do not form %d-dimensional positions", len(nums), dim)
	}
	pts := make([]*geo.Point, 0, len(nums)/dim)
	for i := 0; i < len(nums); i += dim {
		var (
			p   *geo.Point
			err error
		)
		if dim == 3 {
			p, err = geo.NewPointZ(nums[i+1], nums[i], nums[i+2])
		} else {
			p, err = geo.NewPoint(nums[i+1], nums[i])
		}
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}
