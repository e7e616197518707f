package geo

import "math"

// BBox is an axis-aligned bounding rectangle.
type BBox struct {
	MinX float64 `json:"minx" yaml:"minx"`
	MinY float64 `json:"miny" yaml:"miny"`
	MaxX float64 `json:"maxx" yaml:"maxx"`
	MaxY float64 `json:"maxy" yaml:"maxy"`
}

// Extend returns the union of b and o.
func (b BBox) Extend(o BBox) BBox {
	return BBox{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Contains reports whether (x, y) lies inside b or on its edge.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Width is the extent along x.
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height is the extent along y.
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Polygon returns the rectangle as a closed polygon, counter-clockwise from
// the lower left corner. Degenerate boxes collapse to a point or a line.
func (b BBox) Polygon() Geometry {
	ll := &Point{x: b.MinX, y: b.MinY}
	if b.Width() == 0 && b.Height() == 0 {
		return ll
	}
	ur := &Point{x: b.MaxX, y: b.MaxY}
	if b.Width() == 0 || b.Height() == 0 {
		return &LineString{collection: collection[*Point]{geoms: []*Point{ll, ur}}}
	}
	ring := &LineString{collection: collection[*Point]{geoms: []*Point{
		ll,
		{x: b.MaxX, y: b.MinY},
		ur,
		{x: b.MinX, y: b.MaxY},
		ll,
	}}}
	return &Polygon{collection: collection[*LineString]{geoms: []*LineString{ring}}}
}

func bboxOf[T Geometry](geoms []T) (BBox, bool) {
	var (
		out   BBox
		found bool
	)
	for _, g := range geoms {
		b, ok := g.BBox()
		if !ok {
			continue
		}
		if !found {
			out, found = b, true
			continue
		}
		out = out.Extend(b)
	}
	return out, found
}
