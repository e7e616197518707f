// Package render rasterizes geometries into preview images and map tiles.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/chai2010/webp"
	"github.com/cockroachdb/errors"
	"github.com/woozymasta/foxfire/internal/geo"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Default palette.
var (
	Fill       = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0x66}
	Stroke     = color.NRGBA{R: 0x1d, G: 0x4e, B: 0xd8, A: 0xff}
	Marker     = color.NRGBA{R: 0xdc, G: 0x26, B: 0x26, A: 0xff}
	Background = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Options control a single rendering.
type Options struct {
	// Size is the edge of the square canvas in pixels.
	Size int
	// Padding keeps geometry away from the canvas edge.
	Padding int
	// LineWidth is the stroke width in pixels.
	LineWidth float64
	// PointRadius is the marker radius in pixels.
	PointRadius float64
	// Backdrop is scaled to the canvas before drawing, optional.
	Backdrop image.Image
	// Quality is the lossy WebP quality, 0 writes lossless.
	Quality int
	// Mercator treats coordinates as longitude and latitude and draws them
	// in Web Mercator.
	Mercator bool
	// Extent fixes the drawn area instead of fitting the geometry bbox.
	Extent *geo.BBox
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = 512
	}
	if o.Padding < 0 || o.Padding*2 >= o.Size {
		o.Padding = 0
	} else if o.Padding == 0 {
		o.Padding = o.Size / 32
	}
	if o.LineWidth <= 0 {
		o.LineWidth = math.Max(1, float64(o.Size)/256)
	}
	if o.PointRadius <= 0 {
		o.PointRadius = o.LineWidth * 2.5
	}
	return o
}

// Render draws g onto a new square canvas fitted to its bounding box.
func Render(g geo.Geometry, opts Options) (*image.RGBA, error) {
	if g == nil || g.IsEmpty() {
		return nil, errors.Wrap(geo.ErrInvalidGeometry, "render empty geometry")
	}
	opts = opts.withDefaults()
	box, _ := g.BBox()
	if opts.Extent != nil {
		box = *opts.Extent
	}

	dst := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	if opts.Backdrop != nil {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), opts.Backdrop, opts.Backdrop.Bounds(), draw.Over, nil)
	}

	c := &canvas{
		dst:  dst,
		proj: fit(box, opts.Size, opts.Padding, opts.Mercator),
		opts: opts,
	}
	c.geometry(g)
	return dst, nil
}

// Encode writes img as WebP.
func Encode(w io.Writer, img image.Image, quality int) error {
	o := &webp.Options{Lossless: quality <= 0, Quality: float32(quality)}
	if err := webp.Encode(w, img, o); err != nil {
		return errors.Wrap(err, "encode webp")
	}
	return nil
}

// Preview renders g and writes it as WebP.
func Preview(w io.Writer, g geo.Geometry, opts Options) error {
	img, err := Render(g, opts)
	if err != nil {
		return err
	}
	return Encode(w, img, opts.Quality)
}

// projection maps model coordinates to pixels with y pointing down.
type projection struct {
	minX, maxY float64
	scale      float64
	offX, offY float64
	mercator   bool
}

func fit(box geo.BBox, size, padding int, mercator bool) projection {
	if mercator {
		box.MinY, box.MaxY = geo.MercatorY(box.MinY), geo.MercatorY(box.MaxY)
	}
	inner := float64(size - 2*padding)
	w, h := box.MaxX-box.MinX, box.MaxY-box.MinY
	span := math.Max(w, h)

	p := projection{minX: box.MinX, maxY: box.MaxY, scale: 1, mercator: mercator}
	if span > 0 {
		p.scale = inner / span
	}
	p.offX = float64(padding) + (inner-w*p.scale)/2
	p.offY = float64(padding) + (inner-h*p.scale)/2
	return p
}

func (p projection) apply(pt *geo.Point) (float32, float32) {
	py := pt.Y()
	if p.mercator {
		py = geo.MercatorY(py)
	}
	x := p.offX + (pt.X()-p.minX)*p.scale
	y := p.offY + (p.maxY-py)*p.scale
	return float32(x), float32(y)
}

type canvas struct {
	dst  *image.RGBA
	proj projection
	opts Options
}

func (c *canvas) geometry(g geo.Geometry) {
	switch g.Type() {
	case geo.TypePoint:
		c.point(g.(*geo.Point))
	case geo.TypeLineString:
		c.line(g.(*geo.LineString))
	case geo.TypePolygon:
		c.polygon(g.(*geo.Polygon))
	default:
		n, _ := g.NumGeometries()
		// polygons first so lines and markers stay visible
		for _, pass := range []int{2, 1, 0} {
			for i := 1; i <= n; i++ {
				member := g.GeometryN(i)
				if member == nil || member.IsEmpty() {
					continue
				}
				if member.Dimension() == pass {
					c.geometry(member)
				}
			}
		}
	}
}

func (c *canvas) rasterizer() *vector.Rasterizer {
	b := c.dst.Bounds()
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

func (c *canvas) fill(r *vector.Rasterizer, col color.Color) {
	r.DrawOp = draw.Over
	r.Draw(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{})
}

func (c *canvas) point(p *geo.Point) {
	if p.IsEmpty() {
		return
	}
	x, y := c.proj.apply(p)
	r := c.rasterizer()
	circle(r, x, y, float32(c.opts.PointRadius))
	c.fill(r, Marker)
}

func (c *canvas) line(ls *geo.LineString) {
	pts := ls.Points()
	if len(pts) < 2 {
		return
	}
	r := c.rasterizer()
	half := float32(c.opts.LineWidth / 2)
	for i := 1; i < len(pts); i++ {
		x0, y0 := c.proj.apply(pts[i-1])
		x1, y1 := c.proj.apply(pts[i])
		segment(r, x0, y0, x1, y1, half)
	}
	c.fill(r, Stroke)
}

func (c *canvas) polygon(pg *geo.Polygon) {
	ext := pg.ExteriorRing()
	if ext == nil || ext.IsEmpty() {
		return
	}

	r := c.rasterizer()
	dir := c.ring(r, ext.Points(), 0)
	n, _ := pg.NumInteriorRings()
	for i := 1; i <= n; i++ {
		c.ring(r, pg.InteriorRingN(i).Points(), -dir)
	}
	c.fill(r, Fill)

	c.line(ext)
	for i := 1; i <= n; i++ {
		c.line(pg.InteriorRingN(i))
	}
}

// ring adds a closed path and returns its winding sign. A non-zero want
// forces that winding, which lets holes cancel the exterior fill.
func (c *canvas) ring(r *vector.Rasterizer, pts []*geo.Point, want float64) float64 {
	xs := make([]float32, len(pts))
	ys := make([]float32, len(pts))
	var area float64
	for i, p := range pts {
		xs[i], ys[i] = c.proj.apply(p)
		if i > 0 {
			area += float64(xs[i-1])*float64(ys[i]) - float64(xs[i])*float64(ys[i-1])
		}
	}
	dir := 1.0
	if area < 0 {
		dir = -1
	}
	if want != 0 && dir != want {
		for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
			xs[i], xs[j] = xs[j], xs[i]
			ys[i], ys[j] = ys[j], ys[i]
		}
		dir = want
	}

	r.MoveTo(xs[0], ys[0])
	for i := 1; i < len(xs); i++ {
		r.LineTo(xs[i], ys[i])
	}
	r.ClosePath()
	return dir
}

// segment adds a quad of half-width half around the segment.
func segment(r *vector.Rasterizer, x0, y0, x1, y1, half float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		circle(r, x0, y0, half)
		return
	}
	nx, ny := -dy/l*half, dx/l*half

	r.MoveTo(x0+nx, y0+ny)
	r.LineTo(x1+nx, y1+ny)
	r.LineTo(x1-nx, y1-ny)
	r.LineTo(x0-nx, y0-ny)
	r.ClosePath()
	circle(r, x1, y1, half)
}

func circle(r *vector.Rasterizer, x, y, radius float32) {
	const steps = 16
	r.MoveTo(x+radius, y)
	for i := 1; i < steps; i++ {
		a := -2 * math.Pi * float64(i) / steps
		r.LineTo(x+radius*float32(math.Cos(a)), y+radius*float32(math.Sin(a)))
	}
	r.ClosePath()
}
