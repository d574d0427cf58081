// Package preview draws a page's elements and connectors to PNG. It is a
// debugging aid for inspecting routes outside the canvas.
package preview

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"whiteboard/internal/domain"
	"whiteboard/internal/elbow"
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("nothing to render")

// Options control the output image.
type Options struct {
	// Scale multiplies world units into pixels.
	Scale float64
	// Padding is the world-space margin around the content.
	Padding float64
	// MaxSize caps the longer image side in pixels.
	MaxSize int
}

func DefaultOptions() Options {
	return Options{Scale: 1, Padding: 40, MaxSize: 4096}
}

const (
	arrowSize  = 8.0
	arrowAngle = 0.5
)

// frame maps world coordinates to pixels.
type frame struct {
	minX, minY float64
	scale      float64
}

func (f frame) px(p elbow.Point) (float64, float64) {
	return (p.X - f.minX) * f.scale, (p.Y - f.minY) * f.scale
}

// Render draws st and returns the image.
func Render(st domain.PageState, opts Options) (image.Image, error) {
	dc, err := draw(st, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders st and encodes it as PNG to w.
func WritePNG(w io.Writer, st domain.PageState, opts Options) error {
	dc, err := draw(st, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG renders st to a PNG file.
func SavePNG(path string, st domain.PageState, opts Options) error {
	dc, err := draw(st, opts)
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}

func draw(st domain.PageState, opts Options) (*gg.Context, error) {
	def := DefaultOptions()
	if opts.Scale <= 0 {
		opts.Scale = def.Scale
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = def.MaxSize
	}

	bounds, ok := contentBounds(st)
	if !ok {
		return nil, ErrEmpty
	}
	bounds = elbow.Rect{
		Left:   bounds.Left - opts.Padding,
		Top:    bounds.Top - opts.Padding,
		Width:  bounds.Width + 2*opts.Padding,
		Height: bounds.Height + 2*opts.Padding,
	}
	scale := opts.Scale
	if longest := math.Max(bounds.Width, bounds.Height) * scale; longest > float64(opts.MaxSize) {
		scale *= float64(opts.MaxSize) / longest
	}
	f := frame{minX: bounds.Left, minY: bounds.Top, scale: scale}

	w := pixels(bounds.Width * scale)
	h := pixels(bounds.Height * scale)
	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	// Connectors first so shapes sit on top of their stubs.
	for _, c := range st.Connectors {
		drawConnector(dc, f, c)
	}
	for _, e := range st.Elements {
		drawElement(dc, f, e)
	}
	return dc, nil
}

// pixels rounds a pixel extent up, ignoring float noise.
func pixels(v float64) int {
	return int(math.Max(1, math.Ceil(v-1e-6)))
}

// contentBounds is the union of every element box and connector point.
func contentBounds(st domain.PageState) (elbow.Rect, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	add := func(p elbow.Point) {
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
	}
	for _, e := range st.Elements {
		if !e.Visible {
			continue
		}
		r := e.BoundingBox().Rect()
		add(elbow.Pt(r.Left, r.Top))
		add(elbow.Pt(r.Right(), r.Bottom()))
	}
	for _, c := range st.Connectors {
		for _, p := range absolute(c) {
			add(p)
		}
	}
	if math.IsInf(minX, 1) {
		return elbow.Rect{}, false
	}
	return elbow.Rect{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// absolute converts a connector's relative points to world space.
func absolute(c domain.Connector) []elbow.Point {
	pts := make([]elbow.Point, 0, len(c.Points)/2)
	for i := 0; i+1 < len(c.Points); i += 2 {
		pts = append(pts, elbow.Pt(c.Start.X+c.Points[i], c.Start.Y+c.Points[i+1]))
	}
	return pts
}

// parseColor falls back to the default stroke for empty or bad input.
func parseColor(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(domain.DefaultConnectorColor)
	}
	return c
}

// fillFor is a pale tint of the stroke color.
func fillFor(stroke colorful.Color) colorful.Color {
	h, s, _ := stroke.Hsl()
	return colorful.Hsl(h, s*0.6, 0.93).Clamped()
}

func drawElement(dc *gg.Context, f frame, e domain.Element) {
	if !e.Visible {
		return
	}
	stroke := parseColor("#1e293b")
	if !e.Type.Connectable() {
		stroke = parseColor("#94a3b8")
	}

	cx, cy := f.px(elbow.Pt(e.X+e.Width/2, e.Y+e.Height/2))
	w, h := e.Width*f.scale, e.Height*f.scale

	dc.Push()
	dc.RotateAbout(e.Rotation, cx, cy)
	switch e.Type {
	case domain.ElementTypeEllipse:
		dc.DrawEllipse(cx, cy, w/2, h/2)
	case domain.ElementTypeDiamond:
		dc.MoveTo(cx, cy-h/2)
		dc.LineTo(cx+w/2, cy)
		dc.LineTo(cx, cy+h/2)
		dc.LineTo(cx-w/2, cy)
		dc.ClosePath()
	default:
		dc.DrawRectangle(cx-w/2, cy-h/2, w, h)
	}
	if e.Type.Connectable() {
		dc.SetColor(fillFor(stroke))
		dc.FillPreserve()
	}
	dc.SetColor(stroke)
	dc.SetLineWidth(1.5)
	dc.Stroke()
	dc.Pop()
}

func drawConnector(dc *gg.Context, f frame, c domain.Connector) {
	pts := absolute(c)
	if len(pts) < 2 {
		return
	}
	col := parseColor(c.Color)
	width := c.StrokeWidth
	if width <= 0 {
		width = 2
	}

	dc.SetColor(col)
	dc.SetLineWidth(width * f.scale)
	x, y := f.px(pts[0])
	dc.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = f.px(p)
		dc.LineTo(x, y)
	}
	dc.Stroke()

	fx, fy := f.px(pts[len(pts)-2])
	tx, ty := f.px(pts[len(pts)-1])
	drawArrowHead(dc, fx, fy, tx, ty)
}

func drawArrowHead(dc *gg.Context, fx, fy, tx, ty float64) {
	dx, dy := tx-fx, ty-fy
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	dc.MoveTo(tx, ty)
	dc.LineTo(tx-arrowSize*dx+arrowSize*dy*arrowAngle, ty-arrowSize*dy-arrowSize*dx*arrowAngle)
	dc.LineTo(tx-arrowSize*dx-arrowSize*dy*arrowAngle, ty-arrowSize*dy+arrowSize*dx*arrowAngle)
	dc.ClosePath()
	dc.Fill()
}
