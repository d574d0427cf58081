package elbow

import (
	"fmt"
	"math"
)

// eps is the tolerance used for strict-interior tests. Boundary-touching
// points and segments never count as inside.
const eps = 1e-6

// Point is a world-space coordinate in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{x, y} }

func (p Point) add(d Direction, length float64) Point {
	dx, dy := d.Vector()
	return Point{p.X + dx*length, p.Y + dy*length}
}

func manhattan(a, b Point) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

// ── Direction ──────────────────────────────────────────────

// Direction is a shape face or a travel direction on the grid.
// The zero value is "none" and is only used for the search origin.
type Direction uint8

const (
	dirNone Direction = iota
	Up
	Down
	Left
	Right
)

// numDirs counts dirNone too; search state arrays are sized numDirs×nodes.
const numDirs = 5

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// ParseDirection accepts up/down/left/right as well as the face names
// top/bottom used by connection descriptors.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "top":
		return Up, nil
	case "down", "bottom":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return dirNone, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Vector returns the unit step for d in screen coordinates (y grows down).
func (d Direction) Vector() (float64, float64) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Vertical reports whether d runs along the y axis.
func (d Direction) Vertical() bool { return d == Up || d == Down }

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return dirNone
}

// directionBetween returns the travel direction of the axis-aligned move a→b.
func directionBetween(a, b Point) Direction {
	if math.Abs(a.Y-b.Y) < eps {
		if b.X >= a.X {
			return Right
		}
		return Left
	}
	if b.Y >= a.Y {
		return Down
	}
	return Up
}

// ── Rect ───────────────────────────────────────────────────

// Rect is the obstacle representation used by the router. It keeps the
// left/top edge explicit so inflation is a per-face adjustment.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

func (r Rect) Center() Point {
	return Point{r.Left + r.Width/2, r.Top + r.Height/2}
}

// inflate grows each face by its own margin.
func (r Rect) inflate(top, right, bottom, left float64) Rect {
	return Rect{
		Left:   r.Left - left,
		Top:    r.Top - top,
		Width:  r.Width + left + right,
		Height: r.Height + top + bottom,
	}
}

// inflateFaces grows r by margins indexed by face direction.
func (r Rect) inflateFaces(m [numDirs]float64) Rect {
	return r.inflate(m[Up], m[Right], m[Down], m[Left])
}

// face returns the coordinate of the face pointing in d.
func (r Rect) face(d Direction) float64 {
	switch d {
	case Up:
		return r.Top
	case Down:
		return r.Bottom()
	case Left:
		return r.Left
	}
	return r.Right()
}

// containsStrict reports whether p lies in the open interior of r.
func (r Rect) containsStrict(p Point) bool {
	return p.X > r.Left+eps && p.X < r.Right()-eps &&
		p.Y > r.Top+eps && p.Y < r.Bottom()-eps
}

func (r Rect) intersects(o Rect) bool {
	return r.Left < o.Right() && r.Right() > o.Left &&
		r.Top < o.Bottom() && r.Bottom() > o.Top
}

func (r Rect) union(o Rect) Rect {
	l := math.Min(r.Left, o.Left)
	t := math.Min(r.Top, o.Top)
	return Rect{l, t, math.Max(r.Right(), o.Right()) - l, math.Max(r.Bottom(), o.Bottom()) - t}
}

// segmentCrosses reports whether the axis-aligned segment a–b passes
// through the interior of r. Segments running along an edge do not cross.
func (r Rect) segmentCrosses(a, b Point) bool {
	if math.Abs(a.Y-b.Y) < eps {
		y := a.Y
		if y <= r.Top+eps || y >= r.Bottom()-eps {
			return false
		}
		return math.Min(a.X, b.X) < r.Right()-eps && math.Max(a.X, b.X) > r.Left+eps
	}
	if math.Abs(a.X-b.X) < eps {
		x := a.X
		if x <= r.Left+eps || x >= r.Right()-eps {
			return false
		}
		return math.Min(a.Y, b.Y) < r.Bottom()-eps && math.Max(a.Y, b.Y) > r.Top+eps
	}
	return false
}

// BBox is the public shape bounding box, as stored on canvas elements.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect converts b to the router's obstacle representation.
func (b BBox) Rect() Rect {
	return Rect{Left: b.X, Top: b.Y, Width: b.Width, Height: b.Height}
}

// RotatedBBox returns the axis-aligned box enclosing a w×h rectangle at
// (x, y) rotated by angle radians around its center.
func RotatedBBox(x, y, w, h, angle float64) BBox {
	if angle == 0 {
		return BBox{x, y, w, h}
	}
	sin, cos := math.Abs(math.Sin(angle)), math.Abs(math.Cos(angle))
	rw := w*cos + h*sin
	rh := w*sin + h*cos
	cx, cy := x+w/2, y+h/2
	return BBox{cx - rw/2, cy - rh/2, rw, rh}
}
