package elbow

import "math"

// centerTolerance is how close a fixed point must be to (0.5, 0.5) to be
// treated as a center binding.
const centerTolerance = 0.05

// horizontalBias is how much the normalized horizontal offset must exceed the
// vertical one before a center-bound endpoint exits sideways. Vertical exits
// give cleaner elbows for diagonal targets.
const horizontalBias = 3.0

// Binding attaches a connector endpoint to a shape.
type Binding struct {
	ElementID  string     `json:"elementId"`
	FixedPoint [2]float64 `json:"fixedPoint"`
	Gap        float64    `json:"gap"`
	IsPrecise  bool       `json:"isPrecise"`
}

// IsCenter reports whether the binding lets the router pick the face.
func (b Binding) IsCenter() bool {
	if !b.IsPrecise {
		return true
	}
	return math.Abs(b.FixedPoint[0]-0.5) < centerTolerance &&
		math.Abs(b.FixedPoint[1]-0.5) < centerTolerance
}

// ResolveDirection picks the face a connector leaves self through, heading
// for other. box is the bound shape's bounding box and may be nil.
func ResolveDirection(self, other Point, b *Binding, box *BBox) Direction {
	if b == nil || box == nil {
		return dominantDirection(self, other)
	}
	if !b.IsCenter() {
		return nearestFace(b.FixedPoint)
	}
	return centerDirection(box.Rect(), other)
}

// dominantDirection follows the axis with the larger delta; ties go horizontal.
func dominantDirection(from, to Point) Direction {
	dx, dy := to.X-from.X, to.Y-from.Y
	if math.Abs(dx) >= math.Abs(dy) {
		if dx < 0 {
			return Left
		}
		return Right
	}
	if dy < 0 {
		return Up
	}
	return Down
}

func nearestFace(fp [2]float64) Direction {
	fx, fy := fp[0], fp[1]
	best, dist := Up, fy
	for _, c := range []struct {
		d Direction
		v float64
	}{{Down, 1 - fy}, {Left, fx}, {Right, 1 - fx}} {
		if c.v < dist {
			best, dist = c.d, c.v
		}
	}
	return best
}

func centerDirection(r Rect, other Point) Direction {
	c := r.Center()
	hw := math.Max(r.Width/2, 1)
	hh := math.Max(r.Height/2, 1)
	dx, dy := other.X-c.X, other.Y-c.Y
	ndx, ndy := math.Abs(dx)/hw, math.Abs(dy)/hh
	if ndx > horizontalBias*ndy {
		if dx < 0 {
			return Left
		}
		return Right
	}
	if dy < 0 {
		return Up
	}
	return Down
}
