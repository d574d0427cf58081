package elbow

import "math"

// ── Connection sides ───────────────────────────────────────

// FacingSides picks the faces two shapes should connect through, based on
// the dominant axis between their centers.
func FacingSides(from, to BBox) (Direction, Direction) {
	d := dominantDirection(from.Rect().Center(), to.Rect().Center())
	return d, d.Opposite()
}

// AnchorPoint returns the point at fraction t along face d of box.
func AnchorPoint(box BBox, d Direction, t float64) Point {
	switch d {
	case Up:
		return Point{box.X + box.Width*t, box.Y}
	case Down:
		return Point{box.X + box.Width*t, box.Y + box.Height}
	case Left:
		return Point{box.X, box.Y + box.Height*t}
	case Right:
		return Point{box.X + box.Width, box.Y + box.Height*t}
	}
	return Point{box.X + box.Width/2, box.Y + box.Height/2}
}

// FaceBinding builds a precise binding at fraction t along face d.
func FaceBinding(elementID string, d Direction, t float64) Binding {
	t = math.Max(0, math.Min(1, t))
	b := Binding{ElementID: elementID, IsPrecise: true}
	switch d {
	case Up:
		b.FixedPoint = [2]float64{t, 0}
	case Down:
		b.FixedPoint = [2]float64{t, 1}
	case Left:
		b.FixedPoint = [2]float64{0, t}
	default:
		b.FixedPoint = [2]float64{1, t}
	}
	return b
}

// SlotFraction spreads connectors sharing a face: the first sits at 1/2,
// the second at 2/3, and so on.
func SlotFraction(existing int) float64 {
	if existing < 0 {
		existing = 0
	}
	return float64(existing+1) / float64(existing+2)
}
