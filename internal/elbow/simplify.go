package elbow

import "math"

func collinear(a, b, c Point) bool {
	return (a.X == b.X && b.X == c.X) || (a.Y == b.Y && b.Y == c.Y)
}

// squareUp turns every diagonal segment into an L by inserting a corner.
// Diagonals only appear from sub-pixel drift between grid rows, so the
// corner goes at the far end of the longer leg.
func squareUp(pts []Point) []Point {
	out := make([]Point, 0, len(pts))
	for i, p := range pts {
		if i > 0 {
			a := out[len(out)-1]
			if a.X != p.X && a.Y != p.Y {
				if math.Abs(p.X-a.X) >= math.Abs(p.Y-a.Y) {
					out = append(out, Point{p.X, a.Y})
				} else {
					out = append(out, Point{a.X, p.Y})
				}
			}
		}
		out = append(out, p)
	}
	if len(out) == 1 {
		// start and end never collapse into one point
		out = append(out, pts[len(pts)-1])
	}
	return out
}

// Simplify drops zero-length segments and collapses collinear runs. The
// first and last points are kept exactly as given and every segment of the
// result is axis-aligned.
func Simplify(pts []Point) []Point {
	if len(pts) < 2 {
		return append([]Point(nil), pts...)
	}
	pts = squareUp(pts)
	last := len(pts) - 1
	out := make([]Point, 0, len(pts))
	out = append(out, pts[0])
	for i := 1; i <= last; i++ {
		p := pts[i]
		for len(out) >= 2 && collinear(out[len(out)-2], out[len(out)-1], p) {
			out = out[:len(out)-1]
		}
		if out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 1 {
		// start and end never collapse into one point
		out = append(out, pts[last])
	}
	return out
}

// SimplifyFlat is Simplify over a flat [x0, y0, x1, y1, ...] array.
func SimplifyFlat(flat []float64) []float64 {
	return flatten(Simplify(unflatten(flat)), Point{})
}

func unflatten(flat []float64) []Point {
	pts := make([]Point, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		pts = append(pts, Point{flat[i], flat[i+1]})
	}
	return pts
}

// flatten writes pts relative to origin.
func flatten(pts []Point, origin Point) []float64 {
	out := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		out = append(out, p.X-origin.X, p.Y-origin.Y)
	}
	return out
}
