package elbow

import (
	"math"
	"sort"
)

// gridKey quantizes a point to hundredths of a pixel.
type gridKey struct{ x, y int64 }

func quantize(v float64) int64 { return int64(math.Round(v * 100)) }

func keyOf(p Point) gridKey { return gridKey{quantize(p.X), quantize(p.Y)} }

// gridInput is everything the grid builder looks at.
type gridInput struct {
	start, end       Point
	antStart, antEnd Point
	obstacles        []Rect
	boundsMargin     float64
}

// bounds is the union of all obstacles and the endpoints, expanded by margin.
func (in gridInput) bounds() Rect {
	r := Rect{Left: in.start.X, Top: in.start.Y}
	for _, p := range []Point{in.end, in.antStart, in.antEnd} {
		r = r.union(Rect{Left: p.X, Top: p.Y})
	}
	for _, o := range in.obstacles {
		r = r.union(o)
	}
	m := in.boundsMargin
	return r.inflate(m, m, m, m)
}

// rulers collects candidate coordinates on both axes.
func (in gridInput) rulers() (xs, ys []float64) {
	xs = []float64{in.start.X, in.end.X, in.antStart.X, in.antEnd.X, (in.start.X + in.end.X) / 2}
	ys = []float64{in.start.Y, in.end.Y, in.antStart.Y, in.antEnd.Y, (in.start.Y + in.end.Y) / 2}
	for _, o := range in.obstacles {
		c := o.Center()
		xs = append(xs, o.Left, o.Right(), c.X)
		ys = append(ys, o.Top, o.Bottom(), c.Y)
	}
	// Corridors between shape pairs.
	for i, a := range in.obstacles {
		for _, b := range in.obstacles[i+1:] {
			if gap, ok := midGap(a.Left, a.Right(), b.Left, b.Right()); ok {
				xs = append(xs, gap)
			}
			if gap, ok := midGap(a.Top, a.Bottom(), b.Top, b.Bottom()); ok {
				ys = append(ys, gap)
			}
		}
	}
	b := in.bounds()
	xs = append(xs, b.Left, b.Right())
	ys = append(ys, b.Top, b.Bottom())
	return uniqSorted(xs), uniqSorted(ys)
}

// midGap returns the middle of the gap between two intervals, if any.
func midGap(aLo, aHi, bLo, bHi float64) (float64, bool) {
	switch {
	case aHi < bLo:
		return (aHi + bLo) / 2, true
	case bHi < aLo:
		return (bHi + aLo) / 2, true
	}
	return 0, false
}

// buildGrid returns the sparse candidate waypoint set: every ruler
// intersection outside all obstacle interiors, plus both antenna points.
func buildGrid(in gridInput) []Point {
	xs, ys := in.rulers()
	seen := make(map[gridKey]bool, len(xs)*len(ys)+2)
	out := make([]Point, 0, len(xs)*len(ys)+2)
	add := func(p Point) {
		k := keyOf(p)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, p)
	}
	add(in.antStart)
	add(in.antEnd)
	for _, x := range xs {
		for _, y := range ys {
			p := Point{x, y}
			if insideAny(p, in.obstacles) {
				continue
			}
			add(p)
		}
	}
	return out
}

func insideAny(p Point, rects []Rect) bool {
	for _, r := range rects {
		if r.containsStrict(p) {
			return true
		}
	}
	return false
}

func uniqSorted(vals []float64) []float64 {
	seen := make(map[int64]bool, len(vals))
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		k := quantize(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
