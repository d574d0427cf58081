package elbow

// Shape is the router's view of a canvas element: an id and an
// axis-aligned bounding box with rotation already folded in.
type Shape interface {
	ShapeID() string
	BoundingBox() BBox
	// IsObstacle reports whether the shape is visible and of a kind that
	// connectors route around.
	IsObstacle() bool
}

// Points is the high-level entry point used by the editing layer. It
// resolves directions from the bindings, picks the obstacles near the
// connector and returns a flat [x0, y0, x1, y1, ...] array relative to
// startWorld.
func (r *Router) Points(startWorld, endWorld Point, startB, endB *Binding, elements []Shape, minStub float64) []float64 {
	if startWorld == endWorld {
		return []float64{0, 0, 0, 0}
	}
	startBox := boundBox(elements, startB)
	endBox := boundBox(elements, endB)
	startDir := ResolveDirection(startWorld, endWorld, startB, startBox)
	endDir := ResolveDirection(endWorld, startWorld, endB, endBox)

	exclude := map[string]bool{}
	if startBox != nil {
		exclude[startB.ElementID] = true
	}
	if endBox != nil {
		exclude[endB.ElementID] = true
	}
	intermediate := RelevantObstacles(elements, startWorld, endWorld, exclude, r.opts.RelevanceMargin)

	route := r.Route(startWorld, endWorld, startDir, endDir, toRect(startBox), toRect(endBox), minStub, intermediate)
	return flatten(route, startWorld)
}

// RelevantObstacles returns the boxes of obstacle shapes that intersect the
// endpoints' span expanded by margin. Far-away shapes cannot affect the
// route and would only grow the grid.
func RelevantObstacles(elements []Shape, a, b Point, exclude map[string]bool, margin float64) []Rect {
	region := Rect{Left: a.X, Top: a.Y}.union(Rect{Left: b.X, Top: b.Y}).inflate(margin, margin, margin, margin)
	var out []Rect
	for _, el := range elements {
		if !el.IsObstacle() || exclude[el.ShapeID()] {
			continue
		}
		r := el.BoundingBox().Rect()
		if r.Width <= 0 || r.Height <= 0 || !r.intersects(region) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func boundBox(elements []Shape, b *Binding) *BBox {
	if b == nil || b.ElementID == "" {
		return nil
	}
	for _, el := range elements {
		if el.ShapeID() == b.ElementID {
			box := el.BoundingBox()
			return &box
		}
	}
	return nil
}

func toRect(b *BBox) *Rect {
	if b == nil {
		return nil
	}
	r := b.Rect()
	return &r
}
