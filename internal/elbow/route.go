package elbow

import "math"

// Router computes elbow routes and owns the route cache.
type Router struct {
	opts  Options
	cache *Cache // nil when caching is disabled
}

// NewRouter creates a Router. A negative CacheSize disables the cache.
func NewRouter(opts Options) *Router {
	opts = opts.normalize()
	r := &Router{opts: opts}
	if opts.CacheSize > 0 {
		r.cache = NewCache(opts.CacheSize)
	}
	return r
}

// Options returns the normalized options the router runs with.
func (r *Router) Options() Options { return r.opts }

// ClearCache drops every cached route. Call it when the diagram changes in
// bulk (import, undo of many shapes).
func (r *Router) ClearCache() {
	if r.cache != nil {
		r.cache.Clear()
	}
}

func (r *Router) CacheStats() CacheStats {
	if r.cache == nil {
		return CacheStats{}
	}
	return r.cache.Stats()
}

// Route computes an orthogonal route from start to end in world
// coordinates. Directions are the faces the connector leaves start through
// and enters end through. Bound shape boxes may be nil; intermediate holds
// raw (uninflated) obstacle boxes. The stub is the larger of minStub and
// the configured StubLength.
// The result always starts at start and ends at end.
func (r *Router) Route(start, end Point, startDir, endDir Direction, startBox, endBox *Rect, minStub float64, intermediate []Rect) []Point {
	if start == end {
		return []Point{start, end}
	}
	stub := math.Max(r.opts.StubLength, minStub)
	if startDir == dirNone {
		startDir = dominantDirection(start, end)
	}
	if endDir == dirNone {
		endDir = dominantDirection(end, start)
	}

	var key string
	if r.cache != nil {
		key = routeKey(start, end, startDir, endDir, startBox, endBox, stub, intermediate)
		if cached, ok := r.cache.Get(key); ok {
			if pts, ok := reanchor(cached, start, end); ok {
				return pts
			}
		}
	}

	pts := r.compute(
		endpoint{at: start, dir: startDir, box: startBox},
		endpoint{at: end, dir: endDir, box: endBox},
		stub, intermediate,
	)
	if r.cache != nil {
		r.cache.Put(key, pts)
	}
	return pts
}

// compute runs the pipeline once per obstacle configuration and keeps the
// candidate with the fewest bends, then the shortest length. It degrades to
// ignoring intermediate shapes and finally to a hand-built route.
func (r *Router) compute(start, end endpoint, stub float64, intermediate []Rect) []Point {
	var best []Point
	for _, set := range r.opts.obstacleSets(start, end, intermediate) {
		if cand := r.runPipeline(start, end, stub, set); cand != nil && better(cand, best) {
			best = cand
		}
	}
	if best == nil && len(intermediate) > 0 {
		best = r.runPipeline(start, end, stub, r.opts.endpointOnlySet(start, end))
	}
	if best == nil {
		best = fallbackRoute(start, end, stub)
	}
	return best
}

func better(cand, best []Point) bool {
	if best == nil {
		return true
	}
	cb, bb := bendCount(cand), bendCount(best)
	if cb != bb {
		return cb < bb
	}
	return pathLength(cand) < pathLength(best)
}

// runPipeline is grid → graph → search for one obstacle configuration.
func (r *Router) runPipeline(start, end endpoint, stub float64, set obstacleSet) []Point {
	antStart := antenna(start, end, stub, set.rects)
	antEnd := antenna(end, start, stub, set.rects)
	points := buildGrid(gridInput{
		start:        start.at,
		end:          end.at,
		antStart:     antStart,
		antEnd:       antEnd,
		obstacles:    set.rects,
		boundsMargin: r.opts.BoundsMargin,
	})
	g := buildGraph(points, set.rects)
	origin, ok := g.lookup(antStart)
	if !ok {
		return nil
	}
	dest, ok := g.lookup(antEnd)
	if !ok {
		return nil
	}
	path := g.search(searchQuery{
		origin:   origin,
		dest:     dest,
		startDir: start.dir,
		finalDir: end.dir.Opposite(),
		bend:     r.opts.BendPenalty,
	})
	if path == nil {
		return nil
	}
	full := make([]Point, 0, len(path)+2)
	full = append(full, start.at)
	for _, i := range path {
		full = append(full, g.nodes[i])
	}
	full = append(full, end.at)
	return Simplify(full)
}

// fallbackRoute joins the two stubs with a mid-line S-bend when both exits
// share an axis, or a single corner otherwise. It ignores obstacles.
func fallbackRoute(start, end endpoint, stub float64) []Point {
	a1 := start.at.add(start.dir, stubFor(start, end, stub))
	a2 := end.at.add(end.dir, stubFor(end, start, stub))
	sv, ev := start.dir.Vertical(), end.dir.Vertical()

	var pts []Point
	switch {
	case sv && ev:
		midY := (a1.Y + a2.Y) / 2
		pts = []Point{start.at, a1, {a1.X, midY}, {a2.X, midY}, a2, end.at}
	case !sv && !ev:
		midX := (a1.X + a2.X) / 2
		pts = []Point{start.at, a1, {midX, a1.Y}, {midX, a2.Y}, a2, end.at}
	case sv:
		pts = []Point{start.at, a1, {a1.X, a2.Y}, a2, end.at}
	default:
		pts = []Point{start.at, a1, {a2.X, a1.Y}, a2, end.at}
	}
	return Simplify(pts)
}

// reanchor moves a cached route onto exact endpoints that rounded to the
// same fingerprint, keeping every segment axis-aligned.
func reanchor(route []Point, start, end Point) ([]Point, bool) {
	n := len(route)
	if n < 2 {
		return nil, false
	}
	out := append([]Point(nil), route...)
	if out[0] == start && out[n-1] == end {
		return out, true
	}
	if n == 2 {
		if start.X == end.X || start.Y == end.Y {
			return []Point{start, end}, true
		}
		return nil, false
	}
	alignNeighbor(out[0], start, &out[1])
	alignNeighbor(out[n-1], end, &out[n-2])
	out[0], out[n-1] = start, end
	return Simplify(out), true
}

// alignNeighbor shifts nb so the segment from old to nb stays axis-aligned
// once old is replaced by moved.
func alignNeighbor(old, moved Point, nb *Point) {
	if math.Abs(old.Y-nb.Y) < eps {
		nb.Y = moved.Y
		return
	}
	nb.X = moved.X
}
