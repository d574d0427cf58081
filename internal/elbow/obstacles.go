package elbow

// maxAntennaPush bounds how many times an antenna is pushed out of
// overlapping obstacles.
const maxAntennaPush = 8

// endpoint is one end of a connector as the obstacle model sees it.
type endpoint struct {
	at  Point
	dir Direction
	box *Rect // raw shape box, nil when unbound
}

// obstacleSet is one inflation configuration fed through the pipeline.
type obstacleSet struct {
	name  string
	rects []Rect
}

func (o Options) endpointMargins(exit, relaxed Direction) [numDirs]float64 {
	var m [numDirs]float64
	for _, d := range []Direction{Up, Down, Left, Right} {
		m[d] = o.Clearance
	}
	m[exit] = o.ExitFaceMargin
	if relaxed != dirNone {
		m[relaxed] = o.ExitFaceMargin
	}
	return m
}

// facingFace returns the face of box that points at p.
func facingFace(box Rect, p Point) Direction {
	return dominantDirection(box.Center(), p)
}

// endpointRects inflates the bound shapes at both ends. In relaxed mode the
// face looking at the other endpoint also gets the narrow margin, opening an
// L-shaped corridor between the two shapes.
func (o Options) endpointRects(start, end endpoint, relaxed bool) []Rect {
	var out []Rect
	for _, pair := range [][2]endpoint{{start, end}, {end, start}} {
		ep, other := pair[0], pair[1]
		if ep.box == nil {
			continue
		}
		extra := dirNone
		if relaxed {
			if f := facingFace(*ep.box, other.at); f != ep.dir {
				extra = f
			}
		}
		out = append(out, ep.box.inflateFaces(o.endpointMargins(ep.dir, extra)))
	}
	return out
}

func inflateAll(rects []Rect, margin float64) []Rect {
	out := make([]Rect, len(rects))
	for i, r := range rects {
		out[i] = r.inflate(margin, margin, margin, margin)
	}
	return out
}

func concatRects(a, b []Rect) []Rect {
	out := make([]Rect, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func sameRects(a, b []Rect) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// obstacleSets returns the standard configuration and, when it differs, the
// relaxed-corridor one.
func (o Options) obstacleSets(start, end endpoint, intermediate []Rect) []obstacleSet {
	inflated := inflateAll(intermediate, o.Clearance)
	standard := o.endpointRects(start, end, false)
	sets := []obstacleSet{{name: "standard", rects: concatRects(standard, inflated)}}
	if relaxed := o.endpointRects(start, end, true); !sameRects(standard, relaxed) {
		sets = append(sets, obstacleSet{name: "relaxed", rects: concatRects(relaxed, inflated)})
	}
	return sets
}

// endpointOnlySet ignores intermediate shapes entirely.
func (o Options) endpointOnlySet(start, end endpoint) obstacleSet {
	return obstacleSet{name: "endpoints", rects: o.endpointRects(start, end, false)}
}

// stubFor shortens stub when the other endpoint lies ahead of ep by less
// than two stubs, so facing antennas meet halfway instead of crossing.
func stubFor(ep, other endpoint, stub float64) float64 {
	dx, dy := ep.dir.Vector()
	ahead := (other.at.X-ep.at.X)*dx + (other.at.Y-ep.at.Y)*dy
	if ahead > 0 && ahead < 2*stub {
		return ahead / 2
	}
	return stub
}

// antenna projects ep outward by its stub and then pushes it past any
// obstacle it still lands in, one face at a time. Obstacles covering the
// other endpoint are never pushed through: that would overshoot the target.
func antenna(ep, other endpoint, stub float64, obstacles []Rect) Point {
	p := ep.at.add(ep.dir, stubFor(ep, other, stub))
	for i := 0; i < maxAntennaPush; i++ {
		moved := false
		for _, r := range obstacles {
			if r.containsStrict(p) && !r.containsStrict(other.at) {
				p = pushOut(p, r, ep.dir)
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return p
}

func pushOut(p Point, r Rect, d Direction) Point {
	switch d {
	case Up:
		p.Y = r.Top
	case Down:
		p.Y = r.Bottom()
	case Left:
		p.X = r.Left
	default:
		p.X = r.Right()
	}
	return p
}
