package elbow

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testShape is a minimal Shape for routing tests.
type testShape struct {
	id     string
	box    BBox
	hidden bool
}

func (s testShape) ShapeID() string   { return s.id }
func (s testShape) BoundingBox() BBox { return s.box }
func (s testShape) IsObstacle() bool  { return !s.hidden }

func rectPtr(r Rect) *Rect { return &r }

// requireValidRoute checks the invariants every route must satisfy.
func requireValidRoute(t *testing.T, pts []Point, start, end Point) {
	t.Helper()
	require.GreaterOrEqual(t, len(pts), 2, "route too short: %v", pts)
	require.Equal(t, start, pts[0], "route must start exactly at start")
	require.Equal(t, end, pts[len(pts)-1], "route must end exactly at end")
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		sameX := math.Abs(a.X-b.X) < 1e-9
		sameY := math.Abs(a.Y-b.Y) < 1e-9
		require.True(t, sameX != sameY, "segment %d %v→%v is not a proper orthogonal segment (route %v)", i, a, b, pts)
	}
}

func requireAvoids(t *testing.T, pts []Point, r Rect) {
	t.Helper()
	for i := 1; i < len(pts); i++ {
		require.False(t, r.segmentCrosses(pts[i-1], pts[i]), "segment %v→%v crosses %+v", pts[i-1], pts[i], r)
	}
}

func TestRoute_ScenarioA_StraightNoBindings(t *testing.T) {
	r := NewRouter(DefaultOptions())
	flat := r.Points(Pt(0, 0), Pt(200, 0), nil, nil, nil, 0)
	assert.Equal(t, []float64{0, 0, 200, 0}, flat)
}

func TestRoute_ScenarioB_VerticalDownUp(t *testing.T) {
	r := NewRouter(DefaultOptions())
	pts := r.Route(Pt(0, 0), Pt(0, 200), Down, Up, nil, nil, 0, nil)
	assert.Equal(t, []Point{{0, 0}, {0, 200}}, pts)
}

func TestRoute_ScenarioC_HorizontalBetweenShapes(t *testing.T) {
	r := NewRouter(DefaultOptions())
	start, end := Pt(50, 25), Pt(200, 25)
	pts := r.Route(start, end, Right, Left,
		rectPtr(Rect{0, 0, 50, 50}), rectPtr(Rect{200, 0, 50, 50}), 0, nil)
	requireValidRoute(t, pts, start, end)
	assert.Equal(t, 0, bendCount(pts))
	assert.Len(t, pts, 2)
}

func TestRoute_ScenarioD_DetoursAroundBlocker(t *testing.T) {
	r := NewRouter(DefaultOptions())
	start, end := Pt(0, 0), Pt(300, 0)
	blocker := Rect{100, -50, 100, 100}
	pts := r.Route(start, end, Right, Left, nil, nil, 0, []Rect{blocker})
	requireValidRoute(t, pts, start, end)
	requireAvoids(t, pts, blocker)
	bends := bendCount(pts)
	assert.Contains(t, []int{2, 4}, bends, "route %v", pts)
}

func TestRoute_StackedShapesZeroBends(t *testing.T) {
	r := NewRouter(DefaultOptions())
	top := testShape{id: "a", box: BBox{0, 0, 100, 50}}
	bottom := testShape{id: "b", box: BBox{0, 200, 100, 50}}
	sb := FaceBinding("a", Down, 0.5)
	eb := FaceBinding("b", Up, 0.5)
	start, end := Pt(50, 50), Pt(50, 200)

	flat := r.Points(start, end, &sb, &eb, []Shape{top, bottom}, 0)
	assert.Equal(t, []float64{0, 0, 0, 150}, flat)
}

func TestRoute_AvoidsObstacleOnStraightLine(t *testing.T) {
	r := NewRouter(DefaultOptions())
	left := testShape{id: "l", box: BBox{0, 0, 60, 60}}
	right := testShape{id: "r", box: BBox{400, 0, 60, 60}}
	middle := testShape{id: "m", box: BBox{180, -20, 80, 100}}
	sb := FaceBinding("l", Right, 0.5)
	eb := FaceBinding("r", Left, 0.5)
	start, end := Pt(60, 30), Pt(400, 30)

	flat := r.Points(start, end, &sb, &eb, []Shape{left, right, middle}, 0)
	pts := unflatten(flat)
	for i := range pts {
		pts[i].X += start.X
		pts[i].Y += start.Y
	}
	requireValidRoute(t, pts, start, end)
	requireAvoids(t, pts, middle.box.Rect())
	assert.Greater(t, bendCount(pts), 0)
}

func TestRoute_DegenerateStartEqualsEnd(t *testing.T) {
	r := NewRouter(DefaultOptions())
	p := Pt(42, 17)
	assert.Equal(t, []Point{p, p}, r.Route(p, p, Right, Left, nil, nil, 0, nil))
	assert.Equal(t, []float64{0, 0, 0, 0}, r.Points(p, p, nil, nil, nil, 0))
	assert.Equal(t, 0, r.CacheStats().Size)
}

func TestRoute_IdempotentAndCached(t *testing.T) {
	r := NewRouter(DefaultOptions())
	shapes := []Shape{
		testShape{id: "a", box: BBox{0, 0, 80, 40}},
		testShape{id: "b", box: BBox{300, 200, 80, 40}},
		testShape{id: "c", box: BBox{150, 60, 60, 120}},
	}
	sb := Binding{ElementID: "a"}
	eb := Binding{ElementID: "b"}
	start, end := Pt(40, 40), Pt(340, 200)

	first := r.Points(start, end, &sb, &eb, shapes, 0)
	before := r.CacheStats()
	second := r.Points(start, end, &sb, &eb, shapes, 0)
	after := r.CacheStats()

	assert.Equal(t, first, second)
	assert.Equal(t, before.Hits+1, after.Hits)
	assert.Equal(t, before.Misses, after.Misses)
}

func TestRoute_CachedRouteIsReanchored(t *testing.T) {
	r := NewRouter(DefaultOptions())
	blocker := []Rect{{100, -50, 100, 100}}
	first := r.Route(Pt(0, 0), Pt(300, 0), Right, Left, nil, nil, 0, blocker)
	require.NotEmpty(t, first)

	// Jitter below the fingerprint grid maps to the same cache key.
	start, end := Pt(0.1, 0.1), Pt(300.1, 0.1)
	pts := r.Route(start, end, Right, Left, nil, nil, 0, blocker)
	assert.Equal(t, uint64(1), r.CacheStats().Hits)
	requireValidRoute(t, pts, start, end)
}

func TestRoute_ReturnedSliceIsACopy(t *testing.T) {
	r := NewRouter(DefaultOptions())
	a := r.Route(Pt(0, 0), Pt(100, 80), Right, Left, nil, nil, 0, nil)
	a[1].X = 9999
	b := r.Route(Pt(0, 0), Pt(100, 80), Right, Left, nil, nil, 0, nil)
	assert.NotEqual(t, 9999.0, b[1].X)
}

func TestRoute_FallsBackWhenEnclosed(t *testing.T) {
	r := NewRouter(Options{CacheSize: -1})
	// The end point sits in a pocket fully walled in by intermediate shapes,
	// so only the endpoint-only retry can reach it.
	walls := []Rect{
		{180, -100, 20, 220},
		{380, -100, 20, 220},
		{180, -100, 220, 20},
		{180, 100, 220, 20},
	}
	start, end := Pt(0, 0), Pt(290, 0)
	pts := r.Route(start, end, Right, Left, nil, nil, 0, walls)
	requireValidRoute(t, pts, start, end)
}

func TestFallbackRoute_Shapes(t *testing.T) {
	tests := []struct {
		name       string
		sd, ed     Direction
		start, end Point
		wantBends  int
	}{
		{"same axis S-bend", Right, Left, Pt(0, 0), Pt(200, 100), 2},
		{"vertical S-bend", Down, Up, Pt(0, 0), Pt(100, 200), 2},
		{"perpendicular L-bend", Right, Up, Pt(0, 0), Pt(200, 200), 1},
		{"perpendicular L-bend from vertical", Down, Left, Pt(0, 0), Pt(200, 200), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := fallbackRoute(
				endpoint{at: tt.start, dir: tt.sd},
				endpoint{at: tt.end, dir: tt.ed},
				DefaultStubLength,
			)
			requireValidRoute(t, pts, tt.start, tt.end)
			assert.Equal(t, tt.wantBends, bendCount(pts), "route %v", pts)
		})
	}
}

func TestRoute_RandomScenesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := NewRouter(Options{CacheSize: -1})
	dirs := []Direction{Up, Down, Left, Right}
	for i := 0; i < 150; i++ {
		start := Pt(float64(rng.Intn(600)), float64(rng.Intn(600)))
		end := Pt(float64(rng.Intn(600)), float64(rng.Intn(600)))
		if start == end {
			continue
		}
		var obstacles []Rect
		for j := rng.Intn(6); j > 0; j-- {
			obstacles = append(obstacles, Rect{
				Left:   float64(rng.Intn(600)),
				Top:    float64(rng.Intn(600)),
				Width:  float64(20 + rng.Intn(120)),
				Height: float64(20 + rng.Intn(120)),
			})
		}
		sd, ed := dirs[rng.Intn(4)], dirs[rng.Intn(4)]
		pts := r.Route(start, end, sd, ed, nil, nil, 0, obstacles)
		requireValidRoute(t, pts, start, end)
		for j := 2; j < len(pts); j++ {
			assert.False(t, collinear(pts[j-2], pts[j-1], pts[j]), "collinear run left in %v", pts)
		}
	}
}

func TestBetter_PrefersFewerBendsThenShorter(t *testing.T) {
	straight := []Point{{0, 0}, {100, 0}}
	elbow := []Point{{0, 0}, {0, 10}, {100, 10}}
	long := []Point{{0, 0}, {0, 50}, {100, 50}}
	assert.True(t, better(straight, nil))
	assert.True(t, better(straight, elbow))
	assert.False(t, better(elbow, straight))
	assert.True(t, better(elbow, long))
}

func TestRoute_CloseUnboundEndpointsStayStraight(t *testing.T) {
	r := NewRouter(DefaultOptions())
	assert.Equal(t, []float64{0, 0, 30, 0}, r.Points(Pt(0, 0), Pt(30, 0), nil, nil, nil, 0))
	assert.Equal(t, []float64{0, 0, 0, -10}, r.Points(Pt(0, 0), Pt(0, -10), nil, nil, nil, 0))
}

func TestRoute_CloseStackedShapes(t *testing.T) {
	r := NewRouter(Options{CacheSize: -1})
	for _, gap := range []float64{50, 30, 10} {
		top := testShape{id: "a", box: BBox{0, 0, 100, 50}}
		bottom := testShape{id: "b", box: BBox{0, 50 + gap, 100, 50}}
		sb := FaceBinding("a", Down, 0.5)
		eb := FaceBinding("b", Up, 0.5)

		flat := r.Points(Pt(50, 50), Pt(50, 50+gap), &sb, &eb, []Shape{top, bottom}, 0)
		assert.Equal(t, []float64{0, 0, 0, gap}, flat, "gap %v", gap)
	}
}

func TestRoute_CloseFaceToFaceShapes(t *testing.T) {
	r := NewRouter(Options{CacheSize: -1})
	left := testShape{id: "l", box: BBox{0, 0, 50, 50}}
	right := testShape{id: "r", box: BBox{100, 0, 50, 50}}
	sb := FaceBinding("l", Right, 0.5)
	eb := FaceBinding("r", Left, 0.5)

	flat := r.Points(Pt(50, 25), Pt(100, 25), &sb, &eb, []Shape{left, right}, 0)
	assert.Equal(t, []float64{0, 0, 50, 0}, flat)
}

func TestRoute_CloseOffsetShapesMeetHalfway(t *testing.T) {
	r := NewRouter(Options{CacheSize: -1})
	top := testShape{id: "a", box: BBox{0, 0, 100, 50}}
	bottom := testShape{id: "b", box: BBox{40, 110, 100, 50}}
	sb := FaceBinding("a", Down, 0.5)
	eb := FaceBinding("b", Up, 0.5)
	start, end := Pt(50, 50), Pt(90, 110)

	pts := r.Route(start, end, Down, Up, rectPtr(top.box.Rect()), rectPtr(bottom.box.Rect()), 0, nil)
	requireValidRoute(t, pts, start, end)
	assert.Equal(t, []Point{{50, 50}, {50, 80}, {90, 80}, {90, 110}}, pts)
	requireAvoids(t, pts, top.box.Rect())
	requireAvoids(t, pts, bottom.box.Rect())

	flat := r.Points(start, end, &sb, &eb, []Shape{top, bottom}, 0)
	assert.Equal(t, []float64{0, 0, 0, 30, 40, 30, 40, 60}, flat)
}

func TestRoute_SubPixelOffsetStaysOrthogonal(t *testing.T) {
	r := NewRouter(Options{CacheSize: -1})
	start, end := Pt(0, 0), Pt(200, 0.3)
	pts := r.Route(start, end, Right, Left, nil, nil, 0, nil)
	requireValidRoute(t, pts, start, end)
}

func TestRoute_RandomFractionalScenesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	r := NewRouter(Options{CacheSize: -1})
	dirs := []Direction{Up, Down, Left, Right}
	for i := 0; i < 150; i++ {
		start := Pt(rng.Float64()*600, rng.Float64()*600)
		end := Pt(start.X+rng.Float64()*2-1, rng.Float64()*600)
		if i%2 == 0 {
			end = Pt(rng.Float64()*600, start.Y+rng.Float64()-0.5)
		}
		var obstacles []Rect
		for j := rng.Intn(4); j > 0; j-- {
			obstacles = append(obstacles, Rect{
				Left:   rng.Float64() * 600,
				Top:    rng.Float64() * 600,
				Width:  20 + rng.Float64()*100,
				Height: 20 + rng.Float64()*100,
			})
		}
		sd, ed := dirs[rng.Intn(4)], dirs[rng.Intn(4)]
		pts := r.Route(start, end, sd, ed, nil, nil, 0, obstacles)
		requireValidRoute(t, pts, start, end)
	}
}

func TestRoute_RelaxedCorridorWins(t *testing.T) {
	r := NewRouter(Options{Clearance: 40, StubLength: 36, ExitFaceMargin: 10, CacheSize: -1})
	// The end shape is entered from the top but faces the start point with
	// its left side. Only the narrower relaxed margin on that side leaves
	// room between it and the wall.
	start := endpoint{at: Pt(0, 150), dir: Right}
	end := endpoint{at: Pt(250, 100), dir: Up, box: rectPtr(Rect{200, 100, 100, 100})}
	wall := []Rect{{100, -500, 40, 560}}

	sets := r.opts.obstacleSets(start, end, wall)
	require.Len(t, sets, 2)
	assert.Equal(t, "standard", sets[0].name)
	assert.Equal(t, "relaxed", sets[1].name)
	assert.Equal(t, 160.0, sets[0].rects[0].Left)
	assert.Equal(t, 190.0, sets[1].rects[0].Left)

	std := r.runPipeline(start, end, 36, sets[0])
	relaxed := r.runPipeline(start, end, 36, sets[1])
	require.NotNil(t, relaxed)
	requireValidRoute(t, relaxed, start.at, end.at)
	assert.Equal(t, 3, bendCount(relaxed), "route %v", relaxed)
	if std != nil {
		assert.True(t, better(relaxed, std), "relaxed %v standard %v", relaxed, std)
	}
	assert.Equal(t, relaxed, r.compute(start, end, 36, wall))
}

func TestObstacleSets_SingleWhenFacingFaceIsExit(t *testing.T) {
	opts := DefaultOptions()
	start := endpoint{at: Pt(50, 50), dir: Down, box: rectPtr(Rect{0, 0, 100, 50})}
	end := endpoint{at: Pt(50, 200), dir: Up, box: rectPtr(Rect{0, 200, 100, 50})}
	sets := opts.obstacleSets(start, end, []Rect{{300, 300, 10, 10}})
	require.Len(t, sets, 1)
	require.Len(t, sets[0].rects, 3)
	assert.Equal(t, Rect{280, 280, 50, 50}, sets[0].rects[2], "intermediates inflate uniformly")
	assert.Equal(t, Rect{-20, -20, 140, 95}, sets[0].rects[0], "exit face gets the narrow margin")

	only := opts.endpointOnlySet(start, end)
	assert.Len(t, only.rects, 2)
}

func TestAntenna(t *testing.T) {
	far := endpoint{at: Pt(0, 1000)}

	t.Run("projects by the stub", func(t *testing.T) {
		ep := endpoint{at: Pt(0, 0), dir: Right}
		assert.Equal(t, Pt(36, 0), antenna(ep, far, 36, nil))
	})

	t.Run("pushed out of an obstacle face by face", func(t *testing.T) {
		ep := endpoint{at: Pt(0, 0), dir: Right}
		obstacles := []Rect{{20, -10, 30, 20}, {45, -10, 25, 20}}
		assert.Equal(t, Pt(70, 0), antenna(ep, far, 36, obstacles))
	})

	t.Run("never pushed through the target", func(t *testing.T) {
		ep := endpoint{at: Pt(0, 0), dir: Right}
		target := endpoint{at: Pt(200, 0), dir: Left}
		wall := Rect{20, -50, 300, 100}
		assert.Equal(t, Pt(36, 0), antenna(ep, target, 36, []Rect{wall}))
	})

	t.Run("stub shrinks when the target is close", func(t *testing.T) {
		ep := endpoint{at: Pt(0, 0), dir: Down}
		target := endpoint{at: Pt(10, 40), dir: Up}
		assert.Equal(t, Pt(0, 20), antenna(ep, target, 36, nil))
		assert.Equal(t, 36.0, stubFor(ep, endpoint{at: Pt(0, -40)}, 36), "target behind keeps the stub")
	})

	t.Run("push is bounded", func(t *testing.T) {
		ep := endpoint{at: Pt(0, 0), dir: Right}
		var obstacles []Rect
		for i := 0; i < maxAntennaPush+4; i++ {
			// Listed far to near so each pass clears only one.
			x := float64(maxAntennaPush+3-i) * 20
			obstacles = append(obstacles, Rect{x + 10, -5, 30, 10})
		}
		p := antenna(ep, far, 36, obstacles)
		assert.Equal(t, Pt(20*maxAntennaPush+40, 0), p)
		assert.True(t, insideAny(p, obstacles), "stops while still inside")
	})
}

func TestRelevantObstacles(t *testing.T) {
	shapes := []Shape{
		testShape{id: "near", box: BBox{100, 0, 50, 50}},
		testShape{id: "far", box: BBox{5000, 5000, 50, 50}},
		testShape{id: "hidden", box: BBox{120, 20, 50, 50}, hidden: true},
		testShape{id: "flat", box: BBox{150, 10, 0, 40}},
		testShape{id: "bound", box: BBox{0, 0, 40, 40}},
		testShape{id: "edge", box: BBox{-240, 0, 20, 20}},
	}
	got := RelevantObstacles(shapes, Pt(40, 20), Pt(300, 20), map[string]bool{"bound": true}, 200)
	assert.Equal(t, []Rect{{100, 0, 50, 50}}, got)

	// Widening the margin brings the left shape into range.
	got = RelevantObstacles(shapes, Pt(40, 20), Pt(300, 20), map[string]bool{"bound": true}, 300)
	assert.Equal(t, []Rect{{100, 0, 50, 50}, {-240, 0, 20, 20}}, got)
}
