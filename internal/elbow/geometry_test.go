package elbow

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection_OppositeAndAxis(t *testing.T) {
	pairs := map[Direction]Direction{Up: Down, Down: Up, Left: Right, Right: Left}
	for d, want := range pairs {
		assert.Equal(t, want, d.Opposite(), d.String())
		assert.Equal(t, d, d.Opposite().Opposite())
	}
	assert.True(t, Up.Vertical())
	assert.True(t, Down.Vertical())
	assert.False(t, Left.Vertical())
	assert.Equal(t, dirNone, dirNone.Opposite())
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"up", Up, false},
		{"top", Up, false},
		{"bottom", Down, false},
		{"left", Left, false},
		{"right", Right, false},
		{"diagonal", dirNone, true},
		{"", dirNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirection_JSON(t *testing.T) {
	type wrapper struct {
		D Direction `json:"d"`
	}
	b, err := json.Marshal(wrapper{D: Left})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"left"}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":"top"}`), &w))
	assert.Equal(t, Up, w.D)
	assert.Error(t, json.Unmarshal([]byte(`{"d":"sideways"}`), &w))
}

func TestRect_Inflate(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Width: 100, Height: 50}
	got := r.inflate(1, 2, 3, 4)
	assert.Equal(t, Rect{Left: 6, Top: 19, Width: 106, Height: 54}, got)

	var m [numDirs]float64
	m[Up], m[Down], m[Left], m[Right] = 5, 5, 5, 9
	assert.Equal(t, Rect{Left: 5, Top: 15, Width: 114, Height: 60}, r.inflateFaces(m))
}

func TestRect_ContainsStrict(t *testing.T) {
	r := Rect{0, 0, 100, 100}
	assert.True(t, r.containsStrict(Pt(50, 50)))
	assert.False(t, r.containsStrict(Pt(0, 50)), "left edge")
	assert.False(t, r.containsStrict(Pt(100, 100)), "corner")
	assert.False(t, r.containsStrict(Pt(150, 50)))
}

func TestRect_SegmentCrosses(t *testing.T) {
	r := Rect{100, -50, 100, 100}
	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"through the middle", Pt(0, 0), Pt(300, 0), true},
		{"along top edge", Pt(0, -50), Pt(300, -50), false},
		{"along left edge", Pt(100, -100), Pt(100, 100), false},
		{"stops at edge", Pt(0, 0), Pt(100, 0), false},
		{"starts inside", Pt(150, 0), Pt(150, 200), true},
		{"passes above", Pt(0, -60), Pt(300, -60), false},
		{"vertical through", Pt(150, -200), Pt(150, 200), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.segmentCrosses(tt.a, tt.b))
		})
	}
}

func TestRotatedBBox(t *testing.T) {
	assert.Equal(t, BBox{0, 0, 100, 50}, RotatedBBox(0, 0, 100, 50, 0))

	got := RotatedBBox(0, 0, 100, 50, math.Pi/2)
	assert.InDelta(t, 25, got.X, 1e-9)
	assert.InDelta(t, -25, got.Y, 1e-9)
	assert.InDelta(t, 50, got.Width, 1e-9)
	assert.InDelta(t, 100, got.Height, 1e-9)

	sq := RotatedBBox(0, 0, 100, 100, math.Pi/4)
	assert.InDelta(t, 100*math.Sqrt2, sq.Width, 1e-9)
	assert.InDelta(t, 50, sq.X+sq.Width/2, 1e-9, "center is preserved")
}

func TestResolveDirection(t *testing.T) {
	box := &BBox{0, 0, 100, 100}
	center := &Binding{ElementID: "a"}

	t.Run("unbound follows dominant axis", func(t *testing.T) {
		assert.Equal(t, Right, ResolveDirection(Pt(0, 0), Pt(100, 100), nil, nil), "tie goes horizontal")
		assert.Equal(t, Up, ResolveDirection(Pt(0, 0), Pt(10, -100), nil, nil))
		assert.Equal(t, Left, ResolveDirection(Pt(0, 0), Pt(-100, 10), nil, nil))
	})

	t.Run("precise binding uses nearest face", func(t *testing.T) {
		for d, fp := range map[Direction][2]float64{
			Up:    {0.4, 0.02},
			Down:  {0.6, 0.97},
			Left:  {0.01, 0.3},
			Right: {1, 0.7},
		} {
			b := &Binding{ElementID: "a", FixedPoint: fp, IsPrecise: true}
			assert.Equal(t, d, ResolveDirection(Pt(0, 0), Pt(500, 500), b, box), "fixed point %v", fp)
		}
	})

	t.Run("precise near center behaves like center", func(t *testing.T) {
		b := &Binding{ElementID: "a", FixedPoint: [2]float64{0.52, 0.49}, IsPrecise: true}
		assert.True(t, b.IsCenter())
		assert.Equal(t, Down, ResolveDirection(Pt(50, 50), Pt(150, 250), b, box))
	})

	t.Run("center binding prefers vertical", func(t *testing.T) {
		// Diagonal target: vertical wins unless horizontal dominates 3:1.
		assert.Equal(t, Down, ResolveDirection(Pt(50, 50), Pt(250, 150), center, box))
		assert.Equal(t, Right, ResolveDirection(Pt(50, 50), Pt(450, 60), center, box))
		assert.Equal(t, Left, ResolveDirection(Pt(50, 50), Pt(-400, 40), center, box))
		assert.Equal(t, Up, ResolveDirection(Pt(50, 50), Pt(60, -300), center, box))
	})

	t.Run("missing shape falls back to dominant axis", func(t *testing.T) {
		assert.Equal(t, Right, ResolveDirection(Pt(0, 0), Pt(200, 100), center, nil))
	})
}

func TestAnchorHelpers(t *testing.T) {
	box := BBox{10, 20, 100, 40}
	assert.Equal(t, Pt(60, 20), AnchorPoint(box, Up, 0.5))
	assert.Equal(t, Pt(110, 50), AnchorPoint(box, Right, 0.75))
	assert.Equal(t, Pt(10, 30), AnchorPoint(box, Left, 0.25))
	assert.Equal(t, Pt(35, 60), AnchorPoint(box, Down, 0.25))

	from, to := FacingSides(BBox{0, 0, 50, 50}, BBox{0, 300, 50, 50})
	assert.Equal(t, Down, from)
	assert.Equal(t, Up, to)

	b := FaceBinding("x", Left, 0.5)
	assert.Equal(t, [2]float64{0, 0.5}, b.FixedPoint)
	assert.Equal(t, Left, nearestFace(b.FixedPoint))
	assert.False(t, b.IsCenter())

	assert.Equal(t, 0.5, SlotFraction(0))
	assert.InDelta(t, 2.0/3.0, SlotFraction(1), 1e-12)
	assert.Equal(t, 0.5, SlotFraction(-3))
}

func TestOptions_Normalize(t *testing.T) {
	got := Options{}.normalize()
	assert.Equal(t, DefaultOptions(), got)

	custom := Options{StubLength: 18, ExitFaceMargin: 30}.normalize()
	assert.Less(t, custom.ExitFaceMargin, custom.StubLength)
	assert.InDelta(t, 12.5, custom.ExitFaceMargin, 1e-9)

	disabled := Options{CacheSize: -1}.normalize()
	assert.Equal(t, -1, disabled.CacheSize)
	assert.Nil(t, NewRouter(disabled).cache)
}
