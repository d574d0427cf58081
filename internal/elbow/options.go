package elbow

// Default visual constants. The stub must stay longer than the exit-face
// margin so the antenna point lands outside its own shape's inflated box.
const (
	DefaultClearance       = 20.0
	DefaultStubLength      = 36.0
	DefaultExitFaceMargin  = 25.0
	DefaultBendPenalty     = 1e6
	DefaultRelevanceMargin = 200.0
	DefaultBoundsMargin    = 40.0
	DefaultCacheSize       = 500
)

// Options tunes the router. Zero fields fall back to the defaults above.
type Options struct {
	// Clearance is the gap kept around every obstacle face.
	Clearance float64 `json:"clearance" yaml:"clearance"`
	// StubLength is how far a connector leaves its shape before it may turn.
	StubLength float64 `json:"stubLength" yaml:"stubLength"`
	// ExitFaceMargin replaces Clearance on the face a connector exits through.
	ExitFaceMargin float64 `json:"exitFaceMargin" yaml:"exitFaceMargin"`
	// BendPenalty is added to the search cost for every change of axis.
	BendPenalty float64 `json:"bendPenalty" yaml:"bendPenalty"`
	// RelevanceMargin expands the endpoints' span when picking intermediate obstacles.
	RelevanceMargin float64 `json:"relevanceMargin" yaml:"relevanceMargin"`
	// BoundsMargin expands the grid's outer frame.
	BoundsMargin float64 `json:"boundsMargin" yaml:"boundsMargin"`
	// CacheSize bounds the route cache; a negative value disables caching.
	CacheSize int `json:"cacheSize" yaml:"cacheSize"`
}

// DefaultOptions returns the stock router configuration.
func DefaultOptions() Options {
	return Options{
		Clearance:       DefaultClearance,
		StubLength:      DefaultStubLength,
		ExitFaceMargin:  DefaultExitFaceMargin,
		BendPenalty:     DefaultBendPenalty,
		RelevanceMargin: DefaultRelevanceMargin,
		BoundsMargin:    DefaultBoundsMargin,
		CacheSize:       DefaultCacheSize,
	}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.Clearance <= 0 {
		o.Clearance = d.Clearance
	}
	if o.StubLength <= 0 {
		o.StubLength = d.StubLength
	}
	if o.ExitFaceMargin <= 0 {
		o.ExitFaceMargin = d.ExitFaceMargin
	}
	if o.ExitFaceMargin >= o.StubLength {
		o.ExitFaceMargin = o.StubLength * DefaultExitFaceMargin / DefaultStubLength
	}
	if o.BendPenalty <= 0 {
		o.BendPenalty = d.BendPenalty
	}
	if o.RelevanceMargin <= 0 {
		o.RelevanceMargin = d.RelevanceMargin
	}
	if o.BoundsMargin <= 0 {
		o.BoundsMargin = d.BoundsMargin
	}
	if o.CacheSize == 0 {
		o.CacheSize = d.CacheSize
	}
	return o
}
