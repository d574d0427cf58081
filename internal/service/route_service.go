package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cdr.dev/slog"
	"github.com/google/uuid"

	"whiteboard/internal/dbclient"
	"whiteboard/internal/domain"
	"whiteboard/internal/elbow"
	"whiteboard/internal/log"
	"whiteboard/internal/worker"
)

// ─────────────────────────────────────────────────────────────
// Route Service — connector routing over the current page snapshot
// ─────────────────────────────────────────────────────────────

// ErrElementNotFound is returned when a connector references an element
// missing from the snapshot.
var ErrElementNotFound = errors.New("element not found")

// RouterSettings persists router options between runs.
type RouterSettings interface {
	LoadRouterOptions(fallback elbow.Options) (elbow.Options, error)
	SaveRouterOptions(opts elbow.Options) error
}

// RouteService owns the router and the element snapshot of one page.
// Stores and settings are optional; without them the service is purely
// in-memory.
type RouteService struct {
	mu       sync.RWMutex
	router   *elbow.Router
	pageID   string
	elements []domain.Element
	shapes   []elbow.Shape
	watchers []func([]domain.Element)

	elementStore   domain.ElementStore
	connectorStore domain.ConnectorStore
	settings       RouterSettings
	emitter        EventEmitter
	imports        runningJobsGuard
}

// NewRouteService creates a RouteService. When settings is non-nil the
// saved router options override opts.
func NewRouteService(
	opts elbow.Options,
	elements domain.ElementStore,
	connectors domain.ConnectorStore,
	settings RouterSettings,
	emitter EventEmitter,
) (*RouteService, error) {
	if settings != nil {
		saved, err := settings.LoadRouterOptions(opts)
		if err != nil {
			return nil, fmt.Errorf("load router options: %w", err)
		}
		opts = saved
	}
	if emitter == nil {
		emitter = LogEmitter{}
	}
	return &RouteService{
		router:         elbow.NewRouter(opts),
		pageID:         "default",
		elementStore:   elements,
		connectorStore: connectors,
		settings:       settings,
		emitter:        emitter,
	}, nil
}

// Options returns the options the router runs with.
func (s *RouteService) Options() elbow.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router.Options()
}

// SetOptions swaps in a new router (and an empty cache) and persists opts.
func (s *RouteService) SetOptions(ctx context.Context, opts elbow.Options) error {
	r := elbow.NewRouter(opts)
	if s.settings != nil {
		if err := s.settings.SaveRouterOptions(r.Options()); err != nil {
			return fmt.Errorf("save router options: %w", err)
		}
	}
	s.mu.Lock()
	s.router = r
	s.mu.Unlock()
	log.Info(ctx, "router options updated", slog.F("options", r.Options()))
	s.emitter.Emit(ctx, EventCacheCleared, r.CacheStats())
	return nil
}

// ── Snapshot ───────────────────────────────────────────────

// subscribe registers fn to receive a copy of every new snapshot.
func (s *RouteService) subscribe(fn func([]domain.Element)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// UpdateElements replaces the element snapshot with a copy of elements.
// Cached routes stay valid: their keys fingerprint the geometry they
// were computed against.
func (s *RouteService) UpdateElements(ctx context.Context, elements []domain.Element) {
	snapshot := append([]domain.Element(nil), elements...)
	s.mu.Lock()
	s.elements = snapshot
	s.shapes = domain.Shapes(snapshot)
	watchers := append([]func([]domain.Element){}, s.watchers...)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(append([]domain.Element(nil), snapshot...))
	}
	log.Debug(ctx, "elements updated", slog.F("count", len(snapshot)))
	s.emitter.Emit(ctx, EventElementsUpdated, len(snapshot))
}

// Elements returns a copy of the current snapshot.
func (s *RouteService) Elements() []domain.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Element(nil), s.elements...)
}

func (s *RouteService) PageID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageID
}

func (s *RouteService) element(id string) (domain.Element, bool) {
	for _, e := range s.elements {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Element{}, false
}

// ── Routing ────────────────────────────────────────────────

// ComputePoints routes one connector against the snapshot and returns the
// flat point array relative to the start point.
func (s *RouteService) ComputePoints(ctx context.Context, p worker.RouteParams) []float64 {
	s.mu.RLock()
	r, shapes := s.router, s.shapes
	s.mu.RUnlock()

	pts := r.Points(p.StartWorld, p.EndWorld, p.StartBinding, p.EndBinding, shapes, p.MinStubLength)
	s.emitter.Emit(ctx, EventRouteComputed, len(pts)/2)
	return pts
}

// RouteInput is the low-level routing request with directions resolved.
type RouteInput struct {
	Start        elbow.Point     `json:"start"`
	End          elbow.Point     `json:"end"`
	StartDir     elbow.Direction `json:"startDir"`
	EndDir       elbow.Direction `json:"endDir"`
	StartBox     *elbow.Rect     `json:"startBox,omitempty"`
	EndBox       *elbow.Rect     `json:"endBox,omitempty"`
	MinStub      float64         `json:"minStub,omitempty"`
	Intermediate []elbow.Rect    `json:"obstacles,omitempty"`
}

// ComputeRoute runs the low-level router and returns absolute points.
func (s *RouteService) ComputeRoute(ctx context.Context, in RouteInput) []elbow.Point {
	s.mu.RLock()
	r := s.router
	s.mu.RUnlock()

	pts := r.Route(in.Start, in.End, in.StartDir, in.EndDir, in.StartBox, in.EndBox, in.MinStub, in.Intermediate)
	s.emitter.Emit(ctx, EventRouteComputed, len(pts))
	return pts
}

func (s *RouteService) ClearCache(ctx context.Context) {
	s.mu.RLock()
	r := s.router
	s.mu.RUnlock()

	r.ClearCache()
	log.Debug(ctx, "route cache cleared")
	s.emitter.Emit(ctx, EventCacheCleared, r.CacheStats())
}

func (s *RouteService) CacheStats() elbow.CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router.CacheStats()
}

// ── Connectors ─────────────────────────────────────────────

// ConnectInput describes a connector between two snapshot elements.
type ConnectInput struct {
	FromID      string  `json:"fromId"`
	ToID        string  `json:"toId"`
	Color       string  `json:"color,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Connect creates an elbow connector between two elements. Both ends bind
// to the facing sides; connectors already on a side are spread along it.
// The connector is saved when a connector store is configured.
func (s *RouteService) Connect(ctx context.Context, in ConnectInput) (*domain.Connector, error) {
	s.mu.RLock()
	from, okFrom := s.element(in.FromID)
	to, okTo := s.element(in.ToID)
	pageID := s.pageID
	s.mu.RUnlock()
	if !okFrom {
		return nil, fmt.Errorf("connect from %s: %w", in.FromID, ErrElementNotFound)
	}
	if !okTo {
		return nil, fmt.Errorf("connect to %s: %w", in.ToID, ErrElementNotFound)
	}

	fromBox, toBox := from.BoundingBox(), to.BoundingBox()
	fromSide, toSide := elbow.FacingSides(fromBox, toBox)
	fromSlot, toSlot, err := s.slots(pageID, from.ID, fromSide, to.ID, toSide)
	if err != nil {
		return nil, err
	}

	c := &domain.Connector{
		ID:          uuid.NewString(),
		PageID:      pageID,
		Start:       elbow.AnchorPoint(fromBox, fromSide, fromSlot),
		End:         elbow.AnchorPoint(toBox, toSide, toSlot),
		StartBind:   elbow.FaceBinding(from.ID, fromSide, fromSlot),
		EndBind:     elbow.FaceBinding(to.ID, toSide, toSlot),
		Color:       in.Color,
		StrokeWidth: in.StrokeWidth,
	}
	c.ApplyDefaults()
	c.Points = s.ComputePoints(ctx, worker.RouteParams{
		StartWorld:   c.Start,
		EndWorld:     c.End,
		StartBinding: &c.StartBind,
		EndBinding:   &c.EndBind,
	})

	if s.connectorStore != nil {
		if err := s.connectorStore.CreateConnector(c); err != nil {
			return nil, fmt.Errorf("save connector: %w", err)
		}
	}
	log.Info(ctx, "connector created", slog.F("id", c.ID), slog.F("from", from.ID), slog.F("to", to.ID))
	return c, nil
}

// slots counts the stored connectors already leaving each side and returns
// the fraction along the side for the next one.
func (s *RouteService) slots(pageID, fromID string, fromSide elbow.Direction, toID string, toSide elbow.Direction) (float64, float64, error) {
	if s.connectorStore == nil {
		return elbow.SlotFraction(0), elbow.SlotFraction(0), nil
	}
	existing, err := s.connectorStore.ListConnectors(pageID)
	if err != nil {
		return 0, 0, fmt.Errorf("list connectors: %w", err)
	}
	count := func(id string, side elbow.Direction) int {
		n := 0
		for _, c := range existing {
			for _, b := range []elbow.Binding{c.StartBind, c.EndBind} {
				if b.ElementID == id && !b.IsCenter() && sideOf(b) == side {
					n++
				}
			}
		}
		return n
	}
	return elbow.SlotFraction(count(fromID, fromSide)), elbow.SlotFraction(count(toID, toSide)), nil
}

// sideOf resolves the face of a precise binding.
func sideOf(b elbow.Binding) elbow.Direction {
	return elbow.ResolveDirection(elbow.Point{}, elbow.Point{}, &b, &elbow.BBox{Width: 1, Height: 1})
}

// RerouteConnectors recomputes every stored connector of the current page
// against the snapshot, moving bound ends with their elements.
func (s *RouteService) RerouteConnectors(ctx context.Context) (int, error) {
	if s.connectorStore == nil {
		return 0, nil
	}
	pageID := s.PageID()
	conns, err := s.connectorStore.ListConnectors(pageID)
	if err != nil {
		return 0, fmt.Errorf("list connectors: %w", err)
	}
	n := 0
	for i := range conns {
		c := &conns[i]
		s.mu.RLock()
		from, okFrom := s.element(c.StartBind.ElementID)
		to, okTo := s.element(c.EndBind.ElementID)
		s.mu.RUnlock()
		if okFrom {
			c.Start = boundPoint(from, c.StartBind)
		}
		if okTo {
			c.End = boundPoint(to, c.EndBind)
		}
		c.Points = s.ComputePoints(ctx, worker.RouteParams{
			StartWorld:   c.Start,
			EndWorld:     c.End,
			StartBinding: &c.StartBind,
			EndBinding:   &c.EndBind,
		})
		if err := s.connectorStore.UpdateConnector(c); err != nil {
			return n, fmt.Errorf("update connector %s: %w", c.ID, err)
		}
		n++
	}
	log.Debug(ctx, "connectors rerouted", slog.F("page", pageID), slog.F("count", n))
	return n, nil
}

// boundPoint is the world position of a binding's fixed point on e.
func boundPoint(e domain.Element, b elbow.Binding) elbow.Point {
	box := e.BoundingBox()
	if b.IsCenter() {
		return box.Rect().Center()
	}
	return elbow.Pt(box.X+box.Width*b.FixedPoint[0], box.Y+box.Height*b.FixedPoint[1])
}

// ── Persistence ────────────────────────────────────────────

// LoadPage makes pageID current and loads its snapshot from the store.
func (s *RouteService) LoadPage(ctx context.Context, pageID string) error {
	if s.elementStore == nil {
		return errors.New("load page: no element store")
	}
	els, err := s.elementStore.ListElements(pageID)
	if err != nil {
		return fmt.Errorf("load page %s: %w", pageID, err)
	}
	s.mu.Lock()
	s.pageID = pageID
	s.mu.Unlock()
	s.UpdateElements(ctx, els)
	s.ClearCache(ctx)
	log.Info(ctx, "page loaded", slog.F("page", pageID), slog.F("elements", len(els)))
	return nil
}

// SavePage writes the snapshot to the store under the current page.
func (s *RouteService) SavePage(ctx context.Context) error {
	if s.elementStore == nil {
		return errors.New("save page: no element store")
	}
	s.mu.RLock()
	pageID := s.pageID
	els := append([]domain.Element(nil), s.elements...)
	s.mu.RUnlock()
	for i := range els {
		els[i].PageID = pageID
	}
	if err := s.elementStore.ReplacePageElements(pageID, els); err != nil {
		return fmt.Errorf("save page %s: %w", pageID, err)
	}
	return nil
}

// PageState returns the snapshot and stored connectors of the current page.
func (s *RouteService) PageState(ctx context.Context) (*domain.PageState, error) {
	st := &domain.PageState{PageID: s.PageID(), Elements: s.Elements()}
	if s.connectorStore != nil {
		conns, err := s.connectorStore.ListConnectors(st.PageID)
		if err != nil {
			return nil, fmt.Errorf("list connectors: %w", err)
		}
		st.Connectors = conns
	}
	return st, nil
}

// ImportFrom loads elements from an external source into pageID, replacing
// the snapshot, and saves them when a store is configured. Concurrent
// imports into the same page are rejected.
func (s *RouteService) ImportFrom(ctx context.Context, src dbclient.Source, pageID string) (int, error) {
	if !s.imports.TryLock(pageID) {
		return 0, fmt.Errorf("import into %s already running", pageID)
	}
	defer s.imports.Unlock(pageID)

	if err := src.TestConnection(ctx); err != nil {
		return 0, fmt.Errorf("test connection: %w", err)
	}
	els, err := src.LoadElements(ctx)
	if err != nil {
		return 0, fmt.Errorf("load elements: %w", err)
	}
	for i := range els {
		els[i].PageID = pageID
	}

	s.mu.Lock()
	s.pageID = pageID
	s.mu.Unlock()
	s.UpdateElements(ctx, els)
	s.ClearCache(ctx)

	if s.elementStore != nil {
		if err := s.SavePage(ctx); err != nil {
			return 0, err
		}
	}
	log.Info(ctx, "elements imported", slog.F("page", pageID), slog.F("count", len(els)))
	return len(els), nil
}

// WaitImports blocks until running imports finish or ctx is cancelled.
func (s *RouteService) WaitImports(ctx context.Context) {
	s.imports.WaitAll(ctx)
}
