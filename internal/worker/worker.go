package worker

import (
	"fmt"

	"whiteboard/internal/domain"
	"whiteboard/internal/elbow"
)

// Worker owns a private router and element snapshot. It is not safe for
// concurrent use; give each goroutine its own Worker.
type Worker struct {
	router   *elbow.Router
	elements []domain.Element
	shapes   []elbow.Shape
}

// New creates a Worker with its own route cache.
func New(opts elbow.Options) *Worker {
	return &Worker{router: elbow.NewRouter(opts)}
}

// SetElements replaces the snapshot with a copy of elements.
func (w *Worker) SetElements(elements []domain.Element) {
	w.elements = append([]domain.Element(nil), elements...)
	w.shapes = domain.Shapes(w.elements)
}

// Elements returns the number of elements in the snapshot.
func (w *Worker) Elements() int { return len(w.elements) }

// Compute routes p against the current snapshot.
func (w *Worker) Compute(p RouteParams) []float64 {
	return w.router.Points(p.StartWorld, p.EndWorld, p.StartBinding, p.EndBinding, w.shapes, p.MinStubLength)
}

func (w *Worker) CacheStats() elbow.CacheStats { return w.router.CacheStats() }

// Handle applies one message and returns the reply, if the message
// expects one.
func (w *Worker) Handle(msg Message) (*Message, error) {
	switch msg.Type {
	case TypeComputeRoute:
		if msg.Params == nil {
			return nil, fmt.Errorf("computeRoute %s: missing params", msg.RequestID)
		}
		return &Message{
			Type:      TypeRouteResult,
			RequestID: msg.RequestID,
			Points:    w.Compute(*msg.Params),
		}, nil
	case TypeUpdateElements:
		w.SetElements(msg.Elements)
		return nil, nil
	case TypeClearCache:
		w.router.ClearCache()
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}
