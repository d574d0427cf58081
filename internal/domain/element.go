package domain

import (
	"encoding/json"
	"time"

	"whiteboard/internal/elbow"
)

type ElementType string

const (
	ElementTypeRectangle ElementType = "rectangle"
	ElementTypeEllipse   ElementType = "ellipse"
	ElementTypeDiamond   ElementType = "diamond"
	ElementTypeText      ElementType = "text"
	ElementTypeImage     ElementType = "image"
	ElementTypeLine      ElementType = "line"
	ElementTypeArrow     ElementType = "arrow"
	ElementTypeFreedraw  ElementType = "freedraw"
)

// Connectable reports whether connectors may bind to, and route around,
// elements of this type. Lines, arrows and freehand strokes never block.
func (t ElementType) Connectable() bool {
	switch t {
	case ElementTypeRectangle, ElementTypeEllipse, ElementTypeDiamond, ElementTypeText, ElementTypeImage:
		return true
	}
	return false
}

// Element is one canvas element as seen by the router. Rotation is in
// radians around the element's center.
type Element struct {
	ID        string      `json:"id"`
	PageID    string      `json:"pageId,omitempty"`
	Type      ElementType `json:"type"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Rotation  float64     `json:"rotation"`
	Visible   bool        `json:"visible"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// UnmarshalJSON treats a missing "visible" field as visible.
func (e *Element) UnmarshalJSON(b []byte) error {
	type alias Element
	a := alias{Visible: true}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*e = Element(a)
	return nil
}

func (e Element) ShapeID() string { return e.ID }

// BoundingBox returns the axis-aligned box enclosing the rotated element.
func (e Element) BoundingBox() elbow.BBox {
	return elbow.RotatedBBox(e.X, e.Y, e.Width, e.Height, e.Rotation)
}

func (e Element) IsObstacle() bool { return e.Visible && e.Type.Connectable() }

// Shapes adapts a snapshot for the router.
func Shapes(elements []Element) []elbow.Shape {
	out := make([]elbow.Shape, len(elements))
	for i := range elements {
		out[i] = elements[i]
	}
	return out
}

type ElementStore interface {
	ReplacePageElements(pageID string, elements []Element) error
	GetElement(id string) (*Element, error)
	ListElements(pageID string) ([]Element, error)
	DeleteElementsByPage(pageID string) error
}
