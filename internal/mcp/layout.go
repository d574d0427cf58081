package mcpserver

import (
	"math"

	"whiteboard/internal/domain"
	"whiteboard/internal/elbow"
)

const (
	GridSize = 20.0
	Padding  = 40.0 // keeps connectors room to route between neighbors
	MaxRowW  = 1600.0
)

// LayoutEngine handles automatic placement of elements on the canvas
// so that MCP-created elements don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

func intersects(a, b elbow.Rect) bool {
	return a.Left < b.Right() && a.Right() > b.Left &&
		a.Top < b.Bottom() && a.Bottom() > b.Top
}

// NextPosition finds the next non-overlapping grid position for an element
// of size (newW, newH). Only obstacles are considered occupied.
func (le *LayoutEngine) NextPosition(existing []domain.Element, newW, newH float64) (float64, float64) {
	var occupied []elbow.Rect
	for _, e := range existing {
		if !e.IsObstacle() {
			continue
		}
		r := e.BoundingBox().Rect()
		occupied = append(occupied, elbow.Rect{
			Left:   r.Left - le.padding,
			Top:    r.Top - le.padding,
			Width:  r.Width + le.padding*2,
			Height: r.Height + le.padding*2,
		})
	}
	if len(occupied) == 0 {
		return 0, 0
	}

	// Scan rows top-to-bottom, columns left-to-right
	candidate := elbow.Rect{Width: newW, Height: newH}
	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x < le.maxRowW; x += le.gridSize {
			candidate.Left = le.snap(x)
			candidate.Top = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				if intersects(candidate, occ) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return candidate.Left, candidate.Top
			}
		}
	}

	// Fallback: place below everything
	maxY := 0.0
	for _, occ := range occupied {
		maxY = math.Max(maxY, occ.Bottom())
	}
	return 0, le.snap(maxY)
}

// ArrangeGroup places elements in rows starting from (startX, startY),
// wrapping at the maximum row width. Positions are updated in place.
func (le *LayoutEngine) ArrangeGroup(elements []domain.Element, startX, startY float64) []domain.Element {
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	for i := range elements {
		if i > 0 && x+elements[i].Width > le.snap(startX)+le.maxRowW {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		elements[i].X = x
		elements[i].Y = y
		rowHeight = math.Max(rowHeight, elements[i].Height)
		x += le.snap(elements[i].Width + le.padding)
	}
	return elements
}
