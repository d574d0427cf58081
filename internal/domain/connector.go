package domain

import (
	"time"

	"whiteboard/internal/elbow"
)

// Connector is a stored elbow connector between two bound elements.
// Points are relative to Start, as returned by Router.Points.
type Connector struct {
	ID          string        `json:"id"`
	PageID      string        `json:"pageId"`
	Start       elbow.Point   `json:"start"`
	End         elbow.Point   `json:"end"`
	StartBind   elbow.Binding `json:"startBinding"`
	EndBind     elbow.Binding `json:"endBinding"`
	Points      []float64     `json:"points"`
	Color       string        `json:"color"`
	StrokeWidth float64       `json:"strokeWidth"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Connector style defaults, mirrored by the column defaults.
const (
	DefaultConnectorColor       = "#666666"
	DefaultConnectorStrokeWidth = 2.0
)

// ApplyDefaults fills unset style fields.
func (c *Connector) ApplyDefaults() {
	if c.Color == "" {
		c.Color = DefaultConnectorColor
	}
	if c.StrokeWidth <= 0 {
		c.StrokeWidth = DefaultConnectorStrokeWidth
	}
}

type ConnectorStore interface {
	CreateConnector(c *Connector) error
	GetConnector(id string) (*Connector, error)
	ListConnectors(pageID string) ([]Connector, error)
	UpdateConnector(c *Connector) error
	DeleteConnector(id string) error
	DeleteConnectorsByPage(pageID string) error
	DeleteConnectorsByElement(elementID string) error
}
