package worker

import (
	"errors"

	"whiteboard/internal/domain"
	"whiteboard/internal/elbow"
)

// Message types exchanged with a route worker.
const (
	TypeComputeRoute   = "computeRoute"
	TypeRouteResult    = "routeResult"
	TypeUpdateElements = "updateElements"
	TypeClearCache     = "clearCache"
	TypeError          = "error"
)

// ErrUnknownMessage is returned for a message type the worker does not handle.
var ErrUnknownMessage = errors.New("unknown message type")

// RouteParams is the payload of a computeRoute request.
type RouteParams struct {
	StartWorld    elbow.Point    `json:"startWorld"`
	EndWorld      elbow.Point    `json:"endWorld"`
	StartBinding  *elbow.Binding `json:"startBinding,omitempty"`
	EndBinding    *elbow.Binding `json:"endBinding,omitempty"`
	MinStubLength float64        `json:"minStubLength,omitempty"`
}

// Message is the single envelope for every direction of the protocol.
// Only the fields relevant to Type are set.
type Message struct {
	Type      string           `json:"type"`
	RequestID string           `json:"requestId,omitempty"`
	Params    *RouteParams     `json:"params,omitempty"`
	Elements  []domain.Element `json:"elements,omitempty"`
	Points    []float64        `json:"points,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// ComputeRoute builds a computeRoute request.
func ComputeRoute(requestID string, p RouteParams) Message {
	return Message{Type: TypeComputeRoute, RequestID: requestID, Params: &p}
}

// UpdateElements builds an updateElements message.
func UpdateElements(elements []domain.Element) Message {
	return Message{Type: TypeUpdateElements, Elements: elements}
}
