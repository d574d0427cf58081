package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"whiteboard/internal/elbow"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// requiredString returns a non-empty string argument or an error naming it.
func requiredString(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// optionalBinding decodes a binding argument given as a JSON string. An
// empty value means the endpoint is free.
func optionalBinding(args map[string]any, name string) (*elbow.Binding, error) {
	raw, _ := args[name].(string)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var b elbow.Binding
	if err := parseJSON(raw, &b); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if b.ElementID == "" {
		return nil, fmt.Errorf("%s: elementId is required", name)
	}
	return &b, nil
}

// optionalRect decodes a {left, top, width, height} argument.
func optionalRect(args map[string]any, name string) (*elbow.Rect, error) {
	raw, _ := args[name].(string)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var r elbow.Rect
	if err := parseJSON(raw, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &r, nil
}

func direction(args map[string]any, name string) (elbow.Direction, error) {
	raw, err := requiredString(args, name)
	if err != nil {
		return elbow.Right, err
	}
	d, err := elbow.ParseDirection(raw)
	if err != nil {
		return elbow.Right, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
