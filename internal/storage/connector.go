package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"whiteboard/internal/domain"
	"whiteboard/internal/elbow"
)

// ConnectorStore implements domain.ConnectorStore using SQLite. Endpoints,
// bindings and points are stored as JSON columns.
type ConnectorStore struct {
	db *DB
}

func NewConnectorStore(db *DB) *ConnectorStore {
	return &ConnectorStore{db: db}
}

// connectorEnd is the JSON shape of one connector end.
type connectorEnd struct {
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	Binding elbow.Binding `json:"binding"`
}

const connectorColumns = `id, page_id, start_json, end_json, points_json, color, stroke_width, created_at, updated_at`

func encodeConnector(c *domain.Connector) (start, end, points string, err error) {
	sb, err := json.Marshal(connectorEnd{c.Start.X, c.Start.Y, c.StartBind})
	if err != nil {
		return "", "", "", fmt.Errorf("encode start: %w", err)
	}
	eb, err := json.Marshal(connectorEnd{c.End.X, c.End.Y, c.EndBind})
	if err != nil {
		return "", "", "", fmt.Errorf("encode end: %w", err)
	}
	pts := c.Points
	if pts == nil {
		pts = []float64{}
	}
	pb, err := json.Marshal(pts)
	if err != nil {
		return "", "", "", fmt.Errorf("encode points: %w", err)
	}
	return string(sb), string(eb), string(pb), nil
}

func scanConnector(row interface{ Scan(...any) error }) (*domain.Connector, error) {
	var (
		c                 domain.Connector
		start, end, point string
	)
	if err := row.Scan(&c.ID, &c.PageID, &start, &end, &point, &c.Color, &c.StrokeWidth, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	var se, ee connectorEnd
	if err := json.Unmarshal([]byte(start), &se); err != nil {
		return nil, fmt.Errorf("decode start of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(end), &ee); err != nil {
		return nil, fmt.Errorf("decode end of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(point), &c.Points); err != nil {
		return nil, fmt.Errorf("decode points of %s: %w", c.ID, err)
	}
	c.Start.X, c.Start.Y, c.StartBind = se.X, se.Y, se.Binding
	c.End.X, c.End.Y, c.EndBind = ee.X, ee.Y, ee.Binding
	return &c, nil
}

func (s *ConnectorStore) CreateConnector(c *domain.Connector) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.ApplyDefaults()
	start, end, points, err := encodeConnector(c)
	if err != nil {
		return err
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO connectors (id, page_id, start_element_id, end_element_id, start_json, end_json, points_json, color, stroke_width, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PageID, c.StartBind.ElementID, c.EndBind.ElementID, start, end, points, c.Color, c.StrokeWidth, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert connector: %w", err)
	}
	return nil
}

func (s *ConnectorStore) GetConnector(id string) (*domain.Connector, error) {
	c, err := scanConnector(s.db.Conn().QueryRow(`SELECT `+connectorColumns+` FROM connectors WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get connector %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get connector: %w", err)
	}
	return c, nil
}

func (s *ConnectorStore) ListConnectors(pageID string) ([]domain.Connector, error) {
	rows, err := s.db.Conn().Query(
		`SELECT `+connectorColumns+` FROM connectors WHERE page_id = ? ORDER BY created_at ASC, rowid ASC`,
		pageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Connector
	for rows.Next() {
		c, err := scanConnector(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *ConnectorStore) UpdateConnector(c *domain.Connector) error {
	c.UpdatedAt = time.Now()
	start, end, points, err := encodeConnector(c)
	if err != nil {
		return err
	}
	res, err := s.db.Conn().Exec(
		`UPDATE connectors SET start_element_id = ?, end_element_id = ?, start_json = ?, end_json = ?, points_json = ?, color = ?, stroke_width = ?, updated_at = ? WHERE id = ?`,
		c.StartBind.ElementID, c.EndBind.ElementID, start, end, points, c.Color, c.StrokeWidth, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update connector: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update connector %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (s *ConnectorStore) DeleteConnector(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM connectors WHERE id = ?`, id)
	return err
}

func (s *ConnectorStore) DeleteConnectorsByPage(pageID string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM connectors WHERE page_id = ?`, pageID)
	return err
}

func (s *ConnectorStore) DeleteConnectorsByElement(elementID string) error {
	_, err := s.db.Conn().Exec(
		`DELETE FROM connectors WHERE start_element_id = ? OR end_element_id = ?`,
		elementID, elementID,
	)
	return err
}
