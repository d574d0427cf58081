package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"whiteboard/internal/domain"
)

// ElementStore implements domain.ElementStore using SQLite.
type ElementStore struct {
	db *DB
}

func NewElementStore(db *DB) *ElementStore {
	return &ElementStore{db: db}
}

const elementColumns = `id, page_id, type, x, y, width, height, rotation, visible, created_at, updated_at`

func scanElement(row interface{ Scan(...any) error }, e *domain.Element) error {
	return row.Scan(&e.ID, &e.PageID, &e.Type, &e.X, &e.Y, &e.Width, &e.Height, &e.Rotation, &e.Visible, &e.CreatedAt, &e.UpdatedAt)
}

func (s *ElementStore) GetElement(id string) (*domain.Element, error) {
	e := &domain.Element{}
	err := scanElement(s.db.Conn().QueryRow(`SELECT `+elementColumns+` FROM elements WHERE id = ?`, id), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get element %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get element: %w", err)
	}
	return e, nil
}

func (s *ElementStore) ListElements(pageID string) ([]domain.Element, error) {
	rows, err := s.db.Conn().Query(
		`SELECT `+elementColumns+` FROM elements WHERE page_id = ? ORDER BY created_at ASC, rowid ASC`,
		pageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elements []domain.Element
	for rows.Next() {
		var e domain.Element
		if err := scanElement(rows, &e); err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	return elements, rows.Err()
}

func (s *ElementStore) DeleteElementsByPage(pageID string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM elements WHERE page_id = ?`, pageID)
	return err
}

// ReplacePageElements atomically replaces the element snapshot of a page.
// Connectors bound to elements that are no longer present are dropped.
func (s *ElementStore) ReplacePageElements(pageID string, elements []domain.Element) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM elements WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("delete elements: %w", err)
	}

	now := time.Now()
	for _, e := range elements {
		created := e.CreatedAt
		if created.IsZero() {
			created = now
		}
		_, err := tx.Exec(
			`INSERT INTO elements (`+elementColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, pageID, e.Type, e.X, e.Y, e.Width, e.Height, e.Rotation, e.Visible, created, now,
		)
		if err != nil {
			return fmt.Errorf("insert element %s: %w", e.ID, err)
		}
	}

	// Orphaned connectors reference elements that no longer exist
	_, err = tx.Exec(
		`DELETE FROM connectors WHERE page_id = ?
		 AND ((start_element_id != '' AND start_element_id NOT IN (SELECT id FROM elements WHERE page_id = ?))
		  OR (end_element_id != '' AND end_element_id NOT IN (SELECT id FROM elements WHERE page_id = ?)))`,
		pageID, pageID, pageID,
	)
	if err != nil {
		return fmt.Errorf("delete orphaned connectors: %w", err)
	}

	return tx.Commit()
}
