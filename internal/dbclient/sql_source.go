package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"whiteboard/internal/domain"
)

// sqlSource is the shared implementation for MySQL, Postgres, and SQLite.
type sqlSource struct {
	driverName string
	db         *sql.DB
	query      string
}

// newSQLSource opens a pool; no connection is made until first use.
func newSQLSource(driverName, dsn, query string) (*sqlSource, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	if query == "" {
		query = DefaultQuery
	}
	return &sqlSource{driverName: driverName, db: db, query: query}, nil
}

func (s *sqlSource) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// LoadElements expects the query's first eight columns to be id, type, x,
// y, width, height, rotation, visible. Extra columns are ignored.
func (s *sqlSource) LoadElements(ctx context.Context) ([]domain.Element, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.driverName, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if len(cols) < 8 {
		return nil, fmt.Errorf("query returns %d columns, need id, type, x, y, width, height, rotation, visible", len(cols))
	}

	var out []domain.Element
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e, err := elementFromValues(vals[:8])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func elementFromValues(v []any) (domain.Element, error) {
	e := domain.Element{
		ID:      toString(v[0]),
		Type:    domain.ElementType(toString(v[1])),
		Visible: toBool(v[7]),
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Type == "" {
		e.Type = domain.ElementTypeRectangle
	}
	for i, dst := range []*float64{&e.X, &e.Y, &e.Width, &e.Height, &e.Rotation} {
		f, err := toFloat(v[i+2])
		if err != nil {
			return e, fmt.Errorf("column %d: %w", i+3, err)
		}
		*dst = f
	}
	return e, nil
}

func (s *sqlSource) Close() error {
	return s.db.Close()
}
