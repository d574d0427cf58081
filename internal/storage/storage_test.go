package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard/internal/domain"
	"whiteboard/internal/elbow"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "whiteboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whiteboard.db")
	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Re-running migrations hits the duplicate ALTER TABLE column.
	db, err = New(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Close())
}

func TestElementStore_ReplaceAndList(t *testing.T) {
	db := newTestDB(t)
	store := NewElementStore(db)

	els := []domain.Element{
		{ID: "a", Type: domain.ElementTypeRectangle, X: 0, Y: 0, Width: 100, Height: 50, Visible: true},
		{ID: "b", Type: domain.ElementTypeEllipse, X: 200, Y: 0, Width: 80, Height: 80, Rotation: 0.5, Visible: true},
		{ID: "c", Type: domain.ElementTypeArrow, X: 10, Y: 10, Width: 5, Height: 5},
	}
	require.NoError(t, store.ReplacePageElements("p1", els))
	require.NoError(t, store.ReplacePageElements("p2", []domain.Element{{ID: "other", Type: domain.ElementTypeText, Visible: true}}))

	got, err := store.ListElements("p1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "p1", got[0].PageID)
	assert.Equal(t, 0.5, got[1].Rotation)
	assert.True(t, got[1].Visible)
	assert.False(t, got[2].Visible)

	// Replacing is not additive.
	require.NoError(t, store.ReplacePageElements("p1", els[1:2]))
	got, err = store.ListElements("p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	one, err := store.GetElement("b")
	require.NoError(t, err)
	assert.Equal(t, domain.ElementTypeEllipse, one.Type)

	_, err = store.GetElement("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.DeleteElementsByPage("p1"))
	got, err = store.ListElements("p1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.ListElements("p2")
	require.NoError(t, err)
	require.Len(t, got, 1, "other pages are untouched")
}

func TestConnectorStore_CRUD(t *testing.T) {
	db := newTestDB(t)
	elements := NewElementStore(db)
	store := NewConnectorStore(db)

	require.NoError(t, elements.ReplacePageElements("p1", []domain.Element{
		{ID: "a", Type: domain.ElementTypeRectangle, Width: 10, Height: 10, Visible: true},
		{ID: "b", Type: domain.ElementTypeRectangle, X: 100, Width: 10, Height: 10, Visible: true},
	}))

	c := &domain.Connector{
		ID:        "c1",
		PageID:    "p1",
		Start:     elbow.Pt(10, 5),
		End:       elbow.Pt(100, 5),
		StartBind: elbow.FaceBinding("a", elbow.Right, 0.5),
		EndBind:   elbow.FaceBinding("b", elbow.Left, 0.5),
		Points:    []float64{0, 0, 90, 0},
		Color:     "#336699",
	}
	require.NoError(t, store.CreateConnector(c))

	got, err := store.GetConnector("c1")
	require.NoError(t, err)
	assert.Equal(t, c.Start, got.Start)
	assert.Equal(t, c.EndBind, got.EndBind)
	assert.Equal(t, c.Points, got.Points)
	assert.Equal(t, domain.DefaultConnectorStrokeWidth, got.StrokeWidth)
	assert.Equal(t, "#336699", got.Color)

	got.Points = []float64{0, 0, 45, 0, 45, 10, 90, 10}
	got.StrokeWidth = 3
	require.NoError(t, store.UpdateConnector(got))
	list, err := store.ListConnectors("p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Points, 8)
	assert.Equal(t, 3.0, list[0].StrokeWidth)

	assert.ErrorIs(t, store.UpdateConnector(&domain.Connector{ID: "nope"}), ErrNotFound)
	_, err = store.GetConnector("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	// Dropping element b from the snapshot orphans the connector.
	require.NoError(t, elements.ReplacePageElements("p1", []domain.Element{
		{ID: "a", Type: domain.ElementTypeRectangle, Width: 10, Height: 10, Visible: true},
	}))
	list, err = store.ListConnectors("p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConnectorStore_DeleteByElement(t *testing.T) {
	db := newTestDB(t)
	store := NewConnectorStore(db)
	for _, id := range []string{"c1", "c2"} {
		require.NoError(t, store.CreateConnector(&domain.Connector{
			ID:        id,
			PageID:    "p",
			StartBind: elbow.Binding{ElementID: "a"},
			EndBind:   elbow.Binding{ElementID: id + "-end"},
		}))
	}
	require.NoError(t, store.DeleteConnectorsByElement("c2-end"))
	list, err := store.ListConnectors("p")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)

	require.NoError(t, store.DeleteConnectorsByPage("p"))
	list, err = store.ListConnectors("p")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSettingsStore_RouterOptions(t *testing.T) {
	db := newTestDB(t)
	store := NewSettingsStore(db)

	opts, err := store.LoadRouterOptions(elbow.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, elbow.DefaultOptions(), opts)

	custom := elbow.DefaultOptions()
	custom.Clearance = 32
	custom.CacheSize = 50
	require.NoError(t, store.SaveRouterOptions(custom))

	opts, err = store.LoadRouterOptions(elbow.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, custom, opts)

	require.NoError(t, store.Set("theme", "dark"))
	require.NoError(t, store.Set("theme", "light"))
	v, err := store.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	_, err = store.Get("absent")
	assert.ErrorIs(t, err, ErrNotFound)
}
