package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Migrate(context.Background()))
	return c
}

func TestSQLiteCatalog_PutGet(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLite(t)

	e := Entry{LayerName: "slope", FileName: "slope.asc", FilePath: "rasters/slope.asc", Weight: 0.3, Category: "condition"}
	require.NoError(t, c.Put(ctx, e))

	got, err := c.Get(ctx, "slope")
	require.NoError(t, err)
	assert.Equal(t, e, *got)

	e.Weight = 0.7
	require.NoError(t, c.Put(ctx, e))
	got, err = c.Get(ctx, "slope")
	require.NoError(t, err)
	assert.Equal(t, 0.7, got.Weight)
}

func TestSQLiteCatalog_GetNotFound(t *testing.T) {
	c := newTestSQLite(t)

	_, err := c.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteCatalog_ImportList(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLite(t)

	n, err := c.Import(ctx, []Entry{
		{LayerName: "roads", FileName: "roads.asc", FilePath: "roads.asc", Weight: 0.5, Category: "condition"},
		{LayerName: "slope", FileName: "slope.asc", FilePath: "slope.asc", Weight: 0.5, Category: "condition"},
		{LayerName: "water", FileName: "water.asc", FilePath: "water.asc", Category: "constraint"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := c.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "roads", all[0].LayerName)

	cons, err := c.List(ctx, Filter{Category: "constraint"})
	require.NoError(t, err)
	require.Len(t, cons, 1)
	assert.Equal(t, "water", cons[0].LayerName)

	limited, err := c.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLiteCatalog_ImportRejectsInvalid(t *testing.T) {
	c := newTestSQLite(t)

	_, err := c.Import(context.Background(), []Entry{
		{LayerName: "ok", FilePath: "ok.asc"},
		{LayerName: "bad", FilePath: "bad.asc", Weight: -1},
	})
	require.Error(t, err)

	all, err := c.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
