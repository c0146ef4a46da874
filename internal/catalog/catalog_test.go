package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
)

type memCatalog struct {
	entries map[string]Entry
	err     error
}

func (m *memCatalog) Get(_ context.Context, name string) (*Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.entries[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *memCatalog) List(context.Context, Filter) ([]Entry, error)  { return nil, nil }
func (m *memCatalog) Put(context.Context, Entry) error               { return nil }
func (m *memCatalog) Import(context.Context, []Entry) (int64, error) { return 0, nil }
func (m *memCatalog) Migrate(context.Context) error                  { return nil }
func (m *memCatalog) Close() error                                   { return nil }

func TestResolver_Resolve(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(base, "abs.asc")
	r := &Resolver{
		BaseDir: base,
		Catalog: &memCatalog{entries: map[string]Entry{
			"slope":  {LayerName: "slope", FilePath: "rasters/slope.asc"},
			"abs":    {LayerName: "abs", FilePath: abs},
			"remote": {LayerName: "remote", FilePath: "https://data.example.com/roads.asc"},
		}},
	}
	ctx := context.Background()

	p, err := r.Resolve(ctx, "slope")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "rasters", "slope.asc"), p)

	p, err = r.Resolve(ctx, "abs")
	require.NoError(t, err)
	assert.Equal(t, abs, p)

	p, err = r.Resolve(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, "https://data.example.com/roads.asc", p)
}

func TestResolver_Errors(t *testing.T) {
	ctx := context.Background()

	r := &Resolver{Catalog: &memCatalog{}}
	_, err := r.Resolve(ctx, "nope")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindValidation))

	r = &Resolver{Catalog: &memCatalog{err: errors.New("connection refused")}}
	_, err = r.Resolve(ctx, "slope")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindIO))
}

func TestLoadEntries(t *testing.T) {
	doc := `
- layer_name: slope
  file_path: rasters/slope.asc
  weight: 0.4
  category: condition
- layer_name: water
  file_name: water_bodies.asc
  file_path: rasters/water.asc
  category: constraint
`
	entries, err := LoadEntries(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "slope.asc", entries[0].FileName)
	assert.Equal(t, 0.4, entries[0].Weight)
	assert.Equal(t, "water_bodies.asc", entries[1].FileName)
}

func TestLoadEntries_Errors(t *testing.T) {
	_, err := LoadEntries(strings.NewReader("- layer_name: slope\n"))
	require.Error(t, err)

	_, err = LoadEntries(strings.NewReader("{not: a list"))
	require.Error(t, err)

	entries, err := LoadEntries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Options{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCatalog{}, c)
	require.NoError(t, c.Close())

	_, err = Open(ctx, Options{Driver: "oracle", DSN: "x"})
	require.Error(t, err)

	_, err = Open(ctx, Options{Driver: "sqlite"})
	require.Error(t, err)
}
