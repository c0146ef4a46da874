package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAAIGrid_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slope.asc")
	writeFile(t, path, `NCOLS 3
NROWS 2
XLLCORNER 100
YLLCORNER 200
CELLSIZE 10
NODATA_VALUE -9999
1 2 3
4 -9999 6
`)
	writeFile(t, PrjPath(path), "EPSG:32644")

	r, err := AAIGrid{}.Read(path)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Width)
	assert.Equal(t, 2, r.Height)
	assert.Equal(t, GeoTransform{100, 10, 0, 220, 0, -10}, r.Transform)
	assert.Equal(t, "EPSG:32644", r.CRS.Name)
	require.NotNil(t, r.NoData)
	assert.Equal(t, -9999.0, *r.NoData)
	assert.Equal(t, []float32{1, 2, 3, 4, -9999, 6}, r.Data)
	assert.False(t, r.ValidAt(4))
}

func TestAAIGrid_ReadCenterAndWrappedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.asc")
	writeFile(t, path, "ncols 2\nnrows 2\nxllcenter 5\nyllcenter 5\ncellsize 10\n1 2 3\n4")

	r, err := AAIGrid{}.Read(path)
	require.NoError(t, err)
	assert.Equal(t, GeoTransform{0, 10, 0, 20, 0, -10}, r.Transform)
	assert.Equal(t, []float32{1, 2, 3, 4}, r.Data)
	assert.Nil(t, r.NoData)
	assert.True(t, r.CRS.IsZero())
}

func TestAAIGrid_ReadErrors(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.asc")
	writeFile(t, short, "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n")
	_, err := AAIGrid{}.Read(short)
	assert.Error(t, err)

	long := filepath.Join(dir, "long.asc")
	writeFile(t, long, "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n")
	_, err = AAIGrid{}.Read(long)
	assert.Error(t, err)

	noSize := filepath.Join(dir, "nosize.asc")
	writeFile(t, noSize, "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\n1\n")
	_, err = AAIGrid{}.ReadProfile(noSize)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.asc")
	writeFile(t, bad, "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nx\n")
	_, err = AAIGrid{}.Read(bad)
	assert.Error(t, err)
}

func TestAAIGrid_WriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.asc")
	p := testProfile(3, 2).WithNoData(-9999)
	r := New(p)
	r.Data = []float32{0.5, 1, 0.25, 0, 0.75, 0.125}
	r.Valid = []bool{true, true, true, false, true, true}

	require.NoError(t, AAIGrid{}.Write(path, r))

	got, err := AAIGrid{}.Read(path)
	require.NoError(t, err)
	assert.Equal(t, p.Transform, got.Transform)
	assert.Equal(t, "EPSG:32644", got.CRS.Name)
	assert.Equal(t, []float32{0.5, 1, 0.25, -9999, 0.75, 0.125}, got.Data)
	assert.False(t, got.ValidAt(3))
}

func TestAAIGrid_WriteNonSquare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rect.asc")
	p := testProfile(1, 1)
	p.Transform = NorthUp(0, 10, 5, 10)
	r := New(p)

	require.NoError(t, AAIGrid{}.Write(path, r))
	got, err := AAIGrid{}.ReadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Transform, got.Transform)
}

func TestAAIGrid_WriteRotated(t *testing.T) {
	p := testProfile(1, 1)
	p.Transform[2] = 0.5
	err := AAIGrid{}.Write(filepath.Join(t.TempDir(), "rot.asc"), New(p))
	assert.Error(t, err)
}
