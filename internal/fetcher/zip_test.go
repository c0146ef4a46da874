package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractZIP(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"boundary.shp":      "shp",
		"boundary.dbf":      "dbf",
		"nested/readme.txt": "hi",
	})
	dest := t.TempDir()

	files, err := ExtractZIP(zipPath, dest)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	data, err := os.ReadFile(filepath.Join(dest, "nested", "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestExtractZIP_RejectsZipSlip(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{"../evil.txt": "x"})
	_, err := ExtractZIP(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestExtractZIP_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.zip")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))
	_, err := ExtractZIP(path, t.TempDir())
	require.Error(t, err)
}

func TestFindByExt(t *testing.T) {
	paths := []string{"/x/b.dbf", "/x/b.SHP", "/x/a.prj"}
	p, ok := FindByExt(paths, ".shp")
	require.True(t, ok)
	assert.Equal(t, "/x/b.SHP", p)

	_, ok = FindByExt(paths, ".asc")
	assert.False(t, ok)
}

func TestExtractBundle(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"district.shp": "shp",
		"district.shx": "shx",
	})
	p, err := ExtractBundle(zipPath, t.TempDir(), ".shp")
	require.NoError(t, err)
	assert.Equal(t, "district.shp", filepath.Base(p))

	_, err = ExtractBundle(zipPath, t.TempDir(), ".asc")
	require.Error(t, err)
}
