package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIP extracts every entry of a ZIP archive under destDir and returns
// the extracted file paths. Entries escaping destDir are rejected.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrapf(err, "zip: open %s", zipPath)
	}
	defer r.Close() //nolint:errcheck

	var extracted []string
	for _, f := range r.File {
		path, err := extractEntry(f, destDir)
		if err != nil {
			return extracted, err
		}
		if path != "" {
			extracted = append(extracted, path)
		}
	}
	return extracted, nil
}

func extractEntry(f *zip.File, destDir string) (string, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return "", eris.Wrap(err, "zip: create directory")
		}
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	if _, err := writeFile(destPath, rc); err != nil {
		return "", eris.Wrapf(err, "zip: extract %s", f.Name)
	}
	return destPath, nil
}

// FindByExt returns the first path (in lexical order) with the given
// extension, compared case-insensitively.
func FindByExt(paths []string, ext string) (string, bool) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	for _, p := range sorted {
		if strings.EqualFold(filepath.Ext(p), ext) {
			return p, true
		}
	}
	return "", false
}

// ExtractBundle extracts a zipped shapefile or raster bundle into a fresh
// subdirectory of destDir and returns the first file with ext.
func ExtractBundle(zipPath, destDir, ext string) (string, error) {
	dir, err := os.MkdirTemp(destDir, "bundle-")
	if err != nil {
		return "", eris.Wrap(err, "zip: create bundle dir")
	}
	files, err := ExtractZIP(zipPath, dir)
	if err != nil {
		return "", err
	}
	p, ok := FindByExt(files, ext)
	if !ok {
		return "", eris.Errorf("zip: %s contains no %s file", filepath.Base(zipPath), ext)
	}
	return p, nil
}
