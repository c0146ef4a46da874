// Package catalog maps raster layer names to files on disk or remote URLs.
package catalog

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/fetcher"
)

// ErrNotFound is returned when no entry has the requested layer name.
var ErrNotFound = eris.New("catalog: layer not found")

// Entry is one catalogued raster.
type Entry struct {
	LayerName string  `yaml:"layer_name" json:"layer_name"`
	FileName  string  `yaml:"file_name" json:"file_name"`
	FilePath  string  `yaml:"file_path" json:"file_path"`
	Weight    float64 `yaml:"weight" json:"weight"`
	Category  string  `yaml:"category" json:"category,omitempty"`
}

// Validate checks the fields every backend requires.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.LayerName) == "" {
		return eris.New("catalog: entry has no layer_name")
	}
	if strings.TrimSpace(e.FilePath) == "" {
		return eris.Errorf("catalog: entry %q has no file_path", e.LayerName)
	}
	if e.Weight < 0 {
		return eris.Errorf("catalog: entry %q has negative weight %g", e.LayerName, e.Weight)
	}
	return nil
}

// Filter narrows List results.
type Filter struct {
	Category string
	Limit    int
}

// Catalog is the persistence interface for raster entries.
type Catalog interface {
	Get(ctx context.Context, layerName string) (*Entry, error)
	List(ctx context.Context, filter Filter) ([]Entry, error)
	Put(ctx context.Context, e Entry) error
	Import(ctx context.Context, entries []Entry) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Resolver turns layer names into readable paths. Relative catalog paths are
// joined to BaseDir; absolute paths and URLs are returned as stored.
type Resolver struct {
	Catalog Catalog
	BaseDir string
}

// Resolve returns the path or URL of layerName.
func (r *Resolver) Resolve(ctx context.Context, layerName string) (string, error) {
	const op = "catalog: resolve"
	e, err := r.Catalog.Get(ctx, layerName)
	if eris.Is(err, ErrNotFound) {
		return "", failure.Validationf(op, "raster %q is not in the catalog", layerName)
	}
	if err != nil {
		return "", failure.IO(op, err)
	}
	return r.pathOf(e.FilePath), nil
}

func (r *Resolver) pathOf(p string) string {
	if fetcher.IsRemote(p) || filepath.IsAbs(p) || r.BaseDir == "" {
		return p
	}
	return filepath.Join(r.BaseDir, p)
}

// LoadEntries decodes a YAML list of entries and validates each one.
func LoadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "catalog: decode entries")
	}
	for i := range entries {
		if entries[i].FileName == "" {
			entries[i].FileName = filepath.Base(entries[i].FilePath)
		}
		if err := entries[i].Validate(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
