package raster

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
)

// Driver reads and writes one raster file format.
type Driver interface {
	// Name is the format's short name (e.g. "AAIGrid").
	Name() string

	// Extensions lists the lower-case file extensions the driver handles.
	Extensions() []string

	// ReadProfile returns georeferencing and layout without reading pixels.
	ReadProfile(path string) (Profile, error)

	// Read loads band 1 of the raster.
	Read(path string) (*Raster, error)

	// Write stores r at path. Invalid pixels are written as the profile
	// nodata value when one is set.
	Write(path string, r *Raster) error
}

// Registry selects a driver by file extension.
type Registry struct {
	byExt map[string]Driver
}

// NewRegistry registers the given drivers. Later drivers win on extension
// collisions.
func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{byExt: make(map[string]Driver)}
	for _, d := range drivers {
		for _, ext := range d.Extensions() {
			r.byExt[strings.ToLower(ext)] = d
		}
	}
	return r
}

// DefaultRegistry knows the Esri ASCII grid and Esri float grid formats.
func DefaultRegistry() *Registry {
	return NewRegistry(AAIGrid{}, EHdr{})
}

// For returns the driver for path's extension.
func (r *Registry) For(path string) (Driver, error) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := r.byExt[ext]
	if !ok {
		return nil, failure.IO("raster: select driver", eris.Errorf("no raster driver for %q (supported: %s)", ext, strings.Join(r.Extensions(), ", ")))
	}
	return d, nil
}

// Extensions lists every registered extension, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ReadProfile opens path with the matching driver and returns its profile.
func (r *Registry) ReadProfile(path string) (Profile, error) {
	d, err := r.For(path)
	if err != nil {
		return Profile{}, err
	}
	p, err := d.ReadProfile(path)
	if err != nil {
		return Profile{}, asIO("raster: read profile", err)
	}
	return p, nil
}

// Read opens path with the matching driver.
func (r *Registry) Read(path string) (*Raster, error) {
	d, err := r.For(path)
	if err != nil {
		return nil, err
	}
	ras, err := d.Read(path)
	if err != nil {
		return nil, asIO("raster: read", err)
	}
	return ras, nil
}

// Write stores ras at path with the matching driver.
func (r *Registry) Write(path string, ras *Raster) error {
	d, err := r.For(path)
	if err != nil {
		return err
	}
	if err := d.Write(path, ras); err != nil {
		return asIO("raster: write", err)
	}
	return nil
}

func asIO(op string, err error) error {
	if failure.KindOf(err) != failure.KindUnknown {
		return err
	}
	return failure.IO(op, err)
}

// PrjPath returns the .prj sidecar path for a raster or shapefile.
func PrjPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
}

// ReadPrj reads the CRS from a .prj sidecar. A missing sidecar yields the
// zero CRS and no error.
func ReadPrj(path string) (crs.CRS, error) {
	data, err := os.ReadFile(PrjPath(path))
	if os.IsNotExist(err) {
		return crs.CRS{}, nil
	}
	if err != nil {
		return crs.CRS{}, eris.Wrapf(err, "raster: read %s", PrjPath(path))
	}
	def := strings.TrimSpace(string(data))
	if def == "" {
		return crs.CRS{}, nil
	}
	c, err := crs.Parse(def)
	if err != nil {
		// Keep the definition; transformation will surface the error.
		return crs.CRS{Def: def}, nil
	}
	return c, nil
}

// WritePrj writes c to the .prj sidecar of path, preferring its EPSG name.
// A zero CRS writes nothing.
func WritePrj(path string, c crs.CRS) error {
	if c.IsZero() {
		return nil
	}
	def := c.Name
	if def == "" {
		def = c.Def
	}
	if err := os.WriteFile(PrjPath(path), []byte(def+"\n"), 0o644); err != nil {
		return eris.Wrapf(err, "raster: write %s", PrjPath(path))
	}
	return nil
}
