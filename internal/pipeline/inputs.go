package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/iitbhu2k25/Dss-muskan/internal/boundary"
	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/fetcher"
)

// isRasterRef reports whether name is a direct raster reference rather than
// a catalog layer name.
func (p *Pipeline) isRasterRef(name string) bool {
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		return true
	}
	_, err := p.rasters.For(name)
	return err == nil
}

// resolveRaster turns a layer name into a local raster file inside dir when
// it has to be downloaded or unpacked.
func (p *Pipeline) resolveRaster(ctx context.Context, name, dir string) (string, error) {
	const op = "pipeline: resolve layer"
	ref := name
	if !p.isRasterRef(name) {
		if p.resolver == nil {
			return "", failure.Validationf(op, "layer %q is not a raster path and no catalog is configured", name)
		}
		resolved, err := p.resolver.Resolve(ctx, name)
		if err != nil {
			return "", err
		}
		ref = resolved
	}

	local, err := p.materialize(ctx, ref, dir)
	if err != nil {
		return "", failure.IO(op, err)
	}
	if strings.EqualFold(filepath.Ext(local), ".zip") {
		for _, ext := range p.rasters.Extensions() {
			if path, err := fetcher.ExtractBundle(local, dir, ext); err == nil {
				return path, nil
			}
		}
		return "", failure.IO(op, eris.Errorf("%s contains no raster (%s)", filepath.Base(local), strings.Join(p.rasters.Extensions(), ", ")))
	}
	return local, nil
}

func (p *Pipeline) materialize(ctx context.Context, ref, dir string) (string, error) {
	if !fetcher.IsRemote(ref) {
		return ref, nil
	}
	if p.fetch == nil {
		return "", eris.Errorf("remote input %s but no fetcher is configured", ref)
	}
	return p.fetch.Materialize(ctx, ref, dir)
}

// loadBoundary reads the study area named by ref.
func (p *Pipeline) loadBoundary(ctx context.Context, ref BoundaryRef, dir string) (*boundary.Geometry, error) {
	const op = "pipeline: load boundary"
	if ref.Level != "" {
		level, err := boundary.ParseLevel(ref.Level)
		if err != nil {
			return nil, failure.Validation(op, err)
		}
		if len(ref.Codes) == 0 {
			return nil, failure.Validationf(op, "boundary level %s given without codes", level)
		}
		if p.boundaries == nil {
			return nil, failure.Validationf(op, "no boundary database is configured")
		}
		g, err := p.boundaries.Lookup(ctx, level, ref.Codes)
		if err != nil {
			return nil, asKind(err, failure.IO, op)
		}
		return g, nil
	}

	path := ref.Path
	if path == "" {
		path = p.cfg.Boundary.Default
	}
	if path == "" {
		return nil, failure.Validationf(op, "no boundary given and boundary.default is not set")
	}

	local, err := p.materialize(ctx, path, dir)
	if err != nil {
		return nil, failure.IO(op, err)
	}
	if strings.EqualFold(filepath.Ext(local), ".zip") {
		if local, err = fetcher.ExtractBundle(local, dir, ".shp"); err != nil {
			return nil, failure.IO(op, err)
		}
	}

	var g *boundary.Geometry
	switch strings.ToLower(filepath.Ext(local)) {
	case ".shp":
		g, err = boundary.ReadShapefile(local, boundary.AttributeFilter{Field: ref.Field, Values: ref.Values})
	case ".geojson", ".json":
		g, err = boundary.ReadGeoJSON(local)
	default:
		return nil, failure.Validationf(op, "unsupported boundary format %q", filepath.Ext(local))
	}
	if err != nil {
		return nil, asKind(err, failure.IO, op)
	}
	return g, nil
}

// asKind keeps an existing failure kind and otherwise applies wrap.
func asKind(err error, wrap func(string, error) *failure.Error, op string) error {
	if failure.KindOf(err) != failure.KindUnknown {
		return err
	}
	return wrap(op, err)
}

// parseCRS returns def when s is empty.
func parseCRS(s string, def crs.CRS) (crs.CRS, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	c, err := crs.Parse(s)
	if err != nil {
		return crs.CRS{}, failure.Geometry("pipeline: parse crs", err)
	}
	return c, nil
}
