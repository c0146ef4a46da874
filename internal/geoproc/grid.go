// Package geoproc implements the raster stages of the priority map pipeline:
// common grid resolution, resampling, normalization, weighted overlay,
// constraint masking and boundary clipping.
package geoproc

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// GridSpec is the common output grid every layer is resampled onto.
type GridSpec struct {
	CRS                    crs.CRS
	ResX, ResY             float64
	MinX, MinY, MaxX, MaxY float64
	Width, Height          int
}

// Transform is the north-up transform anchored at (MinX, MaxY).
func (g GridSpec) Transform() raster.GeoTransform {
	return raster.NorthUp(g.MinX, g.MaxY, g.ResX, g.ResY)
}

// Size is Width × Height.
func (g GridSpec) Size() int {
	return g.Width * g.Height
}

// PixelCenter returns the world coordinate of the centre of (col, row).
func (g GridSpec) PixelCenter(col, row int) (float64, float64) {
	return g.MinX + (float64(col)+0.5)*g.ResX, g.MaxY - (float64(row)+0.5)*g.ResY
}

// ResolveGrid computes the union extent of all layers in the target CRS and
// the grid dimensions at the requested resolution. Only profiles are needed;
// no pixel data is read.
func ResolveGrid(profiles []raster.Profile, target crs.CRS, resX, resY float64) (GridSpec, error) {
	const op = "geoproc: resolve grid"
	if len(profiles) == 0 {
		return GridSpec{}, failure.Validationf(op, "no input layers")
	}
	if !(resX > 0) || !(resY > 0) || math.IsInf(resX, 0) || math.IsInf(resY, 0) {
		return GridSpec{}, failure.Validationf(op, "resolution must be positive, got (%g, %g)", resX, resY)
	}
	if target.IsZero() {
		return GridSpec{}, failure.Geometryf(op, "target CRS is undefined")
	}

	var extent raster.Bounds
	for i, p := range profiles {
		if p.CRS.IsZero() {
			return GridSpec{}, failure.Geometryf(op, "layer %d has no CRS", i)
		}
		tr, err := crs.NewTransformer(p.CRS, target)
		if err != nil {
			return GridSpec{}, failure.Geometry(op, eris.Wrapf(err, "layer %d", i))
		}
		b := p.Bounds()
		minX, minY, maxX, maxY, err := tr.TransformBounds(b.MinX, b.MinY, b.MaxX, b.MaxY, crs.DefaultDensify)
		if err != nil {
			return GridSpec{}, failure.Geometry(op, eris.Wrapf(err, "layer %d", i))
		}
		tb := raster.Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
		if i == 0 {
			extent = tb
		} else {
			extent = extent.Union(tb)
		}
	}

	g := GridSpec{
		CRS:    target,
		ResX:   resX,
		ResY:   resY,
		MinX:   extent.MinX,
		MinY:   extent.MinY,
		MaxX:   extent.MaxX,
		MaxY:   extent.MaxY,
		Width:  int(math.Ceil((extent.MaxX - extent.MinX) / resX)),
		Height: int(math.Ceil((extent.MaxY - extent.MinY) / resY)),
	}
	if g.Width <= 0 || g.Height <= 0 {
		return GridSpec{}, failure.Geometryf(op, "layers cover an empty extent")
	}
	return g, nil
}

// ReferenceProfile is the output profile: the first layer's profile moved
// onto the grid, as float32.
func ReferenceProfile(first raster.Profile, g GridSpec) raster.Profile {
	return raster.Profile{
		CRS:       g.CRS,
		Transform: g.Transform(),
		Width:     g.Width,
		Height:    g.Height,
		BandCount: 1,
		DataType:  raster.DataTypeFloat32,
		NoData:    first.NoData,
	}
}
