package geoproc

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/boundary"
	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// snapTolerance absorbs float noise when a bound lands on a pixel edge.
const snapTolerance = 1e-9

// DefaultNoData marks clipped-out pixels when the source raster has no
// nodata value of its own.
const DefaultNoData = -9999.0

// Clip crops src to the boundary's extent and masks pixels whose centre lies
// outside the polygons. Masked pixels are 0 and flagged invalid, and the
// output always carries a nodata value (src's, or DefaultNoData) so the mask
// survives being written to disk. A raster or boundary without a CRS is
// taken to be in defaultCRS.
func Clip(src *raster.Raster, g *boundary.Geometry, defaultCRS crs.CRS) (*raster.Raster, error) {
	const op = "geoproc: clip"
	if g == nil || g.NumPolygons() == 0 {
		return nil, failure.Geometryf(op, "boundary has no polygons")
	}
	if !src.Transform.IsNorthUp() {
		return nil, failure.Geometryf(op, "rotated rasters are not supported")
	}

	rasterCRS := src.CRS
	if rasterCRS.IsZero() {
		rasterCRS = defaultCRS
	}
	if rasterCRS.IsZero() {
		return nil, failure.Geometryf(op, "raster has no CRS and no default is configured")
	}

	projected, err := g.Reproject(rasterCRS, defaultCRS)
	if err != nil {
		return nil, failure.Geometry(op, err)
	}
	valid, err := boundary.EnsureValid(projected)
	if err != nil {
		return nil, err
	}

	col0, row0, col1, row1, ok := window(src.Profile, valid.Bounds())
	if !ok {
		return nil, failure.Geometryf(op, "boundary does not overlap the raster")
	}

	t := src.Transform
	ox, oy := t.Apply(float64(col0), float64(row0))
	profile := src.Profile
	profile.CRS = rasterCRS
	profile.Width = col1 - col0
	profile.Height = row1 - row0
	profile.Transform = raster.GeoTransform{ox, t[1], 0, oy, 0, t[5]}
	if profile.NoData == nil {
		profile = profile.WithNoData(DefaultNoData)
	}

	inside := valid.Rasterize(profile.Transform, profile.Width, profile.Height)
	out := raster.New(profile)
	out.Valid = make([]bool, profile.Size())
	for row := 0; row < profile.Height; row++ {
		for col := 0; col < profile.Width; col++ {
			i := out.Index(col, row)
			if !inside[i] {
				continue
			}
			si := src.Index(col0+col, row0+row)
			out.Data[i] = src.Data[si]
			out.Valid[i] = src.ValidAt(si)
		}
	}

	zap.L().Debug("geoproc: clipped raster",
		zap.Int("col_off", col0),
		zap.Int("row_off", row0),
		zap.Int("width", profile.Width),
		zap.Int("height", profile.Height),
	)
	return out, nil
}

// window snaps b outward to whole pixels and clamps it to the raster. It
// returns the half-open column and row range.
func window(p raster.Profile, b raster.Bounds) (col0, row0, col1, row1 int, ok bool) {
	inv, err := p.Transform.Invert()
	if err != nil {
		return 0, 0, 0, 0, false
	}
	c0, r0 := inv.Apply(b.MinX, b.MaxY)
	c1, r1 := inv.Apply(b.MaxX, b.MinY)
	if c0 > c1 {
		c0, c1 = c1, c0
	}
	if r0 > r1 {
		r0, r1 = r1, r0
	}

	col0 = clampInt(int(math.Floor(c0+snapTolerance)), 0, p.Width)
	row0 = clampInt(int(math.Floor(r0+snapTolerance)), 0, p.Height)
	col1 = clampInt(int(math.Ceil(c1-snapTolerance)), 0, p.Width)
	row1 = clampInt(int(math.Ceil(r1-snapTolerance)), 0, p.Height)
	if col1 <= col0 || row1 <= row0 {
		return 0, 0, 0, 0, false
	}
	return col0, row0, col1, row1, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClipPath reads a raster, clips it and returns the result.
func ClipPath(reader Reader, path string, g *boundary.Geometry, defaultCRS crs.CRS) (*raster.Raster, error) {
	src, err := reader.Read(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoproc: read %s", path)
	}
	return Clip(src, g, defaultCRS)
}
