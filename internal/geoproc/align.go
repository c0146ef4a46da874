package geoproc

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// Resampling selects how source pixels are sampled onto the grid.
type Resampling int

// Resampling methods.
const (
	Bilinear Resampling = iota
	Nearest
)

func (r Resampling) String() string {
	if r == Nearest {
		return "nearest"
	}
	return "bilinear"
}

// ParseResampling accepts "bilinear" or "nearest".
func ParseResampling(s string) (Resampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bilinear":
		return Bilinear, nil
	case "nearest":
		return Nearest, nil
	}
	return Bilinear, failure.Validationf("geoproc: resampling", "unknown resampling %q", s)
}

// Reader loads a raster from a path.
type Reader interface {
	Read(path string) (*raster.Raster, error)
}

// Align resamples band 1 of src onto the grid. Destination pixels outside
// the source coverage are 0.
func Align(src *raster.Raster, g GridSpec, method Resampling) ([]float32, error) {
	const op = "geoproc: align"
	if src.CRS.IsZero() {
		return nil, failure.Geometryf(op, "source raster has no CRS")
	}
	// Inverse mapping: grid coordinates into the source CRS.
	tr, err := crs.NewTransformer(g.CRS, src.CRS)
	if err != nil {
		return nil, failure.Geometry(op, err)
	}
	inv, err := src.Transform.Invert()
	if err != nil {
		return nil, failure.Geometry(op, err)
	}

	dst := make([]float32, g.Size())
	w, h := float64(src.Width), float64(src.Height)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			x, y := g.PixelCenter(col, row)
			sx, sy, err := tr.Transform(x, y)
			if err != nil {
				continue
			}
			fc, fr := inv.Apply(sx, sy)
			if fc < 0 || fr < 0 || fc >= w || fr >= h {
				continue
			}
			i := row*g.Width + col
			switch method {
			case Nearest:
				si := src.Index(int(fc), int(fr))
				if src.ValidAt(si) {
					dst[i] = src.Data[si]
				}
			default:
				dst[i] = bilinear(src, fc, fr)
			}
		}
	}
	return dst, nil
}

// bilinear interpolates between the four source pixel centres around the
// fractional position (fc, fr). Neighbours that are nodata or off the
// raster are dropped and the remaining weights renormalised.
func bilinear(src *raster.Raster, fc, fr float64) float32 {
	u, v := fc-0.5, fr-0.5
	c0, r0 := math.Floor(u), math.Floor(v)
	dx, dy := u-c0, v-r0

	var sum, wsum float64
	for _, n := range [4]struct {
		c, r int
		w    float64
	}{
		{int(c0), int(r0), (1 - dx) * (1 - dy)},
		{int(c0) + 1, int(r0), dx * (1 - dy)},
		{int(c0), int(r0) + 1, (1 - dx) * dy},
		{int(c0) + 1, int(r0) + 1, dx * dy},
	} {
		if n.w == 0 || n.c < 0 || n.r < 0 || n.c >= src.Width || n.r >= src.Height {
			continue
		}
		si := src.Index(n.c, n.r)
		if !src.ValidAt(si) {
			continue
		}
		sum += float64(src.Data[si]) * n.w
		wsum += n.w
	}
	if wsum == 0 {
		return 0
	}
	return float32(sum / wsum)
}

// AlignAll reads each path in turn, resamples it onto the grid and releases
// it before the next is read. The returned profile is the first layer's
// profile moved onto the grid.
func AlignAll(reader Reader, paths []string, g GridSpec, method Resampling) ([][]float32, raster.Profile, error) {
	if len(paths) == 0 {
		return nil, raster.Profile{}, failure.Validationf("geoproc: align", "no input layers")
	}
	out := make([][]float32, 0, len(paths))
	var ref raster.Profile
	for i, path := range paths {
		src, err := reader.Read(path)
		if err != nil {
			return nil, raster.Profile{}, eris.Wrapf(err, "geoproc: read layer %d", i)
		}
		if i == 0 {
			ref = ReferenceProfile(src.Profile, g)
		}
		arr, err := Align(src, g, method)
		if err != nil {
			return nil, raster.Profile{}, eris.Wrapf(err, "geoproc: align layer %d", i)
		}
		zap.L().Debug("geoproc: aligned layer",
			zap.Int("layer", i),
			zap.String("path", path),
			zap.Stringer("resampling", method),
			zap.Int("width", g.Width),
			zap.Int("height", g.Height),
		)
		out = append(out, arr)
	}
	return out, ref, nil
}
