// Package raster holds the in-memory raster model (profile, geotransform,
// band-1 pixel data) and the file drivers that read and write it.
package raster

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
)

// DataTypeFloat32 is the only pixel type produced by the pipeline.
const DataTypeFloat32 = "float32"

// GeoTransform maps pixel (col, row) to world (x, y) using GDAL coefficient
// order: origin x, pixel width, row rotation, origin y, column rotation,
// pixel height (negative for north-up rasters).
type GeoTransform [6]float64

// NorthUp builds an unrotated transform with the given upper-left origin and
// positive pixel sizes.
func NorthUp(originX, originY, resX, resY float64) GeoTransform {
	return GeoTransform{originX, resX, 0, originY, 0, -resY}
}

// Apply returns the world coordinate of a fractional pixel position.
func (g GeoTransform) Apply(col, row float64) (float64, float64) {
	return g[0] + col*g[1] + row*g[2], g[3] + col*g[4] + row*g[5]
}

// Invert returns the transform mapping world coordinates back to pixels.
func (g GeoTransform) Invert() (GeoTransform, error) {
	det := g[1]*g[5] - g[2]*g[4]
	if det == 0 || math.IsNaN(det) {
		return GeoTransform{}, eris.New("raster: geotransform is not invertible")
	}
	inv := 1 / det
	return GeoTransform{
		(g[2]*g[3] - g[0]*g[5]) * inv,
		g[5] * inv,
		-g[2] * inv,
		(g[0]*g[4] - g[1]*g[3]) * inv,
		-g[4] * inv,
		g[1] * inv,
	}, nil
}

// IsNorthUp reports whether the transform has no rotation terms.
func (g GeoTransform) IsNorthUp() bool {
	return g[2] == 0 && g[4] == 0
}

// PixelArea is the absolute ground area covered by one pixel.
func (g GeoTransform) PixelArea() float64 {
	return math.Abs(g[1]*g[5] - g[2]*g[4])
}

// Bounds is an axis-aligned extent in world coordinates.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the extent has no area.
func (b Bounds) Empty() bool {
	return !(b.MaxX > b.MinX && b.MaxY > b.MinY)
}

// Union returns the smallest extent covering both.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Profile describes a raster's georeferencing and pixel layout.
type Profile struct {
	CRS       crs.CRS
	Transform GeoTransform
	Width     int
	Height    int
	BandCount int
	DataType  string
	NoData    *float64
}

// Size is the number of pixels in one band.
func (p Profile) Size() int {
	return p.Width * p.Height
}

// Bounds returns the extent covered by the raster's pixels.
func (p Profile) Bounds() Bounds {
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, c := range [][2]float64{{0, 0}, {float64(p.Width), 0}, {0, float64(p.Height)}, {float64(p.Width), float64(p.Height)}} {
		x, y := p.Transform.Apply(c[0], c[1])
		b.MinX = math.Min(b.MinX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxX = math.Max(b.MaxX, x)
		b.MaxY = math.Max(b.MaxY, y)
	}
	return b
}

// Validate checks the profile describes a usable raster.
func (p Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return eris.Errorf("raster: invalid size %dx%d", p.Width, p.Height)
	}
	if p.Transform[1] == 0 || p.Transform[5] == 0 {
		return eris.New("raster: zero pixel size")
	}
	return nil
}

// WithNoData returns a copy of p with the nodata value set.
func (p Profile) WithNoData(v float64) Profile {
	p.NoData = &v
	return p
}

// Raster is band 1 of a raster held in memory, row-major from the top-left.
// Valid, when non-nil, flags pixels that carry data; a nil Valid means
// validity is derived from NoData.
type Raster struct {
	Profile
	Data  []float32
	Valid []bool
}

// New allocates a zero-filled raster for the profile.
func New(p Profile) *Raster {
	return &Raster{Profile: p, Data: make([]float32, p.Size())}
}

// Index returns the flat offset of (col, row).
func (r *Raster) Index(col, row int) int {
	return row*r.Width + col
}

// IsNoData reports whether v equals the profile nodata value.
func (p Profile) IsNoData(v float32) bool {
	if p.NoData == nil {
		return false
	}
	nd := *p.NoData
	if math.IsNaN(nd) {
		return math.IsNaN(float64(v))
	}
	return float64(v) == nd || v == float32(nd)
}

// ValidAt reports whether pixel i carries data.
func (r *Raster) ValidAt(i int) bool {
	if r.Valid != nil {
		return r.Valid[i]
	}
	return !r.IsNoData(r.Data[i])
}

// ValidValues returns the data values of all valid pixels.
func (r *Raster) ValidValues() []float32 {
	out := make([]float32, 0, len(r.Data))
	for i, v := range r.Data {
		if r.ValidAt(i) {
			out = append(out, v)
		}
	}
	return out
}
