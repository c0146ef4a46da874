// Package boundary loads study-area polygons (shapefile, GeoJSON, PostGIS
// administrative units), validates and repairs them, reprojects them and
// rasterizes them onto a pixel grid.
package boundary

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// Geometry is a set of polygons with their CRS. The CRS may be unset, in
// which case callers substitute a configured default.
type Geometry struct {
	Polygons *geom.MultiPolygon
	CRS      crs.CRS
}

// New wraps mp, dropping any Z or M ordinates.
func New(mp *geom.MultiPolygon, c crs.CRS) *Geometry {
	return &Geometry{Polygons: toXY(mp), CRS: c}
}

// FromT converts a decoded geometry into a Geometry. Polygon, MultiPolygon
// and collections of them are accepted.
func FromT(g geom.T, c crs.CRS) (*Geometry, error) {
	mp := geom.NewMultiPolygon(geom.XY)
	if err := appendPolygons(mp, g); err != nil {
		return nil, err
	}
	return &Geometry{Polygons: mp, CRS: c}, nil
}

func appendPolygons(dst *geom.MultiPolygon, g geom.T) error {
	switch v := g.(type) {
	case *geom.Polygon:
		return dst.Push(polygonXY(v))
	case *geom.MultiPolygon:
		for i := 0; i < v.NumPolygons(); i++ {
			if err := dst.Push(polygonXY(v.Polygon(i))); err != nil {
				return eris.Wrap(err, "boundary: push polygon")
			}
		}
		return nil
	case *geom.GeometryCollection:
		for _, child := range v.Geoms() {
			switch child.(type) {
			case *geom.Polygon, *geom.MultiPolygon, *geom.GeometryCollection:
			default:
				continue
			}
			if err := appendPolygons(dst, child); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return eris.New("boundary: empty geometry")
	}
	return eris.Errorf("boundary: unsupported geometry type %T", g)
}

// Merge combines several geometries in the same CRS into one.
func Merge(gs ...*Geometry) (*Geometry, error) {
	if len(gs) == 0 {
		return nil, eris.New("boundary: nothing to merge")
	}
	out := &Geometry{Polygons: geom.NewMultiPolygon(geom.XY), CRS: gs[0].CRS}
	for i, g := range gs {
		if !g.CRS.IsZero() && !out.CRS.IsZero() && !g.CRS.Equal(out.CRS) {
			return nil, eris.Errorf("boundary: geometry %d is in %s, want %s", i, g.CRS, out.CRS)
		}
		if out.CRS.IsZero() {
			out.CRS = g.CRS
		}
		if err := appendPolygons(out.Polygons, g.Polygons); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toXY(mp *geom.MultiPolygon) *geom.MultiPolygon {
	if mp.Layout() == geom.XY {
		return mp
	}
	out := geom.NewMultiPolygon(geom.XY)
	for i := 0; i < mp.NumPolygons(); i++ {
		_ = out.Push(polygonXY(mp.Polygon(i)))
	}
	return out
}

func polygonXY(p *geom.Polygon) *geom.Polygon {
	if p.Layout() == geom.XY {
		return p
	}
	stride := p.Stride()
	flat := p.FlatCoords()
	xy := make([]float64, 0, len(flat)/stride*2)
	for i := 0; i+1 < len(flat); i += stride {
		xy = append(xy, flat[i], flat[i+1])
	}
	ends := make([]int, len(p.Ends()))
	for i, e := range p.Ends() {
		ends[i] = e / stride * 2
	}
	return geom.NewPolygonFlat(geom.XY, xy, ends)
}

// NumPolygons is the number of polygons.
func (g *Geometry) NumPolygons() int {
	if g == nil || g.Polygons == nil {
		return 0
	}
	return g.Polygons.NumPolygons()
}

// Bounds returns the envelope of all polygons.
func (g *Geometry) Bounds() raster.Bounds {
	b := raster.Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	flat := g.Polygons.FlatCoords()
	for i := 0; i+1 < len(flat); i += 2 {
		b.MinX = math.Min(b.MinX, flat[i])
		b.MinY = math.Min(b.MinY, flat[i+1])
		b.MaxX = math.Max(b.MaxX, flat[i])
		b.MaxY = math.Max(b.MaxY, flat[i+1])
	}
	return b
}

// Area is the total polygon area in CRS units, holes subtracted. Ring
// orientation is ignored.
func (g *Geometry) Area() float64 {
	var total float64
	for i := 0; i < g.NumPolygons(); i++ {
		p := g.Polygons.Polygon(i)
		for j := 0; j < p.NumLinearRings(); j++ {
			a := math.Abs(p.LinearRing(j).Area())
			if j == 0 {
				total += a
			} else {
				total -= a
			}
		}
	}
	return total
}

// Reproject returns the geometry transformed to dst. An unset CRS is taken
// to be fallback.
func (g *Geometry) Reproject(dst, fallback crs.CRS) (*Geometry, error) {
	src := g.CRS
	if src.IsZero() {
		src = fallback
	}
	if src.IsZero() {
		return nil, eris.New("boundary: geometry has no CRS and no default is configured")
	}
	tr, err := crs.NewTransformer(src, dst)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: reproject")
	}
	if tr.Identity() {
		return &Geometry{Polygons: g.Polygons, CRS: dst}, nil
	}

	out := geom.NewMultiPolygon(geom.XY)
	for i := 0; i < g.Polygons.NumPolygons(); i++ {
		p := g.Polygons.Polygon(i)
		src := p.FlatCoords()
		flat := make([]float64, len(src))
		for j := 0; j+1 < len(src); j += 2 {
			x, y, err := tr.Transform(src[j], src[j+1])
			if err != nil {
				return nil, eris.Wrapf(err, "boundary: reproject polygon %d", i)
			}
			flat[j], flat[j+1] = x, y
		}
		ends := append([]int(nil), p.Ends()...)
		if err := out.Push(geom.NewPolygonFlat(geom.XY, flat, ends)); err != nil {
			return nil, eris.Wrap(err, "boundary: reproject")
		}
	}
	return &Geometry{Polygons: out, CRS: dst}, nil
}
