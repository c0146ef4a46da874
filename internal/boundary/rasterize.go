package boundary

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// Contains reports whether (x, y) lies inside any polygon and outside that
// polygon's holes. Points on a shell edge count as inside.
func (g *Geometry) Contains(x, y float64) bool {
	pt := geom.Coord{x, y}
	for i := 0; i < g.NumPolygons(); i++ {
		p := g.Polygons.Polygon(i)
		if p.NumLinearRings() == 0 || !xy.IsPointInRing(geom.XY, pt, p.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for j := 1; j < p.NumLinearRings(); j++ {
			if xy.IsPointInRing(geom.XY, pt, p.LinearRing(j).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// Rasterize marks the pixels of a north-up grid whose centre falls inside the
// geometry. Each polygon is filled with an even-odd scanline over all of its
// rings, so holes are excluded; polygons are combined by union.
func (g *Geometry) Rasterize(t raster.GeoTransform, width, height int) []bool {
	mask := make([]bool, width*height)
	if width <= 0 || height <= 0 {
		return mask
	}
	ox, px := t[0], t[1]
	var xs []float64
	for i := 0; i < g.NumPolygons(); i++ {
		p := g.Polygons.Polygon(i)
		flat := p.FlatCoords()
		if len(flat) == 0 {
			continue
		}
		minY, maxY := math.Inf(1), math.Inf(-1)
		for k := 1; k < len(flat); k += 2 {
			minY = math.Min(minY, flat[k])
			maxY = math.Max(maxY, flat[k])
		}

		for row := 0; row < height; row++ {
			_, yc := t.Apply(0, float64(row)+0.5)
			if yc < minY || yc > maxY {
				continue
			}
			xs = xs[:0]
			for j := 0; j < p.NumLinearRings(); j++ {
				xs = ringCrossings(p.LinearRing(j).FlatCoords(), yc, xs)
			}
			if len(xs) < 2 {
				continue
			}
			sort.Float64s(xs)
			for k := 0; k+1 < len(xs); k += 2 {
				c0 := int(math.Max(0, math.Ceil((xs[k]-ox)/px-0.5)))
				c1 := int(math.Min(float64(width), math.Ceil((xs[k+1]-ox)/px-0.5)))
				base := row * width
				for c := c0; c < c1; c++ {
					mask[base+c] = true
				}
			}
		}
	}
	return mask
}

// ringCrossings appends the x coordinates where the horizontal line at y
// crosses the ring's edges. Edges are half-open in y so shared vertices are
// counted once.
func ringCrossings(flat []float64, y float64, xs []float64) []float64 {
	n := len(flat) / 2
	if n < 2 {
		return xs
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		x1, y1 := flat[2*i], flat[2*i+1]
		x2, y2 := flat[2*j], flat[2*j+1]
		if (y1 > y) == (y2 > y) {
			continue
		}
		xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
	}
	return xs
}
