package boundary

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
)

// Validate reports the first structural problem found: no polygons, an
// empty polygon, a non-finite coordinate, an unclosed ring, a ring with
// fewer than four points or a ring with zero area. Self-intersections are
// not detected.
func (g *Geometry) Validate() error {
	if g.NumPolygons() == 0 {
		return eris.New("boundary: geometry has no polygons")
	}
	for i := 0; i < g.Polygons.NumPolygons(); i++ {
		p := g.Polygons.Polygon(i)
		if p.NumLinearRings() == 0 {
			return eris.Errorf("boundary: polygon %d is empty", i)
		}
		for j := 0; j < p.NumLinearRings(); j++ {
			if err := validateRing(p.LinearRing(j).FlatCoords()); err != nil {
				return eris.Wrapf(err, "boundary: polygon %d ring %d", i, j)
			}
		}
	}
	return nil
}

func validateRing(flat []float64) error {
	for _, v := range flat {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.New("non-finite coordinate")
		}
	}
	n := len(flat) / 2
	if n < 4 {
		return eris.Errorf("ring has %d points, need at least 4", n)
	}
	if flat[0] != flat[len(flat)-2] || flat[1] != flat[len(flat)-1] {
		return eris.New("ring is not closed")
	}
	if xy.SignedArea(geom.XY, flat) == 0 {
		return eris.New("ring has zero area")
	}
	return nil
}

// Repair returns a cleaned copy: rings are closed, repeated consecutive
// points removed, rings with non-finite coordinates or no area dropped,
// polygons whose shell was dropped removed, shells oriented
// counter-clockwise and holes clockwise.
func (g *Geometry) Repair() *Geometry {
	out := geom.NewMultiPolygon(geom.XY)
	for i := 0; i < g.NumPolygons(); i++ {
		p := g.Polygons.Polygon(i)
		var flat []float64
		var ends []int
		for j := 0; j < p.NumLinearRings(); j++ {
			ring, ok := repairRing(p.LinearRing(j).FlatCoords(), j == 0)
			if !ok {
				if j == 0 {
					break
				}
				continue
			}
			flat = append(flat, ring...)
			ends = append(ends, len(flat))
		}
		if len(ends) == 0 {
			continue
		}
		_ = out.Push(geom.NewPolygonFlat(geom.XY, flat, ends))
	}
	return &Geometry{Polygons: out, CRS: g.CRS}
}

func repairRing(flat []float64, shell bool) ([]float64, bool) {
	ring := make([]float64, 0, len(flat)+2)
	for i := 0; i+1 < len(flat); i += 2 {
		x, y := flat[i], flat[i+1]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return nil, false
		}
		if n := len(ring); n >= 2 && ring[n-2] == x && ring[n-1] == y {
			continue
		}
		ring = append(ring, x, y)
	}
	if len(ring) < 6 {
		return nil, false
	}
	if ring[0] != ring[len(ring)-2] || ring[1] != ring[len(ring)-1] {
		ring = append(ring, ring[0], ring[1])
	}
	if len(ring) < 8 {
		return nil, false
	}
	area := xy.SignedArea(geom.XY, ring)
	if area == 0 {
		return nil, false
	}
	// SignedArea is positive for clockwise rings.
	if (shell && area > 0) || (!shell && area < 0) {
		reverseRing(ring)
	}
	return ring, true
}

func reverseRing(flat []float64) {
	for i, j := 0, len(flat)-2; i < j; i, j = i+2, j-2 {
		flat[i], flat[j] = flat[j], flat[i]
		flat[i+1], flat[j+1] = flat[j+1], flat[i+1]
	}
}

// EnsureValid returns g when it is valid. Otherwise it attempts one repair
// and fails with a geometry error if the result is still invalid.
func EnsureValid(g *Geometry) (*Geometry, error) {
	const op = "boundary: validate"
	err := g.Validate()
	if err == nil {
		return g, nil
	}
	zap.L().Warn("boundary: invalid geometry, attempting repair", zap.Error(err))

	repaired := g.Repair()
	if rerr := repaired.Validate(); rerr != nil {
		return nil, failure.Geometry(op, eris.Wrapf(rerr, "repair failed (original problem: %v)", err))
	}
	return repaired, nil
}
