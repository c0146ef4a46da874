package boundary

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// AttributeFilter keeps only records whose Field attribute is one of Values.
// A zero filter keeps every record.
type AttributeFilter struct {
	Field  string
	Values []string
}

func (f AttributeFilter) active() bool {
	return f.Field != "" && len(f.Values) > 0
}

// ReadShapefile reads every polygon record of a shapefile into one geometry.
// The CRS comes from the .prj sidecar and is unset when there is none.
func ReadShapefile(path string, filter AttributeFilter) (*Geometry, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := -1
	keep := map[string]bool{}
	if filter.active() {
		for i, f := range reader.Fields() {
			name := strings.TrimRight(f.String(), "\x00")
			if strings.EqualFold(name, filter.Field) {
				fieldIdx = i
				break
			}
		}
		if fieldIdx < 0 {
			return nil, eris.Errorf("boundary: shapefile %s has no field %q", path, filter.Field)
		}
		for _, v := range filter.Values {
			keep[strings.TrimSpace(v)] = true
		}
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var skipped, records int
	for reader.Next() {
		_, shape := reader.Shape()
		if fieldIdx >= 0 {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(fieldIdx), "\x00"))
			if !keep[val] {
				continue
			}
		}
		records++

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}
		for _, p := range shpPolygonToPolygons(poly) {
			if err := mp.Push(p); err != nil {
				skipped++
			}
		}
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "boundary: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	if mp.NumPolygons() == 0 {
		return nil, eris.Errorf("boundary: shapefile %s has no polygons (%d records matched)", path, records)
	}

	c, err := raster.ReadPrj(path)
	if err != nil {
		return nil, err
	}
	return &Geometry{Polygons: mp, CRS: c}, nil
}

// shpPolygonToPolygons splits a shapefile polygon record into polygons.
// Shapefile shells are clockwise and holes counter-clockwise; each hole is
// attached to the shell that contains its first vertex.
func shpPolygonToPolygons(p *shp.Polygon) []*geom.Polygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var shells [][]float64
	var holes [][]float64
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || end-start < 3 {
			continue
		}
		ring := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			ring = append(ring, p.Points[j].X, p.Points[j].Y)
		}
		if xy.SignedArea(geom.XY, ring) >= 0 {
			shells = append(shells, ring)
		} else {
			holes = append(holes, ring)
		}
	}
	if len(shells) == 0 {
		// Orientation is wrong throughout; treat every ring as a shell.
		shells, holes = holes, nil
	}

	members := make([][][]float64, len(shells))
	for i, s := range shells {
		members[i] = [][]float64{s}
	}
	for _, h := range holes {
		owner := len(shells) - 1
		pt := geom.Coord{h[0], h[1]}
		for i, s := range shells {
			if xy.IsPointInRing(geom.XY, pt, s) {
				owner = i
				break
			}
		}
		members[owner] = append(members[owner], h)
	}

	out := make([]*geom.Polygon, 0, len(members))
	for _, rings := range members {
		var flat []float64
		ends := make([]int, 0, len(rings))
		for _, r := range rings {
			flat = append(flat, r...)
			ends = append(ends, len(flat))
		}
		out = append(out, geom.NewPolygonFlat(geom.XY, flat, ends))
	}
	return out
}

// WriteShapefile writes g as a single-record polygon shapefile with a .prj
// sidecar.
func WriteShapefile(path string, g *Geometry) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "boundary: create shapefile %s", path)
	}

	var parts [][]shp.Point
	for i := 0; i < g.NumPolygons(); i++ {
		p := g.Polygons.Polygon(i)
		for j := 0; j < p.NumLinearRings(); j++ {
			flat := p.LinearRing(j).FlatCoords()
			pts := make([]shp.Point, 0, len(flat)/2)
			for k := 0; k+1 < len(flat); k += 2 {
				pts = append(pts, shp.Point{X: flat[k], Y: flat[k+1]})
			}
			// Shapefile shells run clockwise.
			area := xy.SignedArea(geom.XY, flat)
			if (j == 0 && area < 0) || (j > 0 && area > 0) {
				for a, b := 0, len(pts)-1; a < b; a, b = a+1, b-1 {
					pts[a], pts[b] = pts[b], pts[a]
				}
			}
			parts = append(parts, pts)
		}
	}
	poly := shp.Polygon(*shp.NewPolyLine(parts))
	w.Write(&poly)
	w.Close()

	return raster.WritePrj(path, g.CRS)
}
