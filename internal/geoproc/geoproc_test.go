package geoproc

import (
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/boundary"
	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func utm() crs.CRS {
	c, _ := crs.FromEPSG(32644)
	return c
}

func profileAt(ox, oy, res float64, w, h int) raster.Profile {
	return raster.Profile{
		CRS:       utm(),
		Transform: raster.NorthUp(ox, oy, res, res),
		Width:     w,
		Height:    h,
		BandCount: 1,
		DataType:  raster.DataTypeFloat32,
	}
}

// wgsProfile is a 10×10 lon/lat grid of 0.01° cells with its south-west
// corner at 81°E 20°N, on the central meridian of UTM zone 44.
func wgsProfile() raster.Profile {
	return raster.Profile{
		CRS:       crs.WGS84,
		Transform: raster.NorthUp(81, 20.1, 0.01, 0.01),
		Width:     10,
		Height:    10,
		BandCount: 1,
		DataType:  raster.DataTypeFloat32,
	}
}

func filled(p raster.Profile, v float32) *raster.Raster {
	r := raster.New(p)
	for i := range r.Data {
		r.Data[i] = v
	}
	return r
}

// ramp fills pixel i with float32(i).
func ramp(p raster.Profile) *raster.Raster {
	r := raster.New(p)
	for i := range r.Data {
		r.Data[i] = float32(i)
	}
	return r
}

func rect(minX, minY, maxX, maxY float64, c crs.CRS) *boundary.Geometry {
	mp := geom.NewMultiPolygon(geom.XY)
	_ = mp.Push(geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	}, []int{10}))
	return boundary.New(mp, c)
}

type memReader map[string]*raster.Raster

func (m memReader) Read(path string) (*raster.Raster, error) {
	r, ok := m[path]
	if !ok {
		return nil, errNotFound(path)
	}
	return r, nil
}

type errNotFound string

func (e errNotFound) Error() string { return "not found: " + string(e) }
