package boundary

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
)

// ReadGeoJSON reads a FeatureCollection, a Feature or a bare geometry. A
// legacy "crs" member is honoured; without one the file is taken to be
// WGS84 longitude/latitude as RFC 7946 requires.
func ReadGeoJSON(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: read %s", path)
	}
	g, err := ParseGeoJSON(data)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: %s", path)
	}
	return g, nil
}

// ParseGeoJSON decodes GeoJSON bytes. See ReadGeoJSON.
func ParseGeoJSON(data []byte) (*Geometry, error) {
	var head struct {
		Type string       `json:"type"`
		CRS  *geojson.CRS `json:"crs"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "boundary: decode geojson")
	}

	c := crs.WGS84
	if head.CRS != nil {
		name, _ := head.CRS.Properties["name"].(string)
		parsed, err := crs.Parse(name)
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: geojson crs %q", name)
		}
		c = parsed
	}

	var geoms []geom.T
	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "boundary: decode feature collection")
		}
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geoms = append(geoms, f.Geometry)
			}
		}
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "boundary: decode feature")
		}
		if f.Geometry != nil {
			geoms = append(geoms, f.Geometry)
		}
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrap(err, "boundary: decode geometry")
		}
		geoms = append(geoms, g)
	}

	var parts []*Geometry
	for _, g := range geoms {
		switch g.(type) {
		case *geom.Polygon, *geom.MultiPolygon, *geom.GeometryCollection:
			part, err := FromT(g, c)
			if err != nil {
				return nil, err
			}
			if part.NumPolygons() > 0 {
				parts = append(parts, part)
			}
		}
	}
	if len(parts) == 0 {
		return nil, eris.New("boundary: geojson contains no polygons")
	}
	return Merge(parts...)
}
