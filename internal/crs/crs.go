// Package crs resolves coordinate reference systems and builds coordinate
// transformers. All projection math is delegated to github.com/ctessum/geom/proj.
package crs

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
)

// CRS identifies a coordinate reference system by an optional short name
// (e.g. "EPSG:32644") and its PROJ.4 or WKT definition.
type CRS struct {
	Name string
	Def  string
}

// WGS84 is geographic longitude/latitude on the WGS84 datum.
var WGS84 = CRS{Name: "EPSG:4326", Def: "+proj=longlat +datum=WGS84 +no_defs"}

// WebMercator is the spherical mercator used by web maps.
var WebMercator = CRS{
	Name: "EPSG:3857",
	Def:  "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs",
}

var epsgDefs = map[int]string{
	4326: WGS84.Def,
	3857: WebMercator.Def,
	4269: "+proj=longlat +datum=NAD83 +no_defs",
	7755: "+proj=lcc +lat_0=24 +lon_0=80 +lat_1=12.472955 +lat_2=35.1728044444444 +x_0=4000000 +y_0=4000000 +ellps=WGS84 +units=m +no_defs",
}

// IsZero reports whether the CRS is unset.
func (c CRS) IsZero() bool {
	return c.Def == "" && c.Name == ""
}

func (c CRS) String() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Def) > 48 {
		return c.Def[:48] + "..."
	}
	return c.Def
}

// Equal reports whether two CRS share the same definition.
func (c CRS) Equal(o CRS) bool {
	if c.Name != "" && c.Name == o.Name {
		return true
	}
	return normalizeDef(c.Def) != "" && normalizeDef(c.Def) == normalizeDef(o.Def)
}

func normalizeDef(def string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(def)), " ")
}

// FromEPSG returns the CRS for a supported EPSG code. UTM zones on WGS84
// (EPSG:32601-32660 north, 32701-32760 south) are generated.
func FromEPSG(code int) (CRS, error) {
	name := "EPSG:" + strconv.Itoa(code)
	if def, ok := epsgDefs[code]; ok {
		return CRS{Name: name, Def: def}, nil
	}
	switch {
	case code >= 32601 && code <= 32660:
		return CRS{Name: name, Def: fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", code-32600)}, nil
	case code >= 32701 && code <= 32760:
		return CRS{Name: name, Def: fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", code-32700)}, nil
	}
	return CRS{}, eris.Errorf("crs: unsupported EPSG code %d", code)
}

// Parse resolves "EPSG:nnnn", "urn:ogc:def:crs:EPSG::nnnn", a PROJ.4 string,
// or a WKT definition.
func Parse(s string) (CRS, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CRS{}, eris.New("crs: empty definition")
	}

	if code, ok := epsgCode(s); ok {
		return FromEPSG(code)
	}

	if _, err := proj.Parse(s); err != nil {
		return CRS{}, eris.Wrapf(err, "crs: parse %q", truncate(s, 64))
	}
	return CRS{Def: s}, nil
}

func epsgCode(s string) (int, bool) {
	upper := strings.ToUpper(s)
	var digits string
	switch {
	case strings.HasPrefix(upper, "EPSG:"):
		digits = s[len("EPSG:"):]
	case strings.HasPrefix(upper, "URN:OGC:DEF:CRS:EPSG:"):
		digits = s[strings.LastIndex(s, ":")+1:]
	default:
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil {
		return 0, false
	}
	return code, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Transformer converts coordinates from a source to a destination CRS.
type Transformer struct {
	src, dst CRS
	fn       proj.Transformer
}

// NewTransformer builds a transformer between two CRS. Both must be set.
func NewTransformer(src, dst CRS) (*Transformer, error) {
	if src.IsZero() {
		return nil, eris.New("crs: source CRS is undefined")
	}
	if dst.IsZero() {
		return nil, eris.New("crs: destination CRS is undefined")
	}
	if src.Equal(dst) {
		return &Transformer{src: src, dst: dst}, nil
	}

	srcSR, err := proj.Parse(src.Def)
	if err != nil {
		return nil, eris.Wrapf(err, "crs: parse source %s", src)
	}
	dstSR, err := proj.Parse(dst.Def)
	if err != nil {
		return nil, eris.Wrapf(err, "crs: parse destination %s", dst)
	}
	fn, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, eris.Wrapf(err, "crs: transform %s -> %s", src, dst)
	}
	return &Transformer{src: src, dst: dst, fn: fn}, nil
}

// Identity reports whether the transformer leaves coordinates unchanged.
func (t *Transformer) Identity() bool {
	return t.fn == nil
}

// Transform converts a single coordinate.
func (t *Transformer) Transform(x, y float64) (float64, float64, error) {
	if t.fn == nil {
		return x, y, nil
	}
	tx, ty, err := t.fn(x, y)
	if err != nil {
		return 0, 0, err
	}
	if math.IsNaN(tx) || math.IsNaN(ty) || math.IsInf(tx, 0) || math.IsInf(ty, 0) {
		return 0, 0, eris.Errorf("crs: (%g, %g) has no finite image in %s", x, y, t.dst)
	}
	return tx, ty, nil
}

// DefaultDensify is the number of points sampled along each bounds edge.
const DefaultDensify = 21

// TransformBounds projects an axis-aligned box by sampling densify points
// along every edge and returning the min/max of the projected samples.
func (t *Transformer) TransformBounds(minX, minY, maxX, maxY float64, densify int) (float64, float64, float64, float64, error) {
	if t.Identity() {
		return minX, minY, maxX, maxY, nil
	}
	if densify < 2 {
		densify = 2
	}

	outMinX, outMinY := math.Inf(1), math.Inf(1)
	outMaxX, outMaxY := math.Inf(-1), math.Inf(-1)
	var ok int
	add := func(x, y float64) {
		tx, ty, err := t.Transform(x, y)
		if err != nil {
			return
		}
		ok++
		outMinX = math.Min(outMinX, tx)
		outMinY = math.Min(outMinY, ty)
		outMaxX = math.Max(outMaxX, tx)
		outMaxY = math.Max(outMaxY, ty)
	}

	for i := 0; i < densify; i++ {
		f := float64(i) / float64(densify-1)
		x := minX + f*(maxX-minX)
		y := minY + f*(maxY-minY)
		add(x, minY)
		add(x, maxY)
		add(minX, y)
		add(maxX, y)
	}

	if ok == 0 {
		return 0, 0, 0, 0, eris.Errorf("crs: bounds (%g %g, %g %g) cannot be transformed to %s", minX, minY, maxX, maxY, t.dst)
	}
	return outMinX, outMinY, outMaxX, outMaxY, nil
}
