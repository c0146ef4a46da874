package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/boundary"
	"github.com/iitbhu2k25/Dss-muskan/internal/config"
	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
	"github.com/iitbhu2k25/Dss-muskan/internal/style"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const (
	originX = 500000.0
	originY = 2000000.0
	cell    = 10.0
	size    = 4
)

// triangleGeoJSON covers pixel (col, row) of the 4×4 test grid when col <= row.
const triangleGeoJSON = `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "EPSG:32644"}},
  "features": [{
    "type": "Feature",
    "properties": {"name": "basin"},
    "geometry": {"type": "Polygon", "coordinates": [[
      [500000, 2000000], [500045, 2000000], [500000, 2000045], [500000, 2000000]
    ]]}
  }]
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Processing: config.ProcessingConfig{
			ScratchDir:    t.TempDir(),
			ResX:          cell,
			ResY:          cell,
			Normalization: "none",
			Resampling:    "bilinear",
		},
		CRS:   config.CRSConfig{Default: "EPSG:32644", Target: "EPSG:32644"},
		Style: config.StyleConfig{Classes: 5, Ramp: "blue_to_red", LayerName: "raster_layer"},
		GeoServer: config.GeoServerConfig{
			Workspace: "raster_work",
			Store:     "stp_raster_store",
		},
	}
}

// writeASC writes a 4×4 grid; value(col, row) gives each pixel.
func writeASC(t *testing.T, dir, name string, value func(col, row int) float64) string {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "ncols %d\nnrows %d\nxllcorner %g\nyllcorner %g\ncellsize %g\n", size, size, originX, originY, cell)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if col > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%g", value(col, row))
		}
		b.WriteByte('\n')
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func constant(v float64) func(int, int) float64 {
	return func(int, int) float64 { return v }
}

func writeBoundary(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "basin.geojson")
	require.NoError(t, os.WriteFile(path, []byte(triangleGeoJSON), 0o644))
	return path
}

func readOutput(t *testing.T, res *Result) *raster.Raster {
	t.Helper()
	require.NotEmpty(t, res.OutputPath)
	r, err := raster.DefaultRegistry().Read(res.OutputPath)
	require.NoError(t, err)
	return r
}

func assertScratchEmpty(t *testing.T, cfg *config.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.Processing.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory should be removed")
}

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", failure.Validationf("catalog: resolve", "layer %q not found", name)
	}
	return p, nil
}

type fakeBoundaries struct {
	geom  *boundary.Geometry
	level boundary.Level
	codes []int
}

func (f *fakeBoundaries) Lookup(_ context.Context, level boundary.Level, codes []int) (*boundary.Geometry, error) {
	f.level = level
	f.codes = codes
	return f.geom, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	calls    []string
	failOn   string
	uploaded []string // files next to the uploaded raster
	sld      []byte
	source   string // file served by DownloadCoverage
}

func (f *fakePublisher) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if call == f.failOn {
		return errors.New(call + " refused")
	}
	return nil
}

func (f *fakePublisher) EnsureWorkspace(_ context.Context, ws string) error {
	return f.record("EnsureWorkspace")
}

func (f *fakePublisher) UploadCoverage(_ context.Context, ws, store, coverage, rasterPath string) error {
	matches, _ := filepath.Glob(strings.TrimSuffix(rasterPath, filepath.Ext(rasterPath)) + ".*")
	for _, m := range matches {
		f.uploaded = append(f.uploaded, filepath.Base(m))
	}
	return f.record("UploadCoverage")
}

func (f *fakePublisher) UploadStyle(_ context.Context, ws, name string, sld []byte) error {
	f.sld = sld
	return f.record("UploadStyle")
}

func (f *fakePublisher) ApplyStyle(_ context.Context, ws, layer, style string) error {
	return f.record("ApplyStyle")
}

func (f *fakePublisher) DownloadCoverage(_ context.Context, ws, layer, destPath string) error {
	if err := f.record("DownloadCoverage"); err != nil {
		return err
	}
	data, err := os.ReadFile(f.source)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0o644)
}

func TestRun_EqualWeightsInsideBoundary(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()
	out := t.TempDir()
	resolver := mapResolver{
		"rainfall": writeASC(t, in, "rainfall.asc", constant(10)),
		"slope":    writeASC(t, in, "slope.asc", constant(20)),
	}
	constraint := writeASC(t, in, "constraint.asc", constant(1))
	pub := &fakePublisher{}

	p := New(cfg, resolver, nil, pub, nil)
	res, err := p.Run(context.Background(), Request{
		Layers:     []LayerInput{{Name: "rainfall", Weight: 0.5}, {Name: "slope", Weight: 0.5}},
		Constraint: constraint,
		Boundary:   BoundaryRef{Path: writeBoundary(t, in)},
		OutputDir:  out,
		ReportPath: filepath.Join(out, "classes.csv"),
	})
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "raster", res.Type)
	assert.True(t, res.Published)
	assert.Equal(t, "raster_work", res.Workspace)
	assert.Equal(t, "stp_raster_store_"+res.RunID[:8], res.Store)
	assert.Regexp(t, `^stp_priority_[0-9a-f]{32}_map$`, res.Layer)
	assert.Equal(t, "style_"+res.RunID, res.Style)
	assert.Equal(t, size, res.Grid.Width)
	assert.Equal(t, size, res.Grid.Height)

	r := readOutput(t, res)
	require.NotNil(t, r.NoData)
	assert.Equal(t, -9999.0, *r.NoData)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			i := r.Index(col, row)
			if col > row {
				assert.False(t, r.ValidAt(i), "pixel (%d,%d) is outside the boundary", col, row)
				continue
			}
			assert.Equal(t, float32(15), r.Data[i], "pixel (%d,%d)", col, row)
		}
	}

	assert.Equal(t, 10, res.Summary.ValidPixels)
	assert.FileExists(t, filepath.Join(out, "classes.csv"))
	assert.FileExists(t, res.StylePath)
	assert.FileExists(t, raster.PrjPath(res.OutputPath))

	assert.Equal(t, []string{"EnsureWorkspace", "UploadCoverage", "UploadStyle", "ApplyStyle"}, pub.calls)
	assert.ElementsMatch(t, []string{res.Layer + ".asc", res.Layer + ".prj"}, pub.uploaded)
	doc, err := style.ParseSLD(pub.sld)
	require.NoError(t, err)
	assert.NotNil(t, doc)

	assertScratchEmpty(t, cfg)
}

func TestRun_ConstraintVetoesEverything(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()

	p := New(cfg, nil, nil, nil, nil)
	res, err := p.Run(context.Background(), Request{
		Layers: []LayerInput{
			{Name: writeASC(t, in, "a.asc", constant(10)), Weight: 0.7},
			{Name: writeASC(t, in, "b.asc", constant(30)), Weight: 0.3},
		},
		Constraint: writeASC(t, in, "c.asc", constant(0)),
		Boundary:   BoundaryRef{Path: writeBoundary(t, in)},
		NoPublish:  true,
		OutputDir:  t.TempDir(),
	})
	require.NoError(t, err)
	assert.False(t, res.Published)
	assert.Empty(t, res.Workspace)

	r := readOutput(t, res)
	for i, v := range r.Data {
		if r.ValidAt(i) {
			assert.Equal(t, float32(0), v, "pixel %d", i)
		}
	}
	assert.Equal(t, 10, res.Summary.ValidPixels)
	for _, b := range res.Scheme.Breaks {
		assert.Equal(t, 0.0, b)
	}
}

func TestRun_SingleWeightSelectsNormalizedLayer(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()
	ramp := func(col, row int) float64 { return float64(row*size + col) }

	p := New(cfg, nil, nil, nil, nil)
	res, err := p.Run(context.Background(), Request{
		Layers: []LayerInput{
			{Name: writeASC(t, in, "ramp.asc", ramp), Weight: 1},
			{Name: writeASC(t, in, "b.asc", constant(5)), Weight: 0},
			{Name: writeASC(t, in, "c.asc", constant(7)), Weight: 0},
		},
		Constraint:    writeASC(t, in, "mask.asc", constant(2)),
		Boundary:      BoundaryRef{Path: writeBoundary(t, in)},
		Normalization: "minmax",
		NoPublish:     true,
		OutputDir:     t.TempDir(),
	})
	require.NoError(t, err)

	r := readOutput(t, res)
	span := 15 + 1e-6
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			i := r.Index(col, row)
			if col > row {
				assert.False(t, r.ValidAt(i), "pixel (%d,%d)", col, row)
				continue
			}
			assert.InDelta(t, ramp(col, row)/span, float64(r.Data[i]), 1e-5, "pixel (%d,%d)", col, row)
		}
	}
}

func TestRun_AdministrativeBoundary(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()

	utm, err := crs.FromEPSG(32644)
	require.NoError(t, err)
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(geom.NewPolygonFlat(geom.XY, []float64{
		originX, originY, originX + 20, originY, originX + 20, originY + 40, originX, originY + 40, originX, originY,
	}, []int{10})))
	bounds := &fakeBoundaries{geom: boundary.New(mp, utm)}

	p := New(cfg, nil, bounds, nil, nil)
	res, err := p.Run(context.Background(), Request{
		Layers:     []LayerInput{{Name: writeASC(t, in, "a.asc", constant(3)), Weight: 1}},
		Constraint: writeASC(t, in, "c.asc", constant(1)),
		Boundary:   BoundaryRef{Level: "district", Codes: []int{101, 102}},
		NoPublish:  true,
		OutputDir:  t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, boundary.Level("district"), bounds.level)
	assert.Equal(t, []int{101, 102}, bounds.codes)

	r := readOutput(t, res)
	assert.Equal(t, 2, r.Width)
	assert.Equal(t, size, r.Height)
	for _, v := range r.Data {
		assert.Equal(t, float32(3), v)
	}
}

func TestRun_Validation(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, nil, nil, nil, nil)

	tests := []struct {
		name string
		req  Request
	}{
		{"no layers", Request{Constraint: "c.asc"}},
		{"negative weight", Request{Layers: []LayerInput{{Name: "a.asc", Weight: -1}}, Constraint: "c.asc"}},
		{"no constraint", Request{Layers: []LayerInput{{Name: "a.asc", Weight: 1}}}},
		{"unknown normalization", Request{Layers: []LayerInput{{Name: "a.asc", Weight: 1}}, Constraint: "c.asc", Normalization: "zscore"}},
		{"catalog name without catalog", Request{Layers: []LayerInput{{Name: "rainfall", Weight: 1}}, Constraint: "c.asc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, failure.Is(err, failure.KindValidation), "got %v", err)
		})
	}
	assertScratchEmpty(t, cfg)
}

func TestRun_MissingInputCleansScratch(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()

	p := New(cfg, nil, nil, nil, nil)
	_, err := p.Run(context.Background(), Request{
		Layers:     []LayerInput{{Name: filepath.Join(in, "missing.asc"), Weight: 1}},
		Constraint: writeASC(t, in, "c.asc", constant(1)),
		Boundary:   BoundaryRef{Path: writeBoundary(t, in)},
		NoPublish:  true,
	})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindIO), "got %v", err)
	assertScratchEmpty(t, cfg)
}

func TestRun_NoBoundary(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()

	p := New(cfg, nil, nil, nil, nil)
	_, err := p.Run(context.Background(), Request{
		Layers:     []LayerInput{{Name: writeASC(t, in, "a.asc", constant(1)), Weight: 1}},
		Constraint: writeASC(t, in, "c.asc", constant(1)),
		NoPublish:  true,
	})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindValidation))
}

func TestRun_ReclassifyMatchesPublishedBreaks(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()

	p := New(cfg, nil, nil, nil, nil)
	res, err := p.Run(context.Background(), Request{
		Layers: []LayerInput{
			{Name: writeASC(t, in, "a.asc", constant(10)), Weight: 0.5},
			{Name: writeASC(t, in, "b.asc", constant(20)), Weight: 0.5},
		},
		Constraint: writeASC(t, in, "c.asc", constant(1)),
		Boundary:   BoundaryRef{Path: writeBoundary(t, in)},
		NoPublish:  true,
		OutputDir:  t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{15, 15, 15, 15, 15}, res.Scheme.Breaks)

	pub := &fakePublisher{source: res.OutputPath}
	re, err := New(cfg, nil, nil, pub, nil).Classify(context.Background(), ClassifyRequest{Layer: res.Layer})
	require.NoError(t, err)
	assert.Equal(t, res.Scheme.Breaks, re.Scheme.Breaks)
}

func TestRun_ConfiguredNoData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Processing.NoData = -1
	in := t.TempDir()

	p := New(cfg, nil, nil, nil, nil)
	res, err := p.Run(context.Background(), Request{
		Layers:     []LayerInput{{Name: writeASC(t, in, "a.asc", constant(4)), Weight: 1}},
		Constraint: writeASC(t, in, "c.asc", constant(1)),
		Boundary:   BoundaryRef{Path: writeBoundary(t, in)},
		NoPublish:  true,
		OutputDir:  t.TempDir(),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "NODATA_value -1\n")

	r := readOutput(t, res)
	assert.False(t, r.ValidAt(r.Index(size-1, 0)))
	assert.True(t, r.ValidAt(r.Index(0, 0)))
	assert.Equal(t, float32(4), r.Data[r.Index(0, 0)])
}

func TestRun_PublishFailure(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()
	pub := &fakePublisher{failOn: "UploadStyle"}

	p := New(cfg, nil, nil, pub, nil)
	_, err := p.Run(context.Background(), Request{
		Layers:     []LayerInput{{Name: writeASC(t, in, "a.asc", constant(1)), Weight: 1}},
		Constraint: writeASC(t, in, "c.asc", constant(1)),
		Boundary:   BoundaryRef{Path: writeBoundary(t, in)},
	})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindPublish))
	assert.Equal(t, []string{"EnsureWorkspace", "UploadCoverage", "UploadStyle"}, pub.calls)
	assertScratchEmpty(t, cfg)
}

func TestRun_NoPublisher(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()

	p := New(cfg, nil, nil, nil, nil)
	_, err := p.Run(context.Background(), Request{
		Layers:     []LayerInput{{Name: writeASC(t, in, "a.asc", constant(1)), Weight: 1}},
		Constraint: writeASC(t, in, "c.asc", constant(1)),
		Boundary:   BoundaryRef{Path: writeBoundary(t, in)},
	})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindPublish))
}

func TestClassify(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()
	pub := &fakePublisher{
		source: writeASC(t, in, "published.asc", func(col, row int) float64 { return float64(row*size + col) }),
	}

	p := New(cfg, nil, nil, pub, nil)
	res, err := p.Classify(context.Background(), ClassifyRequest{Layer: "stp_priority_abc_map", Classes: 4, Ramp: "viridis"})
	require.NoError(t, err)

	assert.Equal(t, "raster_work", res.Workspace)
	assert.True(t, strings.HasPrefix(res.Style, "style_"))
	assert.Equal(t, []float64{0, 5, 10, 15}, res.Scheme.Breaks)
	assert.Len(t, res.Scheme.Colors, 4)
	assert.Equal(t, []string{"DownloadCoverage", "UploadStyle", "ApplyStyle"}, pub.calls)
	assert.NotEmpty(t, pub.sld)
	assertScratchEmpty(t, cfg)
}

func TestClassify_DownloadFailure(t *testing.T) {
	cfg := testConfig(t)
	pub := &fakePublisher{failOn: "DownloadCoverage"}

	p := New(cfg, nil, nil, pub, nil)
	_, err := p.Classify(context.Background(), ClassifyRequest{Layer: "missing"})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindPublish))
	assert.Equal(t, []string{"DownloadCoverage"}, pub.calls)
	assertScratchEmpty(t, cfg)
}

func TestClassify_RequiresLayer(t *testing.T) {
	p := New(testConfig(t), nil, nil, &fakePublisher{}, nil)
	_, err := p.Classify(context.Background(), ClassifyRequest{})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindValidation))
}
