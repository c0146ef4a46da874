package pipeline

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/boundary"
	"github.com/iitbhu2k25/Dss-muskan/internal/crs"
	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/geoproc"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
	"github.com/iitbhu2k25/Dss-muskan/internal/report"
	"github.com/iitbhu2k25/Dss-muskan/internal/style"
)

var errNoPublisher = eris.New("no publisher configured")

// LayerName is the published name of a run's final raster.
func LayerName(id string) string {
	return "stp_priority_" + id + "_map"
}

// StyleName is the published name of a generated style.
func StyleName(id string) string {
	return "style_" + id
}

// runID is the scratch directory's UUID without dashes.
func runID(s *raster.Scratch) string {
	return strings.ReplaceAll(s.ID(), "-", "")
}

// settings is a Request with configuration defaults applied and parsed.
type settings struct {
	target, fallback crs.CRS
	resX, resY       float64
	classes          int
	ramp             string
	labels           []string
	norm             geoproc.Normalization
	resampling       geoproc.Resampling
	nodata           float64
}

func (p *Pipeline) settings(req Request) (settings, error) {
	const op = "pipeline: validate request"
	s := settings{
		resX:    req.ResX,
		resY:    req.ResY,
		classes: req.Classes,
		ramp:    req.Ramp,
		labels:  req.Labels,
	}
	if len(req.Layers) == 0 {
		return s, failure.Validationf(op, "no data found: the request has no layers")
	}
	for i, l := range req.Layers {
		if strings.TrimSpace(l.Name) == "" {
			return s, failure.Validationf(op, "layer %d has no name", i)
		}
		if l.Weight < 0 || math.IsNaN(l.Weight) || math.IsInf(l.Weight, 0) {
			return s, failure.Validationf(op, "layer %q has weight %g; weights must be finite and non-negative", l.Name, l.Weight)
		}
	}
	if strings.TrimSpace(req.Constraint) == "" {
		return s, failure.Validationf(op, "no constraint layer given")
	}

	var err error
	if s.fallback, err = parseCRS(p.cfg.CRS.Default, crs.CRS{}); err != nil {
		return s, err
	}
	if s.target, err = parseCRS(req.TargetCRS, crs.CRS{}); err != nil {
		return s, err
	}
	if s.target.IsZero() {
		if s.target, err = parseCRS(p.cfg.CRS.Target, s.fallback); err != nil {
			return s, err
		}
	}

	if s.resX == 0 {
		s.resX = p.cfg.Processing.ResX
	}
	if s.resY == 0 {
		s.resY = p.cfg.Processing.ResY
	}
	if s.classes == 0 {
		s.classes = p.cfg.Style.Classes
	}
	if s.ramp == "" {
		s.ramp = p.cfg.Style.Ramp
	}
	if s.labels == nil {
		s.labels = p.cfg.Style.Labels
	}
	norm := req.Normalization
	if norm == "" {
		norm = p.cfg.Processing.Normalization
	}
	if s.norm, err = geoproc.ParseNormalization(norm); err != nil {
		return s, err
	}
	if s.resampling, err = geoproc.ParseResampling(p.cfg.Processing.Resampling); err != nil {
		return s, err
	}
	s.nodata = p.cfg.Processing.NoData
	if s.nodata == 0 {
		s.nodata = geoproc.DefaultNoData
	}
	return s, nil
}

// Run executes one priority map request. Intermediate files live in a
// scratch directory that is removed on every return path. Nothing is
// published unless every stage before publishing succeeded.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	set, err := p.settings(req)
	if err != nil {
		return nil, err
	}

	scratch, err := raster.NewScratch(p.cfg.Processing.ScratchDir)
	if err != nil {
		return nil, failure.IO("pipeline: scratch", err)
	}
	id := runID(scratch)
	log := zap.L().With(zap.String("run_id", id))
	log.Info("pipeline: starting priority map", zap.Int("layers", len(req.Layers)))
	defer func() {
		if err := scratch.Cleanup(); err != nil {
			log.Warn("pipeline: scratch cleanup failed", zap.Error(err))
		}
	}()

	result := &Result{
		RunID: id,
		Layer: LayerName(id),
		Style: StyleName(id),
		Type:  "raster",
	}

	var (
		layerPaths     []string
		constraintPath string
		weights        = make([]float64, len(req.Layers))
		arrays         [][]float32
		ref            raster.Profile
		overlay        *geoproc.OverlayResult
		constrained    *raster.Raster
		final          *raster.Raster
		finalPath      = filepath.Join(scratch.Dir(), result.Layer+".asc")
		sld            []byte
		sldPath        = filepath.Join(scratch.Dir(), result.Style+".sld")
	)

	if err := stage(log, "resolve", func() error {
		for i, l := range req.Layers {
			path, err := p.resolveRaster(ctx, l.Name, scratch.Dir())
			if err != nil {
				return err
			}
			layerPaths = append(layerPaths, path)
			weights[i] = l.Weight
			log.Debug("pipeline: resolved layer", zap.String("layer", l.Name), zap.String("path", path), zap.Float64("weight", l.Weight))
		}
		constraintPath, err = p.resolveRaster(ctx, req.Constraint, scratch.Dir())
		return err
	}); err != nil {
		return nil, err
	}

	if err := stage(log, "grid", func() error {
		profiles := make([]raster.Profile, len(layerPaths))
		for i, path := range layerPaths {
			prof, err := p.rasters.ReadProfile(path)
			if err != nil {
				return err
			}
			profiles[i] = withCRS(prof, set.fallback)
		}
		result.Grid, err = geoproc.ResolveGrid(profiles, set.target, set.resX, set.resY)
		return err
	}); err != nil {
		return nil, err
	}
	log.Info("pipeline: grid resolved",
		zap.Int("width", result.Grid.Width),
		zap.Int("height", result.Grid.Height),
		zap.Stringer("crs", result.Grid.CRS),
	)

	reader := &defaultCRSReader{rasters: p.rasters, fallback: set.fallback}
	if err := stage(log, "align", func() error {
		arrays, ref, err = geoproc.AlignAll(reader, layerPaths, result.Grid, set.resampling)
		if err != nil {
			return err
		}
		for i := range arrays {
			geoproc.Normalize(arrays[i], set.norm)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := stage(log, "overlay", func() error {
		overlay, err = geoproc.WeightedOverlay(arrays, weights, ref)
		if err != nil {
			return err
		}
		arrays = nil
		return p.rasters.Write(scratch.Path("weighted_overlay", ".asc"), overlay.Raster())
	}); err != nil {
		return nil, err
	}

	if err := stage(log, "constraint", func() error {
		src, err := reader.Read(constraintPath)
		if err != nil {
			return err
		}
		aligned, err := geoproc.Align(src, result.Grid, geoproc.Nearest)
		if err != nil {
			return err
		}
		constrained, err = geoproc.ApplyConstraint(overlay, geoproc.ConstraintMask(aligned))
		if err != nil {
			return err
		}
		return p.rasters.Write(scratch.Path("constrained_overlay", ".asc"), constrained)
	}); err != nil {
		return nil, err
	}

	if err := stage(log, "clip", func() error {
		var area *boundary.Geometry
		area, err = p.loadBoundary(ctx, req.Boundary, scratch.Dir())
		if err != nil {
			return err
		}
		if constrained.NoData == nil {
			constrained.Profile = constrained.Profile.WithNoData(set.nodata)
		}
		final, err = geoproc.Clip(constrained, area, set.fallback)
		if err != nil {
			return err
		}
		return p.rasters.Write(finalPath, final)
	}); err != nil {
		return nil, err
	}

	if err := stage(log, "style", func() error {
		result.Scheme, err = style.Build(final, set.classes, set.ramp, set.labels)
		if err != nil {
			return err
		}
		sld, err = style.BuildSLD(result.Scheme, p.cfg.Style.LayerName)
		if err != nil {
			return err
		}
		return writeFile(sldPath, sld)
	}); err != nil {
		return nil, err
	}

	result.Summary = report.Summarize(result.Layer, final, result.Scheme)
	if req.ReportPath != "" {
		if err := report.Write(req.ReportPath, result.Summary); err != nil {
			return nil, failure.IO("pipeline: report", err)
		}
	}

	if outDir := firstNonEmpty(req.OutputDir, p.cfg.Processing.OutputDir); outDir != "" {
		if err := stage(log, "export", func() error {
			result.OutputPath, result.StylePath, err = export(outDir, finalPath, sldPath)
			return err
		}); err != nil {
			return nil, err
		}
	}

	if !req.NoPublish {
		if err := stage(log, "publish", func() error {
			return p.publish(ctx, result, finalPath, sld)
		}); err != nil {
			return nil, err
		}
	}

	result.Status = "success"
	log.Info("pipeline: priority map complete",
		zap.String("layer", result.Layer),
		zap.Bool("published", result.Published),
	)
	return result, nil
}

func (p *Pipeline) publish(ctx context.Context, result *Result, rasterPath string, sld []byte) error {
	const op = "pipeline: publish"
	if p.publisher == nil {
		return failure.Publish(op, errNoPublisher)
	}
	ws := p.cfg.GeoServer.Workspace
	store := result.Layer
	if p.cfg.GeoServer.Store != "" {
		store = p.cfg.GeoServer.Store + "_" + result.RunID[:8]
	}

	if err := p.publisher.EnsureWorkspace(ctx, ws); err != nil {
		return failure.Publish(op, err)
	}
	if err := p.publisher.UploadCoverage(ctx, ws, store, result.Layer, rasterPath); err != nil {
		return failure.Publish(op, err)
	}
	if err := p.publisher.UploadStyle(ctx, ws, result.Style, sld); err != nil {
		return failure.Publish(op, err)
	}
	if err := p.publisher.ApplyStyle(ctx, ws, result.Layer, result.Style); err != nil {
		return failure.Publish(op, err)
	}
	result.Workspace = ws
	result.Store = store
	result.Published = true
	return nil
}

// defaultCRSReader assigns the fallback CRS to rasters that have none.
type defaultCRSReader struct {
	rasters  *raster.Registry
	fallback crs.CRS
}

func (r *defaultCRSReader) Read(path string) (*raster.Raster, error) {
	ras, err := r.rasters.Read(path)
	if err != nil {
		return nil, err
	}
	ras.Profile = withCRS(ras.Profile, r.fallback)
	return ras, nil
}

func withCRS(p raster.Profile, fallback crs.CRS) raster.Profile {
	if p.CRS.IsZero() {
		p.CRS = fallback
	}
	return p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return failure.IO("pipeline: write", eris.Wrapf(err, "write %s", path))
	}
	return nil
}

// export copies the final raster, its .prj sidecar and the SLD to dir.
func export(dir, rasterPath, sldPath string) (string, string, error) {
	const op = "pipeline: export"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", failure.IO(op, eris.Wrapf(err, "create %s", dir))
	}
	outRaster := filepath.Join(dir, filepath.Base(rasterPath))
	if err := copyFile(rasterPath, outRaster); err != nil {
		return "", "", failure.IO(op, err)
	}
	prj := raster.PrjPath(rasterPath)
	if _, err := os.Stat(prj); err == nil {
		if err := copyFile(prj, raster.PrjPath(outRaster)); err != nil {
			return "", "", failure.IO(op, err)
		}
	}
	outSLD := filepath.Join(dir, filepath.Base(sldPath))
	if err := copyFile(sldPath, outSLD); err != nil {
		return "", "", failure.IO(op, err)
	}
	return outRaster, outSLD, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "open %s", src)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "copy to %s", dst)
	}
	return eris.Wrapf(out.Close(), "close %s", dst)
}
