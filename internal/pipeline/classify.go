package pipeline

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
	"github.com/iitbhu2k25/Dss-muskan/internal/style"
)

// Classify downloads a published layer, derives a new class scheme from its
// values and applies it as the layer's default style. The downloaded copy
// is removed before returning.
func (p *Pipeline) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error) {
	const op = "pipeline: classify"
	if req.Layer == "" {
		return nil, failure.Validationf(op, "no layer name given")
	}
	if p.publisher == nil {
		return nil, failure.Publish(op, errNoPublisher)
	}
	ws := firstNonEmpty(req.Workspace, p.cfg.GeoServer.Workspace)
	classes := req.Classes
	if classes == 0 {
		classes = p.cfg.Style.Classes
	}
	ramp := firstNonEmpty(req.Ramp, p.cfg.Style.Ramp)
	labels := req.Labels
	if labels == nil {
		labels = p.cfg.Style.Labels
	}

	scratch, err := raster.NewScratch(p.cfg.Processing.ScratchDir)
	if err != nil {
		return nil, failure.IO(op, err)
	}
	id := runID(scratch)
	log := zap.L().With(zap.String("run_id", id), zap.String("layer", req.Layer))
	defer func() {
		if err := scratch.Cleanup(); err != nil {
			log.Warn("pipeline: scratch cleanup failed", zap.Error(err))
		}
	}()

	result := &ClassifyResult{Workspace: ws, Layer: req.Layer, Style: StyleName(id)}
	path := filepath.Join(scratch.Dir(), req.Layer+".asc")

	var ras *raster.Raster
	if err := stage(log, "download", func() error {
		if err := p.publisher.DownloadCoverage(ctx, ws, req.Layer, path); err != nil {
			return failure.Publish(op, err)
		}
		ras, err = p.rasters.Read(path)
		return err
	}); err != nil {
		return nil, err
	}

	var sld []byte
	if err := stage(log, "style", func() error {
		result.Scheme, err = style.Build(ras, classes, ramp, labels)
		if err != nil {
			return err
		}
		sld, err = style.BuildSLD(result.Scheme, p.cfg.Style.LayerName)
		return err
	}); err != nil {
		return nil, err
	}

	if err := stage(log, "publish", func() error {
		if err := p.publisher.UploadStyle(ctx, ws, result.Style, sld); err != nil {
			return failure.Publish(op, err)
		}
		if err := p.publisher.ApplyStyle(ctx, ws, req.Layer, result.Style); err != nil {
			return failure.Publish(op, err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	log.Info("pipeline: layer restyled", zap.String("style", result.Style), zap.Int("classes", result.Scheme.Len()))
	return result, nil
}
