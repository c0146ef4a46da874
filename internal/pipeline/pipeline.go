// Package pipeline runs the priority map workflow: resolve the factor
// layers, put them on a common grid, combine them by weight, veto by the
// constraint layer, clip to the study area, classify, and publish.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/boundary"
	"github.com/iitbhu2k25/Dss-muskan/internal/config"
	"github.com/iitbhu2k25/Dss-muskan/internal/fetcher"
	"github.com/iitbhu2k25/Dss-muskan/internal/geoproc"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
	"github.com/iitbhu2k25/Dss-muskan/internal/report"
	"github.com/iitbhu2k25/Dss-muskan/internal/style"
)

// Resolver maps a catalog layer name to a file path or URL.
type Resolver interface {
	Resolve(ctx context.Context, layerName string) (string, error)
}

// BoundarySource looks up administrative units by level and code.
type BoundarySource interface {
	Lookup(ctx context.Context, level boundary.Level, codes []int) (*boundary.Geometry, error)
}

// Publisher is the map server the final raster and its style go to.
// geoserver.Client satisfies it.
type Publisher interface {
	EnsureWorkspace(ctx context.Context, workspace string) error
	UploadCoverage(ctx context.Context, workspace, store, coverage, rasterPath string) error
	UploadStyle(ctx context.Context, workspace, name string, sld []byte) error
	ApplyStyle(ctx context.Context, workspace, layer, style string) error
	DownloadCoverage(ctx context.Context, workspace, layer, destPath string) error
}

// LayerInput is one weighted factor layer. Name is a catalog layer name, or
// a raster path or URL when it carries a raster file extension.
type LayerInput struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// BoundaryRef names the study area. Level and Codes select administrative
// units from the boundary database; otherwise Path (or boundary.default) is
// a shapefile, zipped shapefile or GeoJSON file, optionally filtered on
// Field.
type BoundaryRef struct {
	Path   string   `yaml:"path" json:"path,omitempty"`
	Field  string   `yaml:"field" json:"field,omitempty"`
	Values []string `yaml:"values" json:"values,omitempty"`
	Level  string   `yaml:"level" json:"level,omitempty"`
	Codes  []int    `yaml:"codes" json:"codes,omitempty"`
}

// Request is one priority map run. Zero fields fall back to configuration.
type Request struct {
	Layers        []LayerInput `yaml:"layers" json:"layers"`
	Constraint    string       `yaml:"constraint" json:"constraint"`
	Boundary      BoundaryRef  `yaml:"boundary" json:"boundary"`
	TargetCRS     string       `yaml:"crs" json:"crs,omitempty"`
	ResX          float64      `yaml:"res_x" json:"res_x,omitempty"`
	ResY          float64      `yaml:"res_y" json:"res_y,omitempty"`
	Classes       int          `yaml:"classes" json:"classes,omitempty"`
	Ramp          string       `yaml:"ramp" json:"ramp,omitempty"`
	Labels        []string     `yaml:"labels" json:"labels,omitempty"`
	Normalization string       `yaml:"normalization" json:"normalization,omitempty"`
	NoPublish     bool         `yaml:"no_publish" json:"no_publish,omitempty"`
	OutputDir     string       `yaml:"output_dir" json:"output_dir,omitempty"`
	ReportPath    string       `yaml:"report" json:"report,omitempty"`
}

// Result describes a completed run.
type Result struct {
	RunID      string           `json:"run_id"`
	Status     string           `json:"status"`
	Workspace  string           `json:"workspace,omitempty"`
	Store      string           `json:"store,omitempty"`
	Layer      string           `json:"layer_name"`
	Style      string           `json:"style"`
	Type       string           `json:"type"`
	Published  bool             `json:"published"`
	Grid       geoproc.GridSpec `json:"-"`
	Scheme     *style.Scheme    `json:"scheme"`
	Summary    *report.Summary  `json:"summary"`
	OutputPath string           `json:"output_path,omitempty"`
	StylePath  string           `json:"style_path,omitempty"`
}

// ClassifyRequest restyles a layer that is already published.
type ClassifyRequest struct {
	Workspace string   `yaml:"workspace" json:"workspace"`
	Layer     string   `yaml:"layer" json:"layer_name"`
	Classes   int      `yaml:"classes" json:"classes,omitempty"`
	Ramp      string   `yaml:"ramp" json:"ramp,omitempty"`
	Labels    []string `yaml:"labels" json:"labels,omitempty"`
}

// ClassifyResult is the style applied by Classify.
type ClassifyResult struct {
	Workspace string        `json:"workspace"`
	Layer     string        `json:"layer_name"`
	Style     string        `json:"style"`
	Scheme    *style.Scheme `json:"scheme"`
}

// Pipeline runs priority map requests. Collaborators may be nil when the
// requests routed to it do not need them.
type Pipeline struct {
	cfg        *config.Config
	resolver   Resolver
	boundaries BoundarySource
	publisher  Publisher
	fetch      *fetcher.Materializer
	rasters    *raster.Registry
}

// New creates a Pipeline with its collaborators.
func New(
	cfg *config.Config,
	resolver Resolver,
	boundaries BoundarySource,
	publisher Publisher,
	fetch *fetcher.Materializer,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		resolver:   resolver,
		boundaries: boundaries,
		publisher:  publisher,
		fetch:      fetch,
		rasters:    raster.DefaultRegistry(),
	}
}

// stage runs fn and logs its outcome and duration.
func stage(log *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()
	if err != nil {
		log.Error("pipeline: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return err
	}
	log.Info("pipeline: stage complete",
		zap.String("stage", name),
		zap.Int64("duration_ms", duration),
	)
	return nil
}
