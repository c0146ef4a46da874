package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// useConfig installs a valid offline configuration as the global cfg.
func useConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := &config.Config{
		Catalog:    config.CatalogConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "catalog.db"), BaseDir: dir},
		Processing: config.ProcessingConfig{ScratchDir: filepath.Join(dir, "scratch"), ResX: 10, ResY: 10, Normalization: "none", Resampling: "bilinear"},
		CRS:        config.CRSConfig{Default: "EPSG:32644", Target: "EPSG:32644"},
		Style:      config.StyleConfig{Classes: 3, Ramp: "green_to_red", LayerName: "raster_layer"},
		GeoServer:  config.GeoServerConfig{URL: "http://127.0.0.1:1/geoserver", Workspace: "raster_work", Store: "stp_raster_store", MaxAttempts: 1},
		Batch:      config.BatchConfig{MaxConcurrentJobs: 2},
		Log:        config.LogConfig{Level: "error", Format: "json"},
	}
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}

// execute runs a command's RunE directly with a fresh context and captures
// its output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

// writeGrid writes a 4×4 ASCII grid at (500000, 2000000) with 10 m cells.
func writeGrid(t *testing.T, dir, name string, value func(col, row int) float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("ncols 4\nnrows 4\nxllcorner 500000\nyllcorner 2000000\ncellsize 10\n")
	for row := 0; row < 4; row++ {
		vals := make([]string, 4)
		for col := range vals {
			vals[col] = fmt.Sprintf("%g", value(col, row))
		}
		b.WriteString(strings.Join(vals, " ") + "\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeSquare(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "area.geojson")
	doc := `{"type": "Feature", "crs": {"type": "name", "properties": {"name": "EPSG:32644"}},
  "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[
  [500000, 2000000], [500040, 2000000], [500040, 2000040], [500000, 2000040], [500000, 2000000]]]}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}
