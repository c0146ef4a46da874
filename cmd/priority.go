package main

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/pipeline"
)

var (
	priorityLayers     []string
	priorityConstraint string
	priorityBoundary   string
	priorityField      string
	priorityValues     []string
	priorityLevel      string
	priorityCodes      []int
	priorityCRS        string
	priorityResX       float64
	priorityResY       float64
	priorityClasses    int
	priorityRamp       string
	priorityLabels     []string
	priorityNormalize  string
	priorityOutputDir  string
	priorityNoPublish  bool
	priorityReport     string
)

var priorityCmd = &cobra.Command{
	Use:   "priority",
	Short: "Build, classify and publish a priority map",
	Example: `  dss priority --layer rainfall=0.4 --layer slope=0.6 --constraint protected_areas \
    --boundary basin.zip --output-dir out --report out/classes.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		layers, err := parseLayers(priorityLayers)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "priority")
		if err != nil {
			return err
		}
		defer env.Close()

		req := pipeline.Request{
			Layers:     layers,
			Constraint: priorityConstraint,
			Boundary: pipeline.BoundaryRef{
				Path:   priorityBoundary,
				Field:  priorityField,
				Values: priorityValues,
				Level:  priorityLevel,
				Codes:  priorityCodes,
			},
			TargetCRS:     priorityCRS,
			ResX:          priorityResX,
			ResY:          priorityResY,
			Classes:       priorityClasses,
			Ramp:          priorityRamp,
			Labels:        priorityLabels,
			Normalization: priorityNormalize,
			NoPublish:     priorityNoPublish,
			OutputDir:     priorityOutputDir,
			ReportPath:    priorityReport,
		}

		result, err := env.Pipeline.Run(ctx, req)
		if err != nil {
			return eris.Wrap(err, "priority map")
		}

		zap.L().Info("priority map complete",
			zap.String("layer", result.Layer),
			zap.String("style", result.Style),
			zap.Bool("published", result.Published),
		)
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	f := priorityCmd.Flags()
	f.StringArrayVar(&priorityLayers, "layer", nil, "factor layer as name=weight (repeatable, required)")
	f.StringVar(&priorityConstraint, "constraint", "", "constraint layer name or raster path (required)")
	f.StringVar(&priorityBoundary, "boundary", "", "study area shapefile, zipped shapefile or GeoJSON (default boundary.default)")
	f.StringVar(&priorityField, "boundary-field", "", "attribute used to filter boundary features")
	f.StringSliceVar(&priorityValues, "boundary-values", nil, "values of --boundary-field to keep")
	f.StringVar(&priorityLevel, "level", "", "administrative level to clip to: state, district or subdistrict")
	f.IntSliceVar(&priorityCodes, "codes", nil, "administrative unit codes for --level")
	f.StringVar(&priorityCRS, "crs", "", "output CRS, e.g. EPSG:32644 (default crs.target)")
	f.Float64Var(&priorityResX, "res-x", 0, "output pixel width in CRS units (default processing.res_x)")
	f.Float64Var(&priorityResY, "res-y", 0, "output pixel height in CRS units (default processing.res_y)")
	f.IntVar(&priorityClasses, "classes", 0, "number of style classes (default style.classes)")
	f.StringVar(&priorityRamp, "ramp", "", rampUsage())
	f.StringSliceVar(&priorityLabels, "labels", nil, "class labels, one per class")
	f.StringVar(&priorityNormalize, "normalize", "", "layer normalization: minmax or none (default processing.normalization)")
	f.StringVar(&priorityOutputDir, "output-dir", "", "copy the final raster and SLD here")
	f.BoolVar(&priorityNoPublish, "no-publish", false, "skip publishing to GeoServer")
	f.StringVar(&priorityReport, "report", "", "write class statistics to a .csv or .xlsx file")
	_ = priorityCmd.MarkFlagRequired("layer")
	_ = priorityCmd.MarkFlagRequired("constraint")
	rootCmd.AddCommand(priorityCmd)
}

// parseLayers parses "name=weight" flags. The last '=' separates the weight
// so names may contain '='.
func parseLayers(specs []string) ([]pipeline.LayerInput, error) {
	const op = "cmd: parse layers"
	layers := make([]pipeline.LayerInput, 0, len(specs))
	for _, s := range specs {
		i := strings.LastIndex(s, "=")
		if i <= 0 || i == len(s)-1 {
			return nil, failure.Validationf(op, "layer %q: want name=weight", s)
		}
		name := strings.TrimSpace(s[:i])
		w, err := strconv.ParseFloat(strings.TrimSpace(s[i+1:]), 64)
		if err != nil {
			return nil, failure.Validation(op, eris.Wrapf(err, "layer %q: weight", s))
		}
		layers = append(layers, pipeline.LayerInput{Name: name, Weight: w})
	}
	return layers, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
