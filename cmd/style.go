package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
	"github.com/iitbhu2k25/Dss-muskan/internal/report"
	"github.com/iitbhu2k25/Dss-muskan/internal/style"
)

var (
	styleRaster    string
	styleClasses   int
	styleRamp      string
	styleLabels    []string
	styleLayerName string
	styleOut       string
	styleReport    string
)

var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "Build an SLD style from a local raster",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("style"); err != nil {
			return err
		}

		r, err := raster.DefaultRegistry().Read(styleRaster)
		if err != nil {
			return err
		}
		classes := styleClasses
		if classes == 0 {
			classes = cfg.Style.Classes
		}
		ramp := styleRamp
		if ramp == "" {
			ramp = cfg.Style.Ramp
		}
		labels := styleLabels
		if labels == nil {
			labels = cfg.Style.Labels
		}
		layerName := styleLayerName
		if layerName == "" {
			layerName = cfg.Style.LayerName
		}

		scheme, err := style.Build(r, classes, ramp, labels)
		if err != nil {
			return eris.Wrap(err, "build style")
		}
		if styleReport != "" {
			if err := report.Write(styleReport, report.Summarize(layerName, r, scheme)); err != nil {
				return err
			}
		}

		if styleOut == "" || styleOut == "-" {
			sld, err := style.BuildSLD(scheme, layerName)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(sld)
			return err
		}
		if err := style.WriteSLD(styleOut, scheme, layerName); err != nil {
			return err
		}
		zap.L().Info("style written", zap.String("path", styleOut), zap.Int("classes", scheme.Len()))
		return nil
	},
}

func init() {
	f := styleCmd.Flags()
	f.StringVar(&styleRaster, "raster", "", "raster file to classify (required)")
	f.IntVar(&styleClasses, "classes", 0, "number of classes (default style.classes)")
	f.StringVar(&styleRamp, "ramp", "", rampUsage())
	f.StringSliceVar(&styleLabels, "labels", nil, "class labels, one per class")
	f.StringVar(&styleLayerName, "layer-name", "", "NamedLayer name in the SLD (default style.layer_name)")
	f.StringVarP(&styleOut, "out", "o", "", "output file (default stdout)")
	f.StringVar(&styleReport, "report", "", "also write class statistics to a .csv or .xlsx file")
	_ = styleCmd.MarkFlagRequired("raster")
	rootCmd.AddCommand(styleCmd)
}

// rampUsage is the help text shared by every --ramp flag.
func rampUsage() string {
	return "colour ramp, one of " + strings.Join(style.Ramps(), ", ") + " (default style.ramp)"
}
