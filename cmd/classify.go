package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/iitbhu2k25/Dss-muskan/internal/pipeline"
)

var (
	classifyWorkspace string
	classifyLayer     string
	classifyClasses   int
	classifyRamp      string
	classifyLabels    []string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Re-classify and restyle a published layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "classify")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Classify(ctx, pipeline.ClassifyRequest{
			Workspace: classifyWorkspace,
			Layer:     classifyLayer,
			Classes:   classifyClasses,
			Ramp:      classifyRamp,
			Labels:    classifyLabels,
		})
		if err != nil {
			return eris.Wrap(err, "classify")
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyWorkspace, "workspace", "", "GeoServer workspace (default geoserver.workspace)")
	f.StringVar(&classifyLayer, "layer", "", "published layer name (required)")
	f.IntVar(&classifyClasses, "classes", 0, "number of classes (default style.classes)")
	f.StringVar(&classifyRamp, "ramp", "", rampUsage())
	f.StringSliceVar(&classifyLabels, "labels", nil, "class labels, one per class")
	_ = classifyCmd.MarkFlagRequired("layer")
	rootCmd.AddCommand(classifyCmd)
}
