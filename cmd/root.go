package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dss",
	Short: "Multi-criteria priority map pipeline",
	Long:  "Combines weighted raster criteria on a common grid, vetoes by a constraint layer, clips to a study area, classifies the result and publishes it with its style to GeoServer.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
