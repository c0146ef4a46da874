package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Raster catalog maintenance",
}

var catalogMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close() //nolint:errcheck

		zap.L().Info("catalog migrated", zap.String("driver", cfg.Catalog.Driver))
		return nil
	},
}

var (
	addFileName string
	addWeight   float64
	addCategory string
)

var catalogAddCmd = &cobra.Command{
	Use:   "add <layer_name> <file_path>",
	Short: "Add or update a catalog entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close() //nolint:errcheck

		e := catalog.Entry{
			LayerName: args[0],
			FilePath:  args[1],
			FileName:  addFileName,
			Weight:    addWeight,
			Category:  addCategory,
		}
		if e.FileName == "" {
			e.FileName = filepath.Base(e.FilePath)
		}
		if err := cat.Put(cmd.Context(), e); err != nil {
			return err
		}
		zap.L().Info("catalog entry saved", zap.String("layer", e.LayerName))
		return nil
	},
}

var (
	listCategory string
	listLimit    int
	listJSON     bool
)

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close() //nolint:errcheck

		entries, err := cat.List(cmd.Context(), catalog.Filter{Category: listCategory, Limit: listLimit})
		if err != nil {
			return err
		}
		if listJSON {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		return printEntries(cmd, entries)
	},
}

var catalogResolveCmd = &cobra.Command{
	Use:   "resolve <layer_name>",
	Short: "Print the path a layer name resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close() //nolint:errcheck

		r := &catalog.Resolver{Catalog: cat, BaseDir: cfg.Catalog.BaseDir}
		path, err := r.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <entries.yaml>",
	Short: "Bulk load catalog entries from a YAML list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		entries, err := catalog.LoadEntries(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		cat, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer cat.Close() //nolint:errcheck

		n, err := cat.Import(cmd.Context(), entries)
		if err != nil {
			return err
		}
		zap.L().Info("catalog import complete", zap.Int64("rows", n), zap.Int("entries", len(entries)))
		return nil
	},
}

func init() {
	catalogAddCmd.Flags().StringVar(&addFileName, "file-name", "", "display file name (default base of file_path)")
	catalogAddCmd.Flags().Float64Var(&addWeight, "weight", 0, "default weight")
	catalogAddCmd.Flags().StringVar(&addCategory, "category", "", "suitability category")

	catalogListCmd.Flags().StringVar(&listCategory, "category", "", "only entries in this category")
	catalogListCmd.Flags().IntVar(&listLimit, "limit", 0, "max entries (0 = all)")
	catalogListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")

	catalogCmd.AddCommand(catalogMigrateCmd, catalogAddCmd, catalogListCmd, catalogResolveCmd, catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}

// openCatalog opens and migrates the configured catalog.
func openCatalog(cmd *cobra.Command) (catalog.Catalog, error) {
	if err := cfg.Validate("catalog"); err != nil {
		return nil, err
	}
	return initCatalog(cmd.Context())
}

func printEntries(cmd *cobra.Command, entries []catalog.Entry) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tCATEGORY\tWEIGHT\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%s\n", e.LayerName, e.Category, e.Weight, e.FilePath)
	}
	return tw.Flush()
}
