package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iitbhu2k25/Dss-muskan/internal/boundary"
)

var boundaryCmd = &cobra.Command{
	Use:   "boundary",
	Short: "Administrative boundary lookups",
}

var (
	boundaryLevel   string
	boundaryParents []int
	boundaryJSON    bool
)

var boundaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List administrative units of a level",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("boundary"); err != nil {
			return err
		}
		level, err := boundary.ParseLevel(boundaryLevel)
		if err != nil {
			return err
		}

		src, pool, err := initBoundaries(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		units, err := src.List(cmd.Context(), level, boundaryParents)
		if err != nil {
			return err
		}
		if boundaryJSON {
			return printJSON(cmd.OutOrStdout(), units)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tNAME\tPARENT")
		for _, u := range units {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", u.Code, u.Name, u.ParentCode)
		}
		return tw.Flush()
	},
}

func init() {
	boundaryListCmd.Flags().StringVar(&boundaryLevel, "level", "district", "state, district or subdistrict")
	boundaryListCmd.Flags().IntSliceVar(&boundaryParents, "parent", nil, "only units under these parent codes")
	boundaryListCmd.Flags().BoolVar(&boundaryJSON, "json", false, "print JSON")
	boundaryCmd.AddCommand(boundaryListCmd)
	rootCmd.AddCommand(boundaryCmd)
}
