package main

import (
	"fmt"
	"strings"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/series"
	"github.com/2x3systems/rcmb/librcmb/valexpr"
	"github.com/spf13/cobra"
)

func newSeriesCmd(a *app) *cobra.Command {
	var min, max string

	cmd := &cobra.Command{
		Use:   "series [name]",
		Short: "List the available series, or the values of one series",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				names := series.Names()
				if a.format == "json" {
					return writeJSON(out, names)
				}
				fmt.Fprintln(out, strings.Join(names, " "))
				return nil
			}

			lo, err := valexpr.Eval(min)
			if err != nil {
				return err
			}
			hi, err := valexpr.Eval(max)
			if err != nil {
				return err
			}
			cat, err := series.Expand(args[0], lo, hi)
			if err != nil {
				return err
			}
			if a.format == "json" {
				return writeJSON(out, cat.Values())
			}
			for _, v := range cat.Values() {
				fmt.Fprintln(out, gorcmb.FormatValue(v, "", true))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&min, "min", "1", "smallest value listed")
	cmd.Flags().StringVar(&max, "max", "9.99", "largest value listed")
	return cmd
}
