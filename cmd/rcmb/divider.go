package main

import (
	"fmt"
	"io"
	"math"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/valexpr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type dividerCmd struct {
	*app
	searchFlags
	totalMin string
	totalMax string
	elemTol  float64 // percent
}

type dividerOutput struct {
	Target float64 `json:"target"`
	gorcmb.DividerResult
}

func newDividerCmd(a *app) *cobra.Command {
	dc := &dividerCmd{
		app: a,
	}
	cmd := &cobra.Command{
		Use:   "divider",
		Short: "Find the simplest resistor dividers closest to one or more target ratios",
		Long: `Find resistor dividers R1 (upper) and R2 (lower) whose ratio R2 / (R1 + R2) is closest
to each target, with R1 + R2 within [--total-min, --total-max].

--min limits the elements of the lower arm, --max the elements of both arms together.
With --elem-tol, each result also shows the ratio spread for elements of that tolerance.`,
		Args: cobra.NoArgs,
		RunE: dc.run,
	}
	cmd.Flags().StringVar(&dc.totalMin, "total-min", "10k", "min total resistance")
	cmd.Flags().StringVar(&dc.totalMax, "total-max", "100k", "max total resistance")
	cmd.Flags().Float64Var(&dc.elemTol, "elem-tol", 0, "element tolerance in percent")
	dc.register(cmd.Flags(), 1, 4)
	return cmd
}

func (dc *dividerCmd) run(cmd *cobra.Command, args []string) error {
	constraint, filter, err := dc.parseModes()
	if err != nil {
		return err
	}
	targets, err := dc.targets()
	if err != nil {
		return err
	}
	totalMin, err := valexpr.Eval(dc.totalMin)
	if err != nil {
		return err
	}
	totalMax, err := valexpr.Eval(dc.totalMax)
	if err != nil {
		return err
	}
	values, err := dc.values(totalMin/100, totalMax)
	if err != nil {
		return err
	}

	outs := make([]dividerOutput, len(targets))
	eg := errgroup.Group{}
	for i, target := range targets {
		i, target := i, target
		eg.Go(func() error {
			req := gorcmb.DividerRequest{
				Values:      values,
				MinElements: dc.minElems,
				MaxElements: dc.maxElems,
				Constraint:  constraint,
				MaxDepth:    dc.maxDepth,
				TotalMin:    totalMin,
				TotalMax:    totalMax,
				Target:      target,
				Filter:      filter,
			}
			if tol := dc.tolerance; tol > 0 {
				req.TargetMin = math.Max(0, target*(1-tol/100))
				req.TargetMax = math.Min(1, target*(1+tol/100))
			}
			outs[i] = dividerOutput{
				Target:        target,
				DividerResult: dc.backend.FindDividers(req),
			}
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch dc.format {
	case "json":
		err = writeJSON(out, outs)
	case "tree":
		dc.writeTrees(out, outs)
	default:
		dc.writeText(out, outs)
	}
	if err != nil {
		return err
	}

	msgs := make([]string, len(outs))
	for i := range outs {
		msgs[i] = outs[i].Error
	}
	return firstError(msgs...)
}

func (dc *dividerCmd) writeText(out io.Writer, outs []dividerOutput) {
	for _, res := range outs {
		fmt.Fprintf(out, "Target: %.6g\n", res.Target)
		if res.Error != "" {
			fmt.Fprintf(out, "  *ERROR: %s\n", res.Error)
			continue
		}
		for _, div := range res.Results {
			fmt.Fprintf(out, "  %.6g (R1 + R2 = %s)", div.Ratio, gorcmb.FormatValue(div.Total(), "Ω", true))
			if dc.elemTol > 0 {
				lo, _, hi := div.RatioRange(dc.elemTol / 100)
				fmt.Fprintf(out, " [%.6g, %.6g]", lo, hi)
			}
			fmt.Fprintln(out)
			for _, arm := range []struct {
				name  string
				combs []*gorcmb.Combination
			}{
				{"R1", div.Uppers},
				{"R2", div.Lowers},
			} {
				for _, comb := range arm.combs {
					fmt.Fprintf(out, "    %s:", arm.name)
					writeTextLine(out, comb.Value, "Ω", comb)
				}
			}
		}
	}
}

func (dc *dividerCmd) writeTrees(out io.Writer, outs []dividerOutput) {
	opts := gorcmb.DefaultPrintOpts
	opts.Label = "  "
	for _, res := range outs {
		fmt.Fprintf(out, "Target: %.6g\n", res.Target)
		if res.Error != "" {
			fmt.Fprintf(out, "  *ERROR: %s\n", res.Error)
			continue
		}
		for _, div := range res.Results {
			div.WriteAsString(out, opts)
		}
	}
}
