package main

import (
	"fmt"
	"io"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type findCmd struct {
	*app
	searchFlags
	kind string
}

type findOutput struct {
	Target float64 `json:"target"`
	gorcmb.CombinationResult
}

func newFindCmd(a *app) *cobra.Command {
	fc := &findCmd{
		app: a,
	}
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find the simplest networks closest to one or more target values",
		Long: `Find the series/parallel networks whose value is closest to each target,
preferring fewer elements when equally close.

Unless --series-min / --series-max are given, a series is expanded over [target/1000, target*1000].
Without --tol, results are limited to [target/2, target*2].`,
		Args: cobra.NoArgs,
		RunE: fc.run,
	}
	cmd.Flags().StringVarP(&fc.kind, "kind", "k", "r", "component kind: r (resistor) or c (capacitor)")
	fc.register(cmd.Flags(), 1, 3)
	return cmd
}

func (fc *findCmd) run(cmd *cobra.Command, args []string) error {
	kind, err := gorcmb.ParseKind(fc.kind)
	if err != nil {
		return err
	}
	constraint, filter, err := fc.parseModes()
	if err != nil {
		return err
	}
	targets, err := fc.targets()
	if err != nil {
		return err
	}

	outs := make([]findOutput, len(targets))
	eg := errgroup.Group{}
	for i, target := range targets {
		i, target := i, target
		eg.Go(func() error {
			values, err := fc.values(target/1000, target*1000)
			if err != nil {
				return err
			}
			req := gorcmb.CombinationRequest{
				Kind:        kind,
				Values:      values,
				MinElements: fc.minElems,
				MaxElements: fc.maxElems,
				Constraint:  constraint,
				MaxDepth:    fc.maxDepth,
				Target:      target,
				Filter:      filter,
			}
			if fc.tolerance > 0 {
				req.TargetMin = target * (1 - fc.tolerance/100)
				req.TargetMax = target * (1 + fc.tolerance/100)
			}
			outs[i] = findOutput{
				Target:            target,
				CombinationResult: fc.backend.FindCombinations(req),
			}
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	unit := gorcmb.NewLeaf(kind, 1).Unit()
	switch fc.format {
	case "json":
		err = writeJSON(out, outs)
	case "tree":
		writeFindTrees(out, unit, outs)
	default:
		writeFindText(out, unit, outs)
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

func writeFindText(out io.Writer, unit string, outs []findOutput) {
	for _, res := range outs {
		fmt.Fprintf(out, "Target: %s\n", gorcmb.FormatValue(res.Target, unit, true))
		if res.Error != "" {
			fmt.Fprintf(out, "  *ERROR: %s\n", res.Error)
			continue
		}
		for _, comb := range res.Results {
			writeTextLine(out, comb.Value, unit, comb)
		}
	}
}

func writeFindTrees(out io.Writer, unit string, outs []findOutput) {
	for _, res := range outs {
		fmt.Fprintf(out, "Target: %s\n", gorcmb.FormatValue(res.Target, unit, true))
		if res.Error != "" {
			fmt.Fprintf(out, "  *ERROR: %s\n", res.Error)
			continue
		}
		opts := gorcmb.DefaultPrintOpts
		opts.Label = "  "
		for _, comb := range res.Results {
			comb.WriteAsString(out, opts)
		}
	}
}
