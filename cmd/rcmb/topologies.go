package main

import (
	"fmt"
	"strconv"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/topology"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type topologyInfo struct {
	Shape    string `json:"shape"`
	Parallel bool   `json:"parallel"`
	Depth    int    `json:"depth"`
	Hash     uint32 `json:"hash"`
}

func newTopologiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "topologies [elements]",
		Short: "Count the network shapes per element count, or list the shapes of one count",
		Long: `Without an argument, prints the number of distinct series/parallel shapes
for each element count a search may use.  With an element count, lists those shapes,
each leaf drawn as 'o', series as '--' and parallel as '//'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				counts := make([]uint64, 0, gorcmb.MaxCombinationElements)
				for n := 1; n <= gorcmb.MaxCombinationElements; n++ {
					counts = append(counts, topology.ShapeTotal(n))
				}
				if a.format == "json" {
					return writeJSON(out, counts)
				}
				for i, count := range counts {
					fmt.Fprintf(out, "%3d %12d\n", i+1, count)
				}
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > gorcmb.MaxCombinationElements {
				return errors.Wrapf(gorcmb.ErrParameterOutOfRange, "element count %q", args[0])
			}

			roots := topology.NewCatalog().Enumerate(n)
			infos := make([]topologyInfo, len(roots))
			for i, root := range roots {
				infos[i] = topologyInfo{
					Shape:    root.String(),
					Parallel: root.Parallel,
					Depth:    root.Depth,
					Hash:     root.Hash,
				}
			}
			if a.format == "json" {
				return writeJSON(out, infos)
			}
			for _, info := range infos {
				fmt.Fprintf(out, "%08x  depth %d  %s\n", info.Hash, info.Depth, info.Shape)
			}
			return nil
		},
	}
}
